package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lekhpal/landchain/internal/users"
)

// RequireAuth rejects requests without a valid bearer token, and loads
// the token's account into the gin context.
func RequireAuth(m *Manager, store users.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"details": "Authorization header missing or malformed",
			})
			return
		}

		claims, err := m.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authorized, token invalid",
			})
			return
		}

		u, err := store.GetByID(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set(users.ContextKeyUser, u)
		c.Next()
	}
}

// RequireAdmin rejects authenticated requests whose account does not
// hold the application admin role. This is the app-level gate; the
// on-chain contract-admin check is separate and happens per action.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := users.CurrentUser(c)
		if u == nil || u.Role != users.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied: Admins only",
			})
			return
		}
		c.Next()
	}
}
