package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhpal/landchain/internal/users"
)

func setupRouter(t *testing.T, store users.Store, m *Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(m, store), func(c *gin.Context) {
		u := users.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	r.GET("/admin", RequireAuth(m, store), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func seedUser(t *testing.T, store users.Store, role users.Role) *users.User {
	t.Helper()
	u := &users.User{ID: "usr_" + string(role), Email: string(role) + "@x.com", Role: role}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestRequireAuthMissingHeader(t *testing.T) {
	r := setupRouter(t, users.NewMemoryStore(), NewManager("s"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthValidToken(t *testing.T) {
	store := users.NewMemoryStore()
	m := NewManager("s")
	u := seedUser(t, store, users.RoleUser)
	token, err := m.Issue(u.ID, u.Email)
	require.NoError(t, err)

	r := setupRouter(t, store, m)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthUnknownUser(t *testing.T) {
	m := NewManager("s")
	token, err := m.Issue("usr_ghost", "ghost@x.com")
	require.NoError(t, err)

	r := setupRouter(t, users.NewMemoryStore(), m)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	store := users.NewMemoryStore()
	m := NewManager("s")
	admin := seedUser(t, store, users.RoleAdmin)
	regular := seedUser(t, store, users.RoleUser)
	r := setupRouter(t, store, m)

	adminToken, _ := m.Issue(admin.ID, admin.Email)
	userToken, _ := m.Issue(regular.ID, regular.Email)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
