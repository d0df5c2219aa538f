package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/validation"
)

// TokenIssuer mints bearer tokens for authenticated accounts.
// Implemented by the auth manager; an interface here avoids an import
// cycle between the two packages.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// Handler provides HTTP endpoints for account management.
type Handler struct {
	service *Service
	tokens  TokenIssuer
}

// NewHandler creates a new users handler.
func NewHandler(service *Service, tokens TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// Signup handles POST /api/users/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if errs := validation.Validate(
		validation.Required("name", req.Name),
		validation.Required("contactNo", req.ContactNo),
		validation.Required("email", req.Email),
		validation.Required("password", req.Password),
		validation.Required("pinCode", req.PinCode),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required.", "details": errs})
		return
	}

	u, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists."})
			return
		}
		logging.L(c.Request.Context()).Error("signup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		logging.L(c.Request.Context()).Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"_id":       u.ID,
		"name":      u.Name,
		"contactNo": u.ContactNo,
		"email":     u.Email,
		"pinCode":   u.PinCode,
		"token":     token,
	})
}

// Login handles POST /api/users/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email"})
			return
		}
		if errors.Is(err, ErrBadPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password"})
			return
		}
		logging.L(c.Request.Context()).Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		logging.L(c.Request.Context()).Error("token issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"_id":       u.ID,
		"name":      u.Name,
		"contactNo": u.ContactNo,
		"email":     u.Email,
		"pinCode":   u.PinCode,
		"role":      u.Role,
		"token":     token,
	})
}

// Me handles GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	u := CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"_id":       u.ID,
		"name":      u.Name,
		"contactNo": u.ContactNo,
		"email":     u.Email,
		"pinCode":   u.PinCode,
		"role":      u.Role,
	})
}

// UpdateProfile handles PATCH /api/users/update
func (h *Handler) UpdateProfile(c *gin.Context) {
	u := CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), u.ID, req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		if errors.Is(err, ErrBadWalletAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid wallet address"})
			return
		}
		logging.L(c.Request.Context()).Error("profile update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ContextKeyUser is the gin context key holding the authenticated user.
const ContextKeyUser = "authUser"

// CurrentUser returns the authenticated user set by the auth
// middleware, or nil.
func CurrentUser(c *gin.Context) *User {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil
	}
	u, ok := v.(*User)
	if !ok {
		return nil
	}
	return u
}
