package landrequest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lekhpal/landchain/internal/adminops"
	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/users"
	"github.com/lekhpal/landchain/internal/validation"
)

// Handler exposes the land request queue over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the land request handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the land request routes on the given group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/submit", h.Submit)
	r.GET("/my-requests", h.MyRequests)
	r.GET("/pending", h.Pending)
	r.POST("/approve", h.Approve)
	r.POST("/reject", h.Reject)
}

type submitBody struct {
	Khatian string `json:"khatian"`
	State   string `json:"state"`
	City    string `json:"city"`
	Ward    string `json:"ward"`
	Area    int64  `json:"area"`
}

// Submit handles POST /submit.
func (h *Handler) Submit(c *gin.Context) {
	user := users.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	errs := validation.Validate(
		validation.Required("khatian", body.Khatian),
		validation.Required("state", body.State),
		validation.Required("city", body.City),
		validation.Required("ward", body.Ward),
	)
	if body.Area <= 0 {
		errs = append(errs, validation.ValidationError{Field: "area", Message: "must be a positive integer"})
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required", "errors": errs})
		return
	}

	req, err := h.service.Submit(c.Request.Context(), user.ID, SubmitRequest{
		Khatian: validation.SanitizeString(body.Khatian, validation.MaxStringLength),
		State:   validation.SanitizeString(body.State, validation.MaxStringLength),
		City:    validation.SanitizeString(body.City, validation.MaxStringLength),
		Ward:    validation.SanitizeString(body.Ward, validation.MaxStringLength),
		Area:    body.Area,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Land registration request submitted successfully",
		"requestId": req.ID,
		"status":    req.Status,
	})
}

// MyRequests handles GET /my-requests.
func (h *Handler) MyRequests(c *gin.Context) {
	user := users.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	requests, err := h.service.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requests": requests})
}

// Pending handles GET /pending.
func (h *Handler) Pending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(requests), "requests": requests})
}

type approveBody struct {
	RequestID string `json:"requestId"`
	Valuation string `json:"valuation"`
}

// Approve handles POST /approve.
func (h *Handler) Approve(c *gin.Context) {
	var body approveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	errs := validation.Validate(
		validation.Required("requestId", body.RequestID),
		validation.Required("valuation", body.Valuation),
		validation.ValidEtherAmount("valuation", body.Valuation),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Request ID and valuation are required", "errors": errs})
		return
	}

	outcome, err := h.service.Approve(c.Request.Context(), body.RequestID, body.Valuation)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result := outcome.Result
	switch result.State {
	case chain.StateConfirmed:
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Land request approved and registered on blockchain",
			"txHash":      result.TxHash,
			"blockNumber": result.BlockNumber,
			"gasUsed":     result.GasUsed,
		})
	case chain.StateDropped:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Transaction failed - dropped from mempool",
			"txHash":  result.TxHash,
		})
	case chain.StateTimedOut:
		c.JSON(http.StatusAccepted, gin.H{
			"success": "pending",
			"message": "Transaction is pending confirmation",
			"txHash":  result.TxHash,
		})
	case chain.StateReverted:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Transaction failed on blockchain",
			"txHash":  result.TxHash,
		})
	}
}

type rejectBody struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason"`
}

// Reject handles POST /reject.
func (h *Handler) Reject(c *gin.Context) {
	var body rejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	errs := validation.Validate(
		validation.Required("requestId", body.RequestID),
		validation.Required("reason", body.Reason),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Request ID and reason are required", "errors": errs})
		return
	}

	req, err := h.service.Reject(c.Request.Context(), body.RequestID,
		validation.SanitizeString(body.Reason, validation.MaxStringLength))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Land request rejected", "requestId": req.ID})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	log := logging.L(c.Request.Context())

	var callErr *chain.CallError
	switch {
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
	case errors.Is(err, ErrRequestNotPending):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Request is not pending"})
	case errors.Is(err, ErrNoWallet):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User wallet not initialized"})
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
	case errors.Is(err, adminops.ErrNotChainAdmin):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Only admin can perform this action"})
	case errors.Is(err, adminops.ErrInvalidParams):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid parameters"})
	case errors.Is(err, adminops.ErrNoFunds):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Backend wallet has no ETH. Cannot process request."})
	case errors.As(err, &callErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Transaction would fail. Check land details.",
			"error":   callErr.Reason,
		})
	default:
		log.Error("land request operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}
