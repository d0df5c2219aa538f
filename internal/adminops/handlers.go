package adminops

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/validation"
)

// Handler exposes the admin blockchain operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the blockchain operations handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the blockchain routes on the given group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/register-land", h.RegisterLand)
	r.POST("/set-valuation", h.SetValuation)
	r.POST("/approve-deal", h.ApproveDeal)
	r.GET("/check-admin", h.CheckAdmin)
	r.GET("/pending-deals", h.PendingDeals)
	r.GET("/land/:id", h.LandDetails)
	r.GET("/recent-activity", h.RecentActivity)
}

type registerLandBody struct {
	OwnerAddress string `json:"ownerAddress"`
	Khatian      string `json:"khatian"`
	State        string `json:"state"`
	City         string `json:"city"`
	Ward         string `json:"ward"`
	Area         int64  `json:"area"`
	Valuation    string `json:"valuation"`
}

// RegisterLand handles POST /register-land.
func (h *Handler) RegisterLand(c *gin.Context) {
	var body registerLandBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	errs := validation.Validate(
		validation.Required("ownerAddress", body.OwnerAddress),
		validation.Required("khatian", body.Khatian),
		validation.Required("state", body.State),
		validation.Required("city", body.City),
		validation.Required("ward", body.Ward),
		validation.Required("valuation", body.Valuation),
		validation.ValidAddress("ownerAddress", body.OwnerAddress),
		validation.ValidEtherAmount("valuation", body.Valuation),
	)
	if body.Area <= 0 {
		errs = append(errs, validation.ValidationError{Field: "area", Message: "must be a positive integer"})
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields", "errors": errs})
		return
	}

	result, err := h.service.RegisterLand(c.Request.Context(), RegisterLandRequest{
		OwnerAddress: body.OwnerAddress,
		Khatian:      validation.SanitizeString(body.Khatian, validation.MaxStringLength),
		State:        validation.SanitizeString(body.State, validation.MaxStringLength),
		City:         validation.SanitizeString(body.City, validation.MaxStringLength),
		Ward:         validation.SanitizeString(body.Ward, validation.MaxStringLength),
		Area:         body.Area,
		Valuation:    body.Valuation,
	})
	if err != nil {
		h.writeError(c, "register land", err)
		return
	}
	h.writeResult(c, result, "Land registered successfully!")
}

type setValuationBody struct {
	LandID    int64  `json:"landId"`
	Valuation string `json:"valuation"`
}

// SetValuation handles POST /set-valuation.
func (h *Handler) SetValuation(c *gin.Context) {
	var body setValuationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	errs := validation.Validate(
		validation.Required("valuation", body.Valuation),
		validation.ValidEtherAmount("valuation", body.Valuation),
	)
	if body.LandID <= 0 {
		errs = append(errs, validation.ValidationError{Field: "landId", Message: "must be a positive integer"})
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields", "errors": errs})
		return
	}

	result, err := h.service.SetValuation(c.Request.Context(), body.LandID, body.Valuation)
	if err != nil {
		h.writeError(c, "set valuation", err)
		return
	}
	h.writeResult(c, result, "Valuation updated successfully!")
}

type approveDealBody struct {
	DealID int64 `json:"dealId"`
}

// ApproveDeal handles POST /approve-deal.
func (h *Handler) ApproveDeal(c *gin.Context) {
	var body approveDealBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if body.DealID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields", "errors": validation.ValidationErrors{
			{Field: "dealId", Message: "must be a positive integer"},
		}})
		return
	}

	result, err := h.service.ApproveDeal(c.Request.Context(), body.DealID)
	if err != nil {
		h.writeError(c, "approve deal", err)
		return
	}
	h.writeResult(c, result, "Deal approved successfully!")
}

// CheckAdmin handles GET /check-admin.
func (h *Handler) CheckAdmin(c *gin.Context) {
	status, err := h.service.CheckAdmin(c.Request.Context())
	if err != nil {
		h.writeError(c, "check admin", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// PendingDeals handles GET /pending-deals.
func (h *Handler) PendingDeals(c *gin.Context) {
	deals, err := h.service.PendingDeals(c.Request.Context())
	if err != nil {
		h.writeError(c, "pending deals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deals": deals})
}

// LandDetails handles GET /land/:id.
func (h *Handler) LandDetails(c *gin.Context) {
	id, ok := new(big.Int).SetString(c.Param("id"), 10)
	if !ok || id.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid land id"})
		return
	}
	land, err := h.service.LandDetails(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "land details", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "land": land})
}

// RecentActivity handles GET /recent-activity.
func (h *Handler) RecentActivity(c *gin.Context) {
	entries, err := h.service.RecentActivity(c.Request.Context())
	if err != nil {
		h.writeError(c, "recent activity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activity": entries})
}

// writeResult maps a terminal transaction state to its HTTP shape.
func (h *Handler) writeResult(c *gin.Context, result *Result, confirmedMsg string) {
	switch result.State {
	case chain.StateConfirmed:
		resp := gin.H{
			"success":         true,
			"message":         confirmedMsg,
			"transactionHash": result.TxHash,
			"blockNumber":     result.BlockNumber,
		}
		if result.LandID != nil {
			resp["landId"] = result.LandID.String()
		}
		c.JSON(http.StatusOK, resp)
	case chain.StateReverted:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":         false,
			"message":         "Transaction failed on blockchain",
			"transactionHash": result.TxHash,
		})
	case chain.StateDropped:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":      false,
			"message":      "Transaction not found. It may have been dropped from the mempool.",
			"txHash":       result.TxHash,
			"etherscanUrl": result.ExplorerURL,
		})
	case chain.StateTimedOut:
		// The transaction is still live on the network; the client can
		// follow it on the explorer.
		c.JSON(http.StatusAccepted, gin.H{
			"success":      "pending",
			"message":      "Transaction submitted but confirmation timed out. Check the explorer for status.",
			"txHash":       result.TxHash,
			"etherscanUrl": result.ExplorerURL,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Unknown transaction state"})
	}
}

// writeError maps pre-flight and infrastructure errors.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	log := logging.L(c.Request.Context())

	var callErr *chain.CallError
	switch {
	case errors.Is(err, ErrInvalidParams):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid parameters"})
	case errors.Is(err, ErrNotChainAdmin):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Only the contract admin can perform this action"})
	case errors.Is(err, ErrNoFunds):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Backend wallet has no ETH. Fund the wallet to submit transactions."})
	case errors.As(err, &callErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Transaction would fail. Check contract requirements.",
			"error":   callErr.Reason,
		})
	case errors.Is(err, chain.ErrRemoteUnavailable):
		log.Error("rpc unavailable", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Blockchain node unavailable"})
	default:
		log.Error("blockchain operation failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}
