package marketplace

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/users"
	"github.com/lekhpal/landchain/internal/validation"
)

// Handler exposes the marketplace over HTTP. Admin-only routes are
// mounted separately so the role gate can wrap them.
type Handler struct {
	service *Service
}

// NewHandler creates the marketplace handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the seller and public routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/listings", h.ApprovedListings)
	r.POST("/listings", h.SubmitListing)
	r.GET("/my-listings", h.MyListings)
}

// RegisterAdmin mounts the review routes; the caller wraps the group
// with the application-admin gate.
func (h *Handler) RegisterAdmin(r gin.IRoutes) {
	r.GET("/pending-listings", h.PendingListings)
	r.POST("/listings/status", h.UpdateListingStatus)
}

type submitListingBody struct {
	LandID   int64  `json:"landId"`
	PriceEth string `json:"priceEth"`
}

// SubmitListing handles POST /listings.
func (h *Handler) SubmitListing(c *gin.Context) {
	user := users.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	var body submitListingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	errs := validation.Validate(
		validation.Required("priceEth", body.PriceEth),
		validation.ValidEtherAmount("priceEth", body.PriceEth),
	)
	if body.LandID <= 0 {
		errs = append(errs, validation.ValidationError{Field: "landId", Message: "must be a positive integer"})
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "landId and priceEth are required", "errors": errs})
		return
	}

	listing, err := h.service.Submit(c.Request.Context(), user.ID, body.LandID, body.PriceEth)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Listing submitted for approval",
		"listing": listing,
	})
}

// ApprovedListings handles GET /listings.
func (h *Handler) ApprovedListings(c *gin.Context) {
	listings, err := h.service.Approved(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

// MyListings handles GET /my-listings.
func (h *Handler) MyListings(c *gin.Context) {
	user := users.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	listings, err := h.service.Mine(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

// PendingListings handles GET /pending-listings.
func (h *Handler) PendingListings(c *gin.Context) {
	listings, err := h.service.Pending(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

type updateStatusBody struct {
	ListingID string `json:"listingId"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// UpdateListingStatus handles POST /listings/status.
func (h *Handler) UpdateListingStatus(c *gin.Context) {
	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if body.Status != StatusApproved && body.Status != StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Status must be approved or rejected"})
		return
	}
	if body.ListingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "listingId is required"})
		return
	}

	listing, err := h.service.SetStatus(c.Request.Context(), body.ListingID, body.Status,
		validation.SanitizeString(body.Reason, validation.MaxStringLength))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listing": listing})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Listing not found"})
	case errors.Is(err, ErrListingExists):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A listing already exists for this land"})
	case errors.Is(err, ErrListingNotPending):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Listing is not pending"})
	case errors.Is(err, ErrSellerNotApproved):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Seller approval required before listing"})
	case errors.Is(err, ErrBadPrice):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "priceEth must be a decimal ETH amount"})
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
	default:
		logging.L(c.Request.Context()).Error("marketplace operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}
