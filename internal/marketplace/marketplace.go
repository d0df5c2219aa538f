// Package marketplace manages sale listings: approved sellers list a
// registered land at a price, and an application admin approves or
// rejects the listing before it becomes publicly visible.
package marketplace

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrListingNotFound means no listing exists with the given id.
	ErrListingNotFound = errors.New("marketplace: listing not found")

	// ErrListingExists means the land already has a live listing.
	ErrListingExists = errors.New("marketplace: listing already exists for this land")

	// ErrListingNotPending means the listing already left the pending
	// state. Guarded transitions return this on a lost race too.
	ErrListingNotPending = errors.New("marketplace: listing is not pending")
)

// Listing statuses. Pending and approved listings block new listings
// for the same land.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// SaleListing is one land sale offer. Price is stored in wei as a
// decimal string so it survives JSON round-trips losslessly.
type SaleListing struct {
	ID              string    `json:"_id"`
	UserID          string    `json:"userId"`
	LandID          int64     `json:"landId"`
	PriceWei        string    `json:"priceWei"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store persists sale listings. Create enforces at most one listing
// per land in {pending, approved}; UpdateStatus is conditional on the
// listing still being pending.
type Store interface {
	Create(ctx context.Context, listing *SaleListing) error
	Get(ctx context.Context, id string) (*SaleListing, error)
	// ListApproved returns approved listings newest first.
	ListApproved(ctx context.Context) ([]*SaleListing, error)
	// ListByUser returns the user's listings newest first.
	ListByUser(ctx context.Context, userID string) ([]*SaleListing, error)
	// ListPending returns pending listings newest first.
	ListPending(ctx context.Context) ([]*SaleListing, error)
	// UpdateStatus transitions pending → approved|rejected.
	UpdateStatus(ctx context.Context, id, status string, reason *string) error
}
