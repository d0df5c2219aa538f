// Package landrequest implements the citizen-facing land registration
// queue: users file requests, the chain admin approves them (which
// registers the land on-chain) or rejects them with a reason.
package landrequest

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRequestNotFound means no request exists with the given id.
	ErrRequestNotFound = errors.New("landrequest: request not found")

	// ErrRequestNotPending means the request already left the pending
	// state. Guarded transitions return this on a lost race too.
	ErrRequestNotPending = errors.New("landrequest: request is not pending")
)

// Request statuses. A request leaves pending exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// DroppedReason is recorded when the registration transaction is
// evicted from the mempool during approval.
const DroppedReason = "transaction dropped"

// LandRequest is one citizen registration request. The wallet address
// is snapshotted at submission time so a later profile change cannot
// redirect the on-chain registration.
type LandRequest struct {
	ID                string    `json:"_id"`
	UserID            string    `json:"userId"`
	UserWalletAddress string    `json:"userWalletAddress"`
	Khatian           string    `json:"khatian"`
	State             string    `json:"state"`
	City              string    `json:"city"`
	Ward              string    `json:"ward"`
	AreaInUnits       int64     `json:"areaInUnits"`
	Status            string    `json:"status"`
	RejectionReason   *string   `json:"rejectionReason"`
	TxHash            *string   `json:"txHash"`
	LandID            *int64    `json:"landId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Store persists land requests. Approve and Reject are conditional on
// the request still being pending; implementations return
// ErrRequestNotPending when the guard fails.
type Store interface {
	Create(ctx context.Context, req *LandRequest) error
	Get(ctx context.Context, id string) (*LandRequest, error)
	// ListByUser returns the user's requests newest first.
	ListByUser(ctx context.Context, userID string) ([]*LandRequest, error)
	// ListPending returns all pending requests oldest first.
	ListPending(ctx context.Context) ([]*LandRequest, error)
	// Approve transitions pending → approved, recording the tx hash and
	// the land id when the registration event yielded one.
	Approve(ctx context.Context, id, txHash string, landID *int64) error
	// Reject transitions pending → rejected with a reason.
	Reject(ctx context.Context, id, reason string) error
}
