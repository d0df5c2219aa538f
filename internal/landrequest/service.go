package landrequest

import (
	"context"
	"errors"

	"github.com/lekhpal/landchain/internal/adminops"
	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/idgen"
	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/metrics"
	"github.com/lekhpal/landchain/internal/users"
)

// ErrNoWallet means the submitting user has no wallet address on file.
var ErrNoWallet = errors.New("landrequest: user wallet not initialized")

// Registrar runs the admin write pipeline for approvals and answers
// chain-admin checks. *adminops.Service satisfies it.
type Registrar interface {
	RegisterLand(ctx context.Context, req adminops.RegisterLandRequest) (*adminops.Result, error)
	CheckAdmin(ctx context.Context) (*adminops.AdminStatus, error)
}

// Service coordinates the request queue with the chain pipeline.
type Service struct {
	store     Store
	userStore users.Store
	registrar Registrar
}

// NewService creates the land request service.
func NewService(store Store, userStore users.Store, registrar Registrar) *Service {
	return &Service{store: store, userStore: userStore, registrar: registrar}
}

// SubmitRequest carries a citizen's registration submission.
type SubmitRequest struct {
	Khatian string
	State   string
	City    string
	Ward    string
	Area    int64
}

// Submit files a new pending request, snapshotting the user's wallet.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*LandRequest, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.WalletAddress == "" {
		return nil, ErrNoWallet
	}

	lr := &LandRequest{
		ID:                idgen.WithPrefix("lreq_"),
		UserID:            user.ID,
		UserWalletAddress: user.WalletAddress,
		Khatian:           req.Khatian,
		State:             req.State,
		City:              req.City,
		Ward:              req.Ward,
		AreaInUnits:       req.Area,
		Status:            StatusPending,
	}
	if err := s.store.Create(ctx, lr); err != nil {
		return nil, err
	}
	metrics.LandRequestsTotal.WithLabelValues(StatusPending).Inc()
	return lr, nil
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*LandRequest, error) {
	return s.store.ListByUser(ctx, userID)
}

// Requester is the submitting user's contact snapshot, attached to
// pending queue entries for the reviewing admin.
type Requester struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	ContactNo string `json:"contactNo"`
}

// PendingRequest is a queue entry enriched with requester details.
type PendingRequest struct {
	*LandRequest
	Requester *Requester `json:"requester,omitempty"`
}

// ListPending returns the review queue, oldest first. Only the chain
// admin may view it.
func (s *Service) ListPending(ctx context.Context) ([]*PendingRequest, error) {
	if err := s.requireChainAdmin(ctx); err != nil {
		return nil, err
	}

	requests, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*PendingRequest, 0, len(requests))
	for _, req := range requests {
		entry := &PendingRequest{LandRequest: req}
		// Missing users (deleted accounts) are tolerated.
		if user, err := s.userStore.GetByID(ctx, req.UserID); err == nil {
			entry.Requester = &Requester{Name: user.Name, Email: user.Email, ContactNo: user.ContactNo}
		}
		out = append(out, entry)
	}
	return out, nil
}

// ApprovalOutcome pairs the submitted transaction's terminal state
// with the request it settles. Result is nil when a pre-flight check
// failed and nothing was broadcast.
type ApprovalOutcome struct {
	Request *LandRequest
	Result  *adminops.Result
}

// Approve registers the requested land on-chain with the admin-chosen
// valuation, then reconciles the stored request with the transaction's
// terminal state. The reconciliation is deliberately asymmetric: a
// dropped transaction rejects the request (resubmittable), a timed-out
// or reverted one leaves it pending for retry.
func (s *Service) Approve(ctx context.Context, requestID, valuation string) (*ApprovalOutcome, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrRequestNotPending
	}

	result, err := s.registrar.RegisterLand(ctx, adminops.RegisterLandRequest{
		OwnerAddress: req.UserWalletAddress,
		Khatian:      req.Khatian,
		State:        req.State,
		City:         req.City,
		Ward:         req.Ward,
		Area:         req.AreaInUnits,
		Valuation:    valuation,
	})
	if err != nil {
		return nil, err
	}

	log := logging.L(ctx).With("request_id", requestID, "tx_hash", result.TxHash)

	switch result.State {
	case chain.StateConfirmed:
		var landID *int64
		if result.LandID != nil && result.LandID.IsInt64() {
			v := result.LandID.Int64()
			landID = &v
		}
		if err := s.store.Approve(ctx, requestID, result.TxHash, landID); err != nil {
			return nil, err
		}
		metrics.LandRequestsTotal.WithLabelValues(StatusApproved).Inc()
	case chain.StateDropped:
		if err := s.store.Reject(ctx, requestID, DroppedReason); err != nil {
			return nil, err
		}
		metrics.LandRequestsTotal.WithLabelValues(StatusRejected).Inc()
	case chain.StateTimedOut:
		log.Info("confirmation timed out, request left pending")
	case chain.StateReverted:
		log.Warn("registration reverted, request left pending")
	}

	updated, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &ApprovalOutcome{Request: updated, Result: result}, nil
}

// Reject marks a pending request rejected with the admin's reason.
func (s *Service) Reject(ctx context.Context, requestID, reason string) (*LandRequest, error) {
	if err := s.requireChainAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.store.Reject(ctx, requestID, reason); err != nil {
		return nil, err
	}
	metrics.LandRequestsTotal.WithLabelValues(StatusRejected).Inc()
	return s.store.Get(ctx, requestID)
}

func (s *Service) requireChainAdmin(ctx context.Context) error {
	status, err := s.registrar.CheckAdmin(ctx)
	if err != nil {
		return err
	}
	if !status.IsAdmin {
		return adminops.ErrNotChainAdmin
	}
	return nil
}
