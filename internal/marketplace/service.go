package marketplace

import (
	"context"
	"errors"

	"github.com/lekhpal/landchain/internal/idgen"
	"github.com/lekhpal/landchain/internal/metrics"
	"github.com/lekhpal/landchain/internal/users"
	"github.com/lekhpal/landchain/internal/wei"
)

var (
	// ErrSellerNotApproved means the user has not passed seller vetting.
	ErrSellerNotApproved = errors.New("marketplace: seller approval required")

	// ErrBadPrice means the price did not parse as a decimal ETH amount.
	ErrBadPrice = errors.New("marketplace: invalid price")
)

// DefaultRejectionReason is recorded when an admin rejects a listing
// without giving a reason.
const DefaultRejectionReason = "Rejected by admin"

// Service applies the marketplace rules on top of a Store.
type Service struct {
	store     Store
	userStore users.Store
}

// NewService creates the marketplace service.
func NewService(store Store, userStore users.Store) *Service {
	return &Service{store: store, userStore: userStore}
}

// Submit files a new pending listing. Only approved sellers may list,
// and a land can carry at most one live listing.
func (s *Service) Submit(ctx context.Context, userID string, landID int64, priceEth string) (*SaleListing, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SellerStatus != users.ApprovalApproved {
		return nil, ErrSellerNotApproved
	}

	priceWei, ok := wei.Parse(priceEth)
	if !ok {
		return nil, ErrBadPrice
	}

	listing := &SaleListing{
		ID:       idgen.WithPrefix("lst_"),
		UserID:   user.ID,
		LandID:   landID,
		PriceWei: priceWei.String(),
		Status:   StatusPending,
	}
	if err := s.store.Create(ctx, listing); err != nil {
		return nil, err
	}
	metrics.SaleListingsTotal.WithLabelValues(StatusPending).Inc()
	return listing, nil
}

// Approved returns the public marketplace, newest first.
func (s *Service) Approved(ctx context.Context) ([]*SaleListing, error) {
	return s.store.ListApproved(ctx)
}

// Mine returns the caller's listings, newest first.
func (s *Service) Mine(ctx context.Context, userID string) ([]*SaleListing, error) {
	return s.store.ListByUser(ctx, userID)
}

// Seller is the listing owner's snapshot attached to review entries.
type Seller struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// PendingListing is a review queue entry enriched with seller details.
type PendingListing struct {
	*SaleListing
	Seller *Seller `json:"seller,omitempty"`
}

// Pending returns the review queue, newest first.
func (s *Service) Pending(ctx context.Context) ([]*PendingListing, error) {
	listings, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*PendingListing, 0, len(listings))
	for _, l := range listings {
		entry := &PendingListing{SaleListing: l}
		if user, err := s.userStore.GetByID(ctx, l.UserID); err == nil {
			entry.Seller = &Seller{Name: user.Name, Email: user.Email, WalletAddress: user.WalletAddress}
		}
		out = append(out, entry)
	}
	return out, nil
}

// SetStatus settles a pending listing. Rejections without a reason get
// DefaultRejectionReason; approvals carry none.
func (s *Service) SetStatus(ctx context.Context, listingID, status, reason string) (*SaleListing, error) {
	var storedReason *string
	if status == StatusRejected {
		if reason == "" {
			reason = DefaultRejectionReason
		}
		storedReason = &reason
	}

	if err := s.store.UpdateStatus(ctx, listingID, status, storedReason); err != nil {
		return nil, err
	}
	metrics.SaleListingsTotal.WithLabelValues(status).Inc()
	return s.store.Get(ctx, listingID)
}
