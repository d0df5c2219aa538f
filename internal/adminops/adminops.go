// Package adminops orchestrates the admin-facing contract writes:
// land registration, valuation updates and deal approval.
//
// Every write runs the same pipeline: authorize against the on-chain
// admin, check the signer has funds, simulate via gas estimation,
// submit, then track the transaction to a terminal classification.
// Pre-flight failures abort before anything is broadcast.
package adminops

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/logging"
	"github.com/lekhpal/landchain/internal/metrics"
	"github.com/lekhpal/landchain/internal/traces"
	"github.com/lekhpal/landchain/internal/wei"
)

var (
	// ErrNotChainAdmin means the configured signer is not the
	// registry contract's admin. This is independent of the
	// application-level admin role.
	ErrNotChainAdmin = errors.New("adminops: signer is not the contract admin")

	// ErrNoFunds means the signer's balance is zero.
	ErrNoFunds = errors.New("adminops: backend wallet has no ETH")

	// ErrInvalidParams means a request field failed to parse.
	ErrInvalidParams = errors.New("adminops: invalid parameters")
)

// RegisterGasLimit is the explicit gas ceiling for registerLand and
// setValuation submissions. approveDeal uses the node's estimate.
const RegisterGasLimit = uint64(500000)

// Gateway is the slice of the chain gateway this service needs.
type Gateway interface {
	SignerAddress() common.Address
	AdminAddress(ctx context.Context) (common.Address, error)
	Balance(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call chain.Call) (uint64, error)
	Submit(ctx context.Context, call chain.Call, gasLimit uint64) (common.Hash, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Land(ctx context.Context, id *big.Int) (*chain.Land, error)
	Deal(ctx context.Context, id int64) (*chain.Deal, error)
	DealCount(ctx context.Context) (int64, error)
	RecentRegistrations(ctx context.Context) ([]chain.Registration, error)
	RegisterLandCall(owner common.Address, khatian, state, city, ward string, area int64, valuation *big.Int) (chain.Call, error)
	SetValuationCall(landID int64, value *big.Int) (chain.Call, error)
	ApproveDealCall(dealID int64) (chain.Call, error)
	LandIDFromReceipt(receipt *types.Receipt) *big.Int
}

// Tracker classifies a submitted transaction.
type Tracker interface {
	Track(ctx context.Context, hash common.Hash) (*chain.Outcome, error)
}

// Result is the outcome of one admin write that reached submission.
// Exactly one of the four terminal states is set; LandID is filled
// best-effort for confirmed registrations only.
type Result struct {
	Action      string
	State       chain.State
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	ExplorerURL string
	LandID      *big.Int
}

// Confirmed reports whether the transaction settled successfully.
func (r *Result) Confirmed() bool { return r.State == chain.StateConfirmed }

// Service runs the admin write pipeline against an injected gateway
// and tracker, so tests can substitute doubles for both.
type Service struct {
	gw          Gateway
	tracker     Tracker
	explorerURL string
}

// NewService creates the admin action service.
func NewService(gw Gateway, tracker Tracker, explorerURL string) *Service {
	return &Service{gw: gw, tracker: tracker, explorerURL: explorerURL}
}

// RegisterLandRequest carries the registerLand parameters.
type RegisterLandRequest struct {
	OwnerAddress string
	Khatian      string
	State        string
	City         string
	Ward         string
	Area         int64
	Valuation    string // decimal ETH
}

// RegisterLand submits a land registration.
func (s *Service) RegisterLand(ctx context.Context, req RegisterLandRequest) (*Result, error) {
	valuation, ok := wei.Parse(req.Valuation)
	if !ok {
		return nil, ErrInvalidParams
	}
	owner := common.HexToAddress(req.OwnerAddress)

	return s.execute(ctx, "registerLand", RegisterGasLimit, func() (chain.Call, error) {
		return s.gw.RegisterLandCall(owner, req.Khatian, req.State, req.City, req.Ward, req.Area, valuation)
	})
}

// SetValuation submits a valuation update for an existing land.
func (s *Service) SetValuation(ctx context.Context, landID int64, value string) (*Result, error) {
	parsed, ok := wei.Parse(value)
	if !ok {
		return nil, ErrInvalidParams
	}

	return s.execute(ctx, "setValuation", RegisterGasLimit, func() (chain.Call, error) {
		return s.gw.SetValuationCall(landID, parsed)
	})
}

// ApproveDeal submits an escrow deal approval.
func (s *Service) ApproveDeal(ctx context.Context, dealID int64) (*Result, error) {
	return s.execute(ctx, "approveDeal", 0, func() (chain.Call, error) {
		return s.gw.ApproveDealCall(dealID)
	})
}

// execute is the shared pipeline: authorize, check funds, estimate,
// submit, track. Returning an error means nothing was broadcast;
// returning a Result means a transaction exists on the network, in
// whatever terminal state the tracker assigned.
func (s *Service) execute(ctx context.Context, action string, gasLimit uint64, build func() (chain.Call, error)) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "adminops."+action)
	defer span.End()
	log := logging.L(ctx).With("action", action)

	isAdmin, err := s.signerIsAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		metrics.ChainPreflightFailuresTotal.WithLabelValues(action, "authorize").Inc()
		return nil, ErrNotChainAdmin
	}

	balance, err := s.gw.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		metrics.ChainPreflightFailuresTotal.WithLabelValues(action, "funds").Inc()
		return nil, ErrNoFunds
	}

	call, err := build()
	if err != nil {
		return nil, err
	}

	// The contract's own constraints (duplicate khatian, unknown land
	// id) only surface here, so a revert must abort the submission.
	estimate, err := s.gw.EstimateGas(ctx, call)
	if err != nil {
		metrics.ChainPreflightFailuresTotal.WithLabelValues(action, "estimate").Inc()
		return nil, err
	}
	log.Debug("gas estimated", "gas", estimate)

	hash, err := s.gw.Submit(ctx, call, gasLimit)
	if err != nil {
		metrics.ChainPreflightFailuresTotal.WithLabelValues(action, "submit").Inc()
		return nil, err
	}
	log.Info("transaction submitted", "tx_hash", hash.Hex())
	span.SetAttributes(attribute.String("tx.hash", hash.Hex()))

	start := time.Now()
	outcome, err := s.tracker.Track(ctx, hash)
	if err != nil {
		return nil, err
	}
	metrics.ChainConfirmationDuration.Observe(time.Since(start).Seconds())
	metrics.ChainTransactionsTotal.WithLabelValues(action, string(outcome.State)).Inc()
	log.Info("transaction tracked", "tx_hash", hash.Hex(), "state", outcome.State, "block", outcome.BlockNumber)

	result := &Result{
		Action:      action,
		State:       outcome.State,
		TxHash:      hash.Hex(),
		BlockNumber: outcome.BlockNumber,
		GasUsed:     outcome.GasUsed,
		ExplorerURL: s.explorerURL + "/tx/" + hash.Hex(),
	}

	if action == "registerLand" && outcome.State == chain.StateConfirmed {
		// Best effort: tolerate a missing or malformed event.
		if receipt, err := s.gw.Receipt(ctx, hash); err == nil {
			result.LandID = s.gw.LandIDFromReceipt(receipt)
		}
	}

	return result, nil
}

func (s *Service) signerIsAdmin(ctx context.Context) (bool, error) {
	admin, err := s.gw.AdminAddress(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(s.gw.SignerAddress().Hex(), admin.Hex()), nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// AdminStatus reports whether the backend signer is the contract admin.
type AdminStatus struct {
	IsAdmin       bool   `json:"isAdmin"`
	WalletAddress string `json:"walletAddress"`
	AdminAddress  string `json:"adminAddress"`
}

// CheckAdmin resolves both addresses and compares case-insensitively.
func (s *Service) CheckAdmin(ctx context.Context) (*AdminStatus, error) {
	admin, err := s.gw.AdminAddress(ctx)
	if err != nil {
		return nil, err
	}
	signer := s.gw.SignerAddress()
	return &AdminStatus{
		IsAdmin:       strings.EqualFold(signer.Hex(), admin.Hex()),
		WalletAddress: signer.Hex(),
		AdminAddress:  admin.Hex(),
	}, nil
}

// PendingDeal is one incomplete escrow deal.
type PendingDeal struct {
	ID        int64  `json:"id"`
	Buyer     string `json:"buyer"`
	LandID    string `json:"landId"`
	Amount    string `json:"amount"` // decimal ETH
	Completed bool   `json:"completed"`
}

// PendingDeals lists all incomplete escrow deals.
func (s *Service) PendingDeals(ctx context.Context) ([]PendingDeal, error) {
	count, err := s.gw.DealCount(ctx)
	if err != nil {
		return nil, err
	}

	deals := []PendingDeal{}
	for i := int64(1); i <= count; i++ {
		deal, err := s.gw.Deal(ctx, i)
		if err != nil {
			return nil, err
		}
		if deal.Completed {
			continue
		}
		deals = append(deals, PendingDeal{
			ID:        i,
			Buyer:     deal.Buyer.Hex(),
			LandID:    deal.LandID.String(),
			Amount:    wei.Format(deal.Amount),
			Completed: false,
		})
	}
	return deals, nil
}

// LandDetails is the formatted lands(id) record.
type LandDetails struct {
	Owner        string `json:"owner"`
	Khatian      string `json:"khatian"`
	State        string `json:"state"`
	City         string `json:"city"`
	Ward         string `json:"ward"`
	Area         string `json:"area"`
	Valuation    string `json:"valuation"` // decimal ETH
	IsRegistered bool   `json:"isRegistered"`
}

// LandDetails reads one land record from the registry.
func (s *Service) LandDetails(ctx context.Context, landID *big.Int) (*LandDetails, error) {
	land, err := s.gw.Land(ctx, landID)
	if err != nil {
		return nil, err
	}
	return &LandDetails{
		Owner:        land.Owner.Hex(),
		Khatian:      land.Khatian,
		State:        land.State,
		City:         land.City,
		Ward:         land.Ward,
		Area:         land.Area.String(),
		Valuation:    wei.Format(land.Valuation),
		IsRegistered: land.IsRegistered,
	}, nil
}

// ActivityEntry is one recent registration event.
type ActivityEntry struct {
	LandID    string `json:"landId"`
	Owner     string `json:"owner"`
	Khatian   string `json:"khatian"`
	Timestamp int64  `json:"timestamp"` // ms
}

// RecentActivity lists the latest registrations, newest first.
func (s *Service) RecentActivity(ctx context.Context) ([]ActivityEntry, error) {
	regs, err := s.gw.RecentRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	entries := []ActivityEntry{}
	for _, r := range regs {
		entries = append(entries, ActivityEntry{
			LandID:    r.LandID.String(),
			Owner:     r.Owner.Hex(),
			Khatian:   r.Khatian,
			Timestamp: r.TimestampMS,
		})
	}
	return entries, nil
}
