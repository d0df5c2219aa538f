// Package chain isolates all interaction with the on-chain land
// registry and escrow contracts behind a narrow gateway, and tracks
// submitted transactions to a terminal classification.
package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// -----------------------------------------------------------------------------
// Errors - typed errors for programmatic handling
// -----------------------------------------------------------------------------

var (
	ErrInvalidPrivateKey = errors.New("chain: invalid private key")
	ErrRemoteUnavailable = errors.New("chain: node unreachable")
	ErrSubmissionFailed  = errors.New("chain: transaction submission failed")
	ErrNotFound          = errors.New("chain: not found")
)

// CallError reports that a call would revert, discovered during gas
// estimation. Reason carries the node's revert message so callers can
// surface contract-side constraints (duplicate khatian, bad address).
type CallError struct {
	Label  string // which contract call failed
	Reason string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("chain: %s would revert: %s", e.Label, e.Reason)
}

func (e *CallError) Unwrap() error { return e.Err }

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

// Call is a prepared state-changing contract call.
type Call struct {
	Label string // "registerLand", "setValuation", "approveDeal"
	To    common.Address
	Data  []byte
}

// Land mirrors the registry's lands(id) struct.
type Land struct {
	Owner        common.Address
	Khatian      string
	State        string
	City         string
	Ward         string
	Area         *big.Int
	Valuation    *big.Int
	IsRegistered bool
}

// Deal mirrors the escrow's deals(id) struct.
type Deal struct {
	ID        int64
	Buyer     common.Address
	LandID    *big.Int
	Amount    *big.Int
	Completed bool
}

// Registration is one LandRegistered event, used by the activity feed.
type Registration struct {
	LandID      *big.Int
	Owner       common.Address
	Khatian     string
	BlockNumber uint64
	TimestampMS int64
}

// TxLookup classifies what the node knows about a hash after the
// confirmation window has expired.
type TxLookup int

const (
	TxNotFound TxLookup = iota // node has no record: dropped from the pool
	TxPending                  // known but unmined
	TxMined                    // mined during the race window
)
