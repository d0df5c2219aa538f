package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	// ConfirmationTimeout bounds how long a request waits for one
	// confirmation. Fixed at 120s for parity with prior behavior.
	ConfirmationTimeout = 120 * time.Second

	// ReceiptPollInterval between receipt checks while waiting.
	ReceiptPollInterval = 2 * time.Second
)

// State is the terminal classification of a tracked transaction.
type State string

const (
	StateConfirmed State = "confirmed"
	StateReverted  State = "reverted"
	// StateTimedOut means the transaction is known to the node but
	// unmined after the window. Not final truth: it may still confirm
	// later, so callers must treat it as "unknown, check later".
	StateTimedOut State = "timed_out"
	// StateDropped means the node has no record of the hash at all.
	StateDropped State = "dropped"
)

// Outcome is the result of tracking one submitted transaction.
type Outcome struct {
	Hash        common.Hash
	State       State
	BlockNumber uint64
	GasUsed     uint64
}

// ReceiptSource is the slice of the gateway the tracker needs.
type ReceiptSource interface {
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TransactionStatus(ctx context.Context, hash common.Hash) (TxLookup, error)
}

// Tracker converts a submitted transaction into a terminal
// classification within a bounded wall-clock budget.
type Tracker struct {
	source  ReceiptSource
	timeout time.Duration
	poll    time.Duration
}

// TrackerOption configures the tracker. Tests narrow the windows; the
// production values are the package constants.
type TrackerOption func(*Tracker)

func WithTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.timeout = d }
}

func WithPollInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.poll = d }
}

// NewTracker creates a tracker over the given receipt source.
func NewTracker(source ReceiptSource, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		source:  source,
		timeout: ConfirmationTimeout,
		poll:    ReceiptPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track waits for one confirmation of hash, racing the fixed timeout.
// The timeout cancels the wait, not the transaction itself: a
// TimedOut or Dropped outcome does not mean the state change did not
// happen.
func (t *Tracker) Track(ctx context.Context, hash common.Hash) (*Outcome, error) {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type waitResult struct {
		receipt *types.Receipt
		err     error
	}
	done := make(chan waitResult, 1)
	go func() {
		receipt, err := t.waitMined(waitCtx, hash)
		done <- waitResult{receipt, err}
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return classify(hash, res.receipt), nil

	case <-timer.C:
		// Mining wins a simultaneous race.
		select {
		case res := <-done:
			if res.err == nil {
				return classify(hash, res.receipt), nil
			}
		default:
		}
		cancel()
		return t.classifyAfterTimeout(ctx, hash)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitMined polls for a receipt until one appears or the context ends.
// Transient lookup errors keep the loop going; the outer timer bounds
// the total wait.
func (t *Tracker) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := t.source.Receipt(ctx, hash)
			if err != nil || receipt == nil {
				continue
			}
			return receipt, nil
		}
	}
}

// classifyAfterTimeout asks the node what it still knows about the
// hash: nothing means dropped, unmined means timed out, and a block
// number means it was mined during the race window.
func (t *Tracker) classifyAfterTimeout(ctx context.Context, hash common.Hash) (*Outcome, error) {
	lookup, err := t.source.TransactionStatus(ctx, hash)
	if err != nil {
		return nil, err
	}

	switch lookup {
	case TxNotFound:
		return &Outcome{Hash: hash, State: StateDropped}, nil
	case TxPending:
		return &Outcome{Hash: hash, State: StateTimedOut}, nil
	}

	receipt, err := t.source.Receipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		// Mined per the lookup but the receipt has not surfaced yet.
		return &Outcome{Hash: hash, State: StateTimedOut}, nil
	}
	return classify(hash, receipt), nil
}

func classify(hash common.Hash, receipt *types.Receipt) *Outcome {
	out := &Outcome{
		Hash:    hash,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		out.State = StateConfirmed
	} else {
		out.State = StateReverted
	}
	return out
}
