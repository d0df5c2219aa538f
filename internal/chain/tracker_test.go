package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a scripted receipt after a given number of polls,
// and a scripted lookup result for the post-timeout path.
type fakeSource struct {
	mu               sync.Mutex
	receipt          *types.Receipt
	receiptAfter     int // number of Receipt calls that return nil first
	serveAfterLookup bool
	lookup           TxLookup
	lookupErr        error
	receiptCalls     int
	lookupCalls      int
}

func (f *fakeSource) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptCalls++
	if f.serveAfterLookup && f.lookupCalls > 0 {
		return f.receipt, nil
	}
	if f.receiptCalls <= f.receiptAfter {
		return nil, nil
	}
	return f.receipt, nil
}

func (f *fakeSource) TransactionStatus(ctx context.Context, hash common.Hash) (TxLookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	return f.lookup, f.lookupErr
}

func testHash() common.Hash {
	return common.HexToHash("0xabc123")
}

func successReceipt(block int64) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(block),
		GasUsed:     21000,
	}
}

func TestTrackConfirmed(t *testing.T) {
	src := &fakeSource{receipt: successReceipt(42), receiptAfter: 1}
	tracker := NewTracker(src, WithTimeout(time.Second), WithPollInterval(time.Millisecond))

	outcome, err := tracker.Track(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, outcome.State)
	assert.Equal(t, uint64(42), outcome.BlockNumber)
	assert.Equal(t, uint64(21000), outcome.GasUsed)
}

func TestTrackReverted(t *testing.T) {
	src := &fakeSource{receipt: &types.Receipt{
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(7),
		GasUsed:     500000,
	}}
	tracker := NewTracker(src, WithTimeout(time.Second), WithPollInterval(time.Millisecond))

	outcome, err := tracker.Track(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateReverted, outcome.State)
	assert.Equal(t, uint64(7), outcome.BlockNumber)
}

func TestTrackDropped(t *testing.T) {
	// Receipt never appears and the node forgot the hash entirely.
	src := &fakeSource{receiptAfter: 1 << 30, lookup: TxNotFound}
	tracker := NewTracker(src, WithTimeout(20*time.Millisecond), WithPollInterval(time.Millisecond))

	outcome, err := tracker.Track(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateDropped, outcome.State)
	assert.Equal(t, 1, src.lookupCalls)
}

func TestTrackTimedOut(t *testing.T) {
	// The node still knows the hash but it never mines.
	src := &fakeSource{receiptAfter: 1 << 30, lookup: TxPending}
	tracker := NewTracker(src, WithTimeout(20*time.Millisecond), WithPollInterval(time.Millisecond))

	outcome, err := tracker.Track(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, outcome.State)
}

func TestTrackMinedDuringRaceWindow(t *testing.T) {
	// Polling misses the receipt before the timer fires, but the
	// post-timeout lookup finds the transaction mined. The receipt is
	// then served and classified normally.
	src := &fakeSource{
		receipt:          successReceipt(99),
		receiptAfter:     1 << 30,
		serveAfterLookup: true,
		lookup:           TxMined,
	}
	tracker := NewTracker(src, WithTimeout(20*time.Millisecond), WithPollInterval(time.Millisecond))

	outcome, err := tracker.Track(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, outcome.State)
	assert.Equal(t, uint64(99), outcome.BlockNumber)
}

func TestClassifyAfterTimeoutMined(t *testing.T) {
	src := &fakeSource{receipt: successReceipt(99), lookup: TxMined}
	tracker := NewTracker(src, WithTimeout(time.Second), WithPollInterval(time.Millisecond))

	outcome, err := tracker.classifyAfterTimeout(context.Background(), testHash())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, outcome.State)
	assert.Equal(t, uint64(99), outcome.BlockNumber)
}

func TestTrackContextCancelled(t *testing.T) {
	src := &fakeSource{receiptAfter: 1 << 30, lookup: TxPending}
	tracker := NewTracker(src, WithTimeout(time.Minute), WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tracker.Track(ctx, testHash())
	assert.ErrorIs(t, err, context.Canceled)
}
