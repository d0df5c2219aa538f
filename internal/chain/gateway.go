package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lekhpal/landchain/internal/retry"
	"github.com/lekhpal/landchain/internal/syncutil"
)

// EthClient abstracts the go-ethereum client for testing.
type EthClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	Close()
}

const (
	// EventLookbackBlocks is how far back the activity feed scans.
	// Fixed window, kept for compatibility with the deployed frontend.
	EventLookbackBlocks = 5000

	// MaxActivityEntries caps the activity feed. Same compatibility note.
	MaxActivityEntries = 5

	// Reads are idempotent, so transient RPC failures get a few
	// retries. Writes never retry: a resubmitted transaction could
	// double-spend the nonce.
	readAttempts  = 3
	readBaseDelay = 200 * time.Millisecond
)

// Config for creating a new Gateway.
type Config struct {
	RPCURL           string
	PrivateKey       string // hex, 0x prefix optional
	ChainID          int64
	RegistryContract string
	EscrowContract   string
}

// Option configures the gateway.
type Option func(*Gateway)

// WithClient sets a custom Ethereum client (useful for testing).
func WithClient(client EthClient) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// Gateway wraps the remote LandRegistry and Escrow contracts. It holds
// the backend signing key; all writes go out signed by that key.
type Gateway struct {
	client      EthClient
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	chainID     *big.Int
	registry    common.Address
	escrow      common.Address
	registryABI abi.ABI
	escrowABI   abi.ABI

	// submitMu serializes nonce fetch + broadcast. Without it two
	// concurrent admin writes can pick up the same pending nonce.
	submitMu syncutil.ContextMutex
}

// New creates a gateway from config, dialing the RPC endpoint unless a
// client is injected.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrInvalidPrivateKey)
	}

	registryParsed, err := abi.JSON(strings.NewReader(landRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	escrowParsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	g := &Gateway{
		privateKey:  privateKey,
		address:     crypto.PubkeyToAddress(*publicKey),
		chainID:     big.NewInt(cfg.ChainID),
		registry:    common.HexToAddress(cfg.RegistryContract),
		escrow:      common.HexToAddress(cfg.EscrowContract),
		registryABI: registryParsed,
		escrowABI:   escrowParsed,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		client, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		g.client = client
	}

	return g, nil
}

func validateConfig(cfg Config) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("%w: RPC URL required", ErrRemoteUnavailable)
	}
	key := strings.TrimPrefix(cfg.PrivateKey, "0x")
	if len(key) != 64 {
		return fmt.Errorf("%w: must be 64 hex characters", ErrInvalidPrivateKey)
	}
	if cfg.ChainID == 0 {
		return fmt.Errorf("chain ID required")
	}
	if cfg.RegistryContract == "" {
		return fmt.Errorf("land registry contract address required")
	}
	if cfg.EscrowContract == "" {
		return fmt.Errorf("escrow contract address required")
	}
	return nil
}

// SignerAddress returns the backend wallet's address.
func (g *Gateway) SignerAddress() common.Address {
	return g.address
}

// Close releases the underlying RPC connection.
func (g *Gateway) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// AdminAddress returns the registry contract's admin.
func (g *Gateway) AdminAddress(ctx context.Context) (common.Address, error) {
	out, err := g.call(ctx, g.registry, g.registryABI, "admin")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("chain: unexpected admin() return type")
	}
	return addr, nil
}

// Balance returns the signer's native balance in wei.
func (g *Gateway) Balance(ctx context.Context) (*big.Int, error) {
	var bal *big.Int
	err := retry.Do(ctx, readAttempts, readBaseDelay, func() error {
		var err error
		bal, err = g.client.BalanceAt(ctx, g.address, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return bal, nil
}

// Land looks up a registered land record by id.
func (g *Gateway) Land(ctx context.Context, id *big.Int) (*Land, error) {
	out, err := g.call(ctx, g.registry, g.registryABI, "lands", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("chain: unexpected lands() return arity %d", len(out))
	}
	return &Land{
		Owner:        out[0].(common.Address),
		Khatian:      out[1].(string),
		State:        out[2].(string),
		City:         out[3].(string),
		Ward:         out[4].(string),
		Area:         out[5].(*big.Int),
		Valuation:    out[6].(*big.Int),
		IsRegistered: out[7].(bool),
	}, nil
}

// DealCount returns the escrow's total deal count.
func (g *Gateway) DealCount(ctx context.Context) (int64, error) {
	out, err := g.call(ctx, g.escrow, g.escrowABI, "dealCount")
	if err != nil {
		return 0, err
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("chain: unexpected dealCount() return type")
	}
	return count.Int64(), nil
}

// Deal looks up an escrow deal by id.
func (g *Gateway) Deal(ctx context.Context, id int64) (*Deal, error) {
	out, err := g.call(ctx, g.escrow, g.escrowABI, "deals", big.NewInt(id))
	if err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("chain: unexpected deals() return arity %d", len(out))
	}
	return &Deal{
		ID:        id,
		Buyer:     out[0].(common.Address),
		LandID:    out[1].(*big.Int),
		Amount:    out[2].(*big.Int),
		Completed: out[3].(bool),
	}, nil
}

func (g *Gateway) call(ctx context.Context, to common.Address, a abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	var raw []byte
	err = retry.Do(ctx, readAttempts, readBaseDelay, func() error {
		var err error
		raw, err = g.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteUnavailable, method, err)
	}
	out, err := a.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Call builders
// -----------------------------------------------------------------------------

// RegisterLandCall prepares a registerLand call.
func (g *Gateway) RegisterLandCall(owner common.Address, khatian, state, city, ward string, area int64, valuation *big.Int) (Call, error) {
	data, err := g.registryABI.Pack("registerLand", owner, khatian, state, city, ward, big.NewInt(area), valuation)
	if err != nil {
		return Call{}, fmt.Errorf("chain: pack registerLand: %w", err)
	}
	return Call{Label: "registerLand", To: g.registry, Data: data}, nil
}

// SetValuationCall prepares a setValuation call.
func (g *Gateway) SetValuationCall(landID int64, value *big.Int) (Call, error) {
	data, err := g.registryABI.Pack("setValuation", big.NewInt(landID), value)
	if err != nil {
		return Call{}, fmt.Errorf("chain: pack setValuation: %w", err)
	}
	return Call{Label: "setValuation", To: g.registry, Data: data}, nil
}

// ApproveDealCall prepares an approveDeal call.
func (g *Gateway) ApproveDealCall(dealID int64) (Call, error) {
	data, err := g.escrowABI.Pack("approveDeal", big.NewInt(dealID))
	if err != nil {
		return Call{}, fmt.Errorf("chain: pack approveDeal: %w", err)
	}
	return Call{Label: "approveDeal", To: g.escrow, Data: data}, nil
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

// EstimateGas simulates the call before submission. A revert here is
// the only pre-flight check against contract-side constraints, so the
// revert reason is surfaced verbatim in the CallError.
func (g *Gateway) EstimateGas(ctx context.Context, call Call) (uint64, error) {
	gas, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  g.address,
		To:    &call.To,
		Value: big.NewInt(0),
		Data:  call.Data,
	})
	if err != nil {
		return 0, &CallError{Label: call.Label, Reason: err.Error(), Err: err}
	}
	return gas, nil
}

// Submit signs and broadcasts a call. gasLimit 0 means "use the node's
// estimate". Returns the transaction hash; confirmation is the
// tracker's job.
func (g *Gateway) Submit(ctx context.Context, call Call, gasLimit uint64) (common.Hash, error) {
	if gasLimit == 0 {
		est, err := g.EstimateGas(ctx, call)
		if err != nil {
			return common.Hash{}, err
		}
		gasLimit = est
	}

	unlock, err := g.submitMu.LockContext(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer unlock()

	nonce, err := g.client.PendingNonceAt(ctx, g.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: nonce: %v", ErrSubmissionFailed, err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: gas price: %v", ErrSubmissionFailed, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     call.Data,
	})
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(g.chainID), g.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: sign: %v", ErrSubmissionFailed, err)
	}
	if err := g.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: broadcast: %v", ErrSubmissionFailed, err)
	}

	return signedTx.Hash(), nil
}

// Receipt returns the mined receipt, or (nil, nil) when the
// transaction has not been mined yet.
func (g *Gateway) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := g.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: receipt: %v", ErrRemoteUnavailable, err)
	}
	return receipt, nil
}

// TransactionStatus reports what the node knows about a hash:
// TxNotFound means the pool has evicted it, TxPending means it is
// known but unmined, TxMined means it landed in a block.
func (g *Gateway) TransactionStatus(ctx context.Context, hash common.Hash) (TxLookup, error) {
	_, pending, err := g.client.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return TxNotFound, nil
	}
	if err != nil {
		return TxNotFound, fmt.Errorf("%w: transaction lookup: %v", ErrRemoteUnavailable, err)
	}
	if pending {
		return TxPending, nil
	}
	return TxMined, nil
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

// RecentRegistrations returns the most recent LandRegistered events,
// newest first, scanning the fixed lookback window.
func (g *Gateway) RecentRegistrations(ctx context.Context) ([]Registration, error) {
	head, err := g.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: head block: %v", ErrRemoteUnavailable, err)
	}
	from := uint64(0)
	if head > EventLookbackBlocks {
		from = head - EventLookbackBlocks
	}

	eventID := g.registryABI.Events["LandRegistered"].ID
	logs, err := g.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: []common.Address{g.registry},
		Topics:    [][]common.Hash{{eventID}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: event query: %v", ErrRemoteUnavailable, err)
	}

	var out []Registration
	for i := len(logs) - 1; i >= 0 && len(out) < MaxActivityEntries; i-- {
		lg := logs[i]
		if len(lg.Topics) < 3 {
			continue
		}
		reg := Registration{
			LandID:      new(big.Int).SetBytes(lg.Topics[1].Bytes()),
			Owner:       common.BytesToAddress(lg.Topics[2].Bytes()),
			BlockNumber: lg.BlockNumber,
		}
		if vals, err := g.registryABI.Unpack("LandRegistered", lg.Data); err == nil && len(vals) == 1 {
			if khatian, ok := vals[0].(string); ok {
				reg.Khatian = khatian
			}
		}
		header, err := g.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
		if err == nil && header != nil {
			reg.TimestampMS = int64(header.Time) * 1000
		}
		out = append(out, reg)
	}
	return out, nil
}

// LandIDFromReceipt extracts the registered land id from a
// registration receipt's LandRegistered event. Best effort: returns
// nil when the event is absent or malformed, never an error.
func (g *Gateway) LandIDFromReceipt(receipt *types.Receipt) *big.Int {
	if receipt == nil {
		return nil
	}
	eventID := g.registryABI.Events["LandRegistered"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != g.registry || len(lg.Topics) < 2 || lg.Topics[0] != eventID {
			continue
		}
		return new(big.Int).SetBytes(lg.Topics[1].Bytes())
	}
	return nil
}
