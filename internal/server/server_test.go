package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhpal/landchain/internal/chain"
	"github.com/lekhpal/landchain/internal/config"
)

// stubGateway satisfies adminops.Gateway without touching the network.
type stubGateway struct {
	signer common.Address
}

func (g *stubGateway) SignerAddress() common.Address { return g.signer }
func (g *stubGateway) AdminAddress(context.Context) (common.Address, error) {
	return g.signer, nil
}
func (g *stubGateway) Balance(context.Context) (*big.Int, error) { return big.NewInt(1e18), nil }
func (g *stubGateway) EstimateGas(context.Context, chain.Call) (uint64, error) {
	return 73000, nil
}
func (g *stubGateway) Submit(context.Context, chain.Call, uint64) (common.Hash, error) {
	return common.HexToHash("0xabc"), nil
}
func (g *stubGateway) Receipt(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}
func (g *stubGateway) Land(context.Context, *big.Int) (*chain.Land, error) {
	return &chain.Land{Area: big.NewInt(0), Valuation: big.NewInt(0)}, nil
}
func (g *stubGateway) Deal(context.Context, int64) (*chain.Deal, error) {
	return nil, chain.ErrNotFound
}
func (g *stubGateway) DealCount(context.Context) (int64, error) { return 0, nil }
func (g *stubGateway) RecentRegistrations(context.Context) ([]chain.Registration, error) {
	return nil, nil
}
func (g *stubGateway) RegisterLandCall(common.Address, string, string, string, string, int64, *big.Int) (chain.Call, error) {
	return chain.Call{Label: "registerLand"}, nil
}
func (g *stubGateway) SetValuationCall(int64, *big.Int) (chain.Call, error) {
	return chain.Call{Label: "setValuation"}, nil
}
func (g *stubGateway) ApproveDealCall(int64) (chain.Call, error) {
	return chain.Call{Label: "approveDeal"}, nil
}
func (g *stubGateway) LandIDFromReceipt(*types.Receipt) *big.Int { return nil }

type stubTracker struct{}

func (stubTracker) Track(_ context.Context, hash common.Hash) (*chain.Outcome, error) {
	return &chain.Outcome{Hash: hash, State: chain.StateConfirmed, BlockNumber: 1}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Port:        "0",
		Env:         "development",
		LogLevel:    "error",
		RPCURL:      "http://unused",
		ChainID:     11155111,
		ExplorerURL: config.DefaultExplorerURL,
		JWTSecret:   "test-secret",
	}

	s, err := New(cfg,
		WithGateway(&stubGateway{signer: common.HexToAddress("0x1111111111111111111111111111111111111111")}),
		WithTracker(stubTracker{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func do(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/users/signup",
		`{"name":"Asha","contactNo":"9876543210","email":"`+email+`","password":"s3cret-pass","pinCode":"700001"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Ready flips only once Run has started.
	w = do(t, s, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "landchain_")
}

func TestSignupLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "asha@example.com")

	w := do(t, s, http.MethodGet, "/api/users/me", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asha@example.com")

	w = do(t, s, http.MethodPost, "/api/users/login",
		`{"email":"asha@example.com","password":"s3cret-pass"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBlockchainRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/blockchain/check-admin", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := signup(t, s, "user@example.com")
	w = do(t, s, http.MethodGet, "/api/blockchain/check-admin", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarketplaceAdminRoutesRequireRole(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "plain@example.com")

	w := do(t, s, http.MethodGet, "/api/marketplace/pending-listings", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLandRequestFlowThroughRouter(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "citizen@example.com")

	// No wallet on the account yet.
	w := do(t, s, http.MethodPost, "/api/land-requests/submit",
		`{"khatian":"KH-1","state":"WB","city":"Kolkata","ward":"2","area":500}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPatch, "/api/users/update",
		`{"walletAddress":"0x2222222222222222222222222222222222222222"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/land-requests/submit",
		`{"khatian":"KH-1","state":"WB","city":"Kolkata","ward":"2","area":500}`, token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/land-requests/my-requests", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "KH-1")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health/live", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORSPreflightAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/users/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
