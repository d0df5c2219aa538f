package marketplace

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhpal/landchain/internal/users"
)

func newTestRouter(t *testing.T) (*gin.Engine, *users.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, seller := newTestService(t)
	h := NewHandler(svc)

	r := gin.New()
	group := r.Group("/api/marketplace")
	group.Use(func(c *gin.Context) {
		c.Set(users.ContextKeyUser, seller)
	})
	h.Register(group)
	h.RegisterAdmin(group)
	return r, seller
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitListingHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":7,"priceEth":"1.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Listing struct {
			PriceWei string `json:"priceWei"`
			Status   string `json:"status"`
		} `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1500000000000000000", resp.Listing.PriceWei)
	assert.Equal(t, StatusPending, resp.Listing.Status)
}

func TestSubmitListingHandlerValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":0,"priceEth":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitListingHandlerDuplicate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":7,"priceEth":"1.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":7,"priceEth":"2.0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

func TestUpdateListingStatusHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":7,"priceEth":"1.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Listing struct {
			ID string `json:"_id"`
		} `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(t, r, http.MethodPost, "/api/marketplace/listings/status",
		`{"listingId":"`+created.Listing.ID+`","status":"approved"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/marketplace/listings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Listing.ID)
}

func TestUpdateListingStatusHandlerBadStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings/status", `{"listingId":"lst_1","status":"frozen"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyListingsHandler(t *testing.T) {
	r, seller := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/marketplace/listings", `{"landId":7,"priceEth":"1.5"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, "/api/marketplace/my-listings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), seller.ID)
}
