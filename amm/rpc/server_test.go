package rpc_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/factory"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/index"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/router"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/rpc"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fixture struct {
	ctx     context.Context
	l       *ledger.LevelDB
	handler http.Handler
}

func setupTestServer(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.NewMemLevelDB()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	factoryAddr, err := factory.EncodeAddress("stars", bytes.Repeat([]byte{0xfa}, 32))
	assert.NoError(t, err)
	global := &models.GlobalConfig{
		FairBurn:             "fairburn",
		FairBurnFeePercent:   decimal.RequireFromString("0.01"),
		MaxRoyaltyFeePercent: decimal.RequireFromString("0.05"),
		MaxSwapFeePercent:    decimal.RequireFromString("0.05"),
		PairCreationFee:      models.NewCoin("ustars", 0),
		InfinityFactory:      factoryAddr,
		PairCodeChecksum:     bytes.Repeat([]byte{0x13}, 32),
		Bech32Prefix:         "stars",
		MinPrices:            []models.Coin{models.NewCoin("ustars", 1)},
	}
	reg, err := royalty.NewStatic(nil)
	assert.NoError(t, err)
	idx := index.New()
	pairs := pair.NewService(l, global, reg, idx)
	fct, err := factory.New(l, global, pairs)
	assert.NoError(t, err)

	srv, err := rpc.NewServer(context.Background(), &rpc.ServerConfig{
		Address:        "127.0.0.1:0",
		AllowedOrigins: []string{"*"},
	}, rpc.Services{Factory: fct, Pairs: pairs, Router: router.NewRouter(l, pairs, idx)})
	assert.NoError(t, err)

	return &fixture{ctx: context.Background(), l: l, handler: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if out != nil {
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Leg   *int   `json:"leg"`
}

const tokenPairBody = `{
	"creator": "owner",
	"collection": "coll",
	"denom": "ustars",
	"config": {
		"pair_type": {"kind": "token", "swap_fee_percent": "0"},
		"bonding_curve": {"kind": "linear", "spot_price": "10000000", "delta": "1000000"}
	}
}`

// createActivePair creates a token pair over HTTP and funds and activates it.
func (f *fixture) createActivePair(t *testing.T) string {
	t.Helper()
	var entry models.RegistryEntry
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/factory/pairs", tokenPairBody, &entry), http.StatusCreated)

	assert.NoError(t, f.l.Fund(f.ctx, "owner", models.NewCoin("ustars", 50_000_000)))
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/pairs/"+entry.Pair+"/deposit-tokens",
		`{"sender": "owner", "amount": "50000000"}`, nil), http.StatusOK)

	var view pair.View
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/pairs/"+entry.Pair+"/active",
		`{"sender": "owner", "is_active": true}`, &view), http.StatusOK)
	assert.True(t, view.Pair.Config.IsActive)
	assert.Equal(t, view.TotalTokens, "50000000")
	return entry.Pair
}

func TestHealth(t *testing.T) {
	f := setupTestServer(t)
	var body map[string]string
	assert.Equal(t, f.do(t, http.MethodGet, "/server/health", "", &body), http.StatusOK)
	assert.Equal(t, body["status"], "healthy")
}

func TestCreatePairMatchesPreview(t *testing.T) {
	f := setupTestServer(t)

	var next factory.NextPair
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/factory/next-pair/owner", "", &next), http.StatusOK)
	assert.Equal(t, next.Counter, uint64(0))

	var entry models.RegistryEntry
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/factory/pairs", tokenPairBody, &entry), http.StatusCreated)
	assert.Equal(t, entry.Pair, next.Address)

	var listed struct {
		Pairs []models.RegistryEntry `json:"pairs"`
	}
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/factory/pairs/owner?limit=5", "", &listed), http.StatusOK)
	assert.Equal(t, len(listed.Pairs), 1)
	assert.Equal(t, listed.Pairs[0].Pair, entry.Pair)
}

func TestSwapOverHTTP(t *testing.T) {
	f := setupTestServer(t)
	addr := f.createActivePair(t)
	assert.NoError(t, f.l.MintNft(f.ctx, "coll", "7", "alice"))

	var quote models.QuoteSummary
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/pairs/"+addr+"/quote/sell", "", &quote), http.StatusOK)
	assert.Equal(t, quote.SellerAmount.String(), "9900000")

	var res pair.SwapResult
	body := `{"direction": "sell", "sender": "alice", "token_id": "7", "bound": "9900000"}`
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/pairs/"+addr+"/swap", body, &res), http.StatusOK)
	assert.Equal(t, res.TokenID, "7")
	assert.Equal(t, res.Quote.FairBurn.Amount.String(), "100000")

	var ladder struct {
		Quotes []models.QuoteSummary `json:"quotes"`
	}
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/factory/sim/sell/"+addr+"?limit=2", "", &ladder), http.StatusOK)
	assert.Equal(t, len(ladder.Quotes), 2)
	assert.Equal(t, ladder.Quotes[0].Total().String(), "9000000")
}

func TestRouterBatchAbortReportsLeg(t *testing.T) {
	f := setupTestServer(t)
	f.createActivePair(t)
	assert.NoError(t, f.l.MintNft(f.ctx, "coll", "1", "alice"))
	assert.NoError(t, f.l.MintNft(f.ctx, "coll", "2", "alice"))

	body := `{
		"sender": "alice",
		"collection": "coll",
		"denom": "ustars",
		"legs": [
			{"input_token_id": "1", "min_output": "9900000"},
			{"input_token_id": "2", "min_output": "9900000"}
		]
	}`
	var apiErr apiError
	assert.Equal(t, f.do(t, http.MethodPost, "/v1/router/sell", body, &apiErr), http.StatusConflict)
	assert.Equal(t, apiErr.Code, "slippage_exceeded")
	assert.NotNil(t, apiErr.Leg)
	assert.Equal(t, *apiErr.Leg, 1)

	var quotes struct {
		Quotes []models.PairQuote `json:"quotes"`
	}
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/router/quotes/sell?collection=coll&denom=ustars", "", &quotes), http.StatusOK)
	assert.Equal(t, len(quotes.Quotes), 1)
	assert.Equal(t, quotes.Quotes[0].Quote.SellerAmount.String(), "9900000")
}

func TestErrorStatuses(t *testing.T) {
	f := setupTestServer(t)
	addr := f.createActivePair(t)

	var apiErr apiError
	assert.Equal(t, f.do(t, http.MethodGet, "/v1/pairs/nowhere", "", &apiErr), http.StatusNotFound)
	assert.Equal(t, apiErr.Code, "pair_not_found")

	assert.Equal(t, f.do(t, http.MethodGet, "/v1/pairs/"+addr+"/quote/sideways", "", &apiErr), http.StatusBadRequest)
	assert.Equal(t, apiErr.Code, "invalid_input")

	assert.Equal(t, f.do(t, http.MethodPost, "/v1/pairs/"+addr+"/active",
		`{"sender": "mallory", "is_active": false}`, &apiErr), http.StatusForbidden)
	assert.Equal(t, apiErr.Code, "unauthorized")

	assert.Equal(t, f.do(t, http.MethodPost, "/v1/pairs/"+addr+"/active",
		`{"sender": "owner", "unknown": 1}`, &apiErr), http.StatusBadRequest)

	assert.Equal(t, f.do(t, http.MethodGet, "/v1/pairs/"+addr+"/quote/buy", "", &apiErr), http.StatusConflict)
	assert.Equal(t, apiErr.Code, "no_liquidity")
}
