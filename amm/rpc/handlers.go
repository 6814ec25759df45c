package rpc

import (
	"fmt"
	"net/http"
	"strconv"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	services Services
}

func (h *handlers) mount(r chi.Router) {
	r.Route("/factory", func(r chi.Router) {
		r.Post("/pairs", h.createPair)
		r.Get("/pairs/{owner}", h.pairsByOwner)
		r.Get("/next-pair/{owner}", h.nextPair)
		r.Get("/sim/{direction}/{address}", h.simSwaps)
	})
	r.Route("/pairs/{address}", func(r chi.Router) {
		r.Get("/", h.getPair)
		r.Get("/quote/{direction}", h.quote)
		r.Get("/nfts", h.pairNfts)
		r.Post("/swap", h.swap)
		r.Post("/deposit-nfts", h.depositNfts)
		r.Post("/deposit-tokens", h.depositTokens)
		r.Post("/withdraw-nfts", h.withdrawNfts)
		r.Post("/withdraw-any-nfts", h.withdrawAnyNfts)
		r.Post("/withdraw-tokens", h.withdrawTokens)
		r.Post("/withdraw-all-tokens", h.withdrawAllTokens)
		r.Post("/config", h.updateConfig)
		r.Post("/active", h.setActive)
	})
	r.Route("/router", func(r chi.Router) {
		r.Get("/quotes/{direction}", h.routerQuotes)
		r.Post("/sell", h.routerSell)
		r.Post("/buy", h.routerBuy)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidInput, err)
	}
	return nil
}

func direction(r *http.Request) (models.Direction, error) {
	dir := models.Direction(chi.URLParam(r, "direction"))
	if !dir.Valid() {
		return "", fmt.Errorf("%w: direction must be sell or buy", models.ErrInvalidInput)
	}
	return dir, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidInput, name)
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", models.ErrInvalidInput, name)
	}
	return v, nil
}

func boundParam(r *http.Request, name string) (*models.QueryBound, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an unsigned integer", models.ErrInvalidInput, name)
	}
	exclusive, err := boolParam(r, name+"_exclusive")
	if err != nil {
		return nil, err
	}
	return &models.QueryBound{Value: v, Exclusive: exclusive}, nil
}

// factory

type createPairRequest struct {
	Creator    string            `json:"creator"`
	Collection string            `json:"collection"`
	Denom      string            `json:"denom"`
	Owner      string            `json:"owner,omitempty"`
	Config     models.PairConfig `json:"config"`
}

func (h *handlers) createPair(w http.ResponseWriter, r *http.Request) {
	var req createPairRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	owner := req.Owner
	if owner == "" {
		owner = req.Creator
	}
	entry, err := h.services.Factory.CreatePair(r.Context(), req.Creator,
		models.PairImmutable{Collection: req.Collection, Denom: req.Denom, Owner: owner},
		req.Config,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *handlers) pairsByOwner(w http.ResponseWriter, r *http.Request) {
	var opts models.QueryOptions
	var err error
	if opts.Min, err = boundParam(r, "min"); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Max, err = boundParam(r, "max"); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Limit, err = intParam(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Descending, err = boolParam(r, "descending"); err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.services.Factory.PairsByOwner(r.Context(), chi.URLParam(r, "owner"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": entries})
}

func (h *handlers) nextPair(w http.ResponseWriter, r *http.Request) {
	next, err := h.services.Factory.NextPair(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (h *handlers) simSwaps(w http.ResponseWriter, r *http.Request) {
	dir, err := direction(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 10)
	if err != nil {
		writeError(w, r, err)
		return
	}

	addr := chi.URLParam(r, "address")
	var quotes []*models.QuoteSummary
	if dir == models.DirectionSell {
		quotes, err = h.services.Factory.SimSellToPairSwaps(r.Context(), addr, limit)
	} else {
		quotes, err = h.services.Factory.SimBuyFromPairSwaps(r.Context(), addr, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pair": addr, "direction": dir, "quotes": quotes})
}

// pairs

func (h *handlers) writePair(w http.ResponseWriter, r *http.Request, status int) {
	view, err := h.services.Pairs.Get(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

func (h *handlers) getPair(w http.ResponseWriter, r *http.Request) {
	h.writePair(w, r, http.StatusOK)
}

func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	dir, err := direction(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := h.services.Pairs.Quote(r.Context(), chi.URLParam(r, "address"), dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handlers) pairNfts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := h.services.Pairs.NftDeposits(r.Context(), chi.URLParam(r, "address"), r.URL.Query().Get("start_after"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token_ids": ids})
}

type swapRequest struct {
	Direction models.Direction `json:"direction"`
	Sender    string           `json:"sender"`
	TokenID   string           `json:"token_id,omitempty"`
	Bound     math.Int         `json:"bound"`
	Recipient string           `json:"recipient,omitempty"`
}

func (h *handlers) swap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Direction.Valid() {
		writeError(w, r, fmt.Errorf("%w: direction must be sell or buy", models.ErrInvalidInput))
		return
	}
	res, err := h.services.Pairs.Swap(r.Context(), chi.URLParam(r, "address"), pair.SwapRequest{
		Direction: req.Direction,
		Sender:    req.Sender,
		TokenID:   req.TokenID,
		Bound:     req.Bound,
		Recipient: req.Recipient,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type nftsRequest struct {
	Sender    string   `json:"sender"`
	TokenIDs  []string `json:"token_ids"`
	Recipient string   `json:"recipient,omitempty"`
}

type tokensRequest struct {
	Sender    string   `json:"sender"`
	Amount    math.Int `json:"amount"`
	Recipient string   `json:"recipient,omitempty"`
}

// ownerOp decodes req, runs op and answers with the pair's new state.
func ownerOp[T any](h *handlers, op func(r *http.Request, addr string, req *T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := op(r, chi.URLParam(r, "address"), &req); err != nil {
			writeError(w, r, err)
			return
		}
		h.writePair(w, r, http.StatusOK)
	}
}

func (h *handlers) depositNfts(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *nftsRequest) error {
		return h.services.Pairs.DepositNfts(r.Context(), addr, req.Sender, req.TokenIDs)
	})(w, r)
}

func (h *handlers) depositTokens(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *tokensRequest) error {
		return h.services.Pairs.DepositTokens(r.Context(), addr, req.Sender, req.Amount)
	})(w, r)
}

func (h *handlers) withdrawNfts(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *nftsRequest) error {
		return h.services.Pairs.WithdrawNfts(r.Context(), addr, req.Sender, req.TokenIDs, req.Recipient)
	})(w, r)
}

type withdrawAnyRequest struct {
	Sender    string `json:"sender"`
	Limit     int    `json:"limit"`
	Recipient string `json:"recipient,omitempty"`
}

func (h *handlers) withdrawAnyNfts(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *withdrawAnyRequest) error {
		return h.services.Pairs.WithdrawAnyNfts(r.Context(), addr, req.Sender, req.Limit, req.Recipient)
	})(w, r)
}

func (h *handlers) withdrawTokens(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *tokensRequest) error {
		return h.services.Pairs.WithdrawTokens(r.Context(), addr, req.Sender, req.Amount, req.Recipient)
	})(w, r)
}

type withdrawAllRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
}

func (h *handlers) withdrawAllTokens(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *withdrawAllRequest) error {
		return h.services.Pairs.WithdrawAllTokens(r.Context(), addr, req.Sender, req.Recipient)
	})(w, r)
}

type updateConfigRequest struct {
	Sender string `json:"sender"`
	pair.ConfigUpdate
}

func (h *handlers) updateConfig(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *updateConfigRequest) error {
		return h.services.Pairs.UpdateConfig(r.Context(), addr, req.Sender, req.ConfigUpdate)
	})(w, r)
}

type setActiveRequest struct {
	Sender   string `json:"sender"`
	IsActive bool   `json:"is_active"`
}

func (h *handlers) setActive(w http.ResponseWriter, r *http.Request) {
	ownerOp(h, func(r *http.Request, addr string, req *setActiveRequest) error {
		return h.services.Pairs.SetActive(r.Context(), addr, req.Sender, req.IsActive)
	})(w, r)
}

// router

func (h *handlers) routerQuotes(w http.ResponseWriter, r *http.Request) {
	dir, err := direction(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	collection, denom := q.Get("collection"), q.Get("denom")

	var quotes []models.PairQuote
	if dir == models.DirectionSell {
		quotes, err = h.services.Router.QuotesForSells(r.Context(), collection, denom, limit)
	} else {
		quotes, err = h.services.Router.QuotesForBuys(r.Context(), collection, denom, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"direction": dir, "quotes": quotes})
}

type batchRequest[L any] struct {
	Sender         string `json:"sender"`
	Collection     string `json:"collection"`
	Denom          string `json:"denom"`
	Legs           []L    `json:"legs"`
	AssetRecipient string `json:"asset_recipient,omitempty"`
}

func (h *handlers) routerSell(w http.ResponseWriter, r *http.Request) {
	var req batchRequest[models.SellLeg]
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.services.Router.SwapNftsForTokens(r.Context(), req.Sender, req.Collection, req.Denom,
		req.Legs, models.SwapParams{AssetRecipient: req.AssetRecipient})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) routerBuy(w http.ResponseWriter, r *http.Request) {
	var req batchRequest[models.BuyLeg]
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.services.Router.SwapTokensForNfts(r.Context(), req.Sender, req.Collection, req.Denom,
		req.Legs, models.SwapParams{AssetRecipient: req.AssetRecipient})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
