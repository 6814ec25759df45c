package rpc

import (
	"errors"
	"net/http"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Leg is set when a router batch aborted.
	Leg *int `json:"leg,omitempty"`
}

// errorStatuses is checked in order; a batch abort resolves to its cause first.
var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrPairNotFound, http.StatusNotFound, "pair_not_found"},
	{models.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{models.ErrConfigOutOfBounds, http.StatusBadRequest, "config_out_of_bounds"},
	{models.ErrSlippageExceeded, http.StatusConflict, "slippage_exceeded"},
	{models.ErrNoLiquidity, http.StatusConflict, "no_liquidity"},
	{models.ErrPairInactive, http.StatusConflict, "pair_inactive"},
	{models.ErrCurveExhausted, http.StatusConflict, "curve_exhausted"},
	{models.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
	{models.ErrNotNftOwner, http.StatusConflict, "not_nft_owner"},
	{models.ErrDuplicateSalt, http.StatusConflict, "duplicate_salt"},
	{models.ErrRoyaltyRateExceeded, http.StatusUnprocessableEntity, "royalty_rate_exceeded"},
	{models.ErrBatchAborted, http.StatusConflict, "batch_aborted"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors to statuses. Anything unrecognized is logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	var aborted *models.BatchAbortedError
	if errors.As(err, &aborted) {
		leg := aborted.Leg
		body.Leg = &leg
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			body.Code = e.code
			writeJSON(w, e.status, body)
			return
		}
	}

	Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "internal", Leg: body.Leg})
}
