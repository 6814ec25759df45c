package router

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// leg is one batch item reduced to what settlement needs.
type leg struct {
	tokenID string
	bound   math.Int
}

// SwapNftsForTokens sells each leg's NFT to the best bidding pair, in leg
// order. Either every leg settles or none does.
func (r *Router) SwapNftsForTokens(
	ctx context.Context,
	sender, collection, denom string,
	legs []models.SellLeg,
	params models.SwapParams,
) (*models.BatchResult, error) {
	items := make([]leg, len(legs))
	for i, l := range legs {
		if l.InputTokenID == "" {
			return nil, fmt.Errorf("%w: leg %d has no token id", models.ErrInvalidInput, i)
		}
		items[i] = leg{tokenID: l.InputTokenID, bound: l.MinOutput}
	}
	return r.runBatch(ctx, models.DirectionSell, sender, collection, denom, items, params)
}

// SwapTokensForNfts buys one NFT per leg from the cheapest asking pair, in
// leg order. Either every leg settles or none does.
func (r *Router) SwapTokensForNfts(
	ctx context.Context,
	sender, collection, denom string,
	legs []models.BuyLeg,
	params models.SwapParams,
) (*models.BatchResult, error) {
	items := make([]leg, len(legs))
	for i, l := range legs {
		items[i] = leg{bound: l.MaxInput}
	}
	return r.runBatch(ctx, models.DirectionBuy, sender, collection, denom, items, params)
}

func (r *Router) runBatch(
	ctx context.Context,
	dir models.Direction,
	sender, collection, denom string,
	legs []leg,
	params models.SwapParams,
) (*models.BatchResult, error) {
	if sender == "" || collection == "" || denom == "" {
		return nil, fmt.Errorf("%w: sender, collection and denom are required", models.ErrInvalidInput)
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: batch has no legs", models.ErrInvalidInput)
	}

	batchID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "router.Batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch_id", batchID),
		attribute.String("direction", string(dir)),
		attribute.Int("legs", len(legs)),
	)

	result := &models.BatchResult{BatchID: batchID}
	err := r.ledger.Execute(ctx, func(tx ledger.Tx) error {
		qt, err := r.pairs.NewQuoter(ctx, collection, denom)
		if err != nil {
			return err
		}
		for i, l := range legs {
			fill, err := r.fillLeg(ctx, tx, qt, dir, sender, collection, denom, l, params)
			if err != nil {
				return &models.BatchAbortedError{Leg: i, Err: err}
			}
			fill.Leg = i
			result.Fills = append(result.Fills, *fill)
		}
		return nil
	})
	if err != nil {
		batchesTotal.WithLabelValues(string(dir), "aborted").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		routerLog.Warn().
			Err(err).
			Str("batch_id", batchID).
			Str("direction", string(dir)).
			Int("legs", len(legs)).
			Msg("Batch aborted")
		return nil, err
	}

	batchesTotal.WithLabelValues(string(dir), "committed").Inc()
	for _, fill := range result.Fills {
		pair.RecordSwap(dir, &pair.SwapResult{Pair: fill.Pair, TokenID: fill.TokenID, Quote: fill.Quote})
	}
	routerLog.Info().
		Str("batch_id", batchID).
		Str("direction", string(dir)).
		Str("collection", collection).
		Str("denom", denom).
		Int("legs", len(legs)).
		Msg("Batch committed")
	return result, nil
}

// fillLeg settles one leg with the best pair given everything the batch
// has done so far.
func (r *Router) fillLeg(
	ctx context.Context,
	tx ledger.Tx,
	qt *pair.Quoter,
	dir models.Direction,
	sender, collection, denom string,
	l leg,
	params models.SwapParams,
) (*models.LegFill, error) {
	ranked, err := r.rank(tx, qt, collection, denom, dir)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no pair quotes %s for %s/%s", models.ErrNoLiquidity, dir, collection, denom)
	}
	best := ranked[0]

	res, err := r.pairs.SwapIn(ctx, tx, best.Pair, pair.SwapRequest{
		Direction: dir,
		Sender:    sender,
		TokenID:   l.tokenID,
		Bound:     l.bound,
		Recipient: params.AssetRecipient,
	})
	if err != nil {
		return nil, err
	}
	return &models.LegFill{Pair: res.Pair, TokenID: res.TokenID, Quote: res.Quote}, nil
}
