// Package router fills batches of one-unit swaps across every active pair
// of a collection and denom.
package router

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var routerLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	routerLog = zerolog.New(out).With().Timestamp().Str("component", "router").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	routerLog = l.With().Str("component", "router").Logger()
}

var tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-nft-amm/amm/router")

var batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "amm",
	Name:      "router_batches_total",
	Help:      "Router batches by side and outcome.",
}, []string{"side", "outcome"})

const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = pair.MaxQueryLimit
)

// PairIndex lists active pairs, earliest registration first.
type PairIndex interface {
	PairsFor(q ledger.Querier, collection, denom string) ([]string, error)
}

type Router struct {
	ledger ledger.Ledger
	pairs  *pair.Service
	index  PairIndex
}

func NewRouter(l ledger.Ledger, pairs *pair.Service, index PairIndex) *Router {
	return &Router{ledger: l, pairs: pairs, index: index}
}

// QuotesForSells ranks what active pairs pay for one NFT, best first.
func (r *Router) QuotesForSells(ctx context.Context, collection, denom string, limit int) ([]models.PairQuote, error) {
	return r.quotes(ctx, collection, denom, models.DirectionSell, limit)
}

// QuotesForBuys ranks what one NFT costs from active pairs, cheapest first.
func (r *Router) QuotesForBuys(ctx context.Context, collection, denom string, limit int) ([]models.PairQuote, error) {
	return r.quotes(ctx, collection, denom, models.DirectionBuy, limit)
}

func (r *Router) quotes(ctx context.Context, collection, denom string, dir models.Direction, limit int) ([]models.PairQuote, error) {
	if limit == 0 {
		limit = DefaultQueryLimit
	}
	if limit < 0 || limit > MaxQueryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxQueryLimit)
	}

	var ranked []models.PairQuote
	err := r.ledger.Query(ctx, func(q ledger.Querier) error {
		qt, err := r.pairs.NewQuoter(ctx, collection, denom)
		if err != nil {
			return err
		}
		ranked, err = r.rank(q, qt, collection, denom, dir)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// rank quotes every active pair and orders them for dir. Pairs that cannot
// trade right now are left out; any other quote failure is returned.
func (r *Router) rank(q ledger.Querier, qt *pair.Quoter, collection, denom string, dir models.Direction) ([]models.PairQuote, error) {
	addrs, err := r.index.PairsFor(q, collection, denom)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	ranked := make([]models.PairQuote, 0, len(addrs))
	for _, addr := range addrs {
		p, err := pair.Load(q, addr)
		if err != nil {
			return nil, err
		}
		quote, err := qt.Quote(p, dir)
		if pair.Unavailable(err) {
			routerLog.Debug().Err(err).Str("pair", addr).Msg("Skipping pair")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to quote pair %s: %w", addr, err)
		}
		ranked = append(ranked, models.PairQuote{Pair: addr, Sequence: p.Internal.Sequence, Quote: quote})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if dir == models.DirectionSell {
			if !a.Quote.SellerAmount.Equal(b.Quote.SellerAmount) {
				return a.Quote.SellerAmount.GT(b.Quote.SellerAmount)
			}
		} else {
			if at, bt := a.Quote.Total(), b.Quote.Total(); !at.Equal(bt) {
				return at.LT(bt)
			}
		}
		return a.Sequence < b.Sequence
	})
	return ranked, nil
}
