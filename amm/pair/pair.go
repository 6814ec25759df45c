// Package pair implements a single liquidity position: quoting, settling
// swaps against the ledger and the owner's inventory management.
package pair

import (
	"context"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/fees"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var pairLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	pairLog = zerolog.New(out).With().Timestamp().Str("component", "pair").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	pairLog = l.With().Str("component", "pair").Logger()
}

var tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair")

var swapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "amm",
	Name:      "pair_swaps_total",
	Help:      "Settled pair swaps by direction.",
}, []string{"direction"})

// MaxQueryLimit caps paginated pair queries.
const MaxQueryLimit = 100

// IndexWriter is told about every saved pair so it can track active ones.
type IndexWriter interface {
	Update(tx ledger.Tx, p *models.Pair) error
}

type Service struct {
	ledger    ledger.Ledger
	global    *models.GlobalConfig
	splitter  *fees.Splitter
	royalties royalty.Registry
	index     IndexWriter
}

func NewService(
	l ledger.Ledger,
	global *models.GlobalConfig,
	royalties royalty.Registry,
	index IndexWriter,
) *Service {
	return &Service{
		ledger:    l,
		global:    global,
		splitter:  fees.NewSplitter(global),
		royalties: royalties,
		index:     index,
	}
}

// View is a pair together with its current quotes. A nil quote means the
// pair cannot trade in that direction right now.
type View struct {
	Pair        *models.Pair         `json:"pair"`
	TotalTokens string               `json:"total_tokens"`
	SellQuote   *models.QuoteSummary `json:"sell_quote,omitempty"`
	BuyQuote    *models.QuoteSummary `json:"buy_quote,omitempty"`
}

// Get returns the pair stored at addr and its current quotes.
func (s *Service) Get(ctx context.Context, addr string) (*View, error) {
	var view *View
	err := s.ledger.Query(ctx, func(q ledger.Querier) error {
		p, err := Load(q, addr)
		if err != nil {
			return err
		}
		qt, err := s.NewQuoter(ctx, p.Immutable.Collection, p.Immutable.Denom)
		if err != nil {
			return err
		}
		view = &View{Pair: p, TotalTokens: p.TotalTokens.String()}
		if view.SellQuote, err = qt.Quote(p, models.DirectionSell); err != nil && !Unavailable(err) {
			return err
		}
		if view.BuyQuote, err = qt.Quote(p, models.DirectionBuy); err != nil && !Unavailable(err) {
			return err
		}
		return nil
	})
	return view, err
}

// Quote returns the pair's current one-unit quote in a direction.
func (s *Service) Quote(ctx context.Context, addr string, dir models.Direction) (*models.QuoteSummary, error) {
	var quote *models.QuoteSummary
	err := s.ledger.Query(ctx, func(q ledger.Querier) error {
		var err error
		quote, err = s.QuoteIn(ctx, q, addr, dir)
		return err
	})
	return quote, err
}

// QuoteIn quotes against the state visible through q, which may be an open transaction.
func (s *Service) QuoteIn(ctx context.Context, q ledger.Querier, addr string, dir models.Direction) (*models.QuoteSummary, error) {
	p, err := Load(q, addr)
	if err != nil {
		return nil, err
	}
	qt, err := s.NewQuoter(ctx, p.Immutable.Collection, p.Immutable.Denom)
	if err != nil {
		return nil, err
	}
	return qt.Quote(p, dir)
}

// Ladder lists the quotes of up to limit consecutive trades in one
// direction, stopping early when the pair runs out.
func (s *Service) Ladder(ctx context.Context, addr string, dir models.Direction, limit int) ([]*models.QuoteSummary, error) {
	var ladder []*models.QuoteSummary
	err := s.ledger.Query(ctx, func(q ledger.Querier) error {
		p, err := Load(q, addr)
		if err != nil {
			return err
		}
		qt, err := s.NewQuoter(ctx, p.Immutable.Collection, p.Immutable.Denom)
		if err != nil {
			return err
		}
		for len(ladder) < limit {
			quote, err := qt.Simulate(p, dir)
			if Unavailable(err) {
				break
			}
			if err != nil {
				return err
			}
			ladder = append(ladder, quote)
		}
		return nil
	})
	return ladder, err
}

// NftDeposits pages through the token ids held by the pair in ascending order.
func (s *Service) NftDeposits(ctx context.Context, addr, startAfter string, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	var ids []string
	err := s.ledger.Query(ctx, func(q ledger.Querier) error {
		if _, err := Load(q, addr); err != nil {
			return err
		}
		var err error
		ids, err = listDeposits(q, addr, startAfter, limit)
		return err
	})
	return ids, err
}
