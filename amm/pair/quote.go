package pair

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/curve"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/fees"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
)

// Quoter prices pairs of one collection and denom. It holds the royalty
// entry and minimum price so a batch looks them up once.
type Quoter struct {
	splitter *fees.Splitter
	royalty  *royalty.Entry
	minPrice math.Int
}

// NewQuoter resolves the collaborators a quote depends on.
func (s *Service) NewQuoter(ctx context.Context, collection, denom string) (*Quoter, error) {
	entry, err := s.royalties.GetRoyalty(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query royalty registry: %w", err)
	}
	minPrice, _ := s.global.MinPrice(denom)
	return &Quoter{splitter: s.splitter, royalty: entry, minPrice: minPrice}, nil
}

// Unavailable reports whether err only means the pair cannot trade right
// now, as opposed to a fault shared by every pair of the collection.
func Unavailable(err error) bool {
	return errors.Is(err, models.ErrNoLiquidity) ||
		errors.Is(err, models.ErrPairInactive) ||
		errors.Is(err, models.ErrCurveExhausted)
}

func curveState(p *models.Pair) curve.State {
	return curve.State{
		SpotPrice:   p.Config.BondingCurve.SpotPrice,
		TotalTokens: p.TotalTokens,
		TotalNfts:   p.Internal.TotalNfts,
	}
}

// Quote prices one unit in dir without touching p.
func (qt *Quoter) Quote(p *models.Pair, dir models.Direction) (*models.QuoteSummary, error) {
	if !p.Config.IsActive {
		return nil, fmt.Errorf("%w: %s", models.ErrPairInactive, p.Address)
	}
	c, err := curve.New(p.Config.BondingCurve)
	if err != nil {
		return nil, err
	}
	st := curveState(p)

	var gross math.Int
	switch dir {
	case models.DirectionSell:
		if p.Config.PairType.Kind == models.PairKindNft {
			return nil, fmt.Errorf("%w: nft pair %s does not buy nfts", models.ErrNoLiquidity, p.Address)
		}
		if gross, err = c.QuoteSell(st); err != nil {
			return nil, err
		}
		if _, err := c.ApplySell(st); err != nil {
			return nil, err
		}
		if gross.GT(p.TotalTokens) {
			return nil, fmt.Errorf("%w: pair %s holds %s, quote is %s",
				models.ErrNoLiquidity, p.Address, p.TotalTokens, gross)
		}
	case models.DirectionBuy:
		if p.Config.PairType.Kind == models.PairKindToken {
			return nil, fmt.Errorf("%w: token pair %s does not sell nfts", models.ErrNoLiquidity, p.Address)
		}
		if p.Internal.TotalNfts == 0 {
			return nil, fmt.Errorf("%w: pair %s holds no nfts", models.ErrNoLiquidity, p.Address)
		}
		if gross, err = c.QuoteBuy(st); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidInput, dir)
	}

	if gross.LT(qt.minPrice) {
		return nil, fmt.Errorf("%w: quote %s is below min price %s", models.ErrNoLiquidity, gross, qt.minPrice)
	}
	return qt.splitter.Split(gross, p.Immutable.Denom, p.Config.PairType, p.AssetRecipient(), qt.royalty)
}

// Simulate quotes one unit and then advances p in memory as if the trade
// had settled.
func (qt *Quoter) Simulate(p *models.Pair, dir models.Direction) (*models.QuoteSummary, error) {
	quote, err := qt.Quote(p, dir)
	if err != nil {
		return nil, err
	}
	if err := advance(p, dir); err != nil {
		return nil, err
	}
	pt := p.Config.PairType
	switch dir {
	case models.DirectionSell:
		p.TotalTokens = p.TotalTokens.Sub(quote.Total())
		if pt.Kind == models.PairKindTrade && pt.ReinvestNfts {
			p.Internal.TotalNfts++
		}
	case models.DirectionBuy:
		p.Internal.TotalNfts--
		if pt.Kind == models.PairKindTrade && pt.ReinvestTokens {
			p.TotalTokens = p.TotalTokens.Add(quote.SellerAmount)
		}
	}
	return quote, nil
}

// advance moves the curve one trade in dir and counts the trade.
func advance(p *models.Pair, dir models.Direction) error {
	c, err := curve.New(p.Config.BondingCurve)
	if err != nil {
		return err
	}
	var st curve.State
	if dir == models.DirectionSell {
		st, err = c.ApplySell(curveState(p))
	} else {
		st, err = c.ApplyBuy(curveState(p))
	}
	if err != nil {
		return err
	}
	p.Config.BondingCurve.SpotPrice = st.SpotPrice
	p.Internal.TradeCount++
	return nil
}
