package curve

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
)

// ConstantProduct prices from inventory alone: tokens / nfts after the trade.
type ConstantProduct struct{}

// Kind implements Curve.
func (ConstantProduct) Kind() models.CurveKind { return models.CurveConstantProduct }

// QuoteSell pays tokens / (nfts + 1), rounded up.
func (ConstantProduct) QuoteSell(s State) (math.Int, error) {
	if s.TotalNfts == 0 {
		return math.ZeroInt(), fmt.Errorf("%w: constant product pair holds no nfts", models.ErrNoLiquidity)
	}
	divisor := math.NewIntFromUint64(s.TotalNfts + 1)
	quo := s.TotalTokens.Quo(divisor)
	if !s.TotalTokens.Mod(divisor).IsZero() {
		quo = quo.AddRaw(1)
	}
	return quo, nil
}

// QuoteBuy asks tokens / (nfts - 1), rounded down.
func (ConstantProduct) QuoteBuy(s State) (math.Int, error) {
	if s.TotalNfts <= 1 {
		return math.ZeroInt(), fmt.Errorf("%w: constant product pair needs more than one nft to sell", models.ErrNoLiquidity)
	}
	return s.TotalTokens.Quo(math.NewIntFromUint64(s.TotalNfts - 1)), nil
}

// ApplySell and ApplyBuy leave the state alone; price follows inventory.
func (ConstantProduct) ApplySell(s State) (State, error) { return s, nil }

func (ConstantProduct) ApplyBuy(s State) (State, error) { return s, nil }
