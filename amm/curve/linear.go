package curve

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
)

// Linear moves the spot price by a fixed delta per trade. Buy quotes sit one
// delta above sell quotes.
type Linear struct {
	Delta math.Int
}

// Kind implements Curve.
func (Linear) Kind() models.CurveKind { return models.CurveLinear }

// QuoteSell pays the current spot price.
func (l Linear) QuoteSell(s State) (math.Int, error) {
	return s.SpotPrice, nil
}

// QuoteBuy asks one delta above spot.
func (l Linear) QuoteBuy(s State) (math.Int, error) {
	return s.SpotPrice.Add(l.Delta), nil
}

// ApplySell lowers spot by delta and never clamps at zero.
func (l Linear) ApplySell(s State) (State, error) {
	next := s.SpotPrice.Sub(l.Delta)
	if next.IsNegative() {
		return s, fmt.Errorf("%w: spot price %s is below delta %s", models.ErrCurveExhausted, s.SpotPrice, l.Delta)
	}
	s.SpotPrice = next
	return s, nil
}

// ApplyBuy raises spot by delta.
func (l Linear) ApplyBuy(s State) (State, error) {
	s.SpotPrice = s.SpotPrice.Add(l.Delta)
	return s, nil
}
