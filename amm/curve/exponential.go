package curve

import (
	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/shopspring/decimal"
)

// Exponential scales the spot price by (1 + Delta) per trade. Sells round
// down and buys round up so the pair never loses a minor unit to rounding.
type Exponential struct {
	Delta decimal.Decimal
}

// Kind implements Curve.
func (Exponential) Kind() models.CurveKind { return models.CurveExponential }

// QuoteSell pays the current spot price.
func (e Exponential) QuoteSell(s State) (math.Int, error) {
	return s.SpotPrice, nil
}

// QuoteBuy asks spot * (1 + delta), rounded up.
func (e Exponential) QuoteBuy(s State) (math.Int, error) {
	return e.up(s.SpotPrice), nil
}

// ApplySell divides spot by (1 + delta), rounded down.
func (e Exponential) ApplySell(s State) (State, error) {
	num, den := ratio(decimal.NewFromInt(1).Add(e.Delta))
	s.SpotPrice = mulDiv(s.SpotPrice, den, num, false)
	return s, nil
}

// ApplyBuy moves spot to the buy quote.
func (e Exponential) ApplyBuy(s State) (State, error) {
	s.SpotPrice = e.up(s.SpotPrice)
	return s, nil
}

func (e Exponential) up(spot math.Int) math.Int {
	num, den := ratio(decimal.NewFromInt(1).Add(e.Delta))
	return mulDiv(spot, num, den, true)
}
