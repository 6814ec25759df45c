// Package curve prices one-unit trades against a pair's inventory.
package curve

import (
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/shopspring/decimal"
)

// State is what a curve needs to know about a pair.
type State struct {
	SpotPrice   math.Int
	TotalTokens math.Int
	TotalNfts   uint64
}

// Curve quotes and evolves prices. Sell means the pair buys an NFT from a
// user, buy means the pair sells one of its NFTs.
type Curve interface {
	Kind() models.CurveKind
	QuoteSell(s State) (math.Int, error)
	QuoteBuy(s State) (math.Int, error)
	ApplySell(s State) (State, error)
	ApplyBuy(s State) (State, error)
}

// New builds the curve described by a stored configuration.
func New(bc models.BondingCurve) (Curve, error) {
	if err := Validate(bc); err != nil {
		return nil, err
	}
	switch bc.Kind {
	case models.CurveLinear:
		return Linear{Delta: math.NewIntFromBigInt(bc.Delta.BigInt())}, nil
	case models.CurveExponential:
		return Exponential{Delta: bc.Delta}, nil
	default:
		return ConstantProduct{}, nil
	}
}

// Validate checks curve parameters without building the curve.
func Validate(bc models.BondingCurve) error {
	switch bc.Kind {
	case models.CurveLinear, models.CurveExponential:
		if bc.SpotPrice.IsNil() || bc.SpotPrice.IsNegative() {
			return fmt.Errorf("%w: spot_price must be non-negative", models.ErrConfigOutOfBounds)
		}
		if bc.Delta.IsNegative() {
			return fmt.Errorf("%w: delta must be non-negative", models.ErrConfigOutOfBounds)
		}
		if bc.Kind == models.CurveLinear && !bc.Delta.IsInteger() {
			return fmt.Errorf("%w: linear delta must be a whole amount", models.ErrConfigOutOfBounds)
		}
	case models.CurveConstantProduct:
	default:
		return fmt.Errorf("%w: unknown bonding curve %q", models.ErrInvalidInput, bc.Kind)
	}
	return nil
}

// ratio returns d as num/den over integers.
func ratio(d decimal.Decimal) (num, den *big.Int) {
	num = new(big.Int).Set(d.Coefficient())
	den = big.NewInt(1)
	exp := d.Exponent()
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(absInt32(exp))), nil)
	if exp < 0 {
		den = pow
	} else {
		num.Mul(num, pow)
	}
	return num, den
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// mulDiv returns a*num/den rounded down, or up when roundUp is set.
func mulDiv(a math.Int, num, den *big.Int, roundUp bool) math.Int {
	product := new(big.Int).Mul(a.BigInt(), num)
	quo, rem := new(big.Int).QuoRem(product, den, new(big.Int))
	if roundUp && rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return math.NewIntFromBigInt(quo)
}
