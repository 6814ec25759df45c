package models

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// GlobalConfig is protocol-wide configuration. It is loaded once and shared
// by pointer; nothing mutates it after load.
type GlobalConfig struct {
	FairBurn             string
	FairBurnFeePercent   decimal.Decimal
	MaxRoyaltyFeePercent decimal.Decimal
	MaxSwapFeePercent    decimal.Decimal
	PairCreationFee      Coin

	InfinityFactory string
	InfinityIndex   string
	InfinityRouter  string
	RoyaltyRegistry string
	Marketplace     string

	PairCodeChecksum []byte
	Bech32Prefix     string

	// MinPrices lists the supported denoms and the smallest gross trade for each.
	MinPrices []Coin
}

// MinPrice returns the minimum trade size for a denom and whether the denom is supported.
func (g *GlobalConfig) MinPrice(denom string) (math.Int, bool) {
	for _, c := range g.MinPrices {
		if c.Denom == denom {
			return c.Amount, true
		}
	}
	return math.ZeroInt(), false
}

// Validate checks the fee caps and the required addresses.
func (g *GlobalConfig) Validate() error {
	percents := []struct {
		name  string
		value decimal.Decimal
	}{
		{"fair_burn_fee_percent", g.FairBurnFeePercent},
		{"max_royalty_fee_percent", g.MaxRoyaltyFeePercent},
		{"max_swap_fee_percent", g.MaxSwapFeePercent},
	}
	sum := decimal.Zero
	for _, p := range percents {
		if p.value.IsNegative() || p.value.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s must be between 0 and 1", ErrConfigOutOfBounds, p.name)
		}
		sum = sum.Add(p.value)
	}
	if sum.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: fee percents sum to %s", ErrConfigOutOfBounds, sum.String())
	}
	if g.FairBurn == "" {
		return fmt.Errorf("%w: fair_burn address is required", ErrInvalidInput)
	}
	if g.InfinityFactory == "" {
		return fmt.Errorf("%w: infinity_factory address is required", ErrInvalidInput)
	}
	if len(g.PairCodeChecksum) != 32 {
		return fmt.Errorf("%w: pair_code_checksum must be 32 bytes", ErrInvalidInput)
	}
	if g.Bech32Prefix == "" {
		return fmt.Errorf("%w: bech32_prefix is required", ErrInvalidInput)
	}
	if err := g.PairCreationFee.Validate(); err != nil {
		return fmt.Errorf("invalid pair_creation_fee: %w", err)
	}
	for _, c := range g.MinPrices {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid min_prices entry: %w", err)
		}
	}
	return nil
}
