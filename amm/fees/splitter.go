// Package fees divides a gross trade amount between the protocol, the
// collection creator, the pair owner and the seller.
package fees

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/shopspring/decimal"
)

type Splitter struct {
	global *models.GlobalConfig
}

func NewSplitter(global *models.GlobalConfig) *Splitter {
	return &Splitter{global: global}
}

// Split computes the QuoteSummary for a gross amount. Each share is
// truncated toward zero and the seller takes whatever is left, so the
// parts always add back up to gross.
func (s *Splitter) Split(
	gross math.Int,
	denom string,
	pairType models.PairType,
	assetRecipient string,
	entry *royalty.Entry,
) (*models.QuoteSummary, error) {
	if gross.IsNil() || gross.IsNegative() {
		return nil, fmt.Errorf("%w: gross amount must be non-negative", models.ErrInvalidInput)
	}

	summary := &models.QuoteSummary{
		Denom: denom,
		FairBurn: models.TokenPayment{
			Recipient: s.global.FairBurn,
			Amount:    share(gross, s.global.FairBurnFeePercent),
		},
	}
	remaining := gross.Sub(summary.FairBurn.Amount)

	if entry != nil {
		if entry.Share.GreaterThan(s.global.MaxRoyaltyFeePercent) {
			return nil, fmt.Errorf("%w: %s pays %s, max is %s",
				models.ErrRoyaltyRateExceeded, entry.Collection, entry.Share, s.global.MaxRoyaltyFeePercent)
		}
		if amount := share(gross, entry.Share); amount.IsPositive() {
			summary.Royalty = &models.TokenPayment{Recipient: entry.Recipient, Amount: amount}
			remaining = remaining.Sub(amount)
		}
	}

	if pairType.Kind == models.PairKindTrade {
		if amount := share(gross, pairType.SwapFeePercent); amount.IsPositive() {
			summary.Swap = &models.TokenPayment{Recipient: assetRecipient, Amount: amount}
			remaining = remaining.Sub(amount)
		}
	}

	if remaining.IsNegative() {
		return nil, fmt.Errorf("%w: fees exceed gross amount %s", models.ErrConfigOutOfBounds, gross)
	}
	summary.SellerAmount = remaining
	return summary, nil
}

func share(gross math.Int, percent decimal.Decimal) math.Int {
	if percent.IsZero() || gross.IsZero() {
		return math.ZeroInt()
	}
	amount := decimal.NewFromBigInt(gross.BigInt(), 0).Mul(percent).Truncate(0)
	return math.NewIntFromBigInt(amount.BigInt())
}
