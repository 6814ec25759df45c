package fees_test

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/fees"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
)

func setupTestSplitter() *fees.Splitter {
	return fees.NewSplitter(&models.GlobalConfig{
		FairBurn:             "stars1fairburn",
		FairBurnFeePercent:   decimal.RequireFromString("0.015"),
		MaxRoyaltyFeePercent: decimal.RequireFromString("0.05"),
		MaxSwapFeePercent:    decimal.RequireFromString("0.10"),
	})
}

func TestSplitSumsToGross(t *testing.T) {
	s := setupTestSplitter()
	entry := &royalty.Entry{Collection: "stars1coll", Recipient: "stars1artist", Share: decimal.RequireFromString("0.033")}
	pairType := models.TradePairType(decimal.RequireFromString("0.0271"), true, true)

	for _, gross := range []int64{0, 1, 7, 99, 1_000, 123_457, 9_999_999, 10_000_000, 1_000_000_007} {
		q, err := s.Split(math.NewInt(gross), "ustars", pairType, "stars1owner", entry)
		assert.NoError(t, err)

		sum := q.SellerAmount.Add(q.FairBurn.Amount)
		if q.Royalty != nil {
			sum = sum.Add(q.Royalty.Amount)
		}
		if q.Swap != nil {
			sum = sum.Add(q.Swap.Amount)
		}
		assert.Equal(t, sum.String(), math.NewInt(gross).String())
		assert.Equal(t, q.Total().String(), math.NewInt(gross).String())
		assert.False(t, q.SellerAmount.IsNegative())
	}
}

func TestSplitShares(t *testing.T) {
	s := setupTestSplitter()
	entry := &royalty.Entry{Collection: "stars1coll", Recipient: "stars1artist", Share: decimal.RequireFromString("0.05")}

	q, err := s.Split(math.NewInt(10_000_000), "ustars",
		models.TradePairType(decimal.RequireFromString("0.01"), false, false), "stars1owner", entry)
	assert.NoError(t, err)
	assert.Equal(t, q.FairBurn.Amount.String(), "150000")
	assert.Equal(t, q.FairBurn.Recipient, "stars1fairburn")
	assert.Equal(t, q.Royalty.Amount.String(), "500000")
	assert.Equal(t, q.Royalty.Recipient, "stars1artist")
	assert.Equal(t, q.Swap.Amount.String(), "100000")
	assert.Equal(t, q.Swap.Recipient, "stars1owner")
	assert.Equal(t, q.SellerAmount.String(), "9250000")
}

func TestSplitSwapFeeOnlyForTradePairs(t *testing.T) {
	s := setupTestSplitter()
	q, err := s.Split(math.NewInt(10_000_000), "ustars", models.TokenPairType(), "stars1owner", nil)
	assert.NoError(t, err)
	assert.True(t, q.Swap == nil)
	assert.True(t, q.Royalty == nil)
	assert.Equal(t, q.SellerAmount.String(), "9850000")
}

func TestSplitRejectsExcessiveRoyalty(t *testing.T) {
	s := setupTestSplitter()
	entry := &royalty.Entry{Collection: "stars1coll", Recipient: "stars1artist", Share: decimal.RequireFromString("0.06")}

	_, err := s.Split(math.NewInt(10_000_000), "ustars", models.NftPairType(), "stars1owner", entry)
	assert.True(t, errors.Is(err, models.ErrRoyaltyRateExceeded))
}

func TestSplitTruncatesTowardSeller(t *testing.T) {
	s := setupTestSplitter()
	q, err := s.Split(math.NewInt(99), "ustars", models.NftPairType(), "stars1owner", nil)
	assert.NoError(t, err)
	// 99 * 0.015 = 1.485 truncates to 1
	assert.Equal(t, q.FairBurn.Amount.String(), "1")
	assert.Equal(t, q.SellerAmount.String(), "98")
}
