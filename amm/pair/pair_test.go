package pair_test

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/index"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/royalty"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
)

const (
	collection = "coll"
	denom      = "ustars"
	owner      = "owner"
)

type fixture struct {
	ctx context.Context
	l   *ledger.LevelDB
	svc *pair.Service
	seq uint64
}

func setupTestPairs(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.NewMemLevelDB()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	global := &models.GlobalConfig{
		FairBurn:             "fairburn",
		FairBurnFeePercent:   decimal.RequireFromString("0.01"),
		MaxRoyaltyFeePercent: decimal.RequireFromString("0.05"),
		MaxSwapFeePercent:    decimal.RequireFromString("0.05"),
		MinPrices:            []models.Coin{models.NewCoin(denom, 1_000)},
	}
	reg, err := royalty.NewStatic([]royalty.Entry{
		{Collection: collection, Recipient: "artist", Share: decimal.RequireFromString("0.02")},
	})
	assert.NoError(t, err)

	return &fixture{ctx: context.Background(), l: l, svc: pair.NewService(l, global, reg, index.New())}
}

// newPair stores an inactive pair, funds it with tokens and nfts owned by
// the owner, and activates it when it holds something.
func (f *fixture) newPair(t *testing.T, addr string, cfg models.PairConfig, tokens int64, nftIDs ...string) {
	t.Helper()
	f.seq++
	err := f.l.Execute(f.ctx, func(tx ledger.Tx) error {
		return f.svc.Save(tx, &models.Pair{
			Address:   addr,
			Immutable: models.PairImmutable{Collection: collection, Denom: denom, Owner: owner},
			Config:    cfg,
			Internal:  models.PairInternal{Sequence: f.seq},
		})
	})
	assert.NoError(t, err)

	if tokens > 0 {
		assert.NoError(t, f.l.Fund(f.ctx, owner, models.NewCoin(denom, tokens)))
		assert.NoError(t, f.svc.DepositTokens(f.ctx, addr, owner, math.NewInt(tokens)))
	}
	for _, id := range nftIDs {
		assert.NoError(t, f.l.MintNft(f.ctx, collection, id, owner))
	}
	if len(nftIDs) > 0 {
		assert.NoError(t, f.svc.DepositNfts(f.ctx, addr, owner, nftIDs))
	}
	if tokens > 0 || len(nftIDs) > 0 {
		assert.NoError(t, f.svc.SetActive(f.ctx, addr, owner, true))
	}
}

func (f *fixture) balance(t *testing.T, addr string) string {
	t.Helper()
	var out string
	err := f.l.Query(f.ctx, func(q ledger.Querier) error {
		bal, err := q.Balance(addr, denom)
		out = bal.String()
		return err
	})
	assert.NoError(t, err)
	return out
}

func (f *fixture) ownerOf(t *testing.T, tokenID string) string {
	t.Helper()
	var out string
	err := f.l.Query(f.ctx, func(q ledger.Querier) error {
		var err error
		out, err = q.OwnerOf(collection, tokenID)
		return err
	})
	assert.NoError(t, err)
	return out
}

func tradeConfig(spot, delta int64) models.PairConfig {
	return models.PairConfig{
		PairType:     models.TradePairType(decimal.RequireFromString("0.005"), true, true),
		BondingCurve: models.LinearCurve(spot, delta),
	}
}

func TestTradePairEndToEnd(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", tradeConfig(10_000_000, 500_000), 50_000_000, "1", "2", "3")

	sell, err := f.svc.Quote(f.ctx, "pair1", models.DirectionSell)
	assert.NoError(t, err)
	assert.Equal(t, sell.Total().String(), "10000000")

	assert.NoError(t, f.l.MintNft(f.ctx, collection, "10", "alice"))
	res, err := f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionSell,
		Sender:    "alice",
		TokenID:   "10",
		Bound:     math.NewInt(9_000_000),
	})
	assert.NoError(t, err)
	assert.Equal(t, res.Quote.SellerAmount.String(), "9650000")

	assert.Equal(t, f.balance(t, "alice"), "9650000")
	assert.Equal(t, f.balance(t, "fairburn"), "100000")
	assert.Equal(t, f.balance(t, "artist"), "200000")
	assert.Equal(t, f.balance(t, owner), "50000")
	assert.Equal(t, f.balance(t, "pair1"), "40000000")
	assert.Equal(t, f.ownerOf(t, "10"), "pair1")

	sell, err = f.svc.Quote(f.ctx, "pair1", models.DirectionSell)
	assert.NoError(t, err)
	assert.Equal(t, sell.Total().String(), "9500000")

	buy, err := f.svc.Quote(f.ctx, "pair1", models.DirectionBuy)
	assert.NoError(t, err)
	assert.Equal(t, buy.Total().String(), "10000000")

	assert.NoError(t, f.l.Fund(f.ctx, "bob", models.NewCoin(denom, 20_000_000)))
	res, err = f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionBuy,
		Sender:    "bob",
		Bound:     math.NewInt(10_000_000),
	})
	assert.NoError(t, err)
	assert.Equal(t, res.TokenID, "1")
	assert.Equal(t, f.ownerOf(t, "1"), "bob")
	assert.Equal(t, f.balance(t, "bob"), "10000000")

	buy, err = f.svc.Quote(f.ctx, "pair1", models.DirectionBuy)
	assert.NoError(t, err)
	assert.Equal(t, buy.Total().String(), "10500000")

	view, err := f.svc.Get(f.ctx, "pair1")
	assert.NoError(t, err)
	assert.Equal(t, view.Pair.Internal.TradeCount, uint64(2))
	assert.Equal(t, view.Pair.Internal.TotalNfts, uint64(3))
}

func TestSwapSlippageLeavesNoTrace(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", tradeConfig(10_000_000, 500_000), 50_000_000, "1")
	assert.NoError(t, f.l.MintNft(f.ctx, collection, "10", "alice"))

	_, err := f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionSell,
		Sender:    "alice",
		TokenID:   "10",
		Bound:     math.NewInt(9_700_000),
	})
	assert.True(t, errors.Is(err, models.ErrSlippageExceeded))
	assert.Equal(t, f.ownerOf(t, "10"), "alice")
	assert.Equal(t, f.balance(t, "alice"), "0")
	assert.Equal(t, f.balance(t, "pair1"), "50000000")

	assert.NoError(t, f.l.Fund(f.ctx, "bob", models.NewCoin(denom, 20_000_000)))
	_, err = f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionBuy,
		Sender:    "bob",
		Bound:     math.NewInt(10_499_999),
	})
	assert.True(t, errors.Is(err, models.ErrSlippageExceeded))
	assert.Equal(t, f.balance(t, "bob"), "20000000")
}

func TestQuoteFailures(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "nftpair", models.PairConfig{PairType: models.NftPairType(), BondingCurve: models.LinearCurve(5_000, 100)}, 0, "1")
	f.newPair(t, "tokenpair", models.PairConfig{PairType: models.TokenPairType(), BondingCurve: models.LinearCurve(5_000, 100)}, 4_000)
	f.newPair(t, "cheap", models.PairConfig{PairType: models.TokenPairType(), BondingCurve: models.LinearCurve(500, 100)}, 4_000)
	f.newPair(t, "empty", tradeConfig(5_000, 100), 0)

	_, err := f.svc.Quote(f.ctx, "nftpair", models.DirectionSell)
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))

	_, err = f.svc.Quote(f.ctx, "tokenpair", models.DirectionBuy)
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))

	// the pair holds 4000 but bids 5000
	_, err = f.svc.Quote(f.ctx, "tokenpair", models.DirectionSell)
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))

	// below the 1000 minimum price
	_, err = f.svc.Quote(f.ctx, "cheap", models.DirectionSell)
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))

	_, err = f.svc.Quote(f.ctx, "empty", models.DirectionBuy)
	assert.True(t, errors.Is(err, models.ErrPairInactive))

	_, err = f.svc.Quote(f.ctx, "missing", models.DirectionBuy)
	assert.True(t, errors.Is(err, models.ErrPairNotFound))
}

func TestSellFailsWhenCurveIsExhausted(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", models.PairConfig{PairType: models.TokenPairType(), BondingCurve: models.LinearCurve(300_000, 500_000)}, 10_000_000)

	_, err := f.svc.Quote(f.ctx, "pair1", models.DirectionSell)
	assert.True(t, errors.Is(err, models.ErrCurveExhausted))
}

func TestTokenPairForwardsNfts(t *testing.T) {
	f := setupTestPairs(t)
	cfg := models.PairConfig{
		PairType:       models.TokenPairType(),
		BondingCurve:   models.LinearCurve(1_000_000, 100_000),
		AssetRecipient: "vault",
	}
	f.newPair(t, "pair1", cfg, 5_000_000)
	assert.NoError(t, f.l.MintNft(f.ctx, collection, "7", "alice"))

	_, err := f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionSell,
		Sender:    "alice",
		TokenID:   "7",
		Bound:     math.ZeroInt(),
		Recipient: "alice-cold",
	})
	assert.NoError(t, err)
	assert.Equal(t, f.ownerOf(t, "7"), "vault")
	// 1% fair burn and 2% royalty, no swap fee on token pairs
	assert.Equal(t, f.balance(t, "alice-cold"), "970000")

	view, err := f.svc.Get(f.ctx, "pair1")
	assert.NoError(t, err)
	assert.Equal(t, view.Pair.Internal.TotalNfts, uint64(0))
	assert.Equal(t, view.Pair.Config.BondingCurve.SpotPrice.String(), "900000")
}

func TestBuySpecificNftForwardsProceeds(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", models.PairConfig{PairType: models.NftPairType(), BondingCurve: models.LinearCurve(1_000_000, 100_000)}, 0, "1", "2")
	assert.NoError(t, f.l.Fund(f.ctx, "bob", models.NewCoin(denom, 5_000_000)))

	_, err := f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionBuy,
		Sender:    "bob",
		TokenID:   "9",
		Bound:     math.NewInt(5_000_000),
	})
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))

	res, err := f.svc.Swap(f.ctx, "pair1", pair.SwapRequest{
		Direction: models.DirectionBuy,
		Sender:    "bob",
		TokenID:   "2",
		Bound:     math.NewInt(5_000_000),
	})
	assert.NoError(t, err)
	assert.Equal(t, res.TokenID, "2")
	assert.Equal(t, res.Quote.Total().String(), "1100000")
	assert.Equal(t, f.ownerOf(t, "2"), "bob")
	assert.Equal(t, f.balance(t, owner), "1067000")
	assert.Equal(t, f.balance(t, "pair1"), "0")
}

func TestOwnerOperations(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", tradeConfig(1_000_000, 100_000), 3_000_000, "1", "2", "3")

	err := f.svc.DepositTokens(f.ctx, "pair1", "mallory", math.NewInt(1))
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
	err = f.svc.SetActive(f.ctx, "pair1", "mallory", false)
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	assert.NoError(t, f.svc.SetActive(f.ctx, "pair1", owner, false))
	_, err = f.svc.Quote(f.ctx, "pair1", models.DirectionBuy)
	assert.True(t, errors.Is(err, models.ErrPairInactive))

	// withdrawals keep working while inactive
	assert.NoError(t, f.svc.WithdrawNfts(f.ctx, "pair1", owner, []string{"2"}, ""))
	assert.Equal(t, f.ownerOf(t, "2"), owner)
	assert.NoError(t, f.svc.WithdrawAnyNfts(f.ctx, "pair1", owner, 1, "vault"))
	assert.Equal(t, f.ownerOf(t, "1"), "vault")
	assert.NoError(t, f.svc.WithdrawTokens(f.ctx, "pair1", owner, math.NewInt(1_000_000), ""))
	assert.Equal(t, f.balance(t, "pair1"), "2000000")
	assert.NoError(t, f.svc.WithdrawAllTokens(f.ctx, "pair1", owner, ""))
	assert.Equal(t, f.balance(t, "pair1"), "0")
	assert.Equal(t, f.balance(t, owner), "3000000")

	ids, err := f.svc.NftDeposits(f.ctx, "pair1", "", 10)
	assert.NoError(t, err)
	assert.Equal(t, len(ids), 1)
	assert.Equal(t, ids[0], "3")

	assert.NoError(t, f.svc.WithdrawNfts(f.ctx, "pair1", owner, []string{"3"}, ""))
	err = f.svc.SetActive(f.ctx, "pair1", owner, true)
	assert.True(t, errors.Is(err, models.ErrNoLiquidity))
}

func TestUpdateConfigValidatesCaps(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", tradeConfig(1_000_000, 100_000), 3_000_000)

	tooHigh := models.TradePairType(decimal.RequireFromString("0.06"), false, false)
	err := f.svc.UpdateConfig(f.ctx, "pair1", owner, pair.ConfigUpdate{PairType: &tooHigh})
	assert.True(t, errors.Is(err, models.ErrConfigOutOfBounds))

	curve := models.ExponentialCurve(2_000_000, decimal.RequireFromString("0.1"))
	recipient := "vault"
	err = f.svc.UpdateConfig(f.ctx, "pair1", owner, pair.ConfigUpdate{BondingCurve: &curve, AssetRecipient: &recipient})
	assert.NoError(t, err)

	view, err := f.svc.Get(f.ctx, "pair1")
	assert.NoError(t, err)
	assert.Equal(t, view.Pair.Config.BondingCurve.Kind, models.CurveExponential)
	assert.Equal(t, view.Pair.AssetRecipient(), "vault")
	assert.Equal(t, view.SellQuote.Total().String(), "2000000")
	assert.True(t, view.BuyQuote == nil)
}

func TestLadderDoesNotMutate(t *testing.T) {
	f := setupTestPairs(t)
	f.newPair(t, "pair1", tradeConfig(1_000_000, 100_000), 2_500_000, "1", "2")

	sells, err := f.svc.Ladder(f.ctx, "pair1", models.DirectionSell, 5)
	assert.NoError(t, err)
	// 1.0M and 0.9M fit in 2.5M of tokens, the third bid of 0.8M does not
	assert.Equal(t, len(sells), 2)
	assert.Equal(t, sells[0].Total().String(), "1000000")
	assert.Equal(t, sells[1].Total().String(), "900000")

	buys, err := f.svc.Ladder(f.ctx, "pair1", models.DirectionBuy, 5)
	assert.NoError(t, err)
	assert.Equal(t, len(buys), 2)
	assert.Equal(t, buys[0].Total().String(), "1100000")
	assert.Equal(t, buys[1].Total().String(), "1200000")

	sell, err := f.svc.Quote(f.ctx, "pair1", models.DirectionSell)
	assert.NoError(t, err)
	assert.Equal(t, sell.Total().String(), "1000000")
}
