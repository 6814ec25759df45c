package models

import (
	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

type PairKind string

const (
	PairKindToken PairKind = "token"
	PairKindNft   PairKind = "nft"
	PairKindTrade PairKind = "trade"
)

// PairType decides which directions a pair trades in and where proceeds go.
// Reinvest flags and the swap fee only apply to trade pairs.
type PairType struct {
	Kind           PairKind        `json:"kind"`
	ReinvestNfts   bool            `json:"reinvest_nfts,omitempty"`
	ReinvestTokens bool            `json:"reinvest_tokens,omitempty"`
	SwapFeePercent decimal.Decimal `json:"swap_fee_percent"`
}

func TokenPairType() PairType { return PairType{Kind: PairKindToken} }

func NftPairType() PairType { return PairType{Kind: PairKindNft} }

func TradePairType(swapFee decimal.Decimal, reinvestTokens, reinvestNfts bool) PairType {
	return PairType{
		Kind:           PairKindTrade,
		ReinvestNfts:   reinvestNfts,
		ReinvestTokens: reinvestTokens,
		SwapFeePercent: swapFee,
	}
}

type CurveKind string

const (
	CurveLinear          CurveKind = "linear"
	CurveExponential     CurveKind = "exponential"
	CurveConstantProduct CurveKind = "constant_product"
)

// BondingCurve is the stored curve configuration. Delta is an amount of
// minor units for linear curves and a fraction for exponential curves.
// Constant product curves ignore both fields.
type BondingCurve struct {
	Kind      CurveKind       `json:"kind"`
	SpotPrice math.Int        `json:"spot_price"`
	Delta     decimal.Decimal `json:"delta"`
}

func LinearCurve(spotPrice, delta int64) BondingCurve {
	return BondingCurve{Kind: CurveLinear, SpotPrice: math.NewInt(spotPrice), Delta: decimal.NewFromInt(delta)}
}

func ExponentialCurve(spotPrice int64, delta decimal.Decimal) BondingCurve {
	return BondingCurve{Kind: CurveExponential, SpotPrice: math.NewInt(spotPrice), Delta: delta}
}

func ConstantProductCurve() BondingCurve {
	return BondingCurve{Kind: CurveConstantProduct, SpotPrice: math.ZeroInt(), Delta: decimal.Zero}
}

type PairImmutable struct {
	Collection string `json:"collection"`
	Denom      string `json:"denom"`
	Owner      string `json:"owner"`
}

type PairConfig struct {
	PairType       PairType     `json:"pair_type"`
	BondingCurve   BondingCurve `json:"bonding_curve"`
	IsActive       bool         `json:"is_active"`
	AssetRecipient string       `json:"asset_recipient,omitempty"`
}

// PairInternal is state the pair maintains on its own.
type PairInternal struct {
	Counter    uint64 `json:"counter"`
	Sequence   uint64 `json:"sequence"`
	TotalNfts  uint64 `json:"total_nfts"`
	TradeCount uint64 `json:"trade_count"`
}

// Pair is the persisted record of one liquidity position. TotalTokens is
// not stored; it mirrors the pair address' ledger balance when loaded.
type Pair struct {
	Address     string        `json:"address"`
	Immutable   PairImmutable `json:"immutable"`
	Config      PairConfig    `json:"config"`
	Internal    PairInternal  `json:"internal"`
	TotalTokens math.Int      `json:"-"`
}

// AssetRecipient returns where forwarded proceeds go.
func (p *Pair) AssetRecipient() string {
	if p.Config.AssetRecipient != "" {
		return p.Config.AssetRecipient
	}
	return p.Immutable.Owner
}

type Direction string

const (
	// DirectionSell is a user selling an NFT into the pair for tokens.
	DirectionSell Direction = "sell"
	// DirectionBuy is a user buying an NFT out of the pair with tokens.
	DirectionBuy Direction = "buy"
)

func (d Direction) Valid() bool {
	return d == DirectionSell || d == DirectionBuy
}

// QuoteSummary splits one gross trade amount between its recipients.
type QuoteSummary struct {
	Denom        string        `json:"denom"`
	SellerAmount math.Int      `json:"seller_amount"`
	FairBurn     TokenPayment  `json:"fair_burn"`
	Royalty      *TokenPayment `json:"royalty,omitempty"`
	Swap         *TokenPayment `json:"swap,omitempty"`
}

// Total is the gross amount the quote was split from.
func (q *QuoteSummary) Total() math.Int {
	total := q.SellerAmount.Add(q.FairBurn.Amount)
	if q.Royalty != nil {
		total = total.Add(q.Royalty.Amount)
	}
	if q.Swap != nil {
		total = total.Add(q.Swap.Amount)
	}
	return total
}

// Payments lists the fee payments with non-zero amounts.
func (q *QuoteSummary) Payments() []TokenPayment {
	var out []TokenPayment
	if q.FairBurn.Amount.IsPositive() {
		out = append(out, q.FairBurn)
	}
	if q.Royalty != nil && q.Royalty.Amount.IsPositive() {
		out = append(out, *q.Royalty)
	}
	if q.Swap != nil && q.Swap.Amount.IsPositive() {
		out = append(out, *q.Swap)
	}
	return out
}

// RegistryEntry is one pair created by an owner.
type RegistryEntry struct {
	Counter uint64 `json:"counter"`
	Pair    string `json:"pair"`
}

// QueryBound limits a counter range from one side.
type QueryBound struct {
	Value     uint64 `json:"value"`
	Exclusive bool   `json:"exclusive,omitempty"`
}

// QueryOptions pages through counter-ordered entries.
type QueryOptions struct {
	Min        *QueryBound `json:"min,omitempty"`
	Max        *QueryBound `json:"max,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Descending bool        `json:"descending,omitempty"`
}
