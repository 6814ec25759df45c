package models

import "cosmossdk.io/math"

// SellLeg sells one NFT into the best bidding pair.
type SellLeg struct {
	InputTokenID string   `json:"input_token_id"`
	MinOutput    math.Int `json:"min_output"`
}

// BuyLeg buys one NFT from the cheapest asking pair.
type BuyLeg struct {
	MaxInput math.Int `json:"max_input"`
}

// SwapParams applies to every leg of a batch.
type SwapParams struct {
	// AssetRecipient receives tokens on sells and NFTs on buys; the sender when empty.
	AssetRecipient string `json:"asset_recipient,omitempty"`
}

// PairQuote is one pair's current one-unit quote.
type PairQuote struct {
	Pair     string        `json:"pair"`
	Sequence uint64        `json:"sequence"`
	Quote    *QuoteSummary `json:"quote"`
}

// LegFill records which pair filled a leg and at what terms.
type LegFill struct {
	Leg     int           `json:"leg"`
	Pair    string        `json:"pair"`
	TokenID string        `json:"token_id"`
	Quote   *QuoteSummary `json:"quote"`
}

// BatchResult is the outcome of a committed router batch.
type BatchResult struct {
	BatchID string    `json:"batch_id"`
	Fills   []LegFill `json:"fills"`
}
