package pair

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"go.opentelemetry.io/otel/attribute"
)

// SwapRequest is one unit trade against a pair.
type SwapRequest struct {
	Direction models.Direction
	Sender    string
	// TokenID is the NFT sold to the pair, or the NFT to buy. An empty id on
	// a buy takes the lowest id the pair holds.
	TokenID string
	// Bound is the minimum seller proceeds on a sell and the maximum total
	// paid on a buy.
	Bound math.Int
	// Recipient receives the proceeds; the sender when empty.
	Recipient string
}

type SwapResult struct {
	Pair    string               `json:"pair"`
	TokenID string               `json:"token_id"`
	Quote   *models.QuoteSummary `json:"quote"`
}

// Swap settles one trade in its own ledger transaction.
func (s *Service) Swap(ctx context.Context, addr string, req SwapRequest) (*SwapResult, error) {
	var res *SwapResult
	err := s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		var err error
		res, err = s.SwapIn(ctx, tx, addr, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	RecordSwap(req.Direction, res)
	return res, nil
}

// RecordSwap counts and logs a swap. Callers invoke it only after the
// transaction holding the swap has committed.
func RecordSwap(dir models.Direction, res *SwapResult) {
	swapsTotal.WithLabelValues(string(dir)).Inc()
	pairLog.Info().
		Str("pair", res.Pair).
		Str("direction", string(dir)).
		Str("token_id", res.TokenID).
		Str("total", res.Quote.Total().String()).
		Msg("Swap settled")
}

// SwapIn settles one trade inside tx. The quote is recomputed from the
// state tx sees, so stale caller quotes cannot be honored. The caller
// reports the swap with RecordSwap once tx commits.
func (s *Service) SwapIn(ctx context.Context, tx ledger.Tx, addr string, req SwapRequest) (*SwapResult, error) {
	ctx, span := tracer.Start(ctx, "pair.Swap")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair", addr),
		attribute.String("direction", string(req.Direction)),
	)

	if req.Sender == "" {
		return nil, fmt.Errorf("%w: sender is required", models.ErrInvalidInput)
	}
	if req.Bound.IsNil() || req.Bound.IsNegative() {
		return nil, fmt.Errorf("%w: swap bound must be non-negative", models.ErrInvalidInput)
	}
	recipient := req.Recipient
	if recipient == "" {
		recipient = req.Sender
	}

	p, err := Load(tx, addr)
	if err != nil {
		return nil, err
	}
	qt, err := s.NewQuoter(ctx, p.Immutable.Collection, p.Immutable.Denom)
	if err != nil {
		return nil, err
	}
	quote, err := qt.Quote(p, req.Direction)
	if err != nil {
		return nil, err
	}

	tokenID := req.TokenID
	switch req.Direction {
	case models.DirectionSell:
		if quote.SellerAmount.LT(req.Bound) {
			return nil, fmt.Errorf("%w: pair %s pays %s, min output is %s",
				models.ErrSlippageExceeded, addr, quote.SellerAmount, req.Bound)
		}
		if err := s.settleSell(tx, p, quote, req.Sender, recipient, tokenID); err != nil {
			return nil, err
		}
	case models.DirectionBuy:
		if quote.Total().GT(req.Bound) {
			return nil, fmt.Errorf("%w: pair %s asks %s, max input is %s",
				models.ErrSlippageExceeded, addr, quote.Total(), req.Bound)
		}
		if tokenID, err = s.settleBuy(tx, p, quote, req.Sender, recipient, tokenID); err != nil {
			return nil, err
		}
	}

	if err := advance(p, req.Direction); err != nil {
		return nil, err
	}
	if err := s.Save(tx, p); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("spot_price", p.Config.BondingCurve.SpotPrice.String()))
	return &SwapResult{Pair: addr, TokenID: tokenID, Quote: quote}, nil
}

// settleSell takes the seller's NFT and pays every part of the quote out
// of the pair's balance.
func (s *Service) settleSell(tx ledger.Tx, p *models.Pair, quote *models.QuoteSummary, sender, recipient, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("%w: token id is required to sell", models.ErrInvalidInput)
	}
	pt := p.Config.PairType
	nftDest := p.AssetRecipient()
	if pt.Kind == models.PairKindTrade && pt.ReinvestNfts {
		nftDest = p.Address
	}
	if err := tx.TransferNft(p.Immutable.Collection, tokenID, sender, nftDest); err != nil {
		return err
	}
	if nftDest == p.Address {
		if err := addDeposit(tx, p.Address, tokenID); err != nil {
			return err
		}
		p.Internal.TotalNfts++
	}

	for _, pay := range quote.Payments() {
		if err := tx.Send(p.Address, pay.Recipient, models.Coin{Denom: quote.Denom, Amount: pay.Amount}); err != nil {
			return fmt.Errorf("failed to pay %s: %w", pay.Recipient, err)
		}
	}
	if err := tx.Send(p.Address, recipient, models.Coin{Denom: quote.Denom, Amount: quote.SellerAmount}); err != nil {
		return fmt.Errorf("failed to pay seller: %w", err)
	}
	p.TotalTokens = p.TotalTokens.Sub(quote.Total())
	return nil
}

// settleBuy charges the buyer the quote total and hands over one held NFT.
func (s *Service) settleBuy(tx ledger.Tx, p *models.Pair, quote *models.QuoteSummary, sender, recipient, tokenID string) (string, error) {
	if tokenID == "" {
		ids, err := listDeposits(tx, p.Address, "", 1)
		if err != nil {
			return "", err
		}
		if len(ids) == 0 {
			return "", fmt.Errorf("%w: pair %s holds no nfts", models.ErrNoLiquidity, p.Address)
		}
		tokenID = ids[0]
	} else {
		held, err := holdsNft(tx, p.Address, tokenID)
		if err != nil {
			return "", err
		}
		if !held {
			return "", fmt.Errorf("%w: pair %s does not hold token %s", models.ErrNoLiquidity, p.Address, tokenID)
		}
	}

	for _, pay := range quote.Payments() {
		if err := tx.Send(sender, pay.Recipient, models.Coin{Denom: quote.Denom, Amount: pay.Amount}); err != nil {
			return "", fmt.Errorf("failed to pay %s: %w", pay.Recipient, err)
		}
	}
	pt := p.Config.PairType
	proceedsDest := p.AssetRecipient()
	if pt.Kind == models.PairKindTrade && pt.ReinvestTokens {
		proceedsDest = p.Address
	}
	if err := tx.Send(sender, proceedsDest, models.Coin{Denom: quote.Denom, Amount: quote.SellerAmount}); err != nil {
		return "", fmt.Errorf("failed to pay pair proceeds: %w", err)
	}
	if proceedsDest == p.Address {
		p.TotalTokens = p.TotalTokens.Add(quote.SellerAmount)
	}

	if err := tx.TransferNft(p.Immutable.Collection, tokenID, p.Address, recipient); err != nil {
		return "", err
	}
	if err := removeDeposit(tx, p.Address, tokenID); err != nil {
		return "", err
	}
	p.Internal.TotalNfts--
	return tokenID, nil
}
