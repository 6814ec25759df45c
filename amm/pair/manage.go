package pair

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/curve"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/shopspring/decimal"
)

// ValidateConfig checks a pair configuration against the protocol caps.
// A missing spot price is normalized to zero.
func ValidateConfig(global *models.GlobalConfig, cfg *models.PairConfig) error {
	pt := cfg.PairType
	switch pt.Kind {
	case models.PairKindToken, models.PairKindNft:
		if !pt.SwapFeePercent.IsZero() || pt.ReinvestNfts || pt.ReinvestTokens {
			return fmt.Errorf("%w: only trade pairs take swap fees or reinvest", models.ErrConfigOutOfBounds)
		}
	case models.PairKindTrade:
		if pt.SwapFeePercent.IsNegative() || pt.SwapFeePercent.GreaterThan(global.MaxSwapFeePercent) {
			return fmt.Errorf("%w: swap fee %s must be between 0 and %s",
				models.ErrConfigOutOfBounds, pt.SwapFeePercent, global.MaxSwapFeePercent)
		}
	default:
		return fmt.Errorf("%w: unknown pair type %q", models.ErrInvalidInput, pt.Kind)
	}
	if pt.SwapFeePercent.Add(global.FairBurnFeePercent).Add(global.MaxRoyaltyFeePercent).GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: fees would exceed the trade amount", models.ErrConfigOutOfBounds)
	}
	if cfg.BondingCurve.SpotPrice.IsNil() {
		cfg.BondingCurve.SpotPrice = math.ZeroInt()
	}
	return curve.Validate(cfg.BondingCurve)
}

// ConfigUpdate changes the fields that are set.
type ConfigUpdate struct {
	PairType       *models.PairType     `json:"pair_type,omitempty"`
	BondingCurve   *models.BondingCurve `json:"bonding_curve,omitempty"`
	AssetRecipient *string              `json:"asset_recipient,omitempty"`
}

// ownerTx loads a pair the sender owns, runs fn and saves the pair.
func (s *Service) ownerTx(ctx context.Context, addr, sender string, fn func(tx ledger.Tx, p *models.Pair) error) error {
	return s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		p, err := Load(tx, addr)
		if err != nil {
			return err
		}
		if p.Immutable.Owner != sender {
			return fmt.Errorf("%w: %s does not own pair %s", models.ErrUnauthorized, sender, addr)
		}
		if err := fn(tx, p); err != nil {
			return err
		}
		return s.Save(tx, p)
	})
}

// UpdateConfig applies an owner's configuration change.
func (s *Service) UpdateConfig(ctx context.Context, addr, sender string, update ConfigUpdate) error {
	return s.ownerTx(ctx, addr, sender, func(_ ledger.Tx, p *models.Pair) error {
		cfg := p.Config
		if update.PairType != nil {
			cfg.PairType = *update.PairType
		}
		if update.BondingCurve != nil {
			cfg.BondingCurve = *update.BondingCurve
		}
		if update.AssetRecipient != nil {
			cfg.AssetRecipient = *update.AssetRecipient
		}
		if err := ValidateConfig(s.global, &cfg); err != nil {
			return err
		}
		p.Config = cfg
		pairLog.Info().Str("pair", addr).Msg("Pair config updated")
		return nil
	})
}

// SetActive opens or closes the pair for swaps. Opening needs inventory
// the pair type can trade with.
func (s *Service) SetActive(ctx context.Context, addr, sender string, active bool) error {
	return s.ownerTx(ctx, addr, sender, func(_ ledger.Tx, p *models.Pair) error {
		if active {
			hasTokens := p.TotalTokens.IsPositive()
			hasNfts := p.Internal.TotalNfts > 0
			var ok bool
			switch p.Config.PairType.Kind {
			case models.PairKindToken:
				ok = hasTokens
			case models.PairKindNft:
				ok = hasNfts
			default:
				ok = hasTokens || hasNfts
			}
			if !ok {
				return fmt.Errorf("%w: %s pair %s has no inventory to trade", models.ErrNoLiquidity, p.Config.PairType.Kind, addr)
			}
		}
		p.Config.IsActive = active
		pairLog.Info().Str("pair", addr).Bool("active", active).Msg("Pair activation changed")
		return nil
	})
}

// DepositNfts moves NFTs from the owner into the pair.
func (s *Service) DepositNfts(ctx context.Context, addr, sender string, tokenIDs []string) error {
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		if p.Config.PairType.Kind == models.PairKindToken {
			return fmt.Errorf("%w: token pairs do not hold nfts", models.ErrInvalidInput)
		}
		for _, id := range tokenIDs {
			if err := tx.TransferNft(p.Immutable.Collection, id, sender, addr); err != nil {
				return err
			}
			if err := addDeposit(tx, addr, id); err != nil {
				return err
			}
			p.Internal.TotalNfts++
		}
		return nil
	})
}

// DepositTokens moves tokens from the owner into the pair.
func (s *Service) DepositTokens(ctx context.Context, addr, sender string, amount math.Int) error {
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		if p.Config.PairType.Kind == models.PairKindNft {
			return fmt.Errorf("%w: nft pairs do not hold tokens", models.ErrInvalidInput)
		}
		if err := tx.Send(sender, addr, models.Coin{Denom: p.Immutable.Denom, Amount: amount}); err != nil {
			return err
		}
		p.TotalTokens = p.TotalTokens.Add(amount)
		return nil
	})
}

// WithdrawNfts returns specific held NFTs to recipient, or the owner.
func (s *Service) WithdrawNfts(ctx context.Context, addr, sender string, tokenIDs []string, recipient string) error {
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		return withdrawNfts(tx, p, tokenIDs, recipientOr(recipient, sender))
	})
}

// WithdrawAnyNfts returns up to limit held NFTs, lowest ids first.
func (s *Service) WithdrawAnyNfts(ctx context.Context, addr, sender string, limit int, recipient string) error {
	if limit <= 0 || limit > MaxQueryLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxQueryLimit)
	}
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		ids, err := listDeposits(tx, addr, "", limit)
		if err != nil {
			return err
		}
		return withdrawNfts(tx, p, ids, recipientOr(recipient, sender))
	})
}

// WithdrawTokens returns amount of the pair's tokens.
func (s *Service) WithdrawTokens(ctx context.Context, addr, sender string, amount math.Int, recipient string) error {
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		return withdrawTokens(tx, p, amount, recipientOr(recipient, sender))
	})
}

// WithdrawAllTokens empties the pair's token balance.
func (s *Service) WithdrawAllTokens(ctx context.Context, addr, sender, recipient string) error {
	return s.ownerTx(ctx, addr, sender, func(tx ledger.Tx, p *models.Pair) error {
		return withdrawTokens(tx, p, p.TotalTokens, recipientOr(recipient, sender))
	})
}

func withdrawNfts(tx ledger.Tx, p *models.Pair, tokenIDs []string, recipient string) error {
	for _, id := range tokenIDs {
		held, err := holdsNft(tx, p.Address, id)
		if err != nil {
			return err
		}
		if !held {
			return fmt.Errorf("%w: pair %s does not hold token %s", models.ErrInvalidInput, p.Address, id)
		}
		if err := tx.TransferNft(p.Immutable.Collection, id, p.Address, recipient); err != nil {
			return err
		}
		if err := removeDeposit(tx, p.Address, id); err != nil {
			return err
		}
		p.Internal.TotalNfts--
	}
	return nil
}

func withdrawTokens(tx ledger.Tx, p *models.Pair, amount math.Int, recipient string) error {
	if err := tx.Send(p.Address, recipient, models.Coin{Denom: p.Immutable.Denom, Amount: amount}); err != nil {
		return err
	}
	p.TotalTokens = p.TotalTokens.Sub(amount)
	return nil
}

func recipientOr(recipient, fallback string) string {
	if recipient != "" {
		return recipient
	}
	return fallback
}
