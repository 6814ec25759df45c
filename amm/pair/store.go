package pair

import (
	"errors"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
)

func pairKey(addr string) []byte {
	return ledger.Key("pair", addr)
}

func depositPrefix(addr string) []byte {
	return ledger.Key("pairnft", addr)
}

func depositKey(addr, tokenID string) []byte {
	return ledger.Key("pairnft", addr, tokenID)
}

// Load reads a pair and its token balance.
func Load(q ledger.Querier, addr string) (*models.Pair, error) {
	var p models.Pair
	if err := ledger.GetJSON(q, pairKey(addr), &p); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrPairNotFound, addr)
		}
		return nil, fmt.Errorf("failed to load pair %s: %w", addr, err)
	}
	bal, err := q.Balance(addr, p.Immutable.Denom)
	if err != nil {
		return nil, fmt.Errorf("failed to load pair balance: %w", err)
	}
	p.TotalTokens = bal
	return &p, nil
}

// Exists reports whether a pair is stored at addr.
func Exists(q ledger.Querier, addr string) (bool, error) {
	return q.Has(pairKey(addr))
}

// Save stores the pair and refreshes the active-pair index.
func (s *Service) Save(tx ledger.Tx, p *models.Pair) error {
	if err := ledger.SetJSON(tx, pairKey(p.Address), p); err != nil {
		return err
	}
	if err := s.index.Update(tx, p); err != nil {
		return fmt.Errorf("failed to update pair index: %w", err)
	}
	return nil
}

func holdsNft(q ledger.Querier, addr, tokenID string) (bool, error) {
	return q.Has(depositKey(addr, tokenID))
}

func addDeposit(tx ledger.Tx, addr, tokenID string) error {
	return tx.Set(depositKey(addr, tokenID), []byte{1})
}

func removeDeposit(tx ledger.Tx, addr, tokenID string) error {
	return tx.Delete(depositKey(addr, tokenID))
}

// listDeposits returns up to limit held token ids greater than startAfter.
func listDeposits(q ledger.Querier, addr, startAfter string, limit int) ([]string, error) {
	prefix := depositPrefix(addr)
	r := ledger.PrefixRange(prefix)
	if startAfter != "" {
		// one extra zero byte sorts right after startAfter's own key
		r.Start = append(depositKey(addr, startAfter), 0)
	}
	var ids []string
	err := q.Iterate(r, func(key, _ []byte) (bool, error) {
		id := key[len(prefix) : len(key)-1]
		ids = append(ids, string(id))
		return len(ids) >= limit, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
