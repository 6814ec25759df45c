// Package index keeps the set of active pairs per collection and denom,
// ordered by registration sequence.
package index

import (
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
)

// Index stores its entries in the ledger, so updates share the caller's transaction.
type Index struct{}

func New() *Index {
	return &Index{}
}

func key(collection, denom string, sequence uint64) []byte {
	return ledger.AppendUint64(ledger.Key("idx", collection, denom), sequence)
}

// Update lists the pair while it is active and drops it otherwise.
func (*Index) Update(tx ledger.Tx, p *models.Pair) error {
	k := key(p.Immutable.Collection, p.Immutable.Denom, p.Internal.Sequence)
	if p.Config.IsActive {
		return tx.Set(k, []byte(p.Address))
	}
	return tx.Delete(k)
}

// PairsFor returns active pair addresses for collection and denom, earliest registration first.
func (*Index) PairsFor(q ledger.Querier, collection, denom string) ([]string, error) {
	var pairs []string
	err := q.Iterate(ledger.PrefixRange(ledger.Key("idx", collection, denom)), func(_, value []byte) (bool, error) {
		pairs = append(pairs, string(value))
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
