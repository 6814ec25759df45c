// Package royalty resolves creator royalties per collection.
package royalty

import (
	"context"
	"fmt"
	"sync"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/shopspring/decimal"
)

// Entry is a collection's royalty: Share of every trade paid to Recipient.
type Entry struct {
	Collection string          `json:"collection"`
	Recipient  string          `json:"recipient"`
	Share      decimal.Decimal `json:"share"`
}

// Registry is the external royalty source. A nil entry means the
// collection pays no royalty.
type Registry interface {
	GetRoyalty(ctx context.Context, collection string) (*Entry, error)
}

// Static is an in-process registry seeded from configuration. It does not
// enforce the protocol cap; the fee splitter rejects rates above it.
type Static struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewStatic(entries []Entry) (*Static, error) {
	s := &Static{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if err := s.Set(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Set adds or replaces the entry for a collection.
func (s *Static) Set(e Entry) error {
	if e.Collection == "" || e.Recipient == "" {
		return fmt.Errorf("%w: royalty entry needs collection and recipient", models.ErrInvalidInput)
	}
	if e.Share.IsNegative() || e.Share.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: royalty share for %s must be between 0 and 1", models.ErrInvalidInput, e.Collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Collection] = e
	return nil
}

// GetRoyalty implements Registry.
func (s *Static) GetRoyalty(_ context.Context, collection string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[collection]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
