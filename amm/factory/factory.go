// Package factory creates pairs at deterministic addresses and keeps the
// per-owner registry of everything it created.
package factory

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/pair"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var factoryLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	factoryLog = zerolog.New(out).With().Timestamp().Str("component", "factory").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	factoryLog = l.With().Str("component", "factory").Logger()
}

var pairsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "amm",
	Name:      "pairs_created_total",
	Help:      "Pairs created by the factory.",
})

const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = pair.MaxQueryLimit
)

type Factory struct {
	ledger  ledger.Ledger
	global  *models.GlobalConfig
	pairs   *pair.Service
	creator []byte
}

// New builds a factory whose canonical address is decoded from the global config.
func New(l ledger.Ledger, global *models.GlobalConfig, pairs *pair.Service) (*Factory, error) {
	creator, err := DecodeAddress(global.InfinityFactory)
	if err != nil {
		return nil, fmt.Errorf("invalid infinity_factory address: %w", err)
	}
	return &Factory{ledger: l, global: global, pairs: pairs, creator: creator}, nil
}

func counterKey(owner string) []byte {
	return ledger.Key("fct", "counter", owner)
}

func sequenceKey() []byte {
	return ledger.Key("fct", "seq")
}

func registryPrefix(owner string) []byte {
	return ledger.Key("fct", "reg", owner)
}

func readUint64(q ledger.Querier, key []byte) (uint64, error) {
	raw, err := q.Get(key)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt counter at %q", key)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func writeUint64(tx ledger.Tx, key []byte, v uint64) error {
	return tx.Set(key, binary.BigEndian.AppendUint64(nil, v))
}

// NextPair describes the pair an owner's next CreatePair would produce.
type NextPair struct {
	Owner   string `json:"owner"`
	Counter uint64 `json:"counter"`
	Salt    string `json:"salt"`
	Address string `json:"address"`
}

func (f *Factory) nextPair(q ledger.Querier, owner string) (*NextPair, error) {
	counter, err := readUint64(q, counterKey(owner))
	if err != nil {
		return nil, err
	}
	salt := GenerateSalt(owner, counter)
	addr, err := DeriveAddress(f.global.Bech32Prefix, f.global.PairCodeChecksum, f.creator, salt)
	if err != nil {
		return nil, err
	}
	return &NextPair{Owner: owner, Counter: counter, Salt: hex.EncodeToString(salt), Address: addr}, nil
}

// NextPair previews the counter, salt and address of the owner's next pair.
func (f *Factory) NextPair(ctx context.Context, owner string) (*NextPair, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", models.ErrInvalidInput)
	}
	var next *NextPair
	err := f.ledger.Query(ctx, func(q ledger.Querier) error {
		var err error
		next, err = f.nextPair(q, owner)
		return err
	})
	return next, err
}

// CreatePair charges the creation fee, registers the pair under its owner
// and stores it configured but inactive.
func (f *Factory) CreatePair(
	ctx context.Context,
	creator string,
	immutable models.PairImmutable,
	cfg models.PairConfig,
) (*models.RegistryEntry, error) {
	if creator == "" || immutable.Owner == "" || immutable.Collection == "" {
		return nil, fmt.Errorf("%w: creator, owner and collection are required", models.ErrInvalidInput)
	}
	if _, ok := f.global.MinPrice(immutable.Denom); !ok {
		return nil, fmt.Errorf("%w: denom %q is not supported", models.ErrConfigOutOfBounds, immutable.Denom)
	}
	if err := pair.ValidateConfig(f.global, &cfg); err != nil {
		return nil, err
	}
	cfg.IsActive = false

	var entry *models.RegistryEntry
	err := f.ledger.Execute(ctx, func(tx ledger.Tx) error {
		next, err := f.nextPair(tx, immutable.Owner)
		if err != nil {
			return err
		}
		taken, err := pair.Exists(tx, next.Address)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: address %s already holds a pair", models.ErrDuplicateSalt, next.Address)
		}

		if fee := f.global.PairCreationFee; fee.Amount.IsPositive() {
			if err := tx.Send(creator, f.global.FairBurn, fee); err != nil {
				return fmt.Errorf("failed to pay pair creation fee: %w", err)
			}
		}

		sequence, err := readUint64(tx, sequenceKey())
		if err != nil {
			return err
		}
		if next.Counter == math.MaxUint64 || sequence == math.MaxUint64 {
			return fmt.Errorf("%w: pair counter overflow", models.ErrConfigOutOfBounds)
		}

		p := &models.Pair{
			Address:     next.Address,
			Immutable:   immutable,
			Config:      cfg,
			Internal:    models.PairInternal{Counter: next.Counter, Sequence: sequence},
			TotalTokens: sdkmath.ZeroInt(),
		}
		if err := f.pairs.Save(tx, p); err != nil {
			return err
		}
		regKey := ledger.AppendUint64(registryPrefix(immutable.Owner), next.Counter)
		if err := tx.Set(regKey, []byte(next.Address)); err != nil {
			return err
		}
		if err := writeUint64(tx, counterKey(immutable.Owner), next.Counter+1); err != nil {
			return err
		}
		if err := writeUint64(tx, sequenceKey(), sequence+1); err != nil {
			return err
		}
		entry = &models.RegistryEntry{Counter: next.Counter, Pair: next.Address}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pairsCreated.Inc()
	factoryLog.Info().
		Str("owner", immutable.Owner).
		Str("collection", immutable.Collection).
		Str("denom", immutable.Denom).
		Uint64("counter", entry.Counter).
		Str("pair", entry.Pair).
		Msg("Pair created")
	return entry, nil
}

// PairsByOwner pages through an owner's registry in counter order.
func (f *Factory) PairsByOwner(ctx context.Context, owner string, opts models.QueryOptions) ([]models.RegistryEntry, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultQueryLimit
	}
	if limit < 0 || limit > MaxQueryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxQueryLimit)
	}

	prefix := registryPrefix(owner)
	r, empty := counterRange(prefix, opts)
	if empty {
		return []models.RegistryEntry{}, nil
	}
	r.Reverse = opts.Descending

	entries := []models.RegistryEntry{}
	err := f.ledger.Query(ctx, func(q ledger.Querier) error {
		return q.Iterate(r, func(key, value []byte) (bool, error) {
			counter := binary.BigEndian.Uint64(key[len(prefix):])
			entries = append(entries, models.RegistryEntry{Counter: counter, Pair: string(value)})
			return len(entries) >= limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// counterRange turns optional counter bounds into a key range. empty is
// set when the bounds cannot match anything.
func counterRange(prefix []byte, opts models.QueryOptions) (r ledger.Range, empty bool) {
	r = ledger.PrefixRange(prefix)
	if b := opts.Min; b != nil {
		start := b.Value
		if b.Exclusive {
			if start == math.MaxUint64 {
				return r, true
			}
			start++
		}
		r.Start = ledger.AppendUint64(prefix, start)
	}
	if b := opts.Max; b != nil {
		end := b.Value
		if !b.Exclusive {
			if end == math.MaxUint64 {
				return r, false
			}
			end++
		}
		r.Limit = ledger.AppendUint64(prefix, end)
	}
	return r, false
}

func (f *Factory) ladderLimit(limit int) (int, error) {
	if limit <= 0 || limit > MaxQueryLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxQueryLimit)
	}
	return limit, nil
}

// SimSellToPairSwaps lists what a pair would pay for each of the next
// limit NFTs sold into it.
func (f *Factory) SimSellToPairSwaps(ctx context.Context, pairAddr string, limit int) ([]*models.QuoteSummary, error) {
	limit, err := f.ladderLimit(limit)
	if err != nil {
		return nil, err
	}
	return f.pairs.Ladder(ctx, pairAddr, models.DirectionSell, limit)
}

// SimBuyFromPairSwaps lists what each of the next limit NFTs bought from a pair would cost.
func (f *Factory) SimBuyFromPairSwaps(ctx context.Context, pairAddr string, limit int) ([]*models.QuoteSummary, error) {
	limit, err := f.ladderLimit(limit)
	if err != nil {
		return nil, err
	}
	return f.pairs.Ladder(ctx, pairAddr, models.DirectionBuy, limit)
}
