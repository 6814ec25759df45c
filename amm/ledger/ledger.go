// Package ledger is the chain the engine settles against: an ordered
// key/value store with token balances and NFT ownership, where every
// settlement runs as one atomic transaction.
package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrNotFound = errors.New("key not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Range selects keys in [Start, Limit). A nil bound is open.
type Range struct {
	Start   []byte
	Limit   []byte
	Reverse bool
}

// PrefixRange selects every key starting with prefix.
func PrefixRange(prefix []byte) Range {
	r := util.BytesPrefix(prefix)
	return Range{Start: r.Start, Limit: r.Limit}
}

// Querier reads ledger state.
type Querier interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterate calls fn for each key in r until fn returns stop or an error.
	Iterate(r Range, fn func(key, value []byte) (stop bool, err error)) error
	Balance(addr, denom string) (math.Int, error)
	OwnerOf(collection, tokenID string) (string, error)
}

// Tx reads and writes inside one atomic transaction.
type Tx interface {
	Querier
	Set(key, value []byte) error
	Delete(key []byte) error
	Send(from, to string, coin models.Coin) error
	TransferNft(collection, tokenID, from, to string) error
}

// Ledger runs transactions. Execute commits when fn returns nil and
// discards every write otherwise. Query reads a consistent snapshot.
type Ledger interface {
	Execute(ctx context.Context, fn func(tx Tx) error) error
	Query(ctx context.Context, fn func(q Querier) error) error
}

// Key joins parts with a zero byte, ending with one so that the key of a
// parent is a strict prefix of its children.
func Key(parts ...string) []byte {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	key := make([]byte, 0, n)
	for _, p := range parts {
		key = append(key, p...)
		key = append(key, 0)
	}
	return key
}

// AppendUint64 appends v big-endian so numeric order matches key order.
func AppendUint64(key []byte, v uint64) []byte {
	out := make([]byte, len(key), len(key)+8)
	copy(out, key)
	return binary.BigEndian.AppendUint64(out, v)
}

// GetJSON decodes the value at key into v.
func GetJSON(q Querier, key []byte, v any) error {
	raw, err := q.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(tx Tx, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return tx.Set(key, raw)
}

func balanceKey(addr, denom string) []byte {
	return Key("bal", addr, denom)
}

func nftKey(collection, tokenID string) []byte {
	return Key("nft", collection, tokenID)
}
