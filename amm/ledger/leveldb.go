package ledger

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a Ledger on goleveldb. Write transactions hold the database
// write lock, so they are serialized; queries run on snapshots.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a ledger stored under path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// NewMemLevelDB returns a ledger that lives in memory only.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

func (l *LevelDB) Execute(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr, err := l.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tr.Discard()
		}
	}()

	if err := fn(&levelTx{levelReader: levelReader{r: tr}, tr: tr}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (l *LevelDB) Query(ctx context.Context, fn func(q Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to take snapshot: %w", err)
	}
	defer snap.Release()
	return fn(levelReader{r: snap})
}

// Fund credits addr with coin out of thin air. It exists for genesis
// balances and tests.
func (l *LevelDB) Fund(ctx context.Context, addr string, coin models.Coin) error {
	if err := coin.Validate(); err != nil {
		return err
	}
	return l.Execute(ctx, func(tx Tx) error {
		bal, err := tx.Balance(addr, coin.Denom)
		if err != nil {
			return err
		}
		return tx.Set(balanceKey(addr, coin.Denom), []byte(bal.Add(coin.Amount).String()))
	})
}

// MintNft records a new token owned by owner.
func (l *LevelDB) MintNft(ctx context.Context, collection, tokenID, owner string) error {
	return l.Execute(ctx, func(tx Tx) error {
		ok, err := tx.Has(nftKey(collection, tokenID))
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: token %s/%s already minted", models.ErrInvalidInput, collection, tokenID)
		}
		return tx.Set(nftKey(collection, tokenID), []byte(owner))
	})
}

type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type levelReader struct {
	r reader
}

func (lr levelReader) Get(key []byte) ([]byte, error) {
	v, err := lr.r.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (lr levelReader) Has(key []byte) (bool, error) {
	return lr.r.Has(key, nil)
}

func (lr levelReader) Iterate(r Range, fn func(key, value []byte) (bool, error)) error {
	it := lr.r.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, nil)
	defer it.Release()

	step := it.Next
	ok := it.First()
	if r.Reverse {
		step = it.Prev
		ok = it.Last()
	}
	for ; ok; ok = step() {
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)
		stop, err := fn(key, value)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return it.Error()
}

func (lr levelReader) Balance(addr, denom string) (math.Int, error) {
	raw, err := lr.Get(balanceKey(addr, denom))
	if errors.Is(err, ErrNotFound) {
		return math.ZeroInt(), nil
	}
	if err != nil {
		return math.ZeroInt(), err
	}
	bal, ok := math.NewIntFromString(string(raw))
	if !ok {
		return math.ZeroInt(), fmt.Errorf("corrupt balance for %s/%s: %q", addr, denom, raw)
	}
	return bal, nil
}

func (lr levelReader) OwnerOf(collection, tokenID string) (string, error) {
	raw, err := lr.Get(nftKey(collection, tokenID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%w: token %s/%s does not exist", models.ErrInvalidInput, collection, tokenID)
		}
		return "", err
	}
	return string(raw), nil
}

type levelTx struct {
	levelReader
	tr *leveldb.Transaction
}

func (t *levelTx) Set(key, value []byte) error {
	return t.tr.Put(key, value, nil)
}

func (t *levelTx) Delete(key []byte) error {
	return t.tr.Delete(key, nil)
}

func (t *levelTx) Send(from, to string, coin models.Coin) error {
	if err := coin.Validate(); err != nil {
		return err
	}
	if coin.Amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := t.Balance(from, coin.Denom)
	if err != nil {
		return err
	}
	if fromBal.LT(coin.Amount) {
		return fmt.Errorf("%w: %s has %s%s, needs %s", models.ErrInsufficientFunds, from, fromBal, coin.Denom, coin)
	}
	toBal, err := t.Balance(to, coin.Denom)
	if err != nil {
		return err
	}
	if err := t.Set(balanceKey(from, coin.Denom), []byte(fromBal.Sub(coin.Amount).String())); err != nil {
		return err
	}
	return t.Set(balanceKey(to, coin.Denom), []byte(toBal.Add(coin.Amount).String()))
}

func (t *levelTx) TransferNft(collection, tokenID, from, to string) error {
	owner, err := t.OwnerOf(collection, tokenID)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: %s/%s is owned by %s", models.ErrNotNftOwner, collection, tokenID, owner)
	}
	return t.Set(nftKey(collection, tokenID), []byte(to))
}
