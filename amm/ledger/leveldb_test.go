package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/ledger"
	"github.com/Cogwheel-Validator/spectra-nft-amm/amm/models"
	"github.com/zeebo/assert"
)

func setupTestLedger(t *testing.T) *ledger.LevelDB {
	t.Helper()
	l, err := ledger.NewMemLevelDB()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func balance(t *testing.T, l ledger.Ledger, addr, denom string) string {
	t.Helper()
	var out string
	err := l.Query(context.Background(), func(q ledger.Querier) error {
		bal, err := q.Balance(addr, denom)
		out = bal.String()
		return err
	})
	assert.NoError(t, err)
	return out
}

func TestSendMovesFunds(t *testing.T) {
	ctx := context.Background()
	l := setupTestLedger(t)
	assert.NoError(t, l.Fund(ctx, "alice", models.NewCoin("ustars", 100)))

	err := l.Execute(ctx, func(tx ledger.Tx) error {
		return tx.Send("alice", "bob", models.NewCoin("ustars", 40))
	})
	assert.NoError(t, err)
	assert.Equal(t, balance(t, l, "alice", "ustars"), "60")
	assert.Equal(t, balance(t, l, "bob", "ustars"), "40")

	err = l.Execute(ctx, func(tx ledger.Tx) error {
		return tx.Send("bob", "alice", models.NewCoin("ustars", 41))
	})
	assert.True(t, errors.Is(err, models.ErrInsufficientFunds))
}

func TestExecuteDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	l := setupTestLedger(t)
	assert.NoError(t, l.Fund(ctx, "alice", models.NewCoin("ustars", 100)))
	assert.NoError(t, l.MintNft(ctx, "coll", "1", "alice"))

	boom := errors.New("boom")
	err := l.Execute(ctx, func(tx ledger.Tx) error {
		if err := tx.Send("alice", "bob", models.NewCoin("ustars", 100)); err != nil {
			return err
		}
		if err := tx.TransferNft("coll", "1", "alice", "bob"); err != nil {
			return err
		}
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, balance(t, l, "alice", "ustars"), "100")
	assert.Equal(t, balance(t, l, "bob", "ustars"), "0")

	err = l.Query(ctx, func(q ledger.Querier) error {
		owner, err := q.OwnerOf("coll", "1")
		assert.NoError(t, err)
		assert.Equal(t, owner, "alice")
		ok, err := q.Has([]byte("k"))
		assert.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, err)
}

func TestTransferNftRequiresOwner(t *testing.T) {
	ctx := context.Background()
	l := setupTestLedger(t)
	assert.NoError(t, l.MintNft(ctx, "coll", "1", "alice"))
	assert.Error(t, l.MintNft(ctx, "coll", "1", "bob"))

	err := l.Execute(ctx, func(tx ledger.Tx) error {
		return tx.TransferNft("coll", "1", "bob", "carol")
	})
	assert.True(t, errors.Is(err, models.ErrNotNftOwner))
}

func TestIterateOrderAndReverse(t *testing.T) {
	ctx := context.Background()
	l := setupTestLedger(t)
	prefix := ledger.Key("reg", "alice")

	err := l.Execute(ctx, func(tx ledger.Tx) error {
		for i := uint64(0); i < 4; i++ {
			if err := tx.Set(ledger.AppendUint64(prefix, i), []byte{byte('a' + i)}); err != nil {
				return err
			}
		}
		// a neighbouring owner must not leak into the prefix range
		return tx.Set(ledger.AppendUint64(ledger.Key("reg", "alice2"), 0), []byte("x"))
	})
	assert.NoError(t, err)

	collect := func(r ledger.Range) string {
		var out []byte
		err := l.Query(ctx, func(q ledger.Querier) error {
			return q.Iterate(r, func(_, value []byte) (bool, error) {
				out = append(out, value...)
				return false, nil
			})
		})
		assert.NoError(t, err)
		return string(out)
	}

	r := ledger.PrefixRange(prefix)
	assert.Equal(t, collect(r), "abcd")
	r.Reverse = true
	assert.Equal(t, collect(r), "dcba")
}
