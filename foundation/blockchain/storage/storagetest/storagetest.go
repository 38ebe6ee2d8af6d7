// Package storagetest provides a conformance suite that every
// storage.Storage implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Factory constructs a new, empty storage value for a single test.
type Factory func(t *testing.T) storage.Storage

// Run executes the conformance suite against the storage built by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("emptyStore", func(t *testing.T) { emptyStore(t, factory(t)) })
	t.Run("blocksOrdered", func(t *testing.T) { blocksOrdered(t, factory(t)) })
	t.Run("transferLifecycle", func(t *testing.T) { transferLifecycle(t, factory(t)) })
	t.Run("rollback", func(t *testing.T) { rollback(t, factory(t)) })
	t.Run("readOnlyView", func(t *testing.T) { readOnlyView(t, factory(t)) })
	t.Run("cancelledContext", func(t *testing.T) { cancelledContext(t, factory(t)) })
}

func emptyStore(t *testing.T, strg storage.Storage) {
	ctx := context.Background()

	err := strg.View(ctx, func(tx storage.Tx) error {
		_, err := tx.LatestBlock()
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = tx.BlockByIndex(0)
		require.ErrorIs(t, err, storage.ErrNotFound)

		blocks, err := tx.BlocksFrom(0)
		require.NoError(t, err)
		require.Empty(t, blocks)

		counts, err := tx.Counts()
		require.NoError(t, err)
		require.Equal(t, storage.Counts{}, counts)

		return nil
	})
	require.NoError(t, err)
}

func blocksOrdered(t *testing.T, strg storage.Storage) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()

	// Write out of order, including an index past 255 so byte ordering of
	// the keys is exercised.
	indexes := []uint64{2, 0, 300, 1}

	err := strg.Update(ctx, func(tx storage.Tx) error {
		for _, idx := range indexes {
			block := storage.Block{
				Index:         idx,
				PrevDigest:    "prev",
				CurrentDigest: "cur",
				Nonce:         idx * 10,
				TimeStamp:     now,
				Members:       []uint64{idx + 1},
			}
			if err := tx.PutBlock(block); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = strg.View(ctx, func(tx storage.Tx) error {
		latest, err := tx.LatestBlock()
		require.NoError(t, err)
		require.Equal(t, uint64(300), latest.Index)

		blocks, err := tx.BlocksFrom(1)
		require.NoError(t, err)
		require.Len(t, blocks, 3)
		require.Equal(t, uint64(1), blocks[0].Index)
		require.Equal(t, uint64(2), blocks[1].Index)
		require.Equal(t, uint64(300), blocks[2].Index)

		block, err := tx.BlockByIndex(2)
		require.NoError(t, err)
		require.Equal(t, uint64(20), block.Nonce)
		require.Equal(t, []uint64{3}, block.Members)
		require.Equal(t, now.Unix(), block.TimeStamp.Unix())

		return nil
	})
	require.NoError(t, err)

	// Replacing a block keeps a single record for the index.
	err = strg.Update(ctx, func(tx storage.Tx) error {
		block, err := tx.BlockByIndex(2)
		if err != nil {
			return err
		}
		block.CurrentDigest = "replaced"
		return tx.PutBlock(block)
	})
	require.NoError(t, err)

	err = strg.View(ctx, func(tx storage.Tx) error {
		block, err := tx.BlockByIndex(2)
		require.NoError(t, err)
		require.Equal(t, "replaced", block.CurrentDigest)

		counts, err := tx.Counts()
		require.NoError(t, err)
		require.Equal(t, 4, counts.Blocks)

		return nil
	})
	require.NoError(t, err)

	// Deleting leaves a gap that ordered reads skip over.
	err = strg.Update(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteBlock(2); err != nil {
			return err
		}
		return tx.DeleteBlock(7)
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = strg.Update(ctx, func(tx storage.Tx) error {
		return tx.DeleteBlock(2)
	})
	require.NoError(t, err)

	err = strg.View(ctx, func(tx storage.Tx) error {
		_, err := tx.BlockByIndex(2)
		require.ErrorIs(t, err, storage.ErrNotFound)

		blocks, err := tx.BlocksFrom(0)
		require.NoError(t, err)
		require.Len(t, blocks, 3)
		require.Equal(t, uint64(300), blocks[2].Index)

		return nil
	})
	require.NoError(t, err)
}

func transferLifecycle(t *testing.T, strg storage.Storage) {
	ctx := context.Background()
	now := time.Now()

	var ids []uint64
	err := strg.Update(ctx, func(tx storage.Tx) error {
		for _, amt := range []string{"10.50", "3", "0.01"} {
			tran, err := storage.NewTransfer("alice", "bob", decimal.RequireFromString(amt), now)
			if err != nil {
				return err
			}

			tran, err = tx.InsertTransfer(tran)
			if err != nil {
				return err
			}
			ids = append(ids, tran.ID)
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Less(t, ids[0], ids[1])
	require.Less(t, ids[1], ids[2])

	err = strg.Update(ctx, func(tx storage.Tx) error {
		tran, err := tx.Transfer(ids[1])
		if err != nil {
			return err
		}
		if err := tran.MarkMined(7); err != nil {
			return err
		}
		return tx.PutTransfer(tran)
	})
	require.NoError(t, err)

	err = strg.View(ctx, func(tx storage.Tx) error {
		pending, err := tx.Transfers(storage.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		require.Equal(t, ids[0], pending[0].ID)
		require.Equal(t, ids[2], pending[1].ID)
		require.True(t, pending[0].Amount.Equal(decimal.RequireFromString("10.5")))

		mined, err := tx.Transfers(storage.StatusMined)
		require.NoError(t, err)
		require.Len(t, mined, 1)
		require.NotNil(t, mined[0].BlockIndex)
		require.Equal(t, uint64(7), *mined[0].BlockIndex)

		all, err := tx.Transfers(storage.StatusAny)
		require.NoError(t, err)
		require.Len(t, all, 3)

		counts, err := tx.Counts()
		require.NoError(t, err)
		require.Equal(t, storage.Counts{Transfers: 3, Pending: 2, Mined: 1}, counts)

		_, err = tx.Transfer(999)
		require.ErrorIs(t, err, storage.ErrNotFound)

		return nil
	})
	require.NoError(t, err)

	err = strg.Update(ctx, func(tx storage.Tx) error {
		return tx.PutTransfer(storage.Transfer{ID: 999})
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func rollback(t *testing.T, strg storage.Storage) {
	ctx := context.Background()
	abort := errors.New("abort")

	err := strg.Update(ctx, func(tx storage.Tx) error {
		if err := tx.PutBlock(storage.Block{Index: 0, PrevDigest: storage.GenesisPrevDigest}); err != nil {
			return err
		}

		tran, err := storage.NewTransfer("alice", "bob", decimal.NewFromInt(1), time.Now())
		if err != nil {
			return err
		}
		if _, err := tx.InsertTransfer(tran); err != nil {
			return err
		}

		return abort
	})
	require.ErrorIs(t, err, abort)

	err = strg.View(ctx, func(tx storage.Tx) error {
		counts, err := tx.Counts()
		require.NoError(t, err)
		require.Equal(t, storage.Counts{}, counts)
		return nil
	})
	require.NoError(t, err)
}

func readOnlyView(t *testing.T, strg storage.Storage) {
	err := strg.View(context.Background(), func(tx storage.Tx) error {
		return tx.PutBlock(storage.Block{Index: 0})
	})
	require.ErrorIs(t, err, storage.ErrReadOnly)
}

func cancelledContext(t *testing.T, strg storage.Storage) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := strg.Update(ctx, func(tx storage.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
