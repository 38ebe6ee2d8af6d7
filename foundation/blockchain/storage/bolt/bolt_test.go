package bolt_test

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage/bolt"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage/storagetest"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"
)

func TestBolt(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		strg, err := bolt.New(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		t.Cleanup(func() { strg.Close() })
		return strg
	})
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	strg, err := bolt.New(path)
	require.NoError(t, err)

	err = strg.Update(context.Background(), func(tx storage.Tx) error {
		return tx.PutBlock(storage.Block{Index: 0, PrevDigest: storage.GenesisPrevDigest, CurrentDigest: "abc"})
	})
	require.NoError(t, err)
	require.NoError(t, strg.Close())

	strg, err = bolt.New(path)
	require.NoError(t, err)
	defer strg.Close()

	err = strg.View(context.Background(), func(tx storage.Tx) error {
		block, err := tx.LatestBlock()
		require.NoError(t, err)
		require.Equal(t, "abc", block.CurrentDigest)
		return nil
	})
	require.NoError(t, err)
}

func TestBoltTextualTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	strg, err := bolt.New(path)
	require.NoError(t, err)
	require.NoError(t, strg.Close())

	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, 1)

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	err = db.Update(func(tx *bbolt.Tx) error {
		block := `{"index":0,"previous_hash":"0","current_hash":"abc","nonce":0,"timestamp":"2024-01-02 15:04:05","transaction_ids":[1]}`
		if err := tx.Bucket([]byte("blocks")).Put(make([]byte, 8), []byte(block)); err != nil {
			return err
		}
		tran := `{"id":1,"sender":"Alice","receiver":"Bob","amount":"1.00","status":"mined","timestamp":1700000000,"block_index":0}`
		return tx.Bucket([]byte("transfers")).Put(k, []byte(tran))
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	strg, err = bolt.New(path)
	require.NoError(t, err)
	defer strg.Close()

	err = strg.View(context.Background(), func(tx storage.Tx) error {
		block, err := tx.BlockByIndex(0)
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC).Unix(), block.TimeStamp.Unix())
		require.Equal(t, []uint64{1}, block.Members)

		tran, err := tx.Transfer(1)
		require.NoError(t, err)
		require.Equal(t, int64(1700000000), tran.TimeStamp.Unix())
		require.Equal(t, "Alice", tran.Sender)
		require.Equal(t, storage.StatusMined, tran.Status)
		return nil
	})
	require.NoError(t, err)
}
