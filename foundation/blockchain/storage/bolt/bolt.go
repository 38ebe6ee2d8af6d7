// Package bolt implements the ability to read and write the ledger to disk
// using a bbolt database file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	bucketBlocks    = []byte("blocks")    // index (big-endian) -> block json
	bucketTransfers = []byte("transfers") // id (big-endian) -> transfer json
)

// Bolt represents the storage implementation for reading and storing the
// ledger in a bbolt file. This implements the storage.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens, creating if needed, the database file at the specified path.
func New(dbPath string) (*Bolt, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db folder: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketBlocks, bucketTransfers} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// View executes fn inside a read only bbolt transaction.
func (b *Bolt) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update executes fn inside a read/write bbolt transaction. The transaction
// is rolled back if fn returns an error or the context is done by the time
// fn returns.
func (b *Bolt) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		if err := fn(&boltTx{tx: tx}); err != nil {
			return err
		}
		return ctx.Err()
	})
}

// =============================================================================

// boltTx implements the storage.Tx interface over a bbolt transaction.
type boltTx struct {
	tx *bolt.Tx
}

func (bt *boltTx) LatestBlock() (storage.Block, error) {
	k, v := bt.tx.Bucket(bucketBlocks).Cursor().Last()
	if k == nil {
		return storage.Block{}, storage.ErrNotFound
	}

	return decodeBlock(v)
}

func (bt *boltTx) BlockByIndex(index uint64) (storage.Block, error) {
	v := bt.tx.Bucket(bucketBlocks).Get(key(index))
	if v == nil {
		return storage.Block{}, storage.ErrNotFound
	}

	return decodeBlock(v)
}

func (bt *boltTx) BlocksFrom(from uint64) ([]storage.Block, error) {
	var blocks []storage.Block

	c := bt.tx.Bucket(bucketBlocks).Cursor()
	for k, v := c.Seek(key(from)); k != nil; k, v = c.Next() {
		block, err := decodeBlock(v)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

func (bt *boltTx) PutBlock(block storage.Block) error {
	if !bt.tx.Writable() {
		return storage.ErrReadOnly
	}

	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encoding block %d: %w", block.Index, err)
	}

	return bt.tx.Bucket(bucketBlocks).Put(key(block.Index), data)
}

func (bt *boltTx) DeleteBlock(index uint64) error {
	if !bt.tx.Writable() {
		return storage.ErrReadOnly
	}

	b := bt.tx.Bucket(bucketBlocks)
	if b.Get(key(index)) == nil {
		return storage.ErrNotFound
	}

	return b.Delete(key(index))
}

func (bt *boltTx) Transfer(id uint64) (storage.Transfer, error) {
	v := bt.tx.Bucket(bucketTransfers).Get(key(id))
	if v == nil {
		return storage.Transfer{}, storage.ErrNotFound
	}

	return decodeTransfer(v)
}

func (bt *boltTx) Transfers(status storage.Status) ([]storage.Transfer, error) {
	var trans []storage.Transfer

	err := bt.tx.Bucket(bucketTransfers).ForEach(func(_, v []byte) error {
		tran, err := decodeTransfer(v)
		if err != nil {
			return err
		}

		if status == storage.StatusAny || tran.Status == status {
			trans = append(trans, tran)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return trans, nil
}

func (bt *boltTx) InsertTransfer(tran storage.Transfer) (storage.Transfer, error) {
	if !bt.tx.Writable() {
		return storage.Transfer{}, storage.ErrReadOnly
	}

	bucket := bt.tx.Bucket(bucketTransfers)

	id, err := bucket.NextSequence()
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("next transfer id: %w", err)
	}
	tran.ID = id

	data, err := json.Marshal(tran)
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("encoding transfer: %w", err)
	}

	if err := bucket.Put(key(id), data); err != nil {
		return storage.Transfer{}, err
	}

	return tran, nil
}

func (bt *boltTx) PutTransfer(tran storage.Transfer) error {
	if !bt.tx.Writable() {
		return storage.ErrReadOnly
	}

	bucket := bt.tx.Bucket(bucketTransfers)
	if bucket.Get(key(tran.ID)) == nil {
		return storage.ErrNotFound
	}

	data, err := json.Marshal(tran)
	if err != nil {
		return fmt.Errorf("encoding transfer %d: %w", tran.ID, err)
	}

	return bucket.Put(key(tran.ID), data)
}

func (bt *boltTx) Counts() (storage.Counts, error) {
	counts := storage.Counts{
		Blocks: bt.tx.Bucket(bucketBlocks).Stats().KeyN,
	}

	trans, err := bt.Transfers(storage.StatusAny)
	if err != nil {
		return storage.Counts{}, err
	}

	counts.Transfers = len(trans)
	for _, tran := range trans {
		switch tran.Status {
		case storage.StatusPending:
			counts.Pending++
		case storage.StatusMined:
			counts.Mined++
		}
	}

	return counts, nil
}

// =============================================================================

// key encodes the number in big-endian so the bbolt cursor walks records
// in ascending numeric order.
func key(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// blockRecord and transferRecord shadow the timestamp so stored values with
// a textual timestamp can still be read.
type blockRecord struct {
	storage.Block
	TimeStamp json.RawMessage `json:"timestamp"`
}

type transferRecord struct {
	storage.Transfer
	TimeStamp json.RawMessage `json:"timestamp"`
}

func decodeBlock(data []byte) (storage.Block, error) {
	var rec blockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return storage.Block{}, fmt.Errorf("decoding block: %w", err)
	}

	ts, err := decodeTimestamp(rec.TimeStamp)
	if err != nil {
		return storage.Block{}, fmt.Errorf("decoding block[%d] timestamp: %w", rec.Index, err)
	}
	rec.Block.TimeStamp = ts

	return rec.Block, nil
}

func decodeTransfer(data []byte) (storage.Transfer, error) {
	var rec transferRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return storage.Transfer{}, fmt.Errorf("decoding transfer: %w", err)
	}

	ts, err := decodeTimestamp(rec.TimeStamp)
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("decoding transfer[%d] timestamp: %w", rec.ID, err)
	}
	rec.Transfer.TimeStamp = ts

	return rec.Transfer, nil
}

// decodeTimestamp reads an RFC3339 timestamp as written by this package.
// Epoch seconds and "2006-01-02 15:04:05" text are converted the same way
// the digest package converts them for hashing.
func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var t time.Time
	if err := json.Unmarshal(raw, &t); err == nil {
		return t, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return time.Time{}, err
		}
	}

	return time.Unix(digest.ParseTimestamp(text, time.Now), 0).UTC(), nil
}

// IsTimeout reports whether the error was produced because another process
// holds the database file lock.
func IsTimeout(err error) bool {
	return errors.Is(err, bolt.ErrTimeout)
}
