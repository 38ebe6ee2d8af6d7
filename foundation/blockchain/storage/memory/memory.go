// Package memory implements the ability to read and write the ledger to
// memory using maps.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// Memory represents the storage implementation for reading and storing
// the ledger in memory. This implements the storage.Storage interface.
type Memory struct {
	mu   sync.RWMutex
	data *dataset
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{data: newDataset()}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// View executes fn against the current data under a read lock.
func (m *Memory) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(&memoryTx{data: m.data, readOnly: true})
}

// Update executes fn against a private copy of the data. The copy only
// replaces the live data when fn returns without error.
func (m *Memory) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.data.clone()
	if err := fn(&memoryTx{data: work}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.data = work
	return nil
}

// =============================================================================

// dataset is the full set of records held by a Memory value.
type dataset struct {
	blocks    map[uint64]storage.Block
	transfers map[uint64]storage.Transfer
	nextID    uint64
}

func newDataset() *dataset {
	return &dataset{
		blocks:    make(map[uint64]storage.Block),
		transfers: make(map[uint64]storage.Transfer),
	}
}

func (ds *dataset) clone() *dataset {
	cp := dataset{
		blocks:    make(map[uint64]storage.Block, len(ds.blocks)),
		transfers: make(map[uint64]storage.Transfer, len(ds.transfers)),
		nextID:    ds.nextID,
	}

	for idx, block := range ds.blocks {
		cp.blocks[idx] = block.Clone()
	}
	for id, tran := range ds.transfers {
		cp.transfers[id] = tran.Clone()
	}

	return &cp
}

// =============================================================================

// memoryTx implements the storage.Tx interface over a dataset.
type memoryTx struct {
	data     *dataset
	readOnly bool
}

func (tx *memoryTx) LatestBlock() (storage.Block, error) {
	if len(tx.data.blocks) == 0 {
		return storage.Block{}, storage.ErrNotFound
	}

	var latest uint64
	for idx := range tx.data.blocks {
		if idx > latest {
			latest = idx
		}
	}

	return tx.data.blocks[latest].Clone(), nil
}

func (tx *memoryTx) BlockByIndex(index uint64) (storage.Block, error) {
	block, exists := tx.data.blocks[index]
	if !exists {
		return storage.Block{}, storage.ErrNotFound
	}

	return block.Clone(), nil
}

func (tx *memoryTx) BlocksFrom(from uint64) ([]storage.Block, error) {
	var blocks []storage.Block
	for idx, block := range tx.data.blocks {
		if idx >= from {
			blocks = append(blocks, block.Clone())
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Index < blocks[j].Index
	})

	return blocks, nil
}

func (tx *memoryTx) PutBlock(block storage.Block) error {
	if tx.readOnly {
		return storage.ErrReadOnly
	}

	tx.data.blocks[block.Index] = block.Clone()
	return nil
}

func (tx *memoryTx) DeleteBlock(index uint64) error {
	if tx.readOnly {
		return storage.ErrReadOnly
	}

	if _, exists := tx.data.blocks[index]; !exists {
		return storage.ErrNotFound
	}

	delete(tx.data.blocks, index)
	return nil
}

func (tx *memoryTx) Transfer(id uint64) (storage.Transfer, error) {
	tran, exists := tx.data.transfers[id]
	if !exists {
		return storage.Transfer{}, storage.ErrNotFound
	}

	return tran.Clone(), nil
}

func (tx *memoryTx) Transfers(status storage.Status) ([]storage.Transfer, error) {
	var trans []storage.Transfer
	for _, tran := range tx.data.transfers {
		if status == storage.StatusAny || tran.Status == status {
			trans = append(trans, tran.Clone())
		}
	}

	sort.Slice(trans, func(i, j int) bool {
		return trans[i].ID < trans[j].ID
	})

	return trans, nil
}

func (tx *memoryTx) InsertTransfer(tran storage.Transfer) (storage.Transfer, error) {
	if tx.readOnly {
		return storage.Transfer{}, storage.ErrReadOnly
	}

	tx.data.nextID++
	tran.ID = tx.data.nextID
	tx.data.transfers[tran.ID] = tran.Clone()

	return tran, nil
}

func (tx *memoryTx) PutTransfer(tran storage.Transfer) error {
	if tx.readOnly {
		return storage.ErrReadOnly
	}

	if _, exists := tx.data.transfers[tran.ID]; !exists {
		return storage.ErrNotFound
	}

	tx.data.transfers[tran.ID] = tran.Clone()
	return nil
}

func (tx *memoryTx) Counts() (storage.Counts, error) {
	counts := storage.Counts{
		Blocks:    len(tx.data.blocks),
		Transfers: len(tx.data.transfers),
	}

	for _, tran := range tx.data.transfers {
		switch tran.Status {
		case storage.StatusPending:
			counts.Pending++
		case storage.StatusMined:
			counts.Mined++
		}
	}

	return counts, nil
}
