// Package storage defines the blocks and transfers maintained by the ledger
// and the transactional store contract the chain engine reads and writes.
package storage

import (
	"context"
	"errors"
)

// Set of errors returned by storage implementations.
var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("write attempted in a read only transaction")
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing the ledger. Update must apply all of
// the writes performed by fn or none of them.
type Storage interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx interface represents the set of reads and writes available inside a
// storage transaction. Values returned by a Tx are copies and are safe to
// keep after the transaction ends.
type Tx interface {

	// LatestBlock returns the block with the highest index.
	LatestBlock() (Block, error)

	// BlockByIndex returns the block stored at the specified index.
	BlockByIndex(index uint64) (Block, error)

	// BlocksFrom returns all blocks with an index >= from, ascending.
	BlocksFrom(from uint64) ([]Block, error)

	// PutBlock inserts the block or replaces the block with the same index.
	PutBlock(block Block) error

	// DeleteBlock removes the block stored at the specified index.
	DeleteBlock(index uint64) error

	// Transfer returns the transfer with the specified id.
	Transfer(id uint64) (Transfer, error)

	// Transfers returns the transfers with the specified status in ascending
	// id order. StatusAny returns every transfer.
	Transfers(status Status) ([]Transfer, error)

	// InsertTransfer assigns the next id to the transfer and stores it.
	InsertTransfer(tran Transfer) (Transfer, error)

	// PutTransfer replaces an existing transfer.
	PutTransfer(tran Transfer) error

	// Counts returns the number of stored records.
	Counts() (Counts, error)
}

// Counts provides the number of records held in the store.
type Counts struct {
	Blocks    int `json:"blocks"`
	Transfers int `json:"transfers"`
	Pending   int `json:"pending"`
	Mined     int `json:"mined"`
}
