package state

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// BlockInfo is a block together with the transfers it holds.
type BlockInfo struct {
	storage.Block
	Transfers []storage.Transfer `json:"transactions"`
}

// LastBlock summarizes the tip of the chain.
type LastBlock struct {
	Index     uint64    `json:"index"`
	Hash      string    `json:"hash"`
	TimeStamp time.Time `json:"timestamp"`
}

// Stats provides a summary of the ledger.
type Stats struct {
	TotalBlocks    int        `json:"total_blocks"`
	TotalTransfers int        `json:"total_transactions"`
	Pending        int        `json:"pending_transactions"`
	Mined          int        `json:"mined_transactions"`
	LastBlock      *LastBlock `json:"last_block"`
	Difficulty     uint       `json:"difficulty"`
}

// =============================================================================

// QueryPending returns the transfers waiting to be mined in id order.
func (s *State) QueryPending(ctx context.Context) ([]storage.Transfer, error) {
	var trans []storage.Transfer
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		var err error
		trans, err = tx.Transfers(storage.StatusPending)
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}

	return trans, nil
}

// QueryTransfers returns every transfer, newest first.
func (s *State) QueryTransfers(ctx context.Context) ([]storage.Transfer, error) {
	var trans []storage.Transfer
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		var err error
		trans, err = tx.Transfers(storage.StatusAny)
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}

	sort.SliceStable(trans, func(i, j int) bool {
		if !trans[i].TimeStamp.Equal(trans[j].TimeStamp) {
			return trans[i].TimeStamp.After(trans[j].TimeStamp)
		}
		return trans[i].ID > trans[j].ID
	})

	return trans, nil
}

// QueryBlocks returns every block in ascending index order with the
// transfers each block holds.
func (s *State) QueryBlocks(ctx context.Context) ([]BlockInfo, error) {
	var infos []BlockInfo
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		blocks, err := tx.BlocksFrom(0)
		if err != nil {
			return err
		}

		infos = make([]BlockInfo, len(blocks))
		for i, block := range blocks {
			members, err := blockMembers(tx, block)
			if err != nil {
				return err
			}
			infos[i] = BlockInfo{Block: block, Transfers: members}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}

	return infos, nil
}

// QueryBlock returns the block at the specified index.
func (s *State) QueryBlock(ctx context.Context, index uint64) (BlockInfo, error) {
	var info BlockInfo
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		block, err := tx.BlockByIndex(index)
		if err != nil {
			return err
		}

		members, err := blockMembers(tx, block)
		if err != nil {
			return err
		}

		info = BlockInfo{Block: block, Transfers: members}
		return nil
	})

	if err != nil {
		return BlockInfo{}, fmt.Errorf("query block %d: %w", index, err)
	}

	return info, nil
}

// RetrieveStats returns a summary of the ledger.
func (s *State) RetrieveStats(ctx context.Context) (Stats, error) {
	stats := Stats{Difficulty: s.difficulty}
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		counts, err := tx.Counts()
		if err != nil {
			return err
		}

		stats.TotalBlocks = counts.Blocks
		stats.TotalTransfers = counts.Transfers
		stats.Pending = counts.Pending
		stats.Mined = counts.Mined

		if counts.Blocks == 0 {
			return nil
		}

		tip, err := tx.LatestBlock()
		if err != nil {
			return err
		}

		stats.LastBlock = &LastBlock{
			Index:     tip.Index,
			Hash:      tip.CurrentDigest,
			TimeStamp: tip.TimeStamp,
		}

		return nil
	})

	if err != nil {
		return Stats{}, fmt.Errorf("retrieve stats: %w", err)
	}

	return stats, nil
}
