package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// RebuildResult is the outcome of re-mining a suffix of the chain.
type RebuildResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RebuiltCount int    `json:"rebuilt_count"`
	FromIndex    uint64 `json:"from_index"`
}

// orphanError aborts a rebuild when a block in the suffix has no
// predecessor to link to.
type orphanError struct {
	index uint64
}

func (oe *orphanError) Error() string {
	return fmt.Sprintf("Cannot rebuild - previous block not found for block %d", oe.index)
}

// RebuildFrom re-links and re-mines every block with an index >= from, in
// ascending order, so the chain validates again. Each block keeps its
// index, timestamp and members and is searched from nonce 0. The rebuild is
// one storage transaction: when any block can't be rebuilt nothing is
// written.
func (s *State) RebuildFrom(ctx context.Context, from uint64) (RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: RebuildFrom: started: from[%d]", from)
	defer s.evHandler("state: RebuildFrom: completed: from[%d]", from)

	res := RebuildResult{FromIndex: from}
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		blocks, err := tx.BlocksFrom(from)
		if err != nil {
			return fmt.Errorf("loading blocks: %w", err)
		}

		if len(blocks) == 0 {
			res.Message = "No blocks found to rebuild"
			return nil
		}

		for _, block := range blocks {
			if err := s.rebuildBlock(ctx, tx, block); err != nil {
				return err
			}
			res.RebuiltCount++
		}

		res.Success = true
		res.Message = fmt.Sprintf("Successfully rebuilt %d block(s)", res.RebuiltCount)

		return nil
	})

	var oe *orphanError
	switch {
	case errors.As(err, &oe):
		s.evHandler("state: RebuildFrom: ERROR: %s", oe)
		s.metrics.ObserveRebuild(metrics.StatusInvalid, 0)
		return RebuildResult{Message: oe.Error(), FromIndex: from}, nil

	case err != nil:
		s.metrics.ObserveRebuild(metrics.StatusError, 0)
		return RebuildResult{}, err
	}

	if !res.Success {
		s.metrics.ObserveRebuild(metrics.StatusEmpty, 0)
		return res, nil
	}

	s.metrics.ObserveRebuild(metrics.StatusSuccess, res.RebuiltCount)
	s.evHandler("state: RebuildFrom: rebuilt[%d]", res.RebuiltCount)

	return res, nil
}

// rebuildBlock links the block to the current digest of its predecessor,
// which may have been rebuilt earlier in the same transaction, and mines it.
func (s *State) rebuildBlock(ctx context.Context, tx storage.Tx, block storage.Block) error {
	switch {
	case block.IsGenesis():
		block.PrevDigest = storage.GenesisPrevDigest

	default:
		prev, err := tx.BlockByIndex(block.Index - 1)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return &orphanError{index: block.Index}
		case err != nil:
			return fmt.Errorf("loading block %d: %w", block.Index-1, err)
		}
		block.PrevDigest = prev.CurrentDigest
	}

	members, err := blockMembers(tx, block)
	if err != nil {
		return err
	}

	s.evHandler("state: RebuildFrom: MINING: blk[%d]", block.Index)

	sol, err := pow.Mine(ctx, pow.Args{
		Index:       block.Index,
		PrevDigest:  block.PrevDigest,
		TimeStamp:   block.TimeStamp.Unix(),
		Members:     digest.Snapshot(members),
		Difficulty:  s.difficulty,
		MaxAttempts: s.maxAttempts,
		Workers:     s.workers,
		EvHandler:   s.evHandler,
	})
	if err != nil {
		return fmt.Errorf("mining block %d: %w", block.Index, err)
	}

	block.CurrentDigest = sol.Digest
	block.Nonce = sol.Nonce

	if err := tx.PutBlock(block); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Index, err)
	}

	return nil
}
