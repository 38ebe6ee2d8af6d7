package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// ValidationResult is the report produced by a full walk of the chain.
type ValidationResult struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	BlocksChecked int      `json:"blocks_checked"`
}

// Validate walks every block in ascending index order and reports every
// integrity violation it finds. The chain is never modified.
//
// Non-genesis blocks are checked in link, content, work order. The genesis
// block only has its content checked.
func (s *State) Validate(ctx context.Context) (ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.evHandler("state: Validate: started")
	defer s.evHandler("state: Validate: completed")

	started := time.Now()

	res := ValidationResult{Errors: []string{}}
	err := s.storage.View(ctx, func(tx storage.Tx) error {
		blocks, err := tx.BlocksFrom(0)
		if err != nil {
			return fmt.Errorf("loading blocks: %w", err)
		}

		if len(blocks) == 0 {
			res.Errors = append(res.Errors, "No blocks in chain")
			return nil
		}

		var prev *storage.Block
		for i := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}

			block := blocks[i]
			res.BlocksChecked++

			members, err := blockMembers(tx, block)
			if err != nil {
				return err
			}

			res.Errors = append(res.Errors, s.checkBlock(block, prev, members)...)
			prev = &blocks[i]
		}

		return nil
	})

	if err != nil {
		s.metrics.ObserveValidate(metrics.StatusError, 0, started)
		return ValidationResult{}, err
	}

	res.Valid = len(res.Errors) == 0

	status := metrics.StatusSuccess
	if !res.Valid {
		status = metrics.StatusInvalid
	}
	s.metrics.ObserveValidate(status, len(res.Errors), started)

	s.evHandler("state: Validate: valid[%v]: checked[%d]: errors[%d]", res.Valid, res.BlocksChecked, len(res.Errors))

	return res, nil
}

// checkBlock returns the violations found for a single block. The prev
// block is the one visited before this block in the walk, nil when none.
func (s *State) checkBlock(block storage.Block, prev *storage.Block, members []storage.Transfer) []string {
	var errs []string

	if block.IsGenesis() {
		if block.CurrentDigest != blockDigest(block, members) {
			errs = append(errs, fmt.Sprintf("Block %d: Invalid hash - hash does not match calculated value", block.Index))
		}
		return errs
	}

	if prev == nil {
		return append(errs, fmt.Sprintf("Block %d: Previous block not found", block.Index))
	}

	// Blocks are loaded by index, so a gap means the block at Index-1 is
	// missing. The remaining checks run against the block visited last.
	if prev.Index+1 != block.Index {
		errs = append(errs, fmt.Sprintf("Block %d: Gap in chain - expected index %d", block.Index, prev.Index+1))
	}

	if block.PrevDigest != prev.CurrentDigest {
		errs = append(errs, fmt.Sprintf("Block %d: Chain broken - previous hash does not match previous block's hash", block.Index))
	}

	if block.CurrentDigest != blockDigest(block, members) {
		errs = append(errs, fmt.Sprintf("Block %d: Invalid hash - hash does not match calculated value", block.Index))
	}

	if !digest.IsSolved(s.difficulty, block.CurrentDigest) {
		errs = append(errs, fmt.Sprintf("Block %d: Does not meet difficulty requirement", block.Index))
	}

	return errs
}
