package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// MineResult is the outcome of a mining round. Mined is false when there was
// nothing pending to mine.
type MineResult struct {
	Mined    bool      `json:"mined"`
	Message  string    `json:"message"`
	Block    BlockInfo `json:"block"`
	Attempts uint64    `json:"attempts"`
}

// MineBlock takes every pending transfer and writes a new block with a
// proper hash to the end of the chain. The whole round is one storage
// transaction: the block, the attachments and the status changes are all
// written or none are.
func (s *State) MineBlock(ctx context.Context) (MineResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineBlock: MINING: started")
	defer s.evHandler("state: MineBlock: MINING: completed")

	started := time.Now()

	var res MineResult
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		pending, err := tx.Transfers(storage.StatusPending)
		if err != nil {
			return fmt.Errorf("loading pending transfers: %w", err)
		}

		if len(pending) == 0 {
			res = MineResult{Message: "No pending transactions to mine"}
			return nil
		}

		s.evHandler("state: MineBlock: MINING: check tip: pending[%d]", len(pending))

		tip, err := tx.LatestBlock()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.evHandler("state: MineBlock: MINING: chain empty, creating genesis")
			if tip, err = s.createGenesis(tx); err != nil {
				return fmt.Errorf("creating genesis: %w", err)
			}

		case err != nil:
			return fmt.Errorf("loading tip: %w", err)
		}

		block := storage.Block{
			Index:      tip.Index + 1,
			PrevDigest: tip.CurrentDigest,
			TimeStamp:  s.timestamp(),
			Members:    make([]uint64, len(pending)),
		}
		for i, tran := range pending {
			block.Members[i] = tran.ID
		}

		s.evHandler("state: MineBlock: MINING: perform POW: blk[%d]", block.Index)

		sol, err := pow.Mine(ctx, pow.Args{
			Index:       block.Index,
			PrevDigest:  block.PrevDigest,
			TimeStamp:   block.TimeStamp.Unix(),
			Members:     digest.Snapshot(pending),
			Difficulty:  s.difficulty,
			MaxAttempts: s.maxAttempts,
			Workers:     s.workers,
			EvHandler:   s.evHandler,
		})
		res.Attempts = sol.Attempts
		if err != nil {
			return fmt.Errorf("mining block %d: %w", block.Index, err)
		}

		block.CurrentDigest = sol.Digest
		block.Nonce = sol.Nonce

		s.evHandler("state: MineBlock: MINING: write block: blk[%d]", block.Index)

		if err := tx.PutBlock(block); err != nil {
			return fmt.Errorf("writing block %d: %w", block.Index, err)
		}

		for i := range pending {
			if err := pending[i].MarkMined(block.Index); err != nil {
				return err
			}
			if err := tx.PutTransfer(pending[i]); err != nil {
				return fmt.Errorf("attaching transfer %d: %w", pending[i].ID, err)
			}
		}

		res = MineResult{
			Mined:    true,
			Message:  "Block mined successfully",
			Block:    BlockInfo{Block: block, Transfers: pending},
			Attempts: sol.Attempts,
		}

		return nil
	})

	if err != nil {
		s.metrics.ObserveMine(metrics.StatusError, res.Attempts, 0, started)
		return MineResult{}, err
	}

	if !res.Mined {
		s.metrics.ObserveMine(metrics.StatusEmpty, 0, 0, started)
		s.evHandler("state: MineBlock: MINING: no pending transfers")
		return res, nil
	}

	s.metrics.ObserveMine(metrics.StatusSuccess, res.Attempts, len(res.Block.Transfers), started)
	s.metrics.SetHeight(res.Block.Index)
	s.blockEvent(res.Block)

	return res, nil
}

// blockEvent publishes the mined block for viewers of the event stream.
func (s *State) blockEvent(block BlockInfo) {
	const websocketPrefix = "viewer:"

	data, err := json.Marshal(block)
	if err != nil {
		s.evHandler("state: blockEvent: ERROR: %s", err)
		return
	}

	s.evHandler("%s block: %s", websocketPrefix, data)
}
