package state

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TamperBlock overwrites the stored digest of a block without re-mining it.
// An empty digest is replaced by a random one. This exists to demonstrate
// that Validate detects the change and RebuildFrom repairs it.
func (s *State) TamperBlock(ctx context.Context, index uint64, newDigest string) (storage.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newDigest == "" {
		var b [digest.Size / 2]byte
		if _, err := rand.Read(b[:]); err != nil {
			return storage.Block{}, fmt.Errorf("generating digest: %w", err)
		}
		newDigest = common.Bytes2Hex(b[:])
	}

	var block storage.Block
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		var err error
		if block, err = tx.BlockByIndex(index); err != nil {
			return fmt.Errorf("block %d: %w", index, err)
		}

		block.CurrentDigest = newDigest
		return tx.PutBlock(block)
	})

	if err != nil {
		return storage.Block{}, err
	}

	s.metrics.ObserveTamper(metrics.KindBlock)
	s.evHandler("state: TamperBlock: blk[%d]: hash[%s]", index, newDigest)

	return block, nil
}

// TamperTransfer overwrites the amount of a stored transfer. When the
// transfer is mined this invalidates the digest of the block holding it.
func (s *State) TamperTransfer(ctx context.Context, id uint64, amount decimal.Decimal) (storage.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tran storage.Transfer
	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		var err error
		if tran, err = tx.Transfer(id); err != nil {
			return fmt.Errorf("transfer %d: %w", id, err)
		}

		tran.Amount = amount.Round(2)
		return tx.PutTransfer(tran)
	})

	if err != nil {
		return storage.Transfer{}, err
	}

	s.metrics.ObserveTamper(metrics.KindTransfer)
	s.evHandler("state: TamperTransfer: tran[%s]", tran)

	return tran, nil
}
