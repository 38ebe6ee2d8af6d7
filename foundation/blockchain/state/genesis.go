package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// CreateGenesis ensures the chain has a root block. When a genesis block
// already exists it is returned unchanged.
func (s *State) CreateGenesis(ctx context.Context) (storage.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var genesis storage.Block
	var created bool

	err := s.storage.Update(ctx, func(tx storage.Tx) error {
		block, err := tx.BlockByIndex(0)
		switch {
		case err == nil:
			genesis = block
			return nil

		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		genesis, err = s.createGenesis(tx)
		created = err == nil
		return err
	})

	if err != nil {
		return storage.Block{}, err
	}

	if created {
		s.evHandler("state: CreateGenesis: created: hash[%s]", genesis.CurrentDigest)
		s.metrics.SetHeight(0)
	}

	return genesis, nil
}

// createGenesis writes the root block. The genesis block carries no
// transfers and is not mined, its digest is taken with nonce 0.
func (s *State) createGenesis(tx storage.Tx) (storage.Block, error) {
	ts := s.timestamp()

	block := storage.Block{
		Index:      0,
		PrevDigest: storage.GenesisPrevDigest,
		Nonce:      0,
		TimeStamp:  ts,
		Members:    []uint64{},
	}
	block.CurrentDigest = digest.Hash(block.Index, block.PrevDigest, ts.Unix(), nil, block.Nonce)

	if err := tx.PutBlock(block); err != nil {
		return storage.Block{}, err
	}

	return block, nil
}
