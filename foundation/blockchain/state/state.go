// Package state is the core API for the ledger and implements all the
// business rules for building, validating and repairing the chain.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start the chain engine.
type Config struct {
	Storage     storage.Storage
	Difficulty  uint
	MaxAttempts uint64
	Workers     int
	AutoMine    bool
	Now         func() time.Time
	EvHandler   EventHandler
}

// State manages the chain held in storage. Operations that change the chain
// are serialized so two mining rounds can never extend the same tip.
type State struct {
	mu sync.RWMutex

	storage     storage.Storage
	difficulty  uint
	maxAttempts uint64
	workers     int
	autoMine    bool
	now         func() time.Time
	evHandler   EventHandler
	metrics     metrics.Chain

	Worker Worker
}

// New constructs a new chain engine for data management.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Difficulty > digest.Size {
		return nil, fmt.Errorf("difficulty %d exceeds the digest size of %d", cfg.Difficulty, digest.Size)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	state := State{
		storage:     cfg.Storage,
		difficulty:  cfg.Difficulty,
		maxAttempts: cfg.MaxAttempts,
		workers:     cfg.Workers,
		autoMine:    cfg.AutoMine,
		now:         now,
		evHandler:   ev,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the engine down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all background mining before the store goes away.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.storage.Close()
}

// Difficulty returns the number of leading zeros a block digest requires.
func (s *State) Difficulty() uint {
	return s.difficulty
}

// AutoMine reports whether submitted transfers signal the mining worker.
func (s *State) AutoMine() bool {
	return s.autoMine
}

// =============================================================================

// timestamp returns the current time at the resolution blocks are hashed.
func (s *State) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// blockMembers loads the transfers attached to the block in member order.
// Members that no longer exist are skipped, which makes the block fail its
// content check.
func blockMembers(tx storage.Tx, block storage.Block) ([]storage.Transfer, error) {
	trans := make([]storage.Transfer, 0, len(block.Members))
	for _, id := range block.Members {
		tran, err := tx.Transfer(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("block %d: loading transfer %d: %w", block.Index, id, err)
		}
		trans = append(trans, tran)
	}

	return trans, nil
}

// blockDigest recomputes the digest of the block from its stored contents.
func blockDigest(block storage.Block, members []storage.Transfer) string {
	return digest.Hash(block.Index, block.PrevDigest, block.TimeStamp.Unix(), digest.Snapshot(members), block.Nonce)
}
