// Package pow implements the proof of work search that discovers a nonce
// producing a digest with the required number of leading zeros.
package pow

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"golang.org/x/sync/errgroup"
)

// ErrAttemptsExhausted is returned when the configured attempt cap is reached
// before a solution is found.
var ErrAttemptsExhausted = errors.New("mining attempts exhausted")

// chunkSize is the number of nonces a single worker checks per round when
// the search is sharded.
const chunkSize = 4096

// cancelCheck is how often, in attempts, the sequential search checks the
// context.
const cancelCheck = 1024

// Args represents the set of arguments required to mine a block.
type Args struct {
	Index       uint64
	PrevDigest  string
	TimeStamp   int64
	Members     []digest.Member
	Difficulty  uint
	MaxAttempts uint64 // Zero means no cap.
	Workers     int    // Values < 2 search sequentially.
	EvHandler   func(v string, args ...any)
}

// Result is the solution found by Mine.
type Result struct {
	Digest   string
	Nonce    uint64
	Attempts uint64
}

// Mine searches for the lowest nonce, starting at 0, that solves the puzzle
// for the specified block contents. The search runs until a solution is
// found, the attempt cap is reached, or the context is cancelled. Sharding
// the search across workers returns the same result as the sequential
// search.
func Mine(ctx context.Context, args Args) (Result, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if args.Difficulty > digest.Size {
		return Result{}, errors.New("difficulty exceeds digest size")
	}

	// The canonical member serialization is the expensive part of the
	// payload and does not change while the nonce does.
	p := newPuzzle(args)

	ev("pow: Mine: MINING: started: blk[%d]: difficulty[%d]: workers[%d]", args.Index, args.Difficulty, args.Workers)
	defer ev("pow: Mine: MINING: completed: blk[%d]", args.Index)

	var res Result
	var err error
	switch {
	case args.Workers < 2:
		res, err = p.sequential(ctx, ev)
	default:
		res, err = p.sharded(ctx, args.Workers, ev)
	}

	if err != nil {
		ev("pow: Mine: MINING: ERROR: blk[%d]: attempts[%d]: %s", args.Index, res.Attempts, err)
		return res, err
	}

	ev("pow: Mine: MINING: SOLVED: blk[%d]: nonce[%d]: hash[%s]: attempts[%d]", args.Index, res.Nonce, res.Digest, res.Attempts)
	return res, nil
}

// =============================================================================

// puzzle holds the fixed parts of the payload being hashed.
type puzzle struct {
	hasher      digest.Hasher
	difficulty  uint
	maxAttempts uint64
}

func newPuzzle(args Args) puzzle {
	return puzzle{
		hasher:      digest.NewHasher(args.Index, args.PrevDigest, args.TimeStamp, args.Members),
		difficulty:  args.Difficulty,
		maxAttempts: args.MaxAttempts,
	}
}

func (p puzzle) try(nonce uint64) (string, bool) {
	hash := p.hasher.Sum(nonce)
	return hash, digest.IsSolved(p.difficulty, hash)
}

// capped reports whether attempting nonce would exceed the attempt cap.
func (p puzzle) capped(nonce uint64) bool {
	return p.maxAttempts > 0 && nonce >= p.maxAttempts
}

func (p puzzle) sequential(ctx context.Context, ev func(v string, args ...any)) (Result, error) {
	for nonce := uint64(0); ; nonce++ {
		if p.capped(nonce) {
			return Result{Attempts: nonce}, ErrAttemptsExhausted
		}

		if nonce%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Attempts: nonce}, err
			}
		}

		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("pow: Mine: MINING: attempts[%d]", nonce)
		}

		if hash, ok := p.try(nonce); ok {
			return Result{Digest: hash, Nonce: nonce, Attempts: nonce + 1}, nil
		}
	}
}

// sharded searches the nonce space in rounds. Each round hands every worker
// its own contiguous chunk; the lowest solution found in a round is the
// lowest solution overall since every lower nonce was checked in an earlier
// round or by a lower chunk of the same round.
func (p puzzle) sharded(ctx context.Context, workers int, ev func(v string, args ...any)) (Result, error) {
	var base uint64
	for round := uint64(1); ; round++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: base}, err
		}

		if p.capped(base) {
			return Result{Attempts: p.maxAttempts}, ErrAttemptsExhausted
		}

		var mu sync.Mutex
		var best *Result

		g, gctx := errgroup.WithContext(ctx)
		for w := range workers {
			start := base + uint64(w)*chunkSize

			g.Go(func() error {
				for nonce := start; nonce < start+chunkSize; nonce++ {
					if p.capped(nonce) {
						return nil
					}

					if nonce%cancelCheck == 0 {
						if err := gctx.Err(); err != nil {
							return err
						}
					}

					hash, ok := p.try(nonce)
					if !ok {
						continue
					}

					mu.Lock()
					if best == nil || nonce < best.Nonce {
						best = &Result{Digest: hash, Nonce: nonce}
					}
					mu.Unlock()

					return nil
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return Result{Attempts: base}, err
		}

		if best != nil {
			best.Attempts = best.Nonce + 1
			return *best, nil
		}

		base += uint64(workers) * chunkSize

		if round%16 == 0 {
			ev("pow: Mine: MINING: attempts[%d]", base)
		}
	}
}
