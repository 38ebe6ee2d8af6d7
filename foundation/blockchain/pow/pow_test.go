package pow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func members() []digest.Member {
	return []digest.Member{
		{ID: 1, Sender: "Alice", Receiver: "Bob", Amount: decimal.NewFromInt(100), TimeStamp: 1700000000},
		{ID: 2, Sender: "Bob", Receiver: "Carol", Amount: decimal.RequireFromString("2.50"), TimeStamp: 1700000001},
	}
}

// =============================================================================

func Test_Mine(t *testing.T) {
	t.Log("Given the need to find a nonce that solves the puzzle.")
	{
		for difficulty := uint(0); difficulty <= 3; difficulty++ {
			testID := int(difficulty)
			t.Logf("\tTest %d:\tWhen mining with difficulty %d.", testID, difficulty)
			{
				f := func(t *testing.T) {
					args := pow.Args{
						Index:      1,
						PrevDigest: "0d5cd3e0e55d17b642068d9d048bd3accf910b29a004c2eefd7173139c10ee85",
						TimeStamp:  1700000005,
						Members:    members(),
						Difficulty: difficulty,
					}

					res, err := pow.Mine(context.Background(), args)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine.", success, testID)

					if !digest.IsSolved(difficulty, res.Digest) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, difficulty, res.Digest)
					}
					t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, difficulty)

					exp := digest.Hash(args.Index, args.PrevDigest, args.TimeStamp, args.Members, res.Nonce)
					if exp != res.Digest {
						t.Fatalf("\t%s\tTest %d:\tShould return the digest of the returned nonce.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould return the digest of the returned nonce.", success, testID)

					for nonce := uint64(0); nonce < res.Nonce; nonce++ {
						if digest.IsSolved(difficulty, digest.Hash(args.Index, args.PrevDigest, args.TimeStamp, args.Members, nonce)) {
							t.Fatalf("\t%s\tTest %d:\tShould find the lowest nonce, %d also solves.", failed, testID, nonce)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould find the lowest nonce.", success, testID)

					again, err := pow.Mine(context.Background(), args)
					if err != nil || again != res {
						t.Fatalf("\t%s\tTest %d:\tShould be deterministic: %+v != %+v", failed, testID, again, res)
					}
					t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)

					if difficulty == 0 && res.Nonce != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould solve difficulty 0 with nonce 0.", failed, testID)
					}
				}

				t.Run(fmt.Sprintf("difficulty-%d", difficulty), f)
			}
		}
	}
}

func Test_MineSharded(t *testing.T) {
	t.Log("Given the need to shard mining without changing the result.")
	{
		for testID, workers := range []int{2, 3, 8} {
			for index := uint64(1); index <= 4; index++ {
				args := pow.Args{
					Index:      index,
					PrevDigest: "abc",
					TimeStamp:  1700000000 + int64(index),
					Members:    members(),
					Difficulty: 3,
				}

				seq, err := pow.Mine(context.Background(), args)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine sequentially: %v", failed, testID, err)
				}

				args.Workers = workers
				shd, err := pow.Mine(context.Background(), args)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine with %d workers: %v", failed, testID, workers, err)
				}

				if seq != shd {
					t.Fatalf("\t%s\tTest %d:\tShould match the sequential result for blk %d: %+v != %+v", failed, testID, index, shd, seq)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould match the sequential result with %d workers.", success, testID, workers)
		}
	}
}

func Test_MineLimits(t *testing.T) {
	args := pow.Args{
		Index:      1,
		PrevDigest: "abc",
		TimeStamp:  1700000000,
		Members:    members(),
		Difficulty: 64,
	}

	t.Log("Given the need to bound a mining operation.")
	{
		capped := args
		capped.MaxAttempts = 500
		res, err := pow.Mine(context.Background(), capped)
		if !errors.Is(err, pow.ErrAttemptsExhausted) {
			t.Fatalf("\t%s\tShould stop at the attempt cap: %v", failed, err)
		}
		if res.Attempts != 500 {
			t.Fatalf("\t%s\tShould report 500 attempts, got %d.", failed, res.Attempts)
		}
		t.Logf("\t%s\tShould stop at the attempt cap.", success)

		capped.Workers = 4
		if _, err := pow.Mine(context.Background(), capped); !errors.Is(err, pow.ErrAttemptsExhausted) {
			t.Fatalf("\t%s\tShould stop at the attempt cap when sharded: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop at the attempt cap when sharded.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := pow.Mine(ctx, args); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop when the context is cancelled: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop when the context is cancelled.", success)

		sharded := args
		sharded.Workers = 4
		if _, err := pow.Mine(ctx, sharded); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop when the context is cancelled when sharded: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop when the context is cancelled when sharded.", success)

		tooHard := args
		tooHard.Difficulty = 65
		if _, err := pow.Mine(context.Background(), tooHard); err == nil {
			t.Fatalf("\t%s\tShould reject a difficulty above the digest size.", failed)
		}
		t.Logf("\t%s\tShould reject a difficulty above the digest size.", success)
	}
}
