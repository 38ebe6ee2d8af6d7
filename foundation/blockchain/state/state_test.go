package state_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage/memory"
	fvalidate "github.com/ardanlabs/powledger/foundation/validate"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const difficulty = 2

// clock hands out a new second on every call so transfers and blocks get
// distinct, reproducible timestamps.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

func newState(t *testing.T, cfg state.Config) (*state.State, *memory.Memory) {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
	}

	clk := clock{now: time.Unix(1700000000, 0)}

	cfg.Storage = strg
	cfg.Now = clk.Now
	if cfg.Difficulty == 0 {
		cfg.Difficulty = difficulty
	}

	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st, strg
}

func submit(t *testing.T, st *state.State, sender string, receiver string, amount string) storage.Transfer {
	t.Helper()

	tran, err := st.SubmitTransfer(context.Background(), state.NewTransfer{
		Sender:   sender,
		Receiver: receiver,
		Amount:   decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to submit a transfer: %v", failed, err)
	}

	return tran
}

func mine(t *testing.T, st *state.State) state.MineResult {
	t.Helper()

	res, err := st.MineBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}
	if !res.Mined {
		t.Fatalf("\t%s\tShould have mined a block: %s", failed, res.Message)
	}

	return res
}

func validate(t *testing.T, st *state.State) state.ValidationResult {
	t.Helper()

	res, err := st.Validate(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to validate the chain: %v", failed, err)
	}

	return res
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to create the root of the chain.")
	{
		t.Logf("\tTest 0:\tWhen creating genesis twice.")
		{
			st, _ := newState(t, state.Config{})

			first, err := st.CreateGenesis(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create genesis: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create genesis.", success)

			if first.Index != 0 || first.PrevDigest != storage.GenesisPrevDigest || first.Nonce != 0 || len(first.Members) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have the genesis shape: %+v", failed, first)
			}
			t.Logf("\t%s\tTest 0:\tShould have the genesis shape.", success)

			exp := digest.Hash(0, storage.GenesisPrevDigest, first.TimeStamp.Unix(), nil, 0)
			if first.CurrentDigest != exp {
				t.Fatalf("\t%s\tTest 0:\tShould hash genesis with nonce 0: got %s, exp %s", failed, first.CurrentDigest, exp)
			}
			t.Logf("\t%s\tTest 0:\tShould hash genesis with nonce 0.", success)

			second, err := st.CreateGenesis(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to call genesis again: %v", failed, err)
			}
			if second.CurrentDigest != first.CurrentDigest || !second.TimeStamp.Equal(first.TimeStamp) {
				t.Fatalf("\t%s\tTest 0:\tShould return the existing genesis.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return the existing genesis.", success)

			stats, err := st.RetrieveStats(context.Background())
			if err != nil || stats.TotalBlocks != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould hold a single block: %+v, %v", failed, stats, err)
			}
			t.Logf("\t%s\tTest 0:\tShould hold a single block.", success)

			res := validate(t, st)
			if !res.Valid || res.BlocksChecked != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould validate: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 0:\tShould validate.", success)
		}
	}
}

func Test_MineBlock(t *testing.T) {
	t.Log("Given the need to batch pending transfers into blocks.")
	{
		t.Logf("\tTest 0:\tWhen nothing is pending.")
		{
			st, _ := newState(t, state.Config{})

			res, err := st.MineBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould not fail: %v", failed, err)
			}
			if res.Mined || res.Message == "" {
				t.Fatalf("\t%s\tTest 0:\tShould report nothing to mine: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 0:\tShould report nothing to mine.", success)

			blocks, err := st.QueryBlocks(context.Background())
			if err != nil || len(blocks) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not write any block: %d, %v", failed, len(blocks), err)
			}
			t.Logf("\t%s\tTest 0:\tShould not write any block.", success)
		}

		t.Logf("\tTest 1:\tWhen mining on an empty chain.")
		{
			st, _ := newState(t, state.Config{})

			t1 := submit(t, st, "Alice", "Bob", "100")
			t2 := submit(t, st, "Bob", "Carol", "2.5")

			res := mine(t, st)
			t.Logf("\t%s\tTest 1:\tShould be able to mine.", success)

			block := res.Block
			if block.Index != 1 || len(block.Members) != 2 || block.Members[0] != t1.ID || block.Members[1] != t2.ID {
				t.Fatalf("\t%s\tTest 1:\tShould hold the pending transfers in id order: %+v", failed, block.Block)
			}
			t.Logf("\t%s\tTest 1:\tShould hold the pending transfers in id order.", success)

			genesis, err := st.QueryBlock(context.Background(), 0)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould have created genesis: %v", failed, err)
			}
			if block.PrevDigest != genesis.CurrentDigest {
				t.Fatalf("\t%s\tTest 1:\tShould link to genesis.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould link to genesis.", success)

			if !strings.HasPrefix(block.CurrentDigest, "00") {
				t.Fatalf("\t%s\tTest 1:\tShould meet the difficulty: %s", failed, block.CurrentDigest)
			}
			t.Logf("\t%s\tTest 1:\tShould meet the difficulty.", success)

			for _, tran := range block.Transfers {
				if tran.Status != storage.StatusMined || tran.BlockIndex == nil || *tran.BlockIndex != 1 {
					t.Fatalf("\t%s\tTest 1:\tShould mark transfers mined: %+v", failed, tran)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould mark transfers mined.", success)

			pending, err := st.QueryPending(context.Background())
			if err != nil || len(pending) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould leave nothing pending: %d, %v", failed, len(pending), err)
			}
			t.Logf("\t%s\tTest 1:\tShould leave nothing pending.", success)

			val := validate(t, st)
			if !val.Valid || len(val.Errors) != 0 || val.BlocksChecked != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould validate: %+v", failed, val)
			}
			t.Logf("\t%s\tTest 1:\tShould validate.", success)
		}

		t.Logf("\tTest 2:\tWhen mining several blocks.")
		{
			st, _ := newState(t, state.Config{Workers: 4})

			if _, err := st.CreateGenesis(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create genesis: %v", failed, err)
			}

			for i := range 5 {
				submit(t, st, "Alice", "Bob", "1.25")
				if res := mine(t, st); res.Block.Index != uint64(i+1) {
					t.Fatalf("\t%s\tTest 2:\tShould extend the tip: got %d", failed, res.Block.Index)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould extend the tip for every round.", success)

			blocks, err := st.QueryBlocks(context.Background())
			if err != nil || len(blocks) != 6 {
				t.Fatalf("\t%s\tTest 2:\tShould hold 6 blocks: %d, %v", failed, len(blocks), err)
			}
			for i := 1; i < len(blocks); i++ {
				if blocks[i].PrevDigest != blocks[i-1].CurrentDigest {
					t.Fatalf("\t%s\tTest 2:\tShould link block %d to block %d.", failed, i, i-1)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould link every block to its predecessor.", success)

			if val := validate(t, st); !val.Valid || val.BlocksChecked != 6 {
				t.Fatalf("\t%s\tTest 2:\tShould validate: %+v", failed, val)
			}
			t.Logf("\t%s\tTest 2:\tShould validate.", success)
		}

		t.Logf("\tTest 3:\tWhen the attempt cap is reached.")
		{
			st, _ := newState(t, state.Config{Difficulty: 64, MaxAttempts: 100})
			submit(t, st, "Alice", "Bob", "10")

			if _, err := st.MineBlock(context.Background()); !errors.Is(err, pow.ErrAttemptsExhausted) {
				t.Fatalf("\t%s\tTest 3:\tShould fail with attempts exhausted: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould fail with attempts exhausted.", success)

			stats, err := st.RetrieveStats(context.Background())
			if err != nil || stats.TotalBlocks != 0 || stats.Pending != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould write nothing: %+v, %v", failed, stats, err)
			}
			t.Logf("\t%s\tTest 3:\tShould write nothing.", success)
		}

		t.Logf("\tTest 4:\tWhen mining concurrently.")
		{
			st, _ := newState(t, state.Config{})
			for range 5 {
				submit(t, st, "Alice", "Bob", "3")
			}

			var wg sync.WaitGroup
			results := make([]state.MineResult, 4)
			errs := make([]error, 4)
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i], errs[i] = st.MineBlock(context.Background())
				}()
			}
			wg.Wait()

			var mined int
			for i := range results {
				if errs[i] != nil {
					t.Fatalf("\t%s\tTest 4:\tShould not fail: %v", failed, errs[i])
				}
				if results[i].Mined {
					mined++
				}
			}
			if mined != 1 {
				t.Fatalf("\t%s\tTest 4:\tShould mine exactly one block, got %d", failed, mined)
			}
			t.Logf("\t%s\tTest 4:\tShould mine exactly one block.", success)

			if val := validate(t, st); !val.Valid || val.BlocksChecked != 2 {
				t.Fatalf("\t%s\tTest 4:\tShould validate: %+v", failed, val)
			}
			t.Logf("\t%s\tTest 4:\tShould validate.", success)
		}
	}
}

func Test_Validate(t *testing.T) {
	t.Log("Given the need to detect integrity violations.")
	{
		t.Logf("\tTest 0:\tWhen the chain is empty.")
		{
			st, _ := newState(t, state.Config{})

			res := validate(t, st)
			if res.Valid || len(res.Errors) != 1 || res.Errors[0] != "No blocks in chain" || res.BlocksChecked != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report an empty chain: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 0:\tShould report an empty chain.", success)
		}

		t.Logf("\tTest 1:\tWhen a block digest is overwritten.")
		{
			st, _ := newState(t, state.Config{})
			submit(t, st, "Alice", "Bob", "100")
			submit(t, st, "Bob", "Carol", "50")
			mine(t, st)

			res := validate(t, st)
			if !res.Valid || len(res.Errors) != 0 || res.BlocksChecked != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould validate before tampering: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 1:\tShould validate before tampering.", success)

			bad := "00" + strings.Repeat("ab", 31)
			if _, err := st.TamperBlock(context.Background(), 1, bad); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to tamper: %v", failed, err)
			}

			res = validate(t, st)
			exp := "Block 1: Invalid hash - hash does not match calculated value"
			if res.Valid || len(res.Errors) != 1 || res.Errors[0] != exp {
				t.Fatalf("\t%s\tTest 1:\tShould report the invalid hash: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 1:\tShould report the invalid hash.", success)
		}

		t.Logf("\tTest 2:\tWhen a mined transfer is modified.")
		{
			st, _ := newState(t, state.Config{})
			tran := submit(t, st, "Alice", "Bob", "100")
			mine(t, st)
			submit(t, st, "Bob", "Carol", "1")
			mine(t, st)

			if _, err := st.TamperTransfer(context.Background(), tran.ID, decimal.NewFromInt(1000)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to tamper: %v", failed, err)
			}

			res := validate(t, st)
			if res.Valid || len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Block 1: Invalid hash") {
				t.Fatalf("\t%s\tTest 2:\tShould report only block 1: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 2:\tShould report only block 1.", success)
		}

		t.Logf("\tTest 3:\tWhen a block digest breaks the link and the work.")
		{
			st, _ := newState(t, state.Config{})
			for range 2 {
				submit(t, st, "Alice", "Bob", "5")
				mine(t, st)
			}

			if _, err := st.TamperBlock(context.Background(), 1, strings.Repeat("f", 64)); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to tamper: %v", failed, err)
			}

			res := validate(t, st)
			exp := []string{
				"Block 1: Invalid hash - hash does not match calculated value",
				"Block 1: Does not meet difficulty requirement",
				"Block 2: Chain broken - previous hash does not match previous block's hash",
			}
			if res.Valid || strings.Join(res.Errors, "|") != strings.Join(exp, "|") || res.BlocksChecked != 3 {
				t.Fatalf("\t%s\tTest 3:\tShould report every violation in order: %q", failed, res.Errors)
			}
			t.Logf("\t%s\tTest 3:\tShould report every violation in order.", success)
		}

		t.Logf("\tTest 4:\tWhen a block is missing.")
		{
			st, strg := newState(t, state.Config{})
			for range 3 {
				submit(t, st, "Alice", "Bob", "5")
				mine(t, st)
			}
			removeBlock(t, strg, 2)

			res := validate(t, st)
			if res.Valid || res.BlocksChecked != 3 || !contains(res.Errors, "Block 3: Gap in chain - expected index 2") {
				t.Fatalf("\t%s\tTest 4:\tShould report the gap: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 4:\tShould report the gap.", success)
		}

		t.Logf("\tTest 5:\tWhen the genesis block is missing.")
		{
			st, strg := newState(t, state.Config{})
			submit(t, st, "Alice", "Bob", "5")
			mine(t, st)
			removeBlock(t, strg, 0)

			res := validate(t, st)
			if res.Valid || len(res.Errors) != 1 || res.Errors[0] != "Block 1: Previous block not found" {
				t.Fatalf("\t%s\tTest 5:\tShould report the missing predecessor: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 5:\tShould report the missing predecessor.", success)
		}
	}
}

func Test_RebuildFrom(t *testing.T) {
	t.Log("Given the need to repair a tampered chain.")
	{
		t.Logf("\tTest 0:\tWhen a block in the middle was tampered.")
		{
			st, _ := newState(t, state.Config{})
			var tran storage.Transfer
			for i := range 4 {
				tr := submit(t, st, "Alice", "Bob", "5")
				if i == 1 {
					tran = tr
				}
				mine(t, st)
			}

			if _, err := st.TamperTransfer(context.Background(), tran.ID, decimal.NewFromInt(999)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to tamper: %v", failed, err)
			}
			if val := validate(t, st); val.Valid {
				t.Fatalf("\t%s\tTest 0:\tShould be invalid after tampering.", failed)
			}

			res, err := st.RebuildFrom(context.Background(), 2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to rebuild: %v", failed, err)
			}
			if !res.Success || res.RebuiltCount != 3 || res.FromIndex != 2 || res.Message != "Successfully rebuilt 3 block(s)" {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild the suffix: %+v", failed, res)
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild the suffix.", success)

			if val := validate(t, st); !val.Valid || val.BlocksChecked != 5 {
				t.Fatalf("\t%s\tTest 0:\tShould validate after the rebuild: %+v", failed, val)
			}
			t.Logf("\t%s\tTest 0:\tShould validate after the rebuild.", success)

			blk, err := st.QueryBlock(context.Background(), 2)
			if err != nil || blk.Transfers[0].Amount.StringFixed(2) != "999.00" {
				t.Fatalf("\t%s\tTest 0:\tShould keep the modified members: %+v, %v", failed, blk, err)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the modified members.", success)
		}

		t.Logf("\tTest 1:\tWhen rebuilding from genesis.")
		{
			st, _ := newState(t, state.Config{})
			submit(t, st, "Alice", "Bob", "5")
			mine(t, st)

			if _, err := st.TamperBlock(context.Background(), 0, ""); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to tamper: %v", failed, err)
			}

			res, err := st.RebuildFrom(context.Background(), 0)
			if err != nil || !res.Success || res.RebuiltCount != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould rebuild the whole chain: %+v, %v", failed, res, err)
			}
			if val := validate(t, st); !val.Valid {
				t.Fatalf("\t%s\tTest 1:\tShould validate after the rebuild: %+v", failed, val)
			}
			t.Logf("\t%s\tTest 1:\tShould rebuild the whole chain.", success)
		}

		t.Logf("\tTest 2:\tWhen there is nothing to rebuild.")
		{
			st, _ := newState(t, state.Config{})
			submit(t, st, "Alice", "Bob", "5")
			mine(t, st)

			res, err := st.RebuildFrom(context.Background(), 10)
			if err != nil || res.Success || res.Message != "No blocks found to rebuild" || res.RebuiltCount != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould report nothing to rebuild: %+v, %v", failed, res, err)
			}
			t.Logf("\t%s\tTest 2:\tShould report nothing to rebuild.", success)
		}

		t.Logf("\tTest 3:\tWhen a block in the suffix is orphaned.")
		{
			st, strg := newState(t, state.Config{})
			for range 3 {
				submit(t, st, "Alice", "Bob", "5")
				mine(t, st)
			}

			bad := strings.Repeat("e", 64)
			if _, err := st.TamperBlock(context.Background(), 1, bad); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to tamper: %v", failed, err)
			}
			removeBlock(t, strg, 2)

			res, err := st.RebuildFrom(context.Background(), 1)
			if err != nil || res.Success || res.Message != "Cannot rebuild - previous block not found for block 3" {
				t.Fatalf("\t%s\tTest 3:\tShould report the orphan: %+v, %v", failed, res, err)
			}
			t.Logf("\t%s\tTest 3:\tShould report the orphan.", success)

			blk, err := st.QueryBlock(context.Background(), 1)
			if err != nil || blk.CurrentDigest != bad {
				t.Fatalf("\t%s\tTest 3:\tShould roll back every rebuilt block: %s, %v", failed, blk.CurrentDigest, err)
			}
			t.Logf("\t%s\tTest 3:\tShould roll back every rebuilt block.", success)
		}
	}
}

func Test_Queries(t *testing.T) {
	t.Log("Given the need to inspect the ledger.")
	{
		t.Logf("\tTest 0:\tWhen transfers and blocks exist.")
		{
			st, _ := newState(t, state.Config{})
			submit(t, st, "Alice", "Bob", "1")
			mine(t, st)
			submit(t, st, "Bob", "Carol", "2")
			last := submit(t, st, "Carol", "Dave", "3")

			trans, err := st.QueryTransfers(context.Background())
			if err != nil || len(trans) != 3 || trans[0].ID != last.ID {
				t.Fatalf("\t%s\tTest 0:\tShould list transfers newest first: %v, %v", failed, trans, err)
			}
			t.Logf("\t%s\tTest 0:\tShould list transfers newest first.", success)

			pending, err := st.QueryPending(context.Background())
			if err != nil || len(pending) != 2 || pending[0].ID > pending[1].ID {
				t.Fatalf("\t%s\tTest 0:\tShould list pending transfers in id order: %v, %v", failed, pending, err)
			}
			t.Logf("\t%s\tTest 0:\tShould list pending transfers in id order.", success)

			stats, err := st.RetrieveStats(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve stats: %v", failed, err)
			}
			if stats.TotalBlocks != 2 || stats.TotalTransfers != 3 || stats.Pending != 2 || stats.Mined != 1 || stats.Difficulty != difficulty {
				t.Fatalf("\t%s\tTest 0:\tShould count the records: %+v", failed, stats)
			}
			if stats.LastBlock == nil || stats.LastBlock.Index != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould report the tip: %+v", failed, stats.LastBlock)
			}
			t.Logf("\t%s\tTest 0:\tShould summarize the ledger.", success)

			if _, err := st.QueryBlock(context.Background(), 9); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould return not found for a missing block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould return not found for a missing block.", success)
		}

		t.Logf("\tTest 1:\tWhen a transfer breaks the ledger rules.")
		{
			st, _ := newState(t, state.Config{})

			bad := []state.NewTransfer{
				{Sender: "", Receiver: "Bob", Amount: decimal.NewFromInt(1)},
				{Sender: "Alice", Receiver: "", Amount: decimal.NewFromInt(1)},
				{Sender: "Alice", Receiver: "Alice", Amount: decimal.NewFromInt(1)},
				{Sender: "Alice", Receiver: "Bob", Amount: decimal.RequireFromString("0.001")},
				{Sender: strings.Repeat("a", 256), Receiver: "Bob", Amount: decimal.NewFromInt(1)},
			}
			for i, nt := range bad {
				if _, err := st.SubmitTransfer(context.Background(), nt); !errors.Is(err, state.ErrInvalidTransfer) {
					t.Fatalf("\t%s\tTest 1:\tShould reject transfer %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject every invalid transfer.", success)

			nt := state.NewTransfer{Sender: "Alice", Receiver: "Alice", Amount: decimal.NewFromInt(1)}
			_, err := st.SubmitTransfer(context.Background(), nt)
			fields := fvalidate.GetFieldErrors(err)
			if len(fields) != 1 || fields[0].Field != "receiver" {
				t.Fatalf("\t%s\tTest 1:\tShould report the offending field: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report the offending field.", success)

			nt = state.NewTransfer{Sender: strings.Repeat("\u00e9", 255), Receiver: "Bob", Amount: decimal.NewFromInt(1)}
			if _, err := st.SubmitTransfer(context.Background(), nt); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould count party names in characters: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould count party names in characters.", success)
		}
	}
}

func Test_New(t *testing.T) {
	strg, _ := memory.New()

	if _, err := state.New(state.Config{Storage: strg, Difficulty: 65}); err == nil {
		t.Fatalf("\t%s\tShould reject a difficulty above the digest size.", failed)
	}
	if _, err := state.New(state.Config{Difficulty: 1}); err == nil {
		t.Fatalf("\t%s\tShould require storage.", failed)
	}
	t.Logf("\t%s\tShould reject an invalid configuration.", success)
}

// =============================================================================

// removeBlock deletes a block behind the engine's back.
func removeBlock(t *testing.T, strg *memory.Memory, index uint64) {
	t.Helper()

	err := strg.Update(context.Background(), func(tx storage.Tx) error {
		return tx.DeleteBlock(index)
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to remove block %d: %v", failed, index, err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
