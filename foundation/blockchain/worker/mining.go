package worker

import (
	"errors"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// timerOperations signals a mining operation on every interval.
func (w *Worker) timerOperations() {
	w.evHandler("worker: timerOperations: G started")
	defer w.evHandler("worker: timerOperations: G completed")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.SignalStartMining()
			}
		case <-w.shut:
			w.evHandler("worker: timerOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines every pending transfer into a new block.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	t := time.Now()
	res, err := w.state.MineBlock(w.ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case w.ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		case errors.Is(err, pow.ErrAttemptsExhausted):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: attempts exhausted")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	if !res.Mined {
		w.evHandler("worker: runMiningOperation: MINING: %s", res.Message)
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: blk[%d]: hash[%s]: trans[%d]", res.Block.Index, res.Block.CurrentDigest, len(res.Block.Transfers))
}
