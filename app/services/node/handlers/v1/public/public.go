// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransfer adds a new pending transfer to the ledger.
func (h Handlers) SubmitTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt state.NewTransfer
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	tran, err := h.State.SubmitTransfer(ctx, nt)
	if err != nil {
		if errors.Is(err, state.ErrInvalidTransfer) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submit transfer: %w", err)
	}

	h.Log.Infow("add transfer", "traceid", v.TraceID, "id", tran.ID, "sender", tran.Sender, "receiver", tran.Receiver, "amount", tran.Amount.StringFixed(2))

	return web.Respond(ctx, w, toTransfer(tran), http.StatusCreated)
}

// Transfers returns every transfer, newest first.
func (h Handlers) Transfers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans, err := h.State.QueryTransfers(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toTransfers(trans), http.StatusOK)
}

// Pending returns the transfers waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans, err := h.State.QueryPending(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toTransfers(trans), http.StatusOK)
}

// MineBlock mines every pending transfer into a new block.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := h.State.MineBlock(ctx)
	if err != nil {
		return fmt.Errorf("mine block: %w", err)
	}

	if !res.Mined {
		return web.Respond(ctx, w, mineResult{Message: res.Message}, http.StatusBadRequest)
	}

	blk := toBlock(res.Block)
	resp := mineResult{
		Success:  true,
		Message:  res.Message,
		Block:    &blk,
		Attempts: res.Attempts,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	infos, err := h.State.QueryBlocks(ctx)
	if err != nil {
		return err
	}

	blocks := make([]block, len(infos))
	for i, info := range infos {
		blocks[i] = toBlock(info)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Block returns the block at the specified index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	info, err := h.State.QueryBlock(ctx, index)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlock(info), http.StatusOK)
}

// Validate walks the chain and reports every integrity violation.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := h.State.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// Stats returns a summary of the ledger.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.RetrieveStats(ctx)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}
