// Package private maintains the group of privileged handlers that change
// the chain outside of normal mining.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Handlers manages the set of privileged endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Rebuild re-mines every block from the requested index to the tip.
func (h Handlers) Rebuild(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req rebuildRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	h.Log.Infow("rebuild", "traceid", v.TraceID, "from", *req.FromIndex)

	res, err := h.State.RebuildFrom(ctx, *req.FromIndex)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}

	return web.Respond(ctx, w, res, status)
}

// TamperBlock overwrites the digest of a block without re-mining it.
func (h Handlers) TamperBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	var req tamperBlockRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	hash := strings.ToLower(req.Hash)
	if hash != "" {
		if _, err := hexutil.Decode("0x" + hash); err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid hash: %w", err), http.StatusBadRequest)
		}
	}

	h.Log.Infow("tamper block", "traceid", v.TraceID, "index", index)

	block, err := h.State.TamperBlock(ctx, index, hash)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// TamperTransfer overwrites the amount of a transfer.
func (h Handlers) TamperTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid transfer id: %w", err), http.StatusBadRequest)
	}

	var req tamperTransferRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if req.Amount.IsNegative() {
		return errs.NewTrusted(fmt.Errorf("amount %s is negative", req.Amount), http.StatusBadRequest)
	}

	h.Log.Infow("tamper transfer", "traceid", v.TraceID, "id", id, "amount", req.Amount.StringFixed(2))

	tran, err := h.State.TamperTransfer(ctx, id, req.Amount)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, tran, http.StatusOK)
}
