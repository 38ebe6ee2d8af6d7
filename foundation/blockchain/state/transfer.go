package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransfer is returned when a submitted transfer breaks one of the
// ledger rules.
var ErrInvalidTransfer = errors.New("invalid transfer")

// minAmount is the smallest amount a transfer can move.
var minAmount = decimal.New(1, -2)

// NewTransfer is what we require from clients when adding a transfer.
type NewTransfer struct {
	Sender   string          `json:"sender" validate:"required,max=255"`
	Receiver string          `json:"receiver" validate:"required,max=255,nefield=Sender"`
	Amount   decimal.Decimal `json:"amount"`
}

// Validate checks the ledger rules for a new transfer. The party rules are
// declared on the struct tags, the amount floor is checked here.
func (nt NewTransfer) Validate() error {
	if err := validate.Check(nt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransfer, err)
	}

	if nt.Amount.LessThan(minAmount) {
		return fmt.Errorf("%w: amount must be at least %s", ErrInvalidTransfer, minAmount.StringFixed(2))
	}

	return nil
}

// SubmitTransfer adds a new pending transfer to the ledger. When auto mining
// is on the worker is signaled to mine it.
func (s *State) SubmitTransfer(ctx context.Context, nt NewTransfer) (storage.Transfer, error) {
	if err := nt.Validate(); err != nil {
		return storage.Transfer{}, err
	}

	tran, err := storage.NewTransfer(nt.Sender, nt.Receiver, nt.Amount, s.now())
	if err != nil {
		return storage.Transfer{}, fmt.Errorf("%w: %s", ErrInvalidTransfer, err)
	}

	err = s.storage.Update(ctx, func(tx storage.Tx) error {
		var err error
		tran, err = tx.InsertTransfer(tran)
		return err
	})

	if err != nil {
		return storage.Transfer{}, fmt.Errorf("storing transfer: %w", err)
	}

	s.evHandler("state: SubmitTransfer: tran[%s]", tran)

	if s.autoMine && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return tran, nil
}
