package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents where a transfer is in its lifecycle.
type Status string

// Set of statuses a transfer can be in. A transfer only ever moves from
// pending to mined.
const (
	StatusAny     Status = ""
	StatusPending Status = "pending"
	StatusMined   Status = "mined"
)

// Transfer represents a movement of value from a sender to a receiver that
// is waiting for, or has been included in, a block.
type Transfer struct {
	ID         uint64          `json:"id"`
	Sender     string          `json:"sender"`
	Receiver   string          `json:"receiver"`
	Amount     decimal.Decimal `json:"amount"`
	Status     Status          `json:"status"`
	TimeStamp  time.Time       `json:"timestamp"`
	BlockIndex *uint64         `json:"block_index,omitempty"`
}

// NewTransfer constructs a pending transfer. The amount is rounded to the
// two decimal places the ledger keeps.
func NewTransfer(sender string, receiver string, amount decimal.Decimal, now time.Time) (Transfer, error) {
	if amount.IsNegative() {
		return Transfer{}, fmt.Errorf("amount %s is negative", amount)
	}

	tran := Transfer{
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount.Round(2),
		Status:    StatusPending,
		TimeStamp: now.UTC().Truncate(time.Second),
	}

	return tran, nil
}

// MarkMined attaches the transfer to the specified block and flips its
// status to mined. A transfer that is already mined can't be moved.
func (t *Transfer) MarkMined(blockIndex uint64) error {
	if t.Status == StatusMined {
		return fmt.Errorf("transfer %d already mined", t.ID)
	}

	t.Status = StatusMined
	t.BlockIndex = &blockIndex

	return nil
}

// Clone returns a copy of the transfer that shares no memory with t.
func (t Transfer) Clone() Transfer {
	if t.BlockIndex != nil {
		idx := *t.BlockIndex
		t.BlockIndex = &idx
	}
	return t
}

// String implements the Stringer interface for logging.
func (t Transfer) String() string {
	return fmt.Sprintf("%d:%s->%s:%s", t.ID, t.Sender, t.Receiver, t.Amount.StringFixed(2))
}
