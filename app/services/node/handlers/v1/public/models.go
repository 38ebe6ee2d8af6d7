package public

import (
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
)

type transfer struct {
	ID         uint64    `json:"id"`
	Sender     string    `json:"sender"`
	Receiver   string    `json:"receiver"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	TimeStamp  time.Time `json:"timestamp"`
	BlockIndex *uint64   `json:"block_index,omitempty"`
}

func toTransfer(tran storage.Transfer) transfer {
	return transfer{
		ID:         tran.ID,
		Sender:     tran.Sender,
		Receiver:   tran.Receiver,
		Amount:     tran.Amount.StringFixed(2),
		Status:     string(tran.Status),
		TimeStamp:  tran.TimeStamp,
		BlockIndex: tran.BlockIndex,
	}
}

func toTransfers(trans []storage.Transfer) []transfer {
	out := make([]transfer, len(trans))
	for i, tran := range trans {
		out[i] = toTransfer(tran)
	}
	return out
}

type block struct {
	Index        uint64     `json:"index"`
	PreviousHash string     `json:"previous_hash"`
	CurrentHash  string     `json:"current_hash"`
	Nonce        uint64     `json:"nonce"`
	TimeStamp    time.Time  `json:"timestamp"`
	Transactions []transfer `json:"transactions"`
}

func toBlock(info state.BlockInfo) block {
	return block{
		Index:        info.Index,
		PreviousHash: info.PrevDigest,
		CurrentHash:  info.CurrentDigest,
		Nonce:        info.Nonce,
		TimeStamp:    info.TimeStamp,
		Transactions: toTransfers(info.Transfers),
	}
}

type mineResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Block    *block `json:"block,omitempty"`
	Attempts uint64 `json:"attempts,omitempty"`
}
