package private

import "github.com/shopspring/decimal"

type rebuildRequest struct {
	FromIndex *uint64 `json:"from_index" validate:"required"`
}

type tamperBlockRequest struct {
	Hash string `json:"hash" validate:"omitempty,len=64"`
}

type tamperTransferRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
