package storage

import "time"

// GenesisPrevDigest is the sentinel stored as the previous digest of the
// genesis block.
const GenesisPrevDigest = "0"

// Block represents a group of transfers batched together and secured by
// a proof of work digest.
type Block struct {
	Index         uint64    `json:"index"`           // Position in the chain, genesis is 0.
	PrevDigest    string    `json:"previous_hash"`   // Digest of the block at Index-1.
	CurrentDigest string    `json:"current_hash"`    // Digest of this block's contents.
	Nonce         uint64    `json:"nonce"`           // Value identified to solve the hash solution.
	TimeStamp     time.Time `json:"timestamp"`       // Time the block was mined.
	Members       []uint64  `json:"transaction_ids"` // Ordered ids of the transfers in this block.
}

// IsGenesis reports whether this is the root block of the chain.
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// Clone returns a copy of the block that shares no memory with b.
func (b Block) Clone() Block {
	if b.Members != nil {
		members := make([]uint64, len(b.Members))
		copy(members, b.Members)
		b.Members = members
	}
	return b
}
