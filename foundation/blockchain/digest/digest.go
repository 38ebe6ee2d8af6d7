// Package digest provides the canonical serialization of block contents and
// the cryptographic digest that identifies a block.
package digest

import (
	"crypto/sha256"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Size is the number of hex characters in a digest.
const Size = sha256.Size * 2

// Member is the reduced form of a transfer that is hashed into a block.
type Member struct {
	ID        uint64
	Sender    string
	Receiver  string
	Amount    decimal.Decimal
	TimeStamp int64
}

// NewMember reduces a transfer to the fields that are hashed.
func NewMember(tran storage.Transfer) Member {
	return Member{
		ID:        tran.ID,
		Sender:    tran.Sender,
		Receiver:  tran.Receiver,
		Amount:    tran.Amount,
		TimeStamp: tran.TimeStamp.Unix(),
	}
}

// Snapshot reduces an ordered list of transfers to hashable members.
func Snapshot(trans []storage.Transfer) []Member {
	members := make([]Member, len(trans))
	for i, tran := range trans {
		members[i] = NewMember(tran)
	}
	return members
}

// =============================================================================

// Hash returns the hex encoded SHA-256 digest for the specified block
// contents. The payload is the decimal index, the previous digest, the
// decimal timestamp, the canonical members and the decimal nonce
// concatenated in that order.
func Hash(index uint64, prevDigest string, timestamp int64, members []Member, nonce uint64) string {
	return NewHasher(index, prevDigest, timestamp, members).Sum(nonce)
}

// Payload returns the exact bytes that are hashed for a block.
func Payload(index uint64, prevDigest string, timestamp int64, members []Member, nonce uint64) []byte {
	return NewHasher(index, prevDigest, timestamp, members).payload(nonce)
}

// Hasher holds the serialized block contents that don't change while a
// miner varies the nonce.
type Hasher struct {
	head []byte
}

// NewHasher serializes everything in the payload except the nonce.
func NewHasher(index uint64, prevDigest string, timestamp int64, members []Member) Hasher {
	canon := Canonical(members)

	b := make([]byte, 0, 64+len(prevDigest)+len(canon))
	b = strconv.AppendUint(b, index, 10)
	b = append(b, prevDigest...)
	b = strconv.AppendInt(b, timestamp, 10)
	b = append(b, canon...)

	return Hasher{head: b}
}

// Sum returns the hex encoded digest for the specified nonce.
func (h Hasher) Sum(nonce uint64) string {
	sum := sha256.Sum256(h.payload(nonce))
	return common.Bytes2Hex(sum[:])
}

func (h Hasher) payload(nonce uint64) []byte {
	b := make([]byte, len(h.head), len(h.head)+20)
	copy(b, h.head)
	return strconv.AppendUint(b, nonce, 10)
}

// Canonical serializes the members as a JSON array with a fixed field order,
// amounts as strings with two decimal places, and strings escaped the way
// historical digests were produced: '/' is escaped and every non-ASCII
// character is written as a \u escape.
func Canonical(members []Member) []byte {
	b := make([]byte, 0, 2+len(members)*96)

	b = append(b, '[')
	for i, m := range members {
		if i > 0 {
			b = append(b, ',')
		}

		b = append(b, `{"id":`...)
		b = strconv.AppendUint(b, m.ID, 10)
		b = append(b, `,"sender":`...)
		b = appendString(b, m.Sender)
		b = append(b, `,"receiver":`...)
		b = appendString(b, m.Receiver)
		b = append(b, `,"amount":`...)
		b = appendString(b, m.Amount.StringFixed(2))
		b = append(b, `,"timestamp":`...)
		b = strconv.AppendInt(b, m.TimeStamp, 10)
		b = append(b, '}')
	}
	b = append(b, ']')

	return b
}

// =============================================================================

// Set of layouts accepted for textual timestamps.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// ParseTimestamp converts a textual timestamp into epoch seconds. Numeric
// text is taken as epoch seconds. Text that can't be parsed falls back to
// the current time as returned by now.
//
// The fallback means a digest produced from unparseable input can't be
// reproduced later from the same text.
func ParseTimestamp(text string, now func() time.Time) int64 {
	text = strings.TrimSpace(text)

	if secs, err := strconv.ParseInt(text, 10, 64); err == nil {
		return secs
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Unix()
		}
	}

	return now().Unix()
}

// IsSolved checks the digest to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func IsSolved(difficulty uint, digest string) bool {
	if len(digest) != Size || difficulty > Size {
		return false
	}

	for i := range difficulty {
		if digest[i] != '0' {
			return false
		}
	}

	return true
}
