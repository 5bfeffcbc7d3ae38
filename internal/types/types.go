// Package types defines the ledger domain models as seen by ledgerdash. The
// ledger service owns every one of these values; the client only decodes
// them from the wire and never mutates them, apart from the Draft built by
// the transaction composer before submission.
package types

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ledgerdash.mini/ldm/internal/jsonx"
)

// Version is the current version of ledgerdash
const Version = "0.1.0"

// BuildTime is set at build time via -ldflags
var BuildTime = "dev"

var (
	// ErrDuplicateHash is reported when one chain response carries two blocks
	// with the same hash.
	ErrDuplicateHash = errors.New("duplicate block hash in chain")
	// ErrDuplicateTxID is reported when one pool response carries two
	// transactions with the same id.
	ErrDuplicateTxID = errors.New("duplicate transaction id in pool")
)

// Wallet is the local account as reported by the ledger.
type Wallet struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// TxID identifies a transaction. The ledger may send it as a JSON string or
// as an arbitrarily large JSON integer; either way it is kept as text.
type TxID string

// UnmarshalJSON accepts both quoted and bare numeric ids.
func (id *TxID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid transaction id %s: %w", s, err)
		}
		*id = TxID(unq)
		return nil
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return fmt.Errorf("invalid transaction id %s", s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid transaction id %s", s)
		}
	}
	*id = TxID(s)
	return nil
}

// Transaction is an opaque ledger record. Input is passed through untouched;
// Output maps recipient addresses to amounts.
type Transaction struct {
	ID     TxID                   `json:"id"`
	Input  map[string]interface{} `json:"input,omitempty"`
	Output map[string]float64     `json:"output,omitempty"`
}

// UnmarshalJSON reads the id from "id", falling back to "uuid" which is what
// the reference ledger emits.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     *TxID                  `json:"id"`
		UUID   *TxID                  `json:"uuid"`
		Input  map[string]interface{} `json:"input"`
		Output map[string]float64     `json:"output"`
	}
	if err := jsonx.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction{Input: raw.Input, Output: raw.Output}
	switch {
	case raw.ID != nil && *raw.ID != "":
		t.ID = *raw.ID
	case raw.UUID != nil:
		t.ID = *raw.UUID
	}
	return nil
}

// Recipients returns the output addresses in a stable order.
func (t Transaction) Recipients() []string {
	addrs := make([]string, 0, len(t.Output))
	for addr := range t.Output {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Block is a mined block. Timestamp is epoch milliseconds.
type Block struct {
	Index      int64         `json:"index"`
	Timestamp  int64         `json:"timestamp"`
	Nonce      int64         `json:"nonce,omitempty"`
	Difficulty int64         `json:"difficulty,omitempty"`
	LastHash   string        `json:"last_hash,omitempty"`
	Hash       string        `json:"hash"`
	Data       []Transaction `json:"data"`
}

// CreatedAt converts the wire timestamp into a time.Time.
func (b Block) CreatedAt() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// NewChain orders blocks by ascending index and rejects a response that
// reuses a hash.
func NewChain(blocks []Block) ([]Block, error) {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if _, dup := seen[b.Hash]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHash, b.Hash)
		}
		seen[b.Hash] = struct{}{}
	}
	chain := make([]Block, len(blocks))
	copy(chain, blocks)
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].Index < chain[j].Index })
	return chain, nil
}

// Draft is the composer's pending transaction before submission.
type Draft struct {
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// CoerceAmount turns free-form input into a number. Empty input is zero and
// anything unparsable is NaN.
func CoerceAmount(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Pool is the set of pending transactions keyed by id. Order keeps the
// sequence the ledger returned them in.
type Pool struct {
	Order   []TxID
	Entries map[TxID]Transaction
}

// NewPool indexes txs by id.
func NewPool(txs []Transaction) (Pool, error) {
	p := Pool{
		Order:   make([]TxID, 0, len(txs)),
		Entries: make(map[TxID]Transaction, len(txs)),
	}
	for _, tx := range txs {
		if _, dup := p.Entries[tx.ID]; dup {
			return Pool{}, fmt.Errorf("%w: %q", ErrDuplicateTxID, tx.ID)
		}
		p.Order = append(p.Order, tx.ID)
		p.Entries[tx.ID] = tx
	}
	return p, nil
}

// Len returns the number of pending transactions.
func (p Pool) Len() int {
	return len(p.Order)
}

// List returns the transactions in ledger order.
func (p Pool) List() []Transaction {
	out := make([]Transaction, 0, len(p.Order))
	for _, id := range p.Order {
		out = append(out, p.Entries[id])
	}
	return out
}
