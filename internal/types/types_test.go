// Package types tests exercise decoding of ledger payloads and the chain and
// pool constructors. These tests ensure that payload shapes emitted by the
// ledger stay compatible with the client models.
package types

import (
	"errors"
	"math"
	"testing"

	"ledgerdash.mini/ldm/internal/jsonx"
)

func TestTransactionDecodeNumericUUID(t *testing.T) {
	payload := `{
		"uuid": 215627941458126463381418297391396785211,
		"input": {"address": "addr1", "amount": 1000},
		"output": {"addr2": 25, "addr1": 975}
	}`

	var tx Transaction
	if err := jsonx.Unmarshal([]byte(payload), &tx); err != nil {
		t.Fatalf("Failed to decode transaction: %v", err)
	}

	if tx.ID != "215627941458126463381418297391396785211" {
		t.Errorf("Transaction id mismatch. Got %s", tx.ID)
	}
	if tx.Output["addr2"] != 25 {
		t.Errorf("Output amount mismatch. Got %v, want 25", tx.Output["addr2"])
	}
	if got := tx.Recipients(); len(got) != 2 || got[0] != "addr1" || got[1] != "addr2" {
		t.Errorf("Recipients not sorted: %v", got)
	}
}

func TestTransactionDecodePrefersID(t *testing.T) {
	var tx Transaction
	if err := jsonx.Unmarshal([]byte(`{"id": "tx-1", "uuid": 7}`), &tx); err != nil {
		t.Fatalf("Failed to decode transaction: %v", err)
	}
	if tx.ID != "tx-1" {
		t.Errorf("Expected id tx-1, got %s", tx.ID)
	}
}

func TestTxIDRejectsGarbage(t *testing.T) {
	var id TxID
	if err := id.UnmarshalJSON([]byte(`{"a":1}`)); err == nil {
		t.Error("Expected error for object id")
	}
	for _, bad := range []string{"1-2", "--", "-", "12-", "1.5"} {
		if err := id.UnmarshalJSON([]byte(bad)); err == nil {
			t.Errorf("Expected error for bare id %s, got %q", bad, id)
		}
	}
}

func TestTxIDAcceptsSignedInteger(t *testing.T) {
	var id TxID
	if err := id.UnmarshalJSON([]byte("-42")); err != nil {
		t.Fatalf("Failed to decode signed id: %v", err)
	}
	if id != "-42" {
		t.Errorf("Expected -42, got %q", id)
	}
}

func TestBlockDecode(t *testing.T) {
	payload := `{"index": 2, "timestamp": 1700000000000, "nonce": 12, "difficulty": 3,
		"last_hash": "h1", "hash": "h2", "data": [{"id": "a"}]}`

	var b Block
	if err := jsonx.Unmarshal([]byte(payload), &b); err != nil {
		t.Fatalf("Failed to decode block: %v", err)
	}
	if b.CreatedAt().UnixMilli() != 1700000000000 {
		t.Errorf("Timestamp mismatch: %v", b.CreatedAt())
	}
	if len(b.Data) != 1 || b.Data[0].ID != "a" {
		t.Errorf("Block data mismatch: %+v", b.Data)
	}
}

func TestNewChainSortsByIndex(t *testing.T) {
	chain, err := NewChain([]Block{{Index: 2, Hash: "c"}, {Index: 0, Hash: "a"}, {Index: 1, Hash: "b"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, b := range chain {
		if b.Index != int64(i) {
			t.Errorf("Block %d has index %d", i, b.Index)
		}
	}
}

func TestNewChainDuplicateHash(t *testing.T) {
	_, err := NewChain([]Block{{Index: 0, Hash: "a"}, {Index: 1, Hash: "a"}})
	if !errors.Is(err, ErrDuplicateHash) {
		t.Errorf("Expected ErrDuplicateHash, got %v", err)
	}
}

func TestNewPool(t *testing.T) {
	pool, err := NewPool([]Transaction{{ID: "b"}, {ID: "a"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", pool.Len())
	}
	list := pool.List()
	if list[0].ID != "b" || list[1].ID != "a" {
		t.Errorf("Pool lost ledger order: %v", list)
	}

	if _, err := NewPool([]Transaction{{ID: "a"}, {ID: "a"}}); !errors.Is(err, ErrDuplicateTxID) {
		t.Errorf("Expected ErrDuplicateTxID, got %v", err)
	}
}

func TestCoerceAmount(t *testing.T) {
	cases := map[string]float64{
		"":      0,
		"  ":    0,
		"12":    12,
		" 2.5 ": 2.5,
	}
	for in, want := range cases {
		if got := CoerceAmount(in); got != want {
			t.Errorf("CoerceAmount(%q) = %v, want %v", in, got, want)
		}
	}
	if !math.IsNaN(CoerceAmount("ten")) {
		t.Error("Expected NaN for unparsable amount")
	}
}
