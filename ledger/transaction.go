package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a single signed movement on one account, in minor currency units.
// It has no identity outside the transaction that holds it.
type Entry struct {
	AccountID int64 `json:"account_id" yaml:"account"`
	Value     int64 `json:"value" yaml:"value"`
}

// Transaction groups two or more entries recorded at the same instant.
// Accepted transactions are never modified.
type Transaction struct {
	ID        int64     `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Entries   []Entry   `json:"entries" yaml:"entries"`
}

// NewTransaction creates a transaction from the given entries.
func NewTransaction(id int64, timestamp time.Time, entries ...Entry) Transaction {
	return Transaction{ID: id, Timestamp: timestamp, Entries: entries}
}

// Clone returns a copy that shares no memory with t, so stores can hand out
// transactions without exposing their internal slices.
func (t Transaction) Clone() Transaction {
	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)
	t.Entries = entries
	return t
}

// ValueFor returns the summed value of all entries for accountID.
func (t Transaction) ValueFor(accountID int64) int64 {
	var total int64
	for _, e := range t.Entries {
		if e.AccountID == accountID {
			total += e.Value
		}
	}
	return total
}

// String returns a single-line representation of the transaction.
func (t Transaction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transaction(id=%d, timestamp=%s, entries=[", t.ID, t.Timestamp.Format(time.RFC3339))
	for i, e := range t.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:%d", e.AccountID, e.Value)
	}
	sb.WriteString("])")
	return sb.String()
}

// Journal is a batch of accounts and transactions processed together, in
// order: all accounts first, then all transactions.
type Journal struct {
	Accounts     []Account     `json:"accounts" yaml:"accounts"`
	Transactions []Transaction `json:"transactions" yaml:"transactions"`
}
