package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Delta Architecture
//
// Validation never mutates state. The validator returns a delta describing
// what an accepted transaction will change, and the ledger applies it only
// after the store write succeeded:
//
//   Ledger.AddTransaction(txn)
//     ↓
//   duplicate id check (store)
//     ↓
//   Validate(ctx, txn, accounts) → (*TransactionDelta, error)
//     ├─ entry count >= MinEntries
//     ├─ every entry's account resolves
//     ├─ classify entries into debit/credit totals by account type
//     └─ debit total == credit total
//     ↓
//   store.AddTransaction(txn)
//     ↓
//   BalanceEngine.ApplyTransactionDelta(delta)   // running balance cache
//     ↓
//   hooks

// BalanceChange is the raw signed amount an accepted transaction adds to
// one account's running balance.
type BalanceChange struct {
	AccountID int64
	Value     int64
}

// TransactionDelta represents the mutations an accepted transaction applies.
type TransactionDelta struct {
	Transaction Transaction
	Changes     []BalanceChange // one per entry, in entry order
	DebitTotal  int64
	CreditTotal int64

	// Backdated is set by the balance engine when the transaction is older
	// than the newest transaction it has applied. The cache still adds the
	// changes; callers may want to warn since current balances then include
	// activity dated before already-reported history.
	Backdated bool
}

// String returns a human-readable representation of the transaction delta
func (td *TransactionDelta) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Transaction %d on %s:\n", td.Transaction.ID, td.Transaction.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Debits: %d  Credits: %d\n", td.DebitTotal, td.CreditTotal)
	for _, c := range td.Changes {
		fmt.Fprintf(&sb, "    %+d to account %d\n", c.Value, c.AccountID)
	}
	if td.Backdated {
		sb.WriteString("  (backdated)\n")
	}

	return sb.String()
}
