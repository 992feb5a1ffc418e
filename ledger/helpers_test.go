package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

var (
	cash    = Account{ID: 1, Name: "Cash", Type: AccountTypeDebit}
	revenue = Account{ID: 2, Name: "Revenue", Type: AccountTypeCredit}
	bank    = Account{ID: 3, Name: "Bank", Type: AccountTypeDebit}
	sales   = Account{ID: 4, Name: "Sales", Type: AccountTypeCredit}
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// newTestLedger creates a ledger over a memory store holding accounts, with
// a clock fixed at now.
func newTestLedger(t *testing.T, now time.Time, accounts ...Account) *Ledger {
	t.Helper()
	ctx := context.Background()

	l, err := New(ctx, NewMemoryStore(), WithClock(func() time.Time { return now }))
	assert.NoError(t, err)
	for _, acc := range accounts {
		assert.NoError(t, l.AddAccount(ctx, acc))
	}
	return l
}

func mustAddTransaction(t *testing.T, l *Ledger, txn Transaction) *TransactionDelta {
	t.Helper()
	delta, err := l.AddTransaction(context.Background(), txn)
	assert.NoError(t, err)
	return delta
}
