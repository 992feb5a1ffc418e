package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func newReportLedger(t *testing.T) *Ledger {
	t.Helper()
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue, bank, sales)

	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1),
		Entry{AccountID: 1, Value: 1000},
		Entry{AccountID: 2, Value: 1000},
		Entry{AccountID: 3, Value: 2000},
		Entry{AccountID: 4, Value: 2000},
	))
	mustAddTransaction(t, l, NewTransaction(2, date(2024, 6, 1),
		Entry{AccountID: 1, Value: 500},
		Entry{AccountID: 2, Value: 500},
		Entry{AccountID: 3, Value: 1000},
		Entry{AccountID: 4, Value: 1000},
	))
	return l
}

func TestTrialBalanceReport(t *testing.T) {
	l := newReportLedger(t)

	report, err := l.GetTrialBalanceReport(context.Background(), date(2024, 12, 31))
	assert.NoError(t, err)

	assert.Equal(t, date(2024, 12, 31), report.Timestamp)
	assert.Equal(t, []ReportEntry{
		{Account: cash, Balance: 1500},
		{Account: bank, Balance: 3000},
	}, report.Debits)
	assert.Equal(t, []ReportEntry{
		{Account: revenue, Balance: 1500},
		{Account: sales, Balance: 3000},
	}, report.Credits)
	assert.Equal(t, int64(4500), report.DebitsTotal)
	assert.Equal(t, int64(4500), report.CreditsTotal)
	assert.True(t, report.Balanced())
}

func TestTrialBalanceReportAsOf(t *testing.T) {
	l := newReportLedger(t)

	report, err := l.GetTrialBalanceReport(context.Background(), date(2024, 3, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(3000), report.DebitsTotal)
	assert.Equal(t, int64(3000), report.CreditsTotal)

	report, err = l.GetTrialBalanceReport(context.Background(), date(2023, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), report.DebitsTotal)
	assert.Equal(t, 2, len(report.Debits))
}

func TestTrialBalanceReportEmpty(t *testing.T) {
	l := newTestLedger(t, date(2025, 1, 1))

	report, err := l.GetTrialBalanceReport(context.Background(), date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(report.Debits))
	assert.Equal(t, 0, len(report.Credits))
	assert.True(t, report.Balanced())
}

func TestTrialBalanceReportKeepsStoreOrder(t *testing.T) {
	// Added with descending ids; groups keep insertion order, not id order.
	l := newTestLedger(t, date(2025, 1, 1),
		Account{ID: 9, Name: "Z", Type: AccountTypeDebit},
		Account{ID: 8, Name: "Y", Type: AccountTypeCredit},
		Account{ID: 1, Name: "A", Type: AccountTypeDebit},
	)

	report, err := l.GetTrialBalanceReport(context.Background(), date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(9), report.Debits[0].Account.ID)
	assert.Equal(t, int64(1), report.Debits[1].Account.ID)
	assert.Equal(t, int64(8), report.Credits[0].Account.ID)
}

func TestReportsLeaveOutUntypedAccounts(t *testing.T) {
	ctx := context.Background()
	legacy := Account{ID: 7, Name: "Legacy", Type: AccountTypeUnknown}

	// The store keeps what the ledger itself would refuse to add.
	store := NewMemoryStore()
	for _, acc := range []Account{cash, legacy, revenue} {
		assert.NoError(t, store.AddAccount(ctx, acc))
	}
	l, err := New(ctx, store)
	assert.NoError(t, err)
	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 300}, Entry{AccountID: 2, Value: 300}))

	trial, err := l.GetTrialBalanceReport(ctx, date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, []ReportEntry{{Account: cash, Balance: 300}}, trial.Debits)
	assert.Equal(t, []ReportEntry{{Account: revenue, Balance: 300}}, trial.Credits)
	assert.True(t, trial.Balanced())

	matrix, err := l.GetTransactionReport(ctx, date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, []Account{cash, revenue}, matrix.Accounts)
}

func TestTransactionReport(t *testing.T) {
	ctx := context.Background()
	// Added out of id order to check the column sort.
	l := newTestLedger(t, date(2025, 1, 1), sales, cash, revenue, bank)

	// Inserted out of timestamp order, with a tie between 2 and 3.
	mustAddTransaction(t, l, NewTransaction(1, date(2024, 6, 1), Entry{AccountID: 1, Value: 500}, Entry{AccountID: 2, Value: 500}))
	mustAddTransaction(t, l, NewTransaction(2, date(2024, 1, 1), Entry{AccountID: 3, Value: 2000}, Entry{AccountID: 4, Value: 2000}))
	mustAddTransaction(t, l, NewTransaction(3, date(2024, 1, 1),
		Entry{AccountID: 1, Value: 100},
		Entry{AccountID: 1, Value: 50},
		Entry{AccountID: 4, Value: 150},
	))
	mustAddTransaction(t, l, NewTransaction(4, date(2024, 12, 1), Entry{AccountID: 1, Value: 1}, Entry{AccountID: 2, Value: 1}))

	report, err := l.GetTransactionReport(ctx, date(2024, 6, 1))
	assert.NoError(t, err)

	assert.Equal(t, []Account{cash, bank, revenue, sales}, report.Accounts)

	ids := make([]int64, len(report.Transactions))
	for i, row := range report.Transactions {
		ids[i] = row.Transaction.ID
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)

	// Columns: Cash(1), Bank(3), Revenue(2), Sales(4).
	assert.Equal(t, []int64{0, 2000, 0, 2000}, report.Transactions[0].Values)
	assert.Equal(t, []int64{150, 0, 0, 150}, report.Transactions[1].Values)
	assert.Equal(t, []int64{500, 0, 500, 0}, report.Transactions[2].Values)
}

func TestTransactionReportEmpty(t *testing.T) {
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue)

	report, err := l.GetTransactionReport(context.Background(), date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(report.Accounts))
	assert.Equal(t, 0, len(report.Transactions))
}

func TestReportsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newReportLedger(t)
	at := date(2024, 12, 31)

	first, err := l.GetTrialBalanceReport(ctx, at)
	assert.NoError(t, err)
	second, err := l.GetTrialBalanceReport(ctx, at)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	firstTxns, err := l.GetTransactionReport(ctx, at)
	assert.NoError(t, err)
	secondTxns, err := l.GetTransactionReport(ctx, at)
	assert.NoError(t, err)
	assert.Equal(t, firstTxns, secondTxns)
}
