package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

func TestLedger_AddAccount(t *testing.T) {
	tests := []struct {
		name      string
		accounts  []Account
		wantErr   bool
		checkFunc func(*testing.T, *Ledger, error)
	}{
		{
			name:     "add accounts successfully",
			accounts: []Account{cash, revenue},
			checkFunc: func(t *testing.T, l *Ledger, err error) {
				acc, err := l.GetAccount(context.Background(), 1)
				assert.NoError(t, err)
				assert.Equal(t, &cash, acc)

				acc, err = l.GetAccountByName(context.Background(), "Revenue")
				assert.NoError(t, err)
				assert.Equal(t, &revenue, acc)
			},
		},
		{
			name:     "error: duplicate id",
			accounts: []Account{cash, {ID: 1, Name: "Other", Type: AccountTypeCredit}},
			wantErr:  true,
			checkFunc: func(t *testing.T, l *Ledger, err error) {
				var dup *DuplicateIDError
				assert.True(t, errors.As(err, &dup), "should be DuplicateIDError")
				assert.Equal(t, "Account with id 1 already exists.", err.Error())
			},
		},
		{
			name:     "error: duplicate name",
			accounts: []Account{cash, {ID: 2, Name: "Cash", Type: AccountTypeCredit}},
			wantErr:  true,
			checkFunc: func(t *testing.T, l *Ledger, err error) {
				var dup *DuplicateNameError
				assert.True(t, errors.As(err, &dup), "should be DuplicateNameError")
				assert.Equal(t, "Account with name 'Cash' already exists.", err.Error())
			},
		},
		{
			name:     "error: duplicate id is reported before duplicate name",
			accounts: []Account{cash, cash},
			wantErr:  true,
			checkFunc: func(t *testing.T, l *Ledger, err error) {
				var dup *DuplicateIDError
				assert.True(t, errors.As(err, &dup))
			},
		},
		{
			name:     "error: invalid account type",
			accounts: []Account{{ID: 5, Name: "Nowhere"}},
			wantErr:  true,
			checkFunc: func(t *testing.T, l *Ledger, err error) {
				var invalid *InvalidAccountTypeError
				assert.True(t, errors.As(err, &invalid))
				acc, err := l.GetAccount(context.Background(), 5)
				assert.NoError(t, err)
				assert.Zero(t, acc)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l, err := New(ctx, NewMemoryStore())
			assert.NoError(t, err)

			var lastErr error
			for _, acc := range tt.accounts {
				if err := l.AddAccount(ctx, acc); err != nil {
					lastErr = err
				}
			}

			if tt.wantErr {
				assert.Error(t, lastErr)
			} else {
				assert.NoError(t, lastErr)
			}

			if tt.checkFunc != nil {
				tt.checkFunc(t, l, lastErr)
			}
		})
	}
}

func TestLedger_AddTransaction(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue)

	txn := NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 1000})
	delta, err := l.AddTransaction(ctx, txn)
	assert.NoError(t, err)
	assert.Equal(t, txn, delta.Transaction)

	got, err := l.GetTransaction(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, &txn, got)

	got, err = l.GetTransaction(ctx, 2)
	assert.NoError(t, err)
	assert.Zero(t, got)

	_, balance, err := l.GetHistoricBalance(ctx, 1, date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
	_, balance, err = l.GetHistoricBalance(ctx, 2, date(2025, 1, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestLedger_AddTransactionDuplicateID(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue)

	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 1000}))

	// The duplicate check runs before validation, so even an unbalanced
	// transaction reports the duplicate id.
	_, err := l.AddTransaction(ctx, NewTransaction(1, date(2024, 2, 1), Entry{AccountID: 1, Value: 5}, Entry{AccountID: 2, Value: 1}))
	var dup *DuplicateIDError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, EntityTransaction, dup.Entity)
	assert.Equal(t, "Transaction with id 1 already exists.", err.Error())
}

func TestLedger_RejectedTransactionLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue)
	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 1000}))

	rejected := []Transaction{
		NewTransaction(2, date(2024, 2, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 900}),
		NewTransaction(3, date(2024, 2, 1), Entry{AccountID: 1, Value: 1000}),
		NewTransaction(4, date(2024, 2, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 99, Value: 1000}),
	}
	for _, txn := range rejected {
		_, err := l.AddTransaction(ctx, txn)
		assert.Error(t, err)
	}

	txns, err := l.ListTransactions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))

	_, balance, err := l.GetAccountBalance(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	// The rejected ids are still free.
	mustAddTransaction(t, l, NewTransaction(2, date(2024, 2, 1), Entry{AccountID: 1, Value: 1}, Entry{AccountID: 2, Value: 1}))
}

func TestLedger_ListTransactionsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, date(2025, 1, 1), cash, revenue)
	mustAddTransaction(t, l, NewTransaction(2, date(2024, 6, 1), Entry{AccountID: 1, Value: 5}, Entry{AccountID: 2, Value: 5}))
	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 7}, Entry{AccountID: 2, Value: 7}))

	first, err := l.ListTransactions(ctx)
	assert.NoError(t, err)
	second, err := l.ListTransactions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	// Insertion order, not id or timestamp order.
	assert.Equal(t, int64(2), first[0].ID)
	assert.Equal(t, int64(1), first[1].ID)

	// Callers cannot modify stored transactions through returned values.
	first[0].Entries[0].Value = 999
	third, err := l.ListTransactions(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), third[0].Entries[0].Value)
}

func TestLedger_Hooks(t *testing.T) {
	ctx := context.Background()

	var recorded []int64
	hook := HookFunc(func(ctx context.Context, delta *TransactionDelta) {
		recorded = append(recorded, delta.Transaction.ID)
	})

	l, err := New(ctx, NewMemoryStore(), WithHook(hook))
	assert.NoError(t, err)
	assert.NoError(t, l.AddAccount(ctx, cash))
	assert.NoError(t, l.AddAccount(ctx, revenue))

	mustAddTransaction(t, l, NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1}, Entry{AccountID: 2, Value: 1}))
	_, err = l.AddTransaction(ctx, NewTransaction(2, date(2024, 1, 1), Entry{AccountID: 1, Value: 1}, Entry{AccountID: 2, Value: 2}))
	assert.Error(t, err)
	mustAddTransaction(t, l, NewTransaction(3, date(2024, 1, 1), Entry{AccountID: 1, Value: 1}, Entry{AccountID: 2, Value: 1}))

	assert.Equal(t, []int64{1, 3}, recorded)
}

func TestLedger_Process(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, date(2025, 1, 1))

	journal := &Journal{
		Accounts: []Account{cash, revenue, {ID: 3, Name: "Cash", Type: AccountTypeDebit}},
		Transactions: []Transaction{
			NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 1000}),
			NewTransaction(2, date(2024, 2, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 900}),
			NewTransaction(3, date(2024, 3, 1), Entry{AccountID: 1, Value: 500}, Entry{AccountID: 2, Value: 500}),
		},
	}

	err := l.Process(ctx, journal)
	var verrs *ValidationErrors
	assert.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	assert.Equal(t, 2, len(verrs.Errors))

	var dupName *DuplicateNameError
	assert.True(t, errors.As(verrs.Errors[0], &dupName))
	var unbalanced *TransactionUnbalancedError
	assert.True(t, errors.As(verrs.Errors[1], &unbalanced))
	// errors.As also finds collected errors through Unwrap() []error.
	assert.True(t, errors.As(err, &unbalanced))

	_, balance, err := l.GetAccountBalance(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), balance)
}

func TestLedger_ProcessValid(t *testing.T) {
	l := newTestLedger(t, date(2025, 1, 1))

	err := l.Process(context.Background(), &Journal{
		Accounts: []Account{cash, revenue},
		Transactions: []Transaction{
			NewTransaction(1, date(2024, 1, 1), Entry{AccountID: 1, Value: 1000}, Entry{AccountID: 2, Value: 1000}),
		},
	})
	assert.NoError(t, err)
}

func TestLedger_ProcessCancelled(t *testing.T) {
	l := newTestLedger(t, date(2025, 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Process(ctx, &Journal{Accounts: []Account{cash}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLedger_Telemetry(t *testing.T) {
	collector := telemetry.NewTimingCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)

	l, err := New(ctx, NewMemoryStore(), WithClock(func() time.Time { return date(2025, 1, 1) }))
	assert.NoError(t, err)
	assert.NoError(t, l.Process(ctx, &Journal{Accounts: []Account{cash, revenue}}))
	_, err = l.GetTrialBalanceReport(ctx, date(2025, 1, 1))
	assert.NoError(t, err)

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Contains(t, buf.String(), "ledger.balance_cache")
	assert.Contains(t, buf.String(), "ledger.processing (2 accounts, 0 transactions)")
	assert.Contains(t, buf.String(), "ledger.trial_balance")
}

func TestValidationErrorsMessage(t *testing.T) {
	single := &ValidationErrors{Errors: []error{NewAccountNotFoundError(1)}}
	assert.Equal(t, "Account with id 1 does not exist.", single.Error())

	multi := &ValidationErrors{Errors: []error{NewAccountNotFoundError(1), NewDuplicateAccountIDError(2)}}
	assert.Equal(t, "2 validation errors occurred:\nAccount with id 1 does not exist.\nAccount with id 2 already exists.", multi.Error())
}
