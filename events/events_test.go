package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

func newTestLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	ctx := context.Background()

	l, err := ledger.New(ctx, ledger.NewMemoryStore(), opts...)
	assert.NoError(t, err)
	assert.NoError(t, l.AddAccount(ctx, ledger.Account{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit}))
	assert.NoError(t, l.AddAccount(ctx, ledger.Account{ID: 2, Name: "Revenue", Type: ledger.AccountTypeCredit}))
	return l
}

func TestNewTransactionRecorded(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	recordedAt := ts.Add(time.Hour)
	delta := &ledger.TransactionDelta{
		Transaction: ledger.NewTransaction(5, ts,
			ledger.Entry{AccountID: 1, Value: 1000},
			ledger.Entry{AccountID: 2, Value: 1000},
		),
		DebitTotal:  1000,
		CreditTotal: 1000,
		Backdated:   true,
	}

	event := NewTransactionRecorded(delta, recordedAt)

	_, err := uuid.Parse(event.EventID)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), event.TransactionID)
	assert.Equal(t, ts, event.Timestamp)
	assert.Equal(t, recordedAt, event.RecordedAt)
	assert.Equal(t, delta.Transaction.Entries, event.Entries)
	assert.Equal(t, int64(1000), event.DebitTotal)
	assert.True(t, event.Backdated)

	// The event does not share memory with the delta.
	event.Entries[0].Value = 0
	assert.Equal(t, int64(1000), delta.Transaction.Entries[0].Value)

	other := NewTransactionRecorded(delta, recordedAt)
	assert.NotEqual(t, event.EventID, other.EventID)
}

func TestHookPublishesAcceptedTransactions(t *testing.T) {
	ctx := context.Background()
	recordedAt := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	var published []TransactionRecorded
	hook := NewHook(PublisherFunc(func(ctx context.Context, event TransactionRecorded) error {
		published = append(published, event)
		return nil
	}), WithHookClock(func() time.Time { return recordedAt }))

	l := newTestLedger(t, ledger.WithHook(hook))
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := l.AddTransaction(ctx, ledger.NewTransaction(1, ts,
		ledger.Entry{AccountID: 1, Value: 1000},
		ledger.Entry{AccountID: 2, Value: 1000},
	))
	assert.NoError(t, err)

	// Rejected transactions are not published.
	_, err = l.AddTransaction(ctx, ledger.NewTransaction(2, ts,
		ledger.Entry{AccountID: 1, Value: 1000},
		ledger.Entry{AccountID: 2, Value: 900},
	))
	assert.Error(t, err)

	assert.Equal(t, 1, len(published))
	assert.Equal(t, int64(1), published[0].TransactionID)
	assert.Equal(t, recordedAt, published[0].RecordedAt)
}

func TestHookIgnoresPublishFailures(t *testing.T) {
	ctx := context.Background()
	hook := NewHook(PublisherFunc(func(ctx context.Context, event TransactionRecorded) error {
		return errors.New("broker unavailable")
	}))

	l := newTestLedger(t, ledger.WithHook(hook))
	_, err := l.AddTransaction(ctx, ledger.NewTransaction(1, time.Now(),
		ledger.Entry{AccountID: 1, Value: 10},
		ledger.Entry{AccountID: 2, Value: 10},
	))
	assert.NoError(t, err)

	_, balance, err := l.GetAccountBalance(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}
