// Package ledgertest provides shared tests for ledger.Store implementations.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// StoreFactory opens an empty store for one test.
type StoreFactory func(t *testing.T) ledger.Store

// RunStoreTests checks that a store implementation honours the store
// contract: unique keys, nil results for unknown keys and insertion order.
func RunStoreTests(t *testing.T, open StoreFactory) {
	t.Helper()

	t.Run("AccountRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		cash := ledger.Account{ID: 10, Name: "Cash", Type: ledger.AccountTypeDebit, Description: "Petty cash"}
		assert.NoError(t, s.AddAccount(ctx, cash))

		got, err := s.GetAccount(ctx, 10)
		assert.NoError(t, err)
		assert.Equal(t, &cash, got)

		got, err = s.GetAccountByName(ctx, "Cash")
		assert.NoError(t, err)
		assert.Equal(t, &cash, got)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		got, err := s.GetAccount(ctx, 99)
		assert.NoError(t, err)
		assert.Zero(t, got)

		got, err = s.GetAccountByName(ctx, "Missing")
		assert.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("DuplicateAccount", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		assert.NoError(t, s.AddAccount(ctx, ledger.Account{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit}))

		err := s.AddAccount(ctx, ledger.Account{ID: 1, Name: "Bank", Type: ledger.AccountTypeDebit})
		var dupID *ledger.DuplicateIDError
		assert.True(t, errors.As(err, &dupID), "expected DuplicateIDError, got %v", err)
		assert.Equal(t, ledger.EntityAccount, dupID.Entity)

		err = s.AddAccount(ctx, ledger.Account{ID: 2, Name: "Cash", Type: ledger.AccountTypeCredit})
		var dupName *ledger.DuplicateNameError
		assert.True(t, errors.As(err, &dupName), "expected DuplicateNameError, got %v", err)

		accounts, err := s.ListAccounts(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(accounts))
	})

	t.Run("AccountInsertionOrder", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		accounts, err := s.ListAccounts(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, len(accounts))

		// Ids deliberately out of order, including a negative one.
		ids := []int64{30, 2, -5, 100}
		for i, id := range ids {
			typ := ledger.AccountTypeDebit
			if i%2 == 1 {
				typ = ledger.AccountTypeCredit
			}
			assert.NoError(t, s.AddAccount(ctx, ledger.Account{ID: id, Name: string(rune('A' + i)), Type: typ}))
		}

		accounts, err = s.ListAccounts(ctx)
		assert.NoError(t, err)
		got := make([]int64, len(accounts))
		for i, acc := range accounts {
			got[i] = acc.ID
		}
		assert.Equal(t, ids, got)
	})

	t.Run("TransactionRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		ts := time.Date(2024, time.January, 15, 10, 30, 0, 123456789, time.UTC)
		txn := ledger.NewTransaction(7, ts,
			ledger.Entry{AccountID: 1, Value: 1000},
			ledger.Entry{AccountID: 2, Value: -250},
			ledger.Entry{AccountID: 1, Value: 5},
		)
		assert.NoError(t, s.AddTransaction(ctx, txn))

		got, err := s.GetTransaction(ctx, 7)
		assert.NoError(t, err)
		assert.NotZero(t, got)
		assertTransaction(t, txn, *got)

		got, err = s.GetTransaction(ctx, 8)
		assert.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("DuplicateTransaction", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		txn := ledger.NewTransaction(1, ts, ledger.Entry{AccountID: 1, Value: 1}, ledger.Entry{AccountID: 2, Value: 1})
		assert.NoError(t, s.AddTransaction(ctx, txn))

		err := s.AddTransaction(ctx, txn)
		var dupID *ledger.DuplicateIDError
		assert.True(t, errors.As(err, &dupID), "expected DuplicateIDError, got %v", err)
		assert.Equal(t, ledger.EntityTransaction, dupID.Entity)

		txns, err := s.ListTransactions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(txns))
	})

	t.Run("TransactionInsertionOrder", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		// Insertion order differs from both id and timestamp order.
		base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		want := []ledger.Transaction{
			ledger.NewTransaction(3, base, ledger.Entry{AccountID: 1, Value: 1}, ledger.Entry{AccountID: 2, Value: 1}),
			ledger.NewTransaction(1, base.AddDate(0, 0, -10), ledger.Entry{AccountID: 1, Value: 2}, ledger.Entry{AccountID: 2, Value: 2}),
			ledger.NewTransaction(2, base.AddDate(0, 0, 5), ledger.Entry{AccountID: 2, Value: 3}, ledger.Entry{AccountID: 1, Value: 3}),
		}
		for _, txn := range want {
			assert.NoError(t, s.AddTransaction(ctx, txn))
		}

		got, err := s.ListTransactions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		for i := range want {
			assertTransaction(t, want[i], got[i])
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.ListTransactions(ctx)
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled), "unexpected error %v", err)
		}
	})
}

func assertTransaction(t *testing.T, want, got ledger.Transaction) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %s != %s", want.Timestamp, got.Timestamp)
	assert.Equal(t, want.Entries, got.Entries)
}
