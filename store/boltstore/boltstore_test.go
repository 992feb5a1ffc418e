package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/ledger/ledgertest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	ledgertest.RunStoreTests(t, func(t *testing.T) ledger.Store {
		return openTestStore(t)
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	assert.NoError(t, err)
	assert.NoError(t, s.AddAccount(ctx, ledger.Account{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit}))
	assert.NoError(t, s.AddAccount(ctx, ledger.Account{ID: 2, Name: "Revenue", Type: ledger.AccountTypeCredit}))
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, s.AddTransaction(ctx, ledger.NewTransaction(1, ts,
		ledger.Entry{AccountID: 1, Value: 1000},
		ledger.Entry{AccountID: 2, Value: 1000},
	)))
	assert.NoError(t, s.Close())

	s, err = Open(path)
	assert.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	// The ledger rebuilds its running balances from the reopened file.
	l, err := ledger.New(ctx, s, ledger.WithClock(func() time.Time { return ts.AddDate(0, 1, 0) }))
	assert.NoError(t, err)

	_, balance, err := l.GetAccountBalance(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	// Sequences continue after reopening, so order is preserved.
	assert.NoError(t, s.AddAccount(ctx, ledger.Account{ID: 0, Name: "Bank", Type: ledger.AccountTypeDebit}))
	accounts, err := s.ListAccounts(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(accounts))
	assert.Equal(t, "Bank", accounts[2].Name)
}

func TestItob(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40} {
		assert.Equal(t, v, btoi(itob(v)))
	}
}
