// Package ledger provides a double-entry bookkeeping ledger. It records
// accounts and transactions, enforces that every transaction balances and
// computes balances and reports as of arbitrary points in time.
//
// The ledger validates that:
//   - Every transaction has at least two entries
//   - Every entry references an existing account
//   - Entries on debit accounts sum to the same total as entries on credit accounts
//   - Account ids, account names and transaction ids are unique
//
// Amounts are signed integers in minor currency units. No scaling or
// rounding happens anywhere in this package.
//
// Example usage:
//
//	l, err := ledger.New(ctx, ledger.NewMemoryStore())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = l.AddAccount(ctx, ledger.Account{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit})
//	_ = l.AddAccount(ctx, ledger.Account{ID: 2, Name: "Revenue", Type: ledger.AccountTypeCredit})
//
//	_, err = l.AddTransaction(ctx, ledger.NewTransaction(1, time.Now(),
//	    ledger.Entry{AccountID: 1, Value: 1000},
//	    ledger.Entry{AccountID: 2, Value: 1000},
//	))
//	var unbalanced *ledger.TransactionUnbalancedError
//	if errors.As(err, &unbalanced) {
//	    fmt.Println(unbalanced.DebitTotal, unbalanced.CreditTotal)
//	}
//
// A Ledger is not safe for concurrent use. Callers sharing one across
// goroutines must hold a single lock for every call, so a validate-then-write
// and the cache update that follows it are never interleaved.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

// Hook is notified after a transaction has been stored and applied.
type Hook interface {
	TransactionRecorded(ctx context.Context, delta *TransactionDelta)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, delta *TransactionDelta)

func (f HookFunc) TransactionRecorded(ctx context.Context, delta *TransactionDelta) {
	f(ctx, delta)
}

// Ledger is the entry point for reading and writing the books. It owns the
// balance engine, and with it the running balance cache, for its store.
type Ledger struct {
	store    Store
	balances *BalanceEngine
	reporter *reporter
	now      func() time.Time
	hooks    []Hook
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the source of "now" used for the initial cache replay.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithHook registers a hook called after every accepted transaction.
func WithHook(h Hook) Option {
	return func(l *Ledger) {
		l.hooks = append(l.hooks, h)
	}
}

// New creates a ledger over store and replays its history into the running
// balance cache.
func New(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	balances, err := NewBalanceEngine(ctx, store, store, l.now())
	if err != nil {
		return nil, err
	}
	l.balances = balances
	l.reporter = &reporter{accounts: store, transactions: store, balances: balances}

	return l, nil
}

// Store returns the backend the ledger reads and writes.
func (l *Ledger) Store() Store {
	return l.store
}

// AddAccount records a new account. It fails with *DuplicateIDError or
// *DuplicateNameError, in that order, when the id or the name is taken.
func (l *Ledger) AddAccount(ctx context.Context, account Account) error {
	if !account.Type.Valid() {
		return &InvalidAccountTypeError{AccountID: account.ID, Type: account.Type}
	}

	existing, err := l.store.GetAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return NewDuplicateAccountIDError(account.ID)
	}

	existing, err = l.store.GetAccountByName(ctx, account.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return &DuplicateNameError{Name: account.Name}
	}

	return l.store.AddAccount(ctx, account)
}

// GetAccount returns the account with the given id, or nil if there is none.
func (l *Ledger) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return l.store.GetAccount(ctx, id)
}

// GetAccountByName returns the account with the given name, or nil if there is none.
func (l *Ledger) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	return l.store.GetAccountByName(ctx, name)
}

// ListAccounts returns all accounts in store order.
func (l *Ledger) ListAccounts(ctx context.Context) ([]Account, error) {
	return l.store.ListAccounts(ctx)
}

// AddTransaction validates and records txn, then updates the running
// balance cache. A rejected transaction leaves the store and the cache
// untouched.
func (l *Ledger) AddTransaction(ctx context.Context, txn Transaction) (*TransactionDelta, error) {
	existing, err := l.store.GetTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewDuplicateTransactionIDError(txn.ID)
	}

	delta, err := Validate(ctx, txn, l.store)
	if err != nil {
		return nil, err
	}

	if err := l.store.AddTransaction(ctx, txn); err != nil {
		return nil, err
	}

	l.ApplyTransactionDelta(ctx, delta)
	return delta, nil
}

// ApplyTransactionDelta applies an accepted transaction's delta to the
// running balance cache and notifies hooks. It assumes the transaction was
// validated and stored.
func (l *Ledger) ApplyTransactionDelta(ctx context.Context, delta *TransactionDelta) {
	l.balances.ApplyTransactionDelta(delta)
	for _, h := range l.hooks {
		h.TransactionRecorded(ctx, delta)
	}
}

// GetTransaction returns the transaction with the given id, or nil if there is none.
func (l *Ledger) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// ListTransactions returns all transactions in insertion order.
func (l *Ledger) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return l.store.ListTransactions(ctx)
}

// GetHistoricBalance replays history to compute the balance of accountID as
// of at.
func (l *Ledger) GetHistoricBalance(ctx context.Context, accountID int64, at time.Time) (Account, int64, error) {
	acc, err := l.requireAccount(ctx, accountID)
	if err != nil {
		return Account{}, 0, err
	}

	balance, err := l.balances.HistoricBalance(ctx, accountID, at)
	if err != nil {
		return Account{}, 0, err
	}
	return acc, balance, nil
}

// GetAccountBalance returns the cached current balance of accountID.
func (l *Ledger) GetAccountBalance(ctx context.Context, accountID int64) (Account, int64, error) {
	acc, err := l.requireAccount(ctx, accountID)
	if err != nil {
		return Account{}, 0, err
	}
	return acc, l.balances.CurrentBalance(accountID), nil
}

// GetTrialBalanceReport builds a trial balance as of at.
func (l *Ledger) GetTrialBalanceReport(ctx context.Context, at time.Time) (*TrialBalanceReport, error) {
	return l.reporter.trialBalance(ctx, at)
}

// GetTransactionReport builds a transaction report as of at.
func (l *Ledger) GetTransactionReport(ctx context.Context, at time.Time) (*TransactionReport, error) {
	return l.reporter.transactionReport(ctx, at)
}

// Process records every account and then every transaction of a journal.
// Rejected items do not stop processing; their errors are collected and
// returned together as *ValidationErrors.
func (l *Ledger) Process(ctx context.Context, journal *Journal) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.processing (%d accounts, %d transactions)",
		len(journal.Accounts), len(journal.Transactions)))
	defer timer.End()

	var errs []error

	for _, acc := range journal.Accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.AddAccount(ctx, acc); err != nil {
			errs = append(errs, err)
		}
	}

	for _, txn := range journal.Transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.AddTransaction(ctx, txn); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func (l *Ledger) requireAccount(ctx context.Context, accountID int64) (Account, error) {
	acc, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if acc == nil {
		return Account{}, NewAccountNotFoundError(accountID)
	}
	return *acc, nil
}
