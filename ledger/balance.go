package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

// BalanceEngine computes account balances in two ways:
//
//   - historic: a full replay of stored transactions dated at or before a
//     timestamp, for one account or for many accounts in a single pass
//   - current: a lookup in the running balance cache
//
// The cache is filled once, when the engine is created, by replaying the
// whole history as of that moment. Afterwards every accepted transaction
// adds its raw entry values to the cache and it is never recomputed. If a
// transaction is recorded with a timestamp older than already applied
// activity, the cache still includes it and will differ from a historic
// replay at any instant between the two timestamps.
type BalanceEngine struct {
	transactions TransactionStore
	cache        map[int64]int64
	latest       time.Time
}

// NewBalanceEngine creates an engine and initialises its running balance
// cache with the balance of every account in accounts as of now.
func NewBalanceEngine(ctx context.Context, accounts AccountStore, transactions TransactionStore, now time.Time) (*BalanceEngine, error) {
	timer := telemetry.StartTimer(ctx, "ledger.balance_cache")
	defer timer.End()

	e := &BalanceEngine{
		transactions: transactions,
		cache:        make(map[int64]int64),
	}

	accs, err := accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	txns, err := transactions.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	ids := make([]int64, len(accs))
	for i, acc := range accs {
		ids[i] = acc.ID
	}

	for id, balance := range replay(txns, ids, now) {
		e.cache[id] = balance
	}
	for _, txn := range txns {
		if txn.Timestamp.After(e.latest) {
			e.latest = txn.Timestamp
		}
	}

	return e, nil
}

// HistoricBalance returns the sum of all entry values for accountID in
// transactions dated at or before at. An account without activity in that
// window, including one created later, has a balance of 0.
func (e *BalanceEngine) HistoricBalance(ctx context.Context, accountID int64, at time.Time) (int64, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.historic_balance %d", accountID))
	defer timer.End()

	txns, err := e.transactions.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	var balance int64
	for _, txn := range txns {
		if txn.Timestamp.After(at) {
			continue
		}
		for _, entry := range txn.Entries {
			if entry.AccountID == accountID {
				balance += entry.Value
			}
		}
	}
	return balance, nil
}

// Balances computes the historic balance of every id in accountIDs with a
// single pass over the transaction history. Every requested id is present
// in the result.
func (e *BalanceEngine) Balances(ctx context.Context, accountIDs []int64, at time.Time) (map[int64]int64, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.replay (%d accounts)", len(accountIDs)))
	defer timer.End()

	txns, err := e.transactions.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return replay(txns, accountIDs, at), nil
}

// CurrentBalance returns the cached running balance of accountID, or 0 when
// the account has not been touched since the engine was created. It does
// not check that the account exists.
func (e *BalanceEngine) CurrentBalance(accountID int64) int64 {
	return e.cache[accountID]
}

// ApplyTransactionDelta adds every change of an accepted transaction to the
// running balance cache and marks the delta as backdated when it is older
// than the newest transaction seen so far.
func (e *BalanceEngine) ApplyTransactionDelta(delta *TransactionDelta) {
	ts := delta.Transaction.Timestamp
	if ts.Before(e.latest) {
		delta.Backdated = true
	} else {
		e.latest = ts
	}

	for _, change := range delta.Changes {
		e.cache[change.AccountID] += change.Value
	}
}

// replay accumulates entry values per requested account in one pass.
func replay(txns []Transaction, accountIDs []int64, at time.Time) map[int64]int64 {
	balances := make(map[int64]int64, len(accountIDs))
	for _, id := range accountIDs {
		balances[id] = 0
	}

	for _, txn := range txns {
		if txn.Timestamp.After(at) {
			continue
		}
		for _, entry := range txn.Entries {
			if _, ok := balances[entry.AccountID]; ok {
				balances[entry.AccountID] += entry.Value
			}
		}
	}
	return balances
}
