package ledger

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

// ReportEntry is one account's balance in a report.
type ReportEntry struct {
	Account Account `json:"account"`
	Balance int64   `json:"balance"`
}

// TrialBalanceReport lists every account's balance as of Timestamp, split
// by account type. The totals are observational and are not required to
// match.
type TrialBalanceReport struct {
	Timestamp    time.Time     `json:"timestamp"`
	Debits       []ReportEntry `json:"debits"`
	DebitsTotal  int64         `json:"debits_total"`
	Credits      []ReportEntry `json:"credits"`
	CreditsTotal int64         `json:"credits_total"`
}

// Balanced reports whether both totals are equal.
func (r *TrialBalanceReport) Balanced() bool {
	return r.DebitsTotal == r.CreditsTotal
}

// TransactionReportRow holds one transaction and its value per report column.
type TransactionReportRow struct {
	Transaction Transaction `json:"transaction"`
	Values      []int64     `json:"values"` // aligned with TransactionReport.Accounts
}

// TransactionReport is a matrix with one row per transaction dated at or
// before Timestamp and one column per account.
type TransactionReport struct {
	Timestamp    time.Time              `json:"timestamp"`
	Accounts     []Account              `json:"accounts"`
	Transactions []TransactionReportRow `json:"transactions"`
}

// reporter builds reports from a read-only view of the store and a balance engine.
type reporter struct {
	accounts     AccountStore
	transactions TransactionStore
	balances     *BalanceEngine
}

// trialBalance partitions accounts into debit and credit groups, keeping
// store enumeration order inside each group, and sums each group. Accounts
// of neither type are left out. Balances come from one batch replay.
func (r *reporter) trialBalance(ctx context.Context, at time.Time) (*TrialBalanceReport, error) {
	timer := telemetry.StartTimer(ctx, "ledger.trial_balance")
	defer timer.End()

	accounts, err := r.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	ids := make([]int64, len(accounts))
	for i, acc := range accounts {
		ids[i] = acc.ID
	}
	balances, err := r.balances.Balances(ctx, ids, at)
	if err != nil {
		return nil, err
	}

	report := &TrialBalanceReport{
		Timestamp: at,
		Debits:    []ReportEntry{},
		Credits:   []ReportEntry{},
	}
	for _, acc := range accounts {
		entry := ReportEntry{Account: acc, Balance: balances[acc.ID]}
		switch acc.Type {
		case AccountTypeDebit:
			report.Debits = append(report.Debits, entry)
			report.DebitsTotal += entry.Balance
		case AccountTypeCredit:
			report.Credits = append(report.Credits, entry)
			report.CreditsTotal += entry.Balance
		default:
			// Only stores read back an untyped account. The validator rejects
			// every transaction touching it, so it has no balance to report.
			continue
		}
	}

	return report, nil
}

// transactionReport orders columns debit accounts first, then credit
// accounts, each by ascending id, and rows by ascending timestamp. Rows with
// equal timestamps keep insertion order.
func (r *reporter) transactionReport(ctx context.Context, at time.Time) (*TransactionReport, error) {
	timer := telemetry.StartTimer(ctx, "ledger.transaction_report")
	defer timer.End()

	accounts, err := r.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	txns, err := r.transactions.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	columns := make([]Account, 0, len(accounts))
	for _, t := range AccountTypes {
		group := make([]Account, 0, len(accounts))
		for _, acc := range accounts {
			if acc.Type == t {
				group = append(group, acc)
			}
		}
		slices.SortFunc(group, func(a, b Account) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
		columns = append(columns, group...)
	}

	included := make([]Transaction, 0, len(txns))
	for _, txn := range txns {
		if !txn.Timestamp.After(at) {
			included = append(included, txn)
		}
	}
	slices.SortStableFunc(included, func(a, b Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	rows := make([]TransactionReportRow, len(included))
	for i, txn := range included {
		values := make([]int64, len(columns))
		for j, acc := range columns {
			values[j] = txn.ValueFor(acc.ID)
		}
		rows[i] = TransactionReportRow{Transaction: txn, Values: values}
	}

	return &TransactionReport{
		Timestamp:    at,
		Accounts:     columns,
		Transactions: rows,
	}, nil
}
