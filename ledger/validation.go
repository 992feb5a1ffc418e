package ledger

import (
	"context"

	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

// validator checks transactions against the double-entry rule with a
// read-only view of the accounts. It is a separate type from Ledger so
// validation cannot mutate state.
type validator struct {
	accounts AccountLookup
}

func newValidator(accounts AccountLookup) *validator {
	return &validator{accounts: accounts}
}

// Validate decides whether txn may be recorded. Checks run in a fixed order
// and the first failure is returned:
//
//  1. at least MinEntries entries
//  2. every entry's account resolves
//  3. every resolved account has a known type
//  4. debit total equals credit total
//
// Values are summed as given; the sign is already part of each value. An
// account referenced by several entries contributes once per entry.
// Duplicate transaction ids are the write path's concern, not the validator's.
func Validate(ctx context.Context, txn Transaction, accounts AccountLookup) (*TransactionDelta, error) {
	return newValidator(accounts).validateTransaction(ctx, txn)
}

func (v *validator) validateTransaction(ctx context.Context, txn Transaction) (*TransactionDelta, error) {
	timer := telemetry.StartTimer(ctx, "ledger.validate")
	defer timer.End()

	if err := v.validateEntryCount(txn); err != nil {
		return nil, err
	}

	resolved, err := v.resolveAccounts(ctx, txn)
	if err != nil {
		return nil, err
	}

	debits, credits, err := v.calculateTotals(txn, resolved)
	if err != nil {
		return nil, err
	}

	if debits != credits {
		return nil, NewTransactionUnbalancedError(txn, debits, credits)
	}

	changes := make([]BalanceChange, len(txn.Entries))
	for i, e := range txn.Entries {
		changes[i] = BalanceChange{AccountID: e.AccountID, Value: e.Value}
	}

	return &TransactionDelta{
		Transaction: txn.Clone(),
		Changes:     changes,
		DebitTotal:  debits,
		CreditTotal: credits,
	}, nil
}

func (v *validator) validateEntryCount(txn Transaction) error {
	if len(txn.Entries) < MinEntries {
		return &TransactionTooFewEntriesError{TransactionID: txn.ID, Count: len(txn.Entries)}
	}
	return nil
}

// resolveAccounts looks up the account of every entry, in entry order.
func (v *validator) resolveAccounts(ctx context.Context, txn Transaction) ([]*Account, error) {
	resolved := make([]*Account, len(txn.Entries))
	for i, e := range txn.Entries {
		acc, err := v.accounts.GetAccount(ctx, e.AccountID)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			return nil, NewAccountNotFoundErrorFromTransaction(txn, e.AccountID)
		}
		resolved[i] = acc
	}
	return resolved, nil
}

// calculateTotals sums entry values into the debit or credit bucket of
// their account's type.
func (v *validator) calculateTotals(txn Transaction, resolved []*Account) (debits, credits int64, err error) {
	for i, e := range txn.Entries {
		acc := resolved[i]
		switch acc.Type {
		case AccountTypeDebit:
			debits += e.Value
		case AccountTypeCredit:
			credits += e.Value
		default:
			return 0, 0, &TransactionUnknownAccountTypeError{
				TransactionID: txn.ID,
				AccountID:     acc.ID,
				Type:          acc.Type,
			}
		}
	}
	return debits, credits, nil
}
