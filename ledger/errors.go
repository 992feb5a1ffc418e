package ledger

import (
	"fmt"
	"strings"
)

// Error codes returned by Code() on every ledger error. They are stable and
// safe to expose to API clients.
const (
	CodeDuplicateID              = "duplicate_id"
	CodeDuplicateName            = "duplicate_name"
	CodeAccountNotFound          = "account_not_found"
	CodeTransactionNotFound      = "transaction_not_found"
	CodeTransactionTooFewEntries = "transaction_too_few_entries"
	CodeTransactionUnbalanced    = "transaction_unbalanced"
	CodeUnknownAccountType       = "transaction_unknown_account_type"
	CodeInvalidAccountType       = "invalid_account_type"
)

// MinEntries is the smallest number of entries a transaction may carry.
const MinEntries = 2

// Entity names used by DuplicateIDError.
const (
	EntityAccount     = "account"
	EntityTransaction = "transaction"
)

// DuplicateIDError is returned when an account or transaction id is already taken
type DuplicateIDError struct {
	Entity string // EntityAccount or EntityTransaction
	ID     int64
}

func (e *DuplicateIDError) Error() string {
	if e.Entity == EntityAccount {
		return fmt.Sprintf("Account with id %d already exists.", e.ID)
	}
	return fmt.Sprintf("Transaction with id %d already exists.", e.ID)
}

func (e *DuplicateIDError) Code() string { return CodeDuplicateID }

// DuplicateNameError is returned when an account name is already taken
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("Account with name '%s' already exists.", e.Name)
}

func (e *DuplicateNameError) Code() string { return CodeDuplicateName }

// AccountNotFoundError is returned when an account id cannot be resolved.
// TransactionID is set when the lookup happened while validating a transaction.
type AccountNotFoundError struct {
	AccountID     int64
	TransactionID int64
	InTransaction bool
}

func (e *AccountNotFoundError) Error() string {
	if e.InTransaction {
		return fmt.Sprintf("Transaction %d: Account with id %d does not exist.", e.TransactionID, e.AccountID)
	}
	return fmt.Sprintf("Account with id %d does not exist.", e.AccountID)
}

func (e *AccountNotFoundError) Code() string { return CodeAccountNotFound }

// GetAccountID returns the id that failed to resolve.
func (e *AccountNotFoundError) GetAccountID() int64 { return e.AccountID }

// GetTransactionID returns the transaction being validated, if any.
func (e *AccountNotFoundError) GetTransactionID() (int64, bool) {
	return e.TransactionID, e.InTransaction
}

// TransactionNotFoundError is returned when a transaction id cannot be resolved
type TransactionNotFoundError struct {
	TransactionID int64
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("Transaction with id %d does not exist.", e.TransactionID)
}

func (e *TransactionNotFoundError) Code() string { return CodeTransactionNotFound }

// TransactionTooFewEntriesError is returned when a transaction has fewer than MinEntries entries
type TransactionTooFewEntriesError struct {
	TransactionID int64
	Count         int
}

func (e *TransactionTooFewEntriesError) Error() string {
	return fmt.Sprintf("Transaction %d: Transaction must have at least %d entries (got %d).", e.TransactionID, MinEntries, e.Count)
}

func (e *TransactionTooFewEntriesError) Code() string { return CodeTransactionTooFewEntries }

func (e *TransactionTooFewEntriesError) GetTransactionID() (int64, bool) {
	return e.TransactionID, true
}

// TransactionUnbalancedError is returned when debit and credit totals differ
type TransactionUnbalancedError struct {
	TransactionID int64
	DebitTotal    int64
	CreditTotal   int64
}

func (e *TransactionUnbalancedError) Error() string {
	return fmt.Sprintf("Transaction %d: Transaction is not balanced. Total debits must equal total credits: total debits=%d, total credits=%d.",
		e.TransactionID, e.DebitTotal, e.CreditTotal)
}

func (e *TransactionUnbalancedError) Code() string { return CodeTransactionUnbalanced }

func (e *TransactionUnbalancedError) GetTransactionID() (int64, bool) {
	return e.TransactionID, true
}

// TransactionUnknownAccountTypeError is returned when an entry's account
// carries a type outside the known set. Unreachable for accounts created
// through this package, kept for stores that may hold newer types.
type TransactionUnknownAccountTypeError struct {
	TransactionID int64
	AccountID     int64
	Type          AccountType
}

func (e *TransactionUnknownAccountTypeError) Error() string {
	return fmt.Sprintf("Transaction %d: Invalid account type %d for account id %d.", e.TransactionID, int(e.Type), e.AccountID)
}

func (e *TransactionUnknownAccountTypeError) Code() string { return CodeUnknownAccountType }

// GetAccountID returns the account holding the unknown type.
func (e *TransactionUnknownAccountTypeError) GetAccountID() int64 { return e.AccountID }

func (e *TransactionUnknownAccountTypeError) GetTransactionID() (int64, bool) {
	return e.TransactionID, true
}

// InvalidAccountTypeError is returned when adding an account whose type is
// neither debit nor credit
type InvalidAccountTypeError struct {
	AccountID int64
	Type      AccountType
}

func (e *InvalidAccountTypeError) Error() string {
	return fmt.Sprintf("Account %d: invalid account type %d, expected debit or credit.", e.AccountID, int(e.Type))
}

func (e *InvalidAccountTypeError) Code() string { return CodeInvalidAccountType }

// ValidationErrors wraps every error collected while processing a journal
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors occurred:\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// Constructor functions for ledger errors.

// NewDuplicateAccountIDError creates an error for an account id that is already in use.
func NewDuplicateAccountIDError(id int64) *DuplicateIDError {
	return &DuplicateIDError{Entity: EntityAccount, ID: id}
}

// NewDuplicateTransactionIDError creates an error for a transaction id that is already in use.
func NewDuplicateTransactionIDError(id int64) *DuplicateIDError {
	return &DuplicateIDError{Entity: EntityTransaction, ID: id}
}

// NewAccountNotFoundError creates an error for a direct account lookup.
func NewAccountNotFoundError(accountID int64) *AccountNotFoundError {
	return &AccountNotFoundError{AccountID: accountID}
}

// NewAccountNotFoundErrorFromTransaction creates an error for an entry that
// references an unknown account.
func NewAccountNotFoundErrorFromTransaction(txn Transaction, accountID int64) *AccountNotFoundError {
	return &AccountNotFoundError{AccountID: accountID, TransactionID: txn.ID, InTransaction: true}
}

// NewTransactionUnbalancedError creates an error carrying both computed totals.
func NewTransactionUnbalancedError(txn Transaction, debits, credits int64) *TransactionUnbalancedError {
	return &TransactionUnbalancedError{TransactionID: txn.ID, DebitTotal: debits, CreditTotal: credits}
}
