package ledger

import (
	"fmt"
	"strings"
)

// AccountType tells which side of a transaction an account's entries are
// summed into when checking the balance rule.
type AccountType int

const (
	// AccountTypeUnknown is the zero value and never valid on a stored account.
	AccountTypeUnknown AccountType = iota
	AccountTypeDebit
	AccountTypeCredit
)

// AccountTypes lists the valid account types in report order.
var AccountTypes = []AccountType{AccountTypeDebit, AccountTypeCredit}

// String returns the string representation of the account type
func (t AccountType) String() string {
	switch t {
	case AccountTypeDebit:
		return "debit"
	case AccountTypeCredit:
		return "credit"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t == AccountTypeDebit || t == AccountTypeCredit
}

// ParseAccountType parses "debit" or "credit", ignoring case.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return AccountTypeDebit, nil
	case "credit":
		return AccountTypeCredit, nil
	default:
		return AccountTypeUnknown, fmt.Errorf("invalid account type %q, expected debit or credit", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t AccountType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal account type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AccountType) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Account represents an account in the ledger. Accounts are immutable once
// added; the store enforces that both ID and Name are unique.
type Account struct {
	ID          int64       `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Type        AccountType `json:"type" yaml:"type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

func (a Account) String() string {
	return fmt.Sprintf("Account(id=%d, name='%s', type='%s', description='%s')", a.ID, a.Name, a.Type, a.Description)
}
