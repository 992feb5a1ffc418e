package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestParseAccountType(t *testing.T) {
	tests := []struct {
		input   string
		want    AccountType
		wantErr bool
	}{
		{"debit", AccountTypeDebit, false},
		{"DEBIT", AccountTypeDebit, false},
		{" Credit ", AccountTypeCredit, false},
		{"asset", AccountTypeUnknown, true},
		{"", AccountTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAccountType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountTypeJSON(t *testing.T) {
	data, err := json.Marshal(revenue)
	assert.NoError(t, err)
	assert.Equal(t, `{"id":2,"name":"Revenue","type":"credit"}`, string(data))

	_, err = json.Marshal(Account{ID: 1, Name: "Broken"})
	assert.Error(t, err)
}

func TestAccountString(t *testing.T) {
	acc := Account{ID: 1, Name: "Cash", Type: AccountTypeDebit, Description: "Petty cash"}
	assert.Equal(t, "Account(id=1, name='Cash', type='debit', description='Petty cash')", acc.String())
}

func TestTransactionString(t *testing.T) {
	txn := NewTransaction(3, time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		Entry{AccountID: 1, Value: 1000},
		Entry{AccountID: 2, Value: -5},
	)
	assert.Equal(t, "Transaction(id=3, timestamp=2024-01-01T12:00:00Z, entries=[1:1000, 2:-5])", txn.String())
}

func TestTransactionValueFor(t *testing.T) {
	txn := NewTransaction(1, time.Time{},
		Entry{AccountID: 1, Value: 100},
		Entry{AccountID: 2, Value: 150},
		Entry{AccountID: 1, Value: 50},
	)
	assert.Equal(t, int64(150), txn.ValueFor(1))
	assert.Equal(t, int64(150), txn.ValueFor(2))
	assert.Equal(t, int64(0), txn.ValueFor(3))
}
