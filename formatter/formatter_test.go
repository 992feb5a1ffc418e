package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

var (
	cash    = ledger.Account{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit, Description: "Petty cash"}
	bank    = ledger.Account{ID: 2, Name: "Bank", Type: ledger.AccountTypeDebit}
	revenue = ledger.Account{ID: 3, Name: "Revenue", Type: ledger.AccountTypeCredit}
	sales   = ledger.Account{ID: 4, Name: "Sales", Type: ledger.AccountTypeCredit}
)

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name       string
		minorUnits int32
		value      int64
		want       string
	}{
		{"Cents", 2, 150050, "1500.50"},
		{"SmallValue", 2, 5, "0.05"},
		{"Negative", 2, -250, "-2.50"},
		{"Zero", 2, 0, "0.00"},
		{"RawMinorUnits", 0, 1500, "1500"},
		{"ThreePlaces", 3, 1234, "1.234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(WithMinorUnits(tt.minorUnits))
			assert.Equal(t, tt.want, f.FormatAmount(tt.value))
		})
	}
}

func TestParseAmount(t *testing.T) {
	f := New()

	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"15.5", 1550, false},
		{"1500", 150000, false},
		{"-2.50", -250, false},
		{" 0.01 ", 1, false},
		{"1.005", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := f.ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTrialBalance(t *testing.T) {
	report := &ledger.TrialBalanceReport{
		Timestamp: date("2024-03-01T00:00:00Z"),
		Debits: []ledger.ReportEntry{
			{Account: cash, Balance: 1500},
			{Account: bank, Balance: 3000},
		},
		DebitsTotal: 4500,
		Credits: []ledger.ReportEntry{
			{Account: revenue, Balance: 1500},
			{Account: sales, Balance: 3000},
		},
		CreditsTotal: 4500,
	}

	var buf bytes.Buffer
	err := New(WithMinorUnits(0)).FormatTrialBalance(&buf, report)
	assert.NoError(t, err)

	expected := `Trial Balance as of 2024-03-01T00:00:00Z
Debit accounts
  Cash     1500
  Bank     3000
  Total    4500
Credit accounts
  Revenue  1500
  Sales    3000
  Total    4500
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatTrialBalanceUnbalanced(t *testing.T) {
	report := &ledger.TrialBalanceReport{
		Timestamp:    date("2024-03-01T00:00:00Z"),
		Debits:       []ledger.ReportEntry{{Account: cash, Balance: 1000}},
		DebitsTotal:  1000,
		Credits:      []ledger.ReportEntry{{Account: revenue, Balance: 900}},
		CreditsTotal: 900,
	}

	var buf bytes.Buffer
	err := New().FormatTrialBalance(&buf, report)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Warning: debits and credits differ by 1.00\n")
}

func TestFormatTrialBalanceEmpty(t *testing.T) {
	report := &ledger.TrialBalanceReport{Timestamp: date("2024-03-01T00:00:00Z")}

	var buf bytes.Buffer
	err := New().FormatTrialBalance(&buf, report)
	assert.NoError(t, err)

	expected := `Trial Balance as of 2024-03-01T00:00:00Z
Debit accounts
  Total  0.00
Credit accounts
  Total  0.00
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatTransactionReport(t *testing.T) {
	txn1 := ledger.NewTransaction(1, date("2024-01-01T00:00:00Z"),
		ledger.Entry{AccountID: 1, Value: 1000},
		ledger.Entry{AccountID: 3, Value: 1000},
	)
	txn2 := ledger.NewTransaction(2, date("2024-02-01T00:00:00Z"),
		ledger.Entry{AccountID: 1, Value: 500},
		ledger.Entry{AccountID: 3, Value: 500},
	)
	report := &ledger.TransactionReport{
		Timestamp: date("2024-03-01T00:00:00Z"),
		Accounts:  []ledger.Account{cash, revenue},
		Transactions: []ledger.TransactionReportRow{
			{Transaction: txn1, Values: []int64{1000, 1000}},
			{Transaction: txn2, Values: []int64{500, 0}},
		},
	}

	var buf bytes.Buffer
	err := New(WithMinorUnits(0)).FormatTransactionReport(&buf, report)
	assert.NoError(t, err)

	expected := `Transaction Report as of 2024-03-01T00:00:00Z
ID  Timestamp             Cash  Revenue
 1  2024-01-01T00:00:00Z  1000     1000
 2  2024-02-01T00:00:00Z   500        -
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatTransactionReportEmpty(t *testing.T) {
	report := &ledger.TransactionReport{Timestamp: date("2024-03-01T00:00:00Z")}

	var buf bytes.Buffer
	err := New().FormatTransactionReport(&buf, report)
	assert.NoError(t, err)
	assert.Equal(t, "Transaction Report as of 2024-03-01T00:00:00Z\nNo transactions.\n", buf.String())
}

func TestFormatAccounts(t *testing.T) {
	var buf bytes.Buffer
	err := New().FormatAccounts(&buf, []ledger.Account{cash, revenue})
	assert.NoError(t, err)

	expected := `ID  Name     Type    Description
 1  Cash     debit   Petty cash
 3  Revenue  credit
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatAccountsWideNames(t *testing.T) {
	wide := ledger.Account{ID: 5, Name: "現金", Type: ledger.AccountTypeDebit}

	var buf bytes.Buffer
	err := New().FormatAccounts(&buf, []ledger.Account{wide, cash})
	assert.NoError(t, err)

	// Each CJK character occupies two terminal cells.
	expected := `ID  Name  Type   Description
 5  現金  debit
 1  Cash  debit  Petty cash
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatTransaction(t *testing.T) {
	txn := ledger.NewTransaction(7, date("2024-01-01T12:00:00Z"),
		ledger.Entry{AccountID: 1, Value: 1000},
		ledger.Entry{AccountID: 99, Value: -25},
	)

	var buf bytes.Buffer
	err := New().FormatTransaction(&buf, txn, map[int64]string{1: "Cash"})
	assert.NoError(t, err)

	expected := `Transaction 7  2024-01-01T12:00:00Z
  Cash  10.00
  99    -0.25
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatBalance(t *testing.T) {
	f := New()

	var buf bytes.Buffer
	assert.NoError(t, f.FormatBalance(&buf, cash, 150000, time.Time{}))
	assert.Equal(t, "Cash (debit) current: 1500.00\n", buf.String())

	buf.Reset()
	assert.NoError(t, f.FormatBalance(&buf, cash, 100000, date("2024-01-15T00:00:00Z")))
	assert.Equal(t, "Cash (debit) as of 2024-01-15T00:00:00Z: 1000.00\n", buf.String())
}

func TestFormatAccount(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, New().FormatAccount(&buf, cash))
	assert.Equal(t, "Account(id=1, name='Cash', type='debit', description='Petty cash')\n", buf.String())
}
