// Package formatter renders accounts, transactions and reports as aligned
// plain-text tables.
package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/output"
)

const (
	// DefaultMinorUnits is the number of decimal places of one major currency unit.
	DefaultMinorUnits = 2

	// DefaultIndentation is the indentation of report rows under a heading.
	DefaultIndentation = 2

	// ColumnSpacing is the number of spaces between table columns.
	ColumnSpacing = 2

	// TimestampLayout is used for every timestamp the formatter prints.
	TimestampLayout = time.RFC3339
)

// Formatter renders ledger values. Amounts are stored in minor units and
// shown in major units with MinorUnits decimal places.
type Formatter struct {
	// MinorUnits is the number of decimal places amounts are shown with.
	// Zero shows raw minor-unit integers.
	MinorUnits int32

	styles *output.Styles
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithMinorUnits sets the number of decimal places amounts are shown with.
func WithMinorUnits(places int32) Option {
	return func(f *Formatter) {
		f.MinorUnits = places
	}
}

// WithStyles enables terminal styling.
func WithStyles(styles *output.Styles) Option {
	return func(f *Formatter) {
		f.styles = styles
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		MinorUnits: DefaultMinorUnits,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FormatAmount renders a minor-unit value in major units, e.g. 150050 with
// two minor units becomes "1500.50".
func (f *Formatter) FormatAmount(value int64) string {
	return decimal.New(value, -f.MinorUnits).StringFixed(f.MinorUnits)
}

// ParseAmount converts a major-unit string such as "15.5" into minor units.
// It fails when the string has more decimal places than MinorUnits.
func (f *Formatter) ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	shifted := d.Shift(f.MinorUnits)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, f.MinorUnits)
	}
	return shifted.IntPart(), nil
}

// FormatAccount writes the single-line representation of an account.
func (f *Formatter) FormatAccount(w io.Writer, account ledger.Account) error {
	_, err := fmt.Fprintf(w, "%s\n", account)
	return err
}

// FormatAccounts writes accounts as a table in the given order.
func (f *Formatter) FormatAccounts(w io.Writer, accounts []ledger.Account) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, f.dim("No accounts."))
		return err
	}

	t := newTable("ID", "Name", "Type", "Description")
	t.align(0, alignRight)
	for _, acc := range accounts {
		t.row(
			cell{text: fmt.Sprintf("%d", acc.ID)},
			cell{text: acc.Name, style: f.account},
			cell{text: acc.Type.String(), style: f.accountType},
			cell{text: acc.Description},
		)
	}

	return t.write(w, "", f.keyword)
}

// FormatTransaction writes a transaction with one line per entry. names maps
// account ids to display names; ids missing from it are shown as numbers.
func (f *Formatter) FormatTransaction(w io.Writer, txn ledger.Transaction, names map[int64]string) error {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %d  %s\n", f.keyword("Transaction"), txn.ID, txn.Timestamp.Format(TimestampLayout))

	t := newTable("", "")
	t.align(1, alignRight)
	for _, e := range txn.Entries {
		name, ok := names[e.AccountID]
		if !ok {
			name = fmt.Sprintf("%d", e.AccountID)
		}
		t.row(cell{text: name, style: f.account}, f.amountCell(e.Value))
	}
	t.noHeader = true
	if err := t.write(&buf, strings.Repeat(" ", DefaultIndentation), nil); err != nil {
		return err
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// FormatBalance writes the balance of one account. A zero at prints the
// cached current balance label.
func (f *Formatter) FormatBalance(w io.Writer, account ledger.Account, balance int64, at time.Time) error {
	when := "current"
	if !at.IsZero() {
		when = "as of " + at.Format(TimestampLayout)
	}
	_, err := fmt.Fprintf(w, "%s (%s) %s: %s\n",
		f.account(account.Name), f.accountType(account.Type.String()), when,
		f.amount(f.FormatAmount(balance), balance < 0))
	return err
}

// FormatTrialBalance writes debit accounts and credit accounts, each group
// followed by its total.
func (f *Formatter) FormatTrialBalance(w io.Writer, report *ledger.TrialBalanceReport) error {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s as of %s\n", f.keyword("Trial Balance"), report.Timestamp.Format(TimestampLayout))

	// One table keeps both groups aligned on the same columns.
	t := newTable("", "")
	t.noHeader = true
	t.align(1, alignRight)

	groups := []struct {
		title   string
		entries []ledger.ReportEntry
		total   int64
	}{
		{"Debit accounts", report.Debits, report.DebitsTotal},
		{"Credit accounts", report.Credits, report.CreditsTotal},
	}
	balanced := report.Balanced()
	for _, g := range groups {
		t.section(g.title)
		for _, entry := range g.entries {
			t.row(cell{text: entry.Account.Name, style: f.account}, f.amountCell(entry.Balance))
		}
		t.row(
			cell{text: "Total", style: f.keyword},
			cell{text: f.FormatAmount(g.total), style: func(s string) string { return f.total(s, balanced) }},
		)
	}

	if err := t.write(&buf, strings.Repeat(" ", DefaultIndentation), f.keyword); err != nil {
		return err
	}

	if !balanced {
		fmt.Fprintf(&buf, "%s debits and credits differ by %s\n",
			f.warning("Warning:"), f.FormatAmount(report.DebitsTotal-report.CreditsTotal))
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// FormatTransactionReport writes one row per transaction and one column per
// account, in report order.
func (f *Formatter) FormatTransactionReport(w io.Writer, report *ledger.TransactionReport) error {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s as of %s\n", f.keyword("Transaction Report"), report.Timestamp.Format(TimestampLayout))

	if len(report.Transactions) == 0 {
		fmt.Fprintln(&buf, f.dim("No transactions."))
		_, err := io.WriteString(w, buf.String())
		return err
	}

	headers := []string{"ID", "Timestamp"}
	for _, acc := range report.Accounts {
		headers = append(headers, acc.Name)
	}
	t := newTable(headers...)
	t.align(0, alignRight)
	for i := range report.Accounts {
		t.align(i+2, alignRight)
	}

	for _, r := range report.Transactions {
		cells := []cell{
			{text: fmt.Sprintf("%d", r.Transaction.ID)},
			{text: r.Transaction.Timestamp.Format(TimestampLayout), style: f.dim},
		}
		for _, v := range r.Values {
			if v == 0 {
				cells = append(cells, cell{text: "-", style: f.dim})
				continue
			}
			cells = append(cells, f.amountCell(v))
		}
		t.row(cells...)
	}

	if err := t.write(&buf, "", f.keyword); err != nil {
		return err
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func (f *Formatter) amountCell(value int64) cell {
	return cell{
		text:  f.FormatAmount(value),
		style: func(s string) string { return f.amount(s, value < 0) },
	}
}

func (f *Formatter) account(s string) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Account(s)
}

func (f *Formatter) accountType(s string) string {
	if f.styles == nil {
		return s
	}
	return f.styles.AccountType(s)
}

func (f *Formatter) amount(s string, negative bool) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Amount(s, negative)
}

func (f *Formatter) total(s string, balanced bool) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Total(s, balanced)
}

func (f *Formatter) keyword(s string) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Keyword(s)
}

func (f *Formatter) warning(s string) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Warning(s)
}

func (f *Formatter) dim(s string) string {
	if f.styles == nil {
		return s
	}
	return f.styles.Dim(s)
}

// displayWidth returns the number of terminal cells s occupies.
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}
