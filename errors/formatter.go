// Package errors renders ledger errors for different consumers. Domain
// error types live in the ledger package; this package only presents them.
//
// Two implementations of Formatter are provided:
//   - TextFormatter: command-line output, optionally showing the rejected
//     transaction from the journal being checked
//   - JSONFormatter: structured output for the web API
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/bookkeeper/formatter"
	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// Flatten expands *ledger.ValidationErrors into its collected errors. Any
// other error is returned as a single-element slice.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var verrs *ledger.ValidationErrors
	if stderrors.As(err, &verrs) {
		return verrs.Errors
	}
	return []error{err}
}

// Code returns the stable code of a ledger error, or "internal" for errors
// that do not carry one.
func Code(err error) string {
	var coded interface{ Code() string }
	if stderrors.As(err, &coded) {
		return coded.Code()
	}
	return "internal"
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	formatter *formatter.Formatter
	filename  string
	journal   *ledger.Journal
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithFilename prefixes every message with the journal file name.
func WithFilename(name string) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.filename = name
	}
}

// WithJournal lets the formatter print the rejected transaction below
// errors that refer to one.
func WithJournal(journal *ledger.Journal) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.journal = journal
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(f *formatter.Formatter, opts ...TextFormatterOption) *TextFormatter {
	if f == nil {
		f = formatter.New()
	}
	tf := &TextFormatter{formatter: f}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	message := err.Error()
	if tf.filename != "" {
		message = tf.filename + ": " + message
	}

	if e, ok := err.(interface{ GetTransactionID() (int64, bool) }); ok {
		if id, ok := e.GetTransactionID(); ok {
			if txn := tf.findTransaction(id); txn != nil {
				return tf.formatWithContext(message, *txn)
			}
		}
	}

	return message
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(strings.TrimRight(tf.Format(err), "\n"))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (tf *TextFormatter) findTransaction(id int64) *ledger.Transaction {
	if tf.journal == nil {
		return nil
	}
	for i := range tf.journal.Transactions {
		if tf.journal.Transactions[i].ID == id {
			return &tf.journal.Transactions[i]
		}
	}
	return nil
}

// formatWithContext writes the message followed by the transaction,
// indented by three spaces.
func (tf *TextFormatter) formatWithContext(message string, txn ledger.Transaction) string {
	names := make(map[int64]string, len(tf.journal.Accounts))
	for _, acc := range tf.journal.Accounts {
		names[acc.ID] = acc.Name
	}

	var txnBuf bytes.Buffer
	if err := tf.formatter.FormatTransaction(&txnBuf, txn, names); err != nil {
		return message
	}

	var buf bytes.Buffer
	buf.WriteString(message)
	buf.WriteString("\n\n")
	for _, line := range bytes.Split(txnBuf.Bytes(), []byte("\n")) {
		if len(line) > 0 {
			buf.WriteString("   ")
			buf.Write(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Code    string         `json:"code"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.ToJSON(err))
	}
	return result
}

// ToJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Code:    Code(err),
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]any),
	}

	if e, ok := err.(interface{ GetTransactionID() (int64, bool) }); ok {
		if id, ok := e.GetTransactionID(); ok {
			errJSON.Details["transaction_id"] = id
		}
	}
	if e, ok := err.(interface{ GetAccountID() int64 }); ok {
		errJSON.Details["account_id"] = e.GetAccountID()
	}

	switch e := err.(type) {
	case *ledger.DuplicateIDError:
		errJSON.Details["entity"] = e.Entity
		errJSON.Details["id"] = e.ID
	case *ledger.DuplicateNameError:
		errJSON.Details["name"] = e.Name
	case *ledger.TransactionNotFoundError:
		errJSON.Details["transaction_id"] = e.TransactionID
	case *ledger.TransactionTooFewEntriesError:
		errJSON.Details["count"] = e.Count
		errJSON.Details["minimum"] = ledger.MinEntries
	case *ledger.TransactionUnbalancedError:
		errJSON.Details["debit_total"] = e.DebitTotal
		errJSON.Details["credit_total"] = e.CreditTotal
	case *ledger.TransactionUnknownAccountTypeError:
		errJSON.Details["type"] = int(e.Type)
	case *ledger.InvalidAccountTypeError:
		errJSON.Details["account_id"] = e.AccountID
		errJSON.Details["type"] = int(e.Type)
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}
	return errJSON
}
