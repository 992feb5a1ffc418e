package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/shlex"

	"github.com/robinvdvleuten/bookkeeper/formatter"
	"github.com/robinvdvleuten/bookkeeper/ledger"
)

const (
	shellPrompt = "(ledger)> "
	shellIntro  = "Welcome to the ledger shell. Type help or ? to list commands."
)

// ShellCmd runs the interactive shell against the configured store.
type ShellCmd struct{}

func (cmd *ShellCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := globals.startTelemetry(context.Background(), ctx.Stderr, "shell")
	defer reportTelemetry()

	s, err := globals.openStoreSession(runCtx, ctx.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sh, err := NewShell(s.ledger, s.formatter, os.Stdin, ctx.Stdout)
	if err != nil {
		return err
	}
	sh.Interactive = isTerminal()

	return sh.Run(runCtx)
}

// Shell reads one command per line and runs it against a ledger. Each line
// is split like a POSIX shell would and then parsed with its own kong
// grammar, so quoting works for names and descriptions with spaces.
type Shell struct {
	// Interactive enables the intro banner and the prompt.
	Interactive bool

	ledger    *ledger.Ledger
	formatter *formatter.Formatter
	in        io.Reader
	out       io.Writer
	now       func() time.Time

	parser    *kong.Kong
	grammar   shellGrammar
	helpShown bool
	done      bool

	// ctx is the context of the line being executed.
	ctx context.Context
}

// NewShell creates a shell over l reading commands from in.
func NewShell(l *ledger.Ledger, f *formatter.Formatter, in io.Reader, out io.Writer) (*Shell, error) {
	sh := &Shell{
		ledger:    l,
		formatter: f,
		in:        in,
		out:       out,
		now:       time.Now,
	}

	parser, err := kong.New(&sh.grammar,
		kong.Name("ledger"),
		kong.Description("Double-entry ledger shell."),
		kong.Writers(out, out),
		kong.Exit(func(int) { sh.helpShown = true }),
	)
	if err != nil {
		return nil, err
	}
	sh.parser = parser

	return sh, nil
}

// Run reads and executes lines until exit, end of input or cancellation.
func (sh *Shell) Run(ctx context.Context) error {
	if sh.Interactive {
		_, _ = fmt.Fprintln(sh.out, shellIntro)
	}

	scanner := bufio.NewScanner(sh.in)
	for !sh.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sh.Interactive {
			_, _ = fmt.Fprint(sh.out, shellPrompt)
		}
		if !scanner.Scan() {
			if sh.Interactive {
				_, _ = fmt.Fprintln(sh.out)
			}
			return scanner.Err()
		}
		sh.Execute(ctx, scanner.Text())
	}
	return nil
}

// Execute runs a single line. It returns false once the shell should stop.
func (sh *Shell) Execute(ctx context.Context, line string) bool {
	args, err := shlex.Split(line)
	if err != nil {
		sh.invalid(err)
		return !sh.done
	}
	if len(args) == 0 {
		return !sh.done
	}
	if args[0] == "?" {
		args[0] = "help"
	}

	if !sh.isCommand(args[0]) {
		_, _ = fmt.Fprintf(sh.out, "Unknown command: %s\n", args[0])
		return !sh.done
	}

	sh.helpShown = false
	kctx, err := sh.parser.Parse(args)
	if sh.helpShown {
		return !sh.done
	}
	if err != nil {
		sh.invalid(err)
		return !sh.done
	}

	sh.ctx = ctx
	defer func() { sh.ctx = nil }()

	if err := kctx.Run(sh); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			_, _ = fmt.Fprintln(sh.out, usage.msg)
		} else {
			sh.invalid(err)
		}
	}
	return !sh.done
}

func (sh *Shell) invalid(err error) {
	_, _ = fmt.Fprintf(sh.out, "Invalid Input: %s\n", err)
}

func (sh *Shell) isCommand(name string) bool {
	for _, node := range sh.parser.Model.Children {
		if node.Name == name {
			return true
		}
	}
	return false
}

// usageError is printed as is, without the "Invalid Input" prefix.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// timestamp returns the --timestamp value, or ok=false when it is empty.
func (sh *Shell) timestamp(s string) (t time.Time, ok bool, err error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = parseTimestamp(s)
	if err != nil {
		return time.Time{}, false, usagef("Invalid timestamp: %s", s)
	}
	return t, true, nil
}

// reportTime defaults an omitted --timestamp to now.
func (sh *Shell) reportTime(s string) (time.Time, error) {
	t, ok, err := sh.timestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		t = sh.now()
	}
	return t, nil
}

func (sh *Shell) names() (map[int64]string, error) {
	accounts, err := sh.ledger.ListAccounts(sh.ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(accounts))
	for _, acc := range accounts {
		names[acc.ID] = acc.Name
	}
	return names, nil
}

type shellGrammar struct {
	AddAccount        addAccountCmd        `cmd:"" name:"add_account" help:"Add an account: add_account <id> <name> <debit|credit> [description...]"`
	GetAccount        getAccountCmd        `cmd:"" name:"get_account" help:"Show an account: get_account <id>"`
	ListAccounts      listAccountsCmd      `cmd:"" name:"list_accounts" help:"List all accounts."`
	AddTransaction    addTransactionCmd    `cmd:"" name:"add_transaction" help:"Record a transaction: add_transaction <id> <account:value>... [--timestamp ISO]"`
	GetTransaction    getTransactionCmd    `cmd:"" name:"get_transaction" help:"Show a transaction: get_transaction <id>"`
	ListTransactions  listTransactionsCmd  `cmd:"" name:"list_transactions" help:"List all transactions."`
	GetAccountBalance getAccountBalanceCmd `cmd:"" name:"get_account_balance" help:"Show a balance: get_account_balance <id> [--timestamp ISO]"`
	TrialBalance      trialBalanceCmd      `cmd:"" name:"trial_balance" help:"Show the trial balance: trial_balance [--timestamp ISO]"`
	TransactionReport transactionReportCmd `cmd:"" name:"transaction_report" help:"Show the transaction report: transaction_report [--timestamp ISO]"`
	Help              helpCmd              `cmd:"" name:"help" help:"List commands, or describe one: help [command]"`
	Exit              exitCmd              `cmd:"" name:"exit" help:"Leave the shell."`
}

type addAccountCmd struct {
	ID          int64    `arg:"" help:"Account id."`
	Name        string   `arg:"" help:"Unique account name."`
	Type        string   `arg:"" help:"debit or credit."`
	Description []string `arg:"" optional:"" sep:"none" help:"Free text description."`
}

func (cmd *addAccountCmd) Run(sh *Shell) error {
	typ, err := ledger.ParseAccountType(cmd.Type)
	if err != nil {
		return err
	}

	acc := ledger.Account{
		ID:          cmd.ID,
		Name:        cmd.Name,
		Type:        typ,
		Description: strings.Join(cmd.Description, " "),
	}
	if err := sh.ledger.AddAccount(sh.ctx, acc); err != nil {
		return err
	}

	statusOK.printf(sh.out, "Account %d added.", acc.ID)
	return nil
}

type getAccountCmd struct {
	ID int64 `arg:"" help:"Account id."`
}

func (cmd *getAccountCmd) Run(sh *Shell) error {
	acc, err := sh.ledger.GetAccount(sh.ctx, cmd.ID)
	if err != nil {
		return err
	}
	if acc == nil {
		return usagef("Account with id %d does not exist.", cmd.ID)
	}
	return sh.formatter.FormatAccount(sh.out, *acc)
}

type listAccountsCmd struct{}

func (cmd *listAccountsCmd) Run(sh *Shell) error {
	accounts, err := sh.ledger.ListAccounts(sh.ctx)
	if err != nil {
		return err
	}
	return sh.formatter.FormatAccounts(sh.out, accounts)
}

type addTransactionCmd struct {
	ID        int64    `arg:"" help:"Transaction id."`
	Entries   []string `arg:"" sep:"none" help:"Entries as account:value, account being an id or a name."`
	Timestamp string   `help:"ISO 8601 timestamp, defaults to now."`
}

func (cmd *addTransactionCmd) Run(sh *Shell) error {
	ts, ok, err := sh.timestamp(cmd.Timestamp)
	if err != nil {
		return err
	}
	if !ok {
		ts = sh.now()
	}

	entries := make([]ledger.Entry, 0, len(cmd.Entries))
	for _, raw := range cmd.Entries {
		entry, err := sh.parseEntry(raw)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	delta, err := sh.ledger.AddTransaction(sh.ctx, ledger.NewTransaction(cmd.ID, ts, entries...))
	if err != nil {
		return err
	}

	statusOK.printf(sh.out, "Transaction %d recorded.", cmd.ID)
	if delta.Backdated {
		statusWarning.printf(sh.out, "Transaction %d is dated before already recorded activity; current balances include it.", cmd.ID)
	}
	return nil
}

// parseEntry splits raw on its last colon so account names may contain
// colons themselves.
func (sh *Shell) parseEntry(raw string) (ledger.Entry, error) {
	i := strings.LastIndex(raw, ":")
	if i <= 0 || i == len(raw)-1 {
		return ledger.Entry{}, usagef("Invalid entry format: %s", raw)
	}

	value, err := strconv.ParseInt(raw[i+1:], 10, 64)
	if err != nil {
		return ledger.Entry{}, usagef("Invalid entry format: %s", raw)
	}

	ref := raw[:i]
	if id, err := parseInt64(ref); err == nil {
		return ledger.Entry{AccountID: id, Value: value}, nil
	}

	acc, err := sh.ledger.GetAccountByName(sh.ctx, ref)
	if err != nil {
		return ledger.Entry{}, err
	}
	if acc == nil {
		return ledger.Entry{}, fmt.Errorf("Account with name '%s' does not exist.", ref)
	}
	return ledger.Entry{AccountID: acc.ID, Value: value}, nil
}

type getTransactionCmd struct {
	ID int64 `arg:"" help:"Transaction id."`
}

func (cmd *getTransactionCmd) Run(sh *Shell) error {
	txn, err := sh.ledger.GetTransaction(sh.ctx, cmd.ID)
	if err != nil {
		return err
	}
	if txn == nil {
		return usagef("Transaction with id %d does not exist.", cmd.ID)
	}

	names, err := sh.names()
	if err != nil {
		return err
	}
	return sh.formatter.FormatTransaction(sh.out, *txn, names)
}

type listTransactionsCmd struct{}

func (cmd *listTransactionsCmd) Run(sh *Shell) error {
	txns, err := sh.ledger.ListTransactions(sh.ctx)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		_, err := fmt.Fprintln(sh.out, "No transactions.")
		return err
	}

	names, err := sh.names()
	if err != nil {
		return err
	}
	for _, txn := range txns {
		if err := sh.formatter.FormatTransaction(sh.out, txn, names); err != nil {
			return err
		}
	}
	return nil
}

type getAccountBalanceCmd struct {
	ID        int64  `arg:"" help:"Account id."`
	Timestamp string `help:"Replay history up to this ISO 8601 timestamp instead of reading the current balance."`
}

func (cmd *getAccountBalanceCmd) Run(sh *Shell) error {
	at, historic, err := sh.timestamp(cmd.Timestamp)
	if err != nil {
		return err
	}

	var (
		acc     ledger.Account
		balance int64
	)
	if historic {
		acc, balance, err = sh.ledger.GetHistoricBalance(sh.ctx, cmd.ID, at)
	} else {
		acc, balance, err = sh.ledger.GetAccountBalance(sh.ctx, cmd.ID)
	}
	var notFound *ledger.AccountNotFoundError
	if errors.As(err, &notFound) {
		return usagef("%s", notFound.Error())
	}
	if err != nil {
		return err
	}

	return sh.formatter.FormatBalance(sh.out, acc, balance, at)
}

type trialBalanceCmd struct {
	Timestamp string `help:"ISO 8601 timestamp, defaults to now."`
}

func (cmd *trialBalanceCmd) Run(sh *Shell) error {
	at, err := sh.reportTime(cmd.Timestamp)
	if err != nil {
		return err
	}
	report, err := sh.ledger.GetTrialBalanceReport(sh.ctx, at)
	if err != nil {
		return err
	}
	return sh.formatter.FormatTrialBalance(sh.out, report)
}

type transactionReportCmd struct {
	Timestamp string `help:"ISO 8601 timestamp, defaults to now."`
}

func (cmd *transactionReportCmd) Run(sh *Shell) error {
	at, err := sh.reportTime(cmd.Timestamp)
	if err != nil {
		return err
	}
	report, err := sh.ledger.GetTransactionReport(sh.ctx, at)
	if err != nil {
		return err
	}
	return sh.formatter.FormatTransactionReport(sh.out, report)
}

type helpCmd struct {
	Command string `arg:"" optional:"" help:"Command to describe."`
}

func (cmd *helpCmd) Run(sh *Shell) error {
	if cmd.Command != "" {
		if !sh.isCommand(cmd.Command) {
			return usagef("No help on %s", cmd.Command)
		}
		// Prints the command's usage through the Exit hook.
		_, _ = sh.parser.Parse([]string{cmd.Command, "--help"})
		return nil
	}

	_, _ = fmt.Fprintln(sh.out, "Documented commands:")
	for _, node := range sh.parser.Model.Children {
		_, _ = fmt.Fprintf(sh.out, "  %-20s %s\n", node.Name, node.Help)
	}
	return nil
}

type exitCmd struct{}

func (cmd *exitCmd) Run(sh *Shell) error {
	_, _ = fmt.Fprintln(sh.out, "Exiting...")
	sh.done = true
	return nil
}
