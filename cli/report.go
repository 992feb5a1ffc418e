package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"
)

// ReportCmd groups the report subcommands.
type ReportCmd struct {
	TrialBalance TrialBalanceCmd      `cmd:"" name:"trial-balance" help:"Balances of every account, debit and credit totals."`
	Transactions TransactionReportCmd `cmd:"" name:"transactions" help:"Every transaction against every account."`
}

// ReportFlags are shared by both reports.
type ReportFlags struct {
	File   JournalFile `help:"Journal filename ('-' for stdin). Uses the configured store when omitted." arg:"" optional:""`
	At     string      `help:"Build the report as of this ISO 8601 timestamp (default now)."`
	Format string      `help:"Output format." enum:"text,json" default:"text"`
}

func (f *ReportFlags) timestamp() (time.Time, error) {
	if f.At == "" {
		return time.Now(), nil
	}
	return parseTimestamp(f.At)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type TrialBalanceCmd struct {
	ReportFlags
}

func (cmd *TrialBalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	at, err := cmd.timestamp()
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(context.Background(), ctx.Stderr, "report trial-balance")
	defer reportTelemetry()

	s, err := globals.openSession(runCtx, ctx, &cmd.File)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	report, err := s.ledger.GetTrialBalanceReport(runCtx, at)
	if err != nil {
		return err
	}

	if cmd.Format == "json" {
		return writeJSON(ctx.Stdout, report)
	}
	return s.formatter.FormatTrialBalance(ctx.Stdout, report)
}

type TransactionReportCmd struct {
	ReportFlags
}

func (cmd *TransactionReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	at, err := cmd.timestamp()
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(context.Background(), ctx.Stderr, "report transactions")
	defer reportTelemetry()

	s, err := globals.openSession(runCtx, ctx, &cmd.File)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	report, err := s.ledger.GetTransactionReport(runCtx, at)
	if err != nil {
		return err
	}

	if cmd.Format == "json" {
		return writeJSON(ctx.Stdout, report)
	}
	return s.formatter.FormatTransactionReport(ctx.Stdout, report)
}
