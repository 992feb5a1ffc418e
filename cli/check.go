package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/bookkeeper/errors"
)

type CheckCmd struct {
	File   JournalFile `help:"Journal filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format string      `help:"Output format for errors." enum:"text,json" default:"text"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.orStdin(); err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(context.Background(), ctx.Stderr,
		fmt.Sprintf("check %s", filepath.Base(cmd.File.Path)))
	defer reportTelemetry()

	s, journal, err := globals.openJournalSession(runCtx, &cmd.File, ctx.Stdout)
	if err != nil {
		if cmd.Format == "json" {
			_, _ = fmt.Fprintln(ctx.Stdout, errors.NewJSONFormatter().FormatAll([]error{err}))
		} else {
			_, _ = fmt.Fprintln(ctx.Stderr, err)
			_, _ = fmt.Fprintln(ctx.Stderr)
			statusFailed.printf(ctx.Stderr, "failed to load journal")
		}
		return failWith(ExitLoadFailed, "failed to load journal")
	}

	if cmd.Format == "json" {
		data, err := json.MarshalIndent(errors.NewJSONFormatter().FormatAllToSlice(s.rejected), "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(ctx.Stdout, string(data))
		if len(s.rejected) > 0 {
			return failWith(ExitRejected, "%d validation error(s) found", len(s.rejected))
		}
		return nil
	}

	if len(s.rejected) > 0 {
		renderer := errors.NewTextFormatter(s.formatter,
			errors.WithFilename(cmd.File.Path),
			errors.WithJournal(journal),
		)
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.FormatAll(s.rejected))
		_, _ = fmt.Fprintln(ctx.Stderr)
		failure := failWith(ExitRejected, "%d validation error(s) found", len(s.rejected))
		statusFailed.printf(ctx.Stderr, "%s", failure.Reason)
		return failure
	}

	statusOK.printf(ctx.Stdout, "Check passed (%d accounts, %d transactions)",
		len(journal.Accounts), len(journal.Transactions))

	return nil
}
