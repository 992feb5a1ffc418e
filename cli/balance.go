package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
)

// BalanceCmd shows the balance of one account, either replayed as of a
// timestamp or the cached current balance.
type BalanceCmd struct {
	Account string      `help:"Account id or name." arg:""`
	File    JournalFile `help:"Journal filename ('-' for stdin). Uses the configured store when omitted." arg:"" optional:""`
	At      string      `help:"Replay history up to this ISO 8601 timestamp instead of reading the current balance."`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	at, err := parseOptionalTimestamp(cmd.At)
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(context.Background(), ctx.Stderr, fmt.Sprintf("balance %s", cmd.Account))
	defer reportTelemetry()

	s, err := globals.openSession(runCtx, ctx, &cmd.File)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	acc, err := s.resolveAccount(runCtx, cmd.Account)
	if err != nil {
		return err
	}

	var balance int64
	if at.IsZero() {
		_, balance, err = s.ledger.GetAccountBalance(runCtx, acc.ID)
	} else {
		_, balance, err = s.ledger.GetHistoricBalance(runCtx, acc.ID, at)
	}
	if err != nil {
		return err
	}

	return s.formatter.FormatBalance(ctx.Stdout, *acc, balance, at)
}
