package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/bookkeeper/config"
)

// DoctorCmd provides doctor utilities for debugging journals and configuration.
type DoctorCmd struct {
	Dump   DumpCmd   `cmd:"" help:"Dump the loaded journal as Go values."`
	Config ConfigCmd `cmd:"" help:"Show the effective configuration."`
}

// DumpCmd dumps the journal a file loads to, with includes resolved.
type DumpCmd struct {
	File JournalFile `help:"Journal filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.orStdin(); err != nil {
		return err
	}

	journal, err := cmd.File.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}

	repr.New(ctx.Stdout, repr.Indent("  ")).Println(journal)
	return nil
}

// ConfigCmd prints the configuration after .env and flag overrides.
type ConfigCmd struct{}

func (cmd *ConfigCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	if cfg.Store.Kind == config.StorePostgres && cfg.Store.DSN != "" {
		cfg.Store.DSN = "<redacted>"
	}

	repr.New(ctx.Stdout, repr.Indent("  ")).Println(cfg)
	return nil
}
