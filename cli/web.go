package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/bookkeeper/web"
)

type WebCmd struct {
	File     string `help:"Journal file to serve. Serves the configured store when omitted." arg:"" optional:""`
	Port     int    `help:"Port to listen on." default:"8080"`
	Create   bool   `help:"Automatically create file if it doesn't exist (no confirmation prompt)." short:"c"`
	ReadOnly bool   `help:"Enable read-only mode (no write operations allowed)." short:"r"`
	Watch    bool   `help:"Reload the journal when it or one of its includes changes." short:"w"`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, reportTelemetry := globals.startTelemetry(runCtx, ctx.Stderr, "web")
	defer reportTelemetry()

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	var server *web.Server

	if cmd.File == "" {
		s, err := globals.openStoreSession(runCtx, ctx.Stdout)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		server = web.NewWithLedger(cmd.Port, s.ledger)
		server.Version = version
		server.CommitSHA = commitSHA
		server.MinorUnits = s.config.MinorUnits

		statusInfo.printf(ctx.Stdout, "Serving %s store", s.config.Store.Kind)
	} else {
		cfg, err := globals.loadConfig()
		if err != nil {
			return err
		}

		journalFile, err := cmd.ensureJournal(ctx)
		if err != nil {
			return err
		}

		server = web.NewWithVersion(cmd.Port, journalFile, version, commitSHA)
		server.WatchEnabled = cmd.Watch
		server.MinorUnits = cfg.MinorUnits

		statusInfo.printf(ctx.Stdout, "Serving journal: %s", pathStyle.Render(journalFile))
	}

	server.ReadOnly = cmd.ReadOnly

	statusInfo.printf(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	if cmd.ReadOnly {
		statusInfo.printf(ctx.Stdout, "Server running in READ-ONLY mode")
	}

	return server.Start(runCtx)
}

// ensureJournal resolves the journal path and creates an empty journal when
// it does not exist and the user agrees.
func (cmd *WebCmd) ensureJournal(ctx *kong.Context) (string, error) {
	journalFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(journalFile); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to access file: %w", err)
		}

		shouldCreate := cmd.Create
		if !shouldCreate {
			confirmed, err := confirm(fmt.Sprintf("File %q does not exist. Create it?", journalFile))
			if err != nil {
				return "", fmt.Errorf("failed to read confirmation: %w", err)
			}
			shouldCreate = confirmed
		}

		if !shouldCreate {
			return "", fmt.Errorf("file does not exist: %s", journalFile)
		}

		if err := os.MkdirAll(filepath.Dir(journalFile), 0755); err != nil {
			return "", fmt.Errorf("failed to create parent directory: %w", err)
		}

		if err := os.WriteFile(journalFile, []byte("accounts: []\ntransactions: []\n"), 0600); err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}

		statusInfo.printf(ctx.Stdout, "Created empty journal file: %s", pathStyle.Render(journalFile))
	}

	return journalFile, nil
}
