package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/bookkeeper/config"
	"github.com/robinvdvleuten/bookkeeper/events"
	"github.com/robinvdvleuten/bookkeeper/events/kafka"
	"github.com/robinvdvleuten/bookkeeper/formatter"
	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/output"
	"github.com/robinvdvleuten/bookkeeper/store"
	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

// loadConfig reads the environment configuration, applies flag overrides
// and configures the process logger.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.EnvFile)
	if err != nil {
		return nil, err
	}

	if g.Store != "" {
		cfg.Store.Kind = strings.ToLower(g.Store)
	}
	if g.DSN != "" {
		cfg.Store.DSN = g.DSN
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	return cfg, nil
}

// startTelemetry installs a timing collector when --telemetry is set. The
// returned function prints the timing tree once; it is safe to call more
// than once and does nothing without --telemetry.
func (g *Globals) startTelemetry(ctx context.Context, stderr io.Writer, name string) (context.Context, func()) {
	if !g.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector().WithStyles(output.NewStyles(stderr))
	ctx = telemetry.WithCollector(ctx, collector)

	root := collector.Start(name)
	ctx = telemetry.WithRootTimer(ctx, root)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			root.End()
			_, _ = fmt.Fprintln(stderr)
			collector.Report(stderr)
		})
	}
}

// session is a ledger with the resources backing it.
type session struct {
	config    *config.Config
	ledger    *ledger.Ledger
	formatter *formatter.Formatter

	// rejected holds the journal items that failed validation when the
	// session was loaded from a journal file.
	rejected []error

	closers []func() error
}

func newFormatter(cfg *config.Config, w io.Writer) *formatter.Formatter {
	return formatter.New(
		formatter.WithMinorUnits(cfg.MinorUnits),
		formatter.WithStyles(output.NewStyles(w)),
	)
}

// openStoreSession opens the configured store and a ledger over it. When
// Kafka brokers are configured, every accepted transaction is published.
func (g *Globals) openStoreSession(ctx context.Context, stdout io.Writer) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Kind, err)
	}

	s := &session{
		config:    cfg,
		formatter: newFormatter(cfg, stdout),
		closers:   []func() error{backend.Close},
	}

	var opts []ledger.Option
	if cfg.Kafka.Enabled() {
		// Delivery runs off the write path; closers run in reverse, so the
		// queue drains before the Kafka writer closes.
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		queue := events.NewAsyncPublisher(publisher)
		s.closers = append(s.closers, publisher.Close, queue.Close)
		opts = append(opts, ledger.WithHook(events.NewHook(queue)))
		log.WithField("brokers", cfg.Kafka.Brokers).WithField("topic", cfg.Kafka.Topic).Debug("publishing transaction events")
	}

	l, err := ledger.New(ctx, backend, opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.ledger = l

	return s, nil
}

// openJournalSession loads a journal file into an in-memory ledger. Items
// rejected by the ledger are kept in rejected; only I/O and parse errors
// fail.
func (g *Globals) openJournalSession(ctx context.Context, file *JournalFile, stdout io.Writer) (*session, *ledger.Journal, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	journal, err := file.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	l, err := ledger.New(ctx, ledger.NewMemoryStore())
	if err != nil {
		return nil, nil, err
	}

	s := &session{
		config:    cfg,
		ledger:    l,
		formatter: newFormatter(cfg, stdout),
	}

	if err := l.Process(ctx, journal); err != nil {
		var verrs *ledger.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, nil, err
		}
		s.rejected = verrs.Errors
	}

	return s, journal, nil
}

// openSession uses the journal file when one was given and the configured
// store otherwise.
func (g *Globals) openSession(ctx context.Context, kctx *kong.Context, file *JournalFile) (*session, error) {
	if !file.Given() {
		return g.openStoreSession(ctx, kctx.Stdout)
	}

	s, _, err := g.openJournalSession(ctx, file, kctx.Stdout)
	if err != nil {
		return nil, err
	}
	if len(s.rejected) > 0 {
		statusWarning.printf(kctx.Stderr, "%d journal item(s) rejected, run check for details", len(s.rejected))
	}
	return s, nil
}

// Close releases the session's resources in reverse order of acquisition.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// names maps account ids to account names for display.
func (s *session) names(ctx context.Context) (map[int64]string, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(accounts))
	for _, acc := range accounts {
		names[acc.ID] = acc.Name
	}
	return names, nil
}

// resolveAccount accepts an account id or an account name.
func (s *session) resolveAccount(ctx context.Context, ref string) (*ledger.Account, error) {
	if id, err := parseInt64(ref); err == nil {
		acc, err := s.ledger.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			return nil, ledger.NewAccountNotFoundError(id)
		}
		return acc, nil
	}

	acc, err := s.ledger.GetAccountByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("Account with name '%s' does not exist.", ref)
	}
	return acc, nil
}
