// Package web provides an HTTP API for a bookkeeping ledger.
//
// The server either serves a journal file, rebuilding an in-memory ledger
// whenever the file or one of its includes changes, or an existing ledger
// backed by a persistent store. Reads run concurrently, writes are
// serialised behind a single lock so validation and the store write that
// follows it are never interleaved.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
// File access is restricted to the directory of the journal file.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/loader"
	"github.com/robinvdvleuten/bookkeeper/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	ReadOnly     bool
	WatchEnabled bool

	// MinorUnits is the number of decimal places of the amounts in responses.
	MinorUnits int32

	mu           sync.RWMutex
	ledger       *ledger.Ledger
	loadErrors   []error  // accounts and transactions rejected by the last journal load
	rootFile     string   // Absolute path of the root journal file
	includeFiles []string // Absolute paths of included files

	// inputFile is the journal passed to New, used only for loading.
	// After loading, rootFile contains the resolved absolute path.
	inputFile string

	now func() time.Time

	events  *eventHub
	watcher *journalWatcher
}

// New creates a server for a journal file.
func New(port int, journalFile string) *Server {
	return NewWithVersion(port, journalFile, "", "")
}

func NewWithVersion(port int, journalFile, version, commitSHA string) *Server {
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Version:    version,
		CommitSHA:  commitSHA,
		MinorUnits: 2,
		inputFile:  journalFile,
		now:        time.Now,
		events:     newEventHub(),
	}
}

// NewWithLedger creates a server for an existing ledger. The journal source
// endpoints are unavailable and writes go straight to the ledger's store.
func NewWithLedger(port int, l *ledger.Ledger) *Server {
	s := NewWithVersion(port, "", "", "")
	s.ledger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))

	if s.inputFile == "" && s.ledger == nil {
		timer.End()
		return errors.New("journal file or ledger is required")
	}

	if s.inputFile != "" {
		loadTimer := timer.Child(fmt.Sprintf("web.load_journal %s", filepath.Base(s.inputFile)))
		if err := s.reloadLedger(ctx); err != nil {
			loadTimer.End()
			timer.End()
			return fmt.Errorf("failed to load journal: %w", err)
		}
		loadTimer.End()

		if s.WatchEnabled {
			if err := s.startWatcher(ctx); err != nil {
				timer.End()
				return fmt.Errorf("failed to start file watcher: %w", err)
			}
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux, err := s.setupRouter()
	setupTimer.End()
	timer.End()

	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", srv.Addr).Info("web server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", s.handleGetVersion)
	mux.HandleFunc("GET /api/source", s.handleGetSource)
	mux.HandleFunc("PUT /api/source", s.requireWritable(s.handlePutSource))
	mux.HandleFunc("GET /api/errors", s.handleGetErrors)

	mux.HandleFunc("GET /api/accounts", s.handleGetAccounts)
	mux.HandleFunc("POST /api/accounts", s.requireWritable(s.handlePostAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.handleGetAccountBalance)

	mux.HandleFunc("GET /api/transactions", s.handleGetTransactions)
	mux.HandleFunc("POST /api/transactions", s.requireWritable(s.handlePostTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)

	mux.HandleFunc("GET /api/reports/trial-balance", s.handleGetTrialBalance)
	mux.HandleFunc("GET /api/reports/transactions", s.handleGetTransactionReport)

	mux.HandleFunc("GET /api/events", s.handleEvents)

	return mux, nil
}

// requireWritable is middleware that rejects write requests in read-only mode.
func (s *Server) requireWritable(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ReadOnly {
			http.Error(w, "Server is in read-only mode", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// reloadLedger loads the journal and rebuilds the ledger from it. Rejected
// accounts and transactions do not fail the reload; they are kept for
// /api/errors and /api/source.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reloadLedger(ctx context.Context) error {
	ldr := loader.New(loader.WithFollowIncludes())

	result, err := ldr.Load(ctx, s.inputFile)
	if err != nil {
		return err // I/O or parse error
	}

	l, err := ledger.New(ctx, ledger.NewMemoryStore(), ledger.WithClock(s.now))
	if err != nil {
		return err
	}

	var loadErrors []error
	if err := l.Process(ctx, result.Journal); err != nil {
		var verrs *ledger.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		loadErrors = verrs.Errors
	}

	s.mu.Lock()
	s.ledger = l
	s.loadErrors = loadErrors
	s.rootFile = result.Root
	s.includeFiles = result.Includes
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"journal":  result.Root,
		"includes": len(result.Includes),
		"rejected": len(loadErrors),
	}).Info("journal loaded")

	return nil
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	version := s.Version
	if version == "" {
		version = "dev"
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"version": version,
		"commit":  s.CommitSHA,
	})
}
