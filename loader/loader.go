// Package loader reads YAML journal files into a ledger.Journal, optionally
// resolving include lists across files.
//
// A journal file looks like this:
//
//	include:
//	  - accounts.yaml
//	accounts:
//	  - {id: 1, name: Cash, type: debit, description: Petty cash}
//	  - {id: 2, name: Revenue, type: credit}
//	transactions:
//	  - id: 1
//	    timestamp: 2024-01-01T00:00:00Z
//	    entries:
//	      - {account: 1, value: 1000}
//	      - {account: 2, value: 1000}
//
// Unknown keys are rejected so typos do not silently drop data.
//
// Example usage:
//
//	// Load a single file without following includes
//	ldr := loader.New()
//	result, err := ldr.Load(ctx, "journal.yaml")
//
//	// Load with recursive include resolution
//	ldr := loader.New(loader.WithFollowIncludes())
//	result, err := ldr.Load(ctx, "journal.yaml")
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// StdinFilename is the name used for journals read from standard input.
const StdinFilename = "<stdin>"

// Loader handles loading of journal files with optional include resolution.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithFollowIncludes())
type Loader struct {
	// FollowIncludes determines whether included files are loaded and merged.
	// When false, include lists are ignored.
	FollowIncludes bool
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes makes the loader resolve include lists recursively.
// Paths are relative to the including file, every file is loaded at most
// once and the contents of included files come before the contents of the
// file that includes them.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is a loaded journal and the files it was read from.
type Result struct {
	Journal *ledger.Journal

	// Root is the absolute path of the file passed to Load.
	Root string

	// Includes holds the absolute paths of every included file in load
	// order. It is empty unless FollowIncludes is set.
	Includes []string
}

// Files returns Root followed by Includes.
func (r *Result) Files() []string {
	return append([]string{r.Root}, r.Includes...)
}

// ParseError is returned when a journal file is not valid YAML or does not
// match the journal schema.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Code() string { return "parse_error" }

// journalFile is the on-disk shape of a journal.
type journalFile struct {
	Include      []string             `yaml:"include"`
	Accounts     []ledger.Account     `yaml:"accounts"`
	Transactions []ledger.Transaction `yaml:"transactions"`
}

// Load reads a journal file.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	if !l.FollowIncludes {
		file, err := readFile(filename)
		if err != nil {
			return nil, err
		}
		return &Result{Journal: file.journal(), Root: absPath}, nil
	}

	state := &loaderState{
		visited: make(map[string]bool),
	}
	journal, err := state.loadRecursive(ctx, absPath)
	if err != nil {
		return nil, err
	}

	return &Result{Journal: journal, Root: absPath, Includes: state.includes}, nil
}

// LoadBytes parses journal data that did not come from Load. Include lists
// cannot be resolved without a file location, so they are an error when
// FollowIncludes is set.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ledger.Journal, error) {
	file, err := parse(filename, data)
	if err != nil {
		return nil, err
	}

	if l.FollowIncludes && len(file.Include) > 0 {
		if filename == StdinFilename {
			return nil, fmt.Errorf("include lists are not supported when reading from stdin")
		}
		return nil, fmt.Errorf("include lists found; use Load() instead of LoadBytes() to resolve includes")
	}

	return file.journal(), nil
}

// MustLoad is like Load but panics on error.
func (l *Loader) MustLoad(ctx context.Context, filename string) *Result {
	result, err := l.Load(ctx, filename)
	if err != nil {
		panic(err)
	}
	return result
}

// MustLoadBytes is like LoadBytes but panics on error.
func (l *Loader) MustLoadBytes(ctx context.Context, filename string, data []byte) *ledger.Journal {
	journal, err := l.LoadBytes(ctx, filename, data)
	if err != nil {
		panic(err)
	}
	return journal
}

// loaderState tracks state during recursive loading.
type loaderState struct {
	visited  map[string]bool
	includes []string
}

func (l *loaderState) loadRecursive(ctx context.Context, absPath string) (*ledger.Journal, error) {
	// A file reached twice, including through a cycle, contributes once.
	if l.visited[absPath] {
		return &ledger.Journal{}, nil
	}
	l.visited[absPath] = true

	file, err := readFile(absPath)
	if err != nil {
		return nil, err
	}

	merged := &ledger.Journal{}
	baseDir := filepath.Dir(absPath)

	for _, inc := range file.Include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		includePath := inc
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}
		includePath = filepath.Clean(includePath)

		if !l.visited[includePath] {
			l.includes = append(l.includes, includePath)
		}
		included, err := l.loadRecursive(ctx, includePath)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", absPath, err)
		}

		mergeJournals(merged, included)
	}

	mergeJournals(merged, file.journal())
	return merged, nil
}

// mergeJournals appends src's accounts and transactions to dst.
func mergeJournals(dst, src *ledger.Journal) {
	dst.Accounts = append(dst.Accounts, src.Accounts...)
	dst.Transactions = append(dst.Transactions, src.Transactions...)
}

func readFile(filename string) (*journalFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return parse(filename, data)
}

func parse(filename string, data []byte) (*journalFile, error) {
	var file journalFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	return &file, nil
}

func (f *journalFile) journal() *ledger.Journal {
	return &ledger.Journal{
		Accounts:     f.Accounts,
		Transactions: f.Transactions,
	}
}
