// Package cli implements the bookkeeper command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/bookkeeper/ledger"
	"github.com/robinvdvleuten/bookkeeper/loader"
)

// status is the kind of a one-line message printed to the user.
type status struct {
	symbol string
	style  lipgloss.Style
	// loud messages are styled along with their symbol.
	loud bool
}

func color(light, dark string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
}

var (
	statusOK      = status{symbol: "✓", style: color("#00D787", "#00D787")}
	statusFailed  = status{symbol: "✗", style: color("#FF5F87", "#FF5F87"), loud: true}
	statusInfo    = status{symbol: "→", style: color("#5FAFFF", "#5FAFFF")}
	statusWarning = status{symbol: "!", style: color("#D7AF00", "#FFD75F"), loud: true}

	pathStyle = color("#00D7D7", "#00D7D7")
)

func (s status) printf(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.loud {
		msg = s.style.Render(msg)
	}
	_, _ = fmt.Fprintln(w, s.style.Render(s.symbol), msg)
}

// confirm asks a yes/no question. Without a terminal on stdin the answer
// is no.
func confirm(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var yes bool
	err := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&yes).
		Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	return yes, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// JournalFile is a journal positional argument. "-" reads the journal from
// standard input.
type JournalFile struct {
	// Path is absolute, or loader.StdinFilename.
	Path  string
	stdin []byte
}

// Decode implements kong.MapperValue.
func (j *JournalFile) Decode(ctx *kong.DecodeContext) error {
	var arg string
	if err := ctx.Scan.PopValueInto("journal", &arg); err != nil {
		return err
	}
	if arg == "" || arg == "-" {
		return j.readFrom(os.Stdin)
	}

	path, err := filepath.Abs(arg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	j.Path = path
	return nil
}

// Given reports whether a journal argument was passed.
func (j *JournalFile) Given() bool {
	return j.Path != ""
}

// orStdin falls back to standard input for commands that always need a
// journal.
func (j *JournalFile) orStdin() error {
	if j.Given() {
		return nil
	}
	return j.readFrom(os.Stdin)
}

func (j *JournalFile) readFrom(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	j.Path = loader.StdinFilename
	j.stdin = data
	return nil
}

// Load parses the journal with its includes resolved.
func (j *JournalFile) Load(ctx context.Context) (*ledger.Journal, error) {
	ldr := loader.New(loader.WithFollowIncludes())
	if j.Path == loader.StdinFilename {
		return ldr.LoadBytes(ctx, j.Path, j.stdin)
	}
	result, err := ldr.Load(ctx, j.Path)
	if err != nil {
		return nil, err
	}
	return result.Journal, nil
}
