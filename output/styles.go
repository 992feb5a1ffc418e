// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles renders styled strings for one writer. Styling is dropped
// automatically when the writer is not a color terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a Styles for w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) color(text, color string, bold bool) string {
	str := s.output.String(text).Foreground(s.output.Color(color))
	if bold {
		str = str.Bold()
	}
	return str.String()
}

// Success returns green bold text.
func (s *Styles) Success(text string) string {
	return s.color(text, "2", true)
}

// Error returns red bold text.
func (s *Styles) Error(text string) string {
	return s.color(text, "1", true)
}

// Warning returns yellow bold text.
func (s *Styles) Warning(text string) string {
	return s.color(text, "3", true)
}

// FilePath returns cyan text.
func (s *Styles) FilePath(text string) string {
	return s.color(text, "6", false)
}

// Account returns a yellow account name.
func (s *Styles) Account(text string) string {
	return s.color(text, "3", false)
}

// AccountType returns a dimmed account type label.
func (s *Styles) AccountType(text string) string {
	return s.Dim(text)
}

// Amount returns a magenta amount, or a red one when negative.
func (s *Styles) Amount(text string, negative bool) string {
	if negative {
		return s.color(text, "1", false)
	}
	return s.color(text, "5", false)
}

// Total returns a bold total, green when both sides of a report agree and
// red when they do not.
func (s *Styles) Total(text string, balanced bool) string {
	if balanced {
		return s.color(text, "2", true)
	}
	return s.color(text, "1", true)
}

// Keyword returns bold text.
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns faint text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Timing returns red text for slow operations and dimmed text otherwise.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.color(text, "1", false)
	}
	return s.Dim(text)
}

// Output returns the underlying termenv output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
