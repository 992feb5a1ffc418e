package cli

import (
	"errors"
	"fmt"
)

// Exit codes of failures a command reports itself.
const (
	ExitRejected   = 1 // the journal loaded but some items were rejected
	ExitLoadFailed = 2 // the journal could not be read or parsed
)

// CommandError ends a command that already printed its diagnostics. main
// exits with Code and prints nothing more.
type CommandError struct {
	Code   int
	Reason string
}

func failWith(code int, format string, args ...any) *CommandError {
	return &CommandError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func (e *CommandError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Reason
}

func (e *CommandError) ExitCode() int { return e.Code }

// ExitStatus returns the exit code carried by a CommandError in err's
// chain. reported is false for nil and for errors still to be printed.
func ExitStatus(err error) (code int, reported bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code, true
	}
	return 0, false
}
