package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		reported bool
	}{
		{"nil", nil, 0, false},
		{"plain error", errors.New("boom"), 0, false},
		{"rejected", failWith(ExitRejected, "%d validation error(s) found", 2), ExitRejected, true},
		{"wrapped", fmt.Errorf("check: %w", failWith(ExitLoadFailed, "failed to load journal")), ExitLoadFailed, true},
		{"joined with hook error", errors.Join(failWith(ExitRejected, ""), errors.New("close")), ExitRejected, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code, reported := ExitStatus(test.err)
			assert.Equal(t, test.code, code)
			assert.Equal(t, test.reported, reported)
		})
	}
}

func TestCommandErrorMessage(t *testing.T) {
	assert.EqualError(t, failWith(ExitRejected, "%d validation error(s) found", 3), "3 validation error(s) found")
	assert.EqualError(t, &CommandError{Code: ExitLoadFailed}, "exit status 2")
}
