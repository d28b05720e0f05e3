package tactile

import (
	"context"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command to completion. A non-zero exit is reported in
	// the result, not as an error; the error is reserved for commands that
	// could not be started at all.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// LookPath searches PATH for an executable named file.
	LookPath(file string) (string, error)
}
