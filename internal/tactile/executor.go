package tactile

import (
	"context"
)

// Run executes cmd and turns a non-zero exit into an *ExitError. It is the
// one place where "spawn and propagate the exit status" happens; callers
// return its error unchanged so the status reaches main untouched.
func Run(ctx context.Context, e Executor, cmd Command) error {
	result, err := e.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ExitError{Command: cmd.CommandString(), Code: result.ExitCode}
	}
	return nil
}

// Output executes cmd with capture enabled and returns its trimmed stdout.
// A non-zero exit is an *ExitError.
func Output(ctx context.Context, e Executor, cmd Command) (string, error) {
	cmd.Capture = true
	result, err := e.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", &ExitError{Command: cmd.CommandString(), Code: result.ExitCode}
	}
	return result.Output(), nil
}
