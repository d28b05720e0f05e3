// Package tactile runs the external tools isaaclab delegates to.
//
// Every subcommand ends in one or more child processes: pip, conda, uv,
// pre-commit, sphinx, pytest, the simulator launcher. This package gives
// them a single shape (Command in, ExecutionResult out) so the dispatcher
// never touches os/exec directly and tests can swap in a FakeExecutor.
package tactile

import (
	"fmt"
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "python", "conda").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments, passed through untouched.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, the child inherits the current working directory.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment is the complete child environment in KEY=VALUE form.
	// Nil means inherit the parent environment.
	Environment []string `json:"environment,omitempty"`

	// Capture collects stdout into the result instead of streaming it to
	// the terminal. Stderr is streamed so errors stay visible.
	Capture bool `json:"capture,omitempty"`

	// Quiet discards stderr. Used by probes whose failure is an answer.
	Quiet bool `json:"quiet,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ExecutionResult is the output of a finished command.
type ExecutionResult struct {
	// ExitCode is the command's exit code, 128+signal if it was killed.
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output (Capture commands only).
	Stdout string `json:"stdout,omitempty"`

	// Truncated indicates captured output hit the size limit.
	Truncated bool `json:"truncated,omitempty"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`

	// Command is the command that produced this result.
	Command *Command `json:"command,omitempty"`
}

// Output returns the captured stdout with surrounding whitespace removed.
func (r *ExecutionResult) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Stdout)
}

// ExitError reports a child process that ran and exited non-zero. Its code
// becomes the exit status of isaaclab itself.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ExitStatus returns the status isaaclab should exit with. Codes that are
// not positive map to 1.
func (e *ExitError) ExitStatus() int {
	if e.Code <= 0 {
		return 1
	}
	return e.Code
}
