package tactile

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// FakeExecutor records commands instead of running them. Tests in other
// packages use it to assert the exact argv isaaclab would spawn.
type FakeExecutor struct {
	mu       sync.Mutex
	commands []Command

	// Handler decides the result of each command. Nil means exit 0 with
	// no output.
	Handler func(cmd Command) (*ExecutionResult, error)

	// Paths answers LookPath. Missing entries report exec.ErrNotFound.
	Paths map[string]string
}

// NewFakeExecutor returns a FakeExecutor that succeeds for everything.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{Paths: map[string]string{}}
}

// Execute records cmd and returns the handler's answer.
func (f *FakeExecutor) Execute(_ context.Context, cmd Command) (*ExecutionResult, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return &ExecutionResult{ExitCode: 0, Command: &cmd}, nil
	}
	result, err := handler(cmd)
	if result != nil && result.Command == nil {
		result.Command = &cmd
	}
	return result, err
}

// LookPath answers from Paths.
func (f *FakeExecutor) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Paths[file]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Commands returns a copy of everything executed so far.
func (f *FakeExecutor) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.commands))
	copy(out, f.commands)
	return out
}

// Argv returns each executed command as binary followed by its arguments.
func (f *FakeExecutor) Argv() [][]string {
	cmds := f.Commands()
	out := make([][]string, len(cmds))
	for i, c := range cmds {
		out[i] = append([]string{c.Binary}, c.Arguments...)
	}
	return out
}

// Reset forgets recorded commands.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
}

// ExitWith is a Handler result helper.
func ExitWith(code int, stdout string) *ExecutionResult {
	return &ExecutionResult{ExitCode: code, Stdout: stdout}
}

// String implements fmt.Stringer for debugging failed assertions.
func (f *FakeExecutor) String() string {
	return fmt.Sprintf("FakeExecutor%v", f.Argv())
}
