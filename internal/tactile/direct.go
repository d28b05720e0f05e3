package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxOutputBytes bounds captured stdout.
const DefaultMaxOutputBytes int64 = 1 << 20

// DirectExecutor executes commands directly on the host using os/exec.
// Children inherit the terminal: stdin, stdout and stderr are wired straight
// through unless the command asks for capture.
//
// A running child is never killed by isaaclab. While it runs, SIGINT is
// swallowed by the parent (the TTY already delivered it to the child's
// process group) and SIGTERM is relayed to the child, so the child decides
// how to shut down and its exit status comes back unchanged.
type DirectExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	MaxOutputBytes int64

	log *zap.Logger
}

// NewDirectExecutor creates a direct executor bound to the process stdio.
func NewDirectExecutor(log *zap.Logger) *DirectExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectExecutor{
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		MaxOutputBytes: DefaultMaxOutputBytes,
		log:            log,
	}
}

// LookPath searches PATH for file.
func (e *DirectExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Execute runs a command directly on the host and waits for it. ctx only
// gates the start; once started the child runs to completion.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("not starting %s: %w", cmd.Binary, err)
	}

	e.log.Debug("executing command",
		zap.String("binary", cmd.Binary),
		zap.Strings("args", cmd.Arguments),
		zap.String("dir", cmd.WorkingDirectory),
		zap.Bool("capture", cmd.Capture))

	execCmd := exec.Command(cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = cmd.Environment

	execCmd.Stdin = e.Stdin
	if !cmd.Quiet {
		execCmd.Stderr = e.Stderr
	}

	var stdoutBuf bytes.Buffer
	var limited *limitedWriter
	if cmd.Capture {
		max := e.MaxOutputBytes
		if max <= 0 {
			max = DefaultMaxOutputBytes
		}
		limited = &limitedWriter{w: &stdoutBuf, max: max}
		execCmd.Stdout = limited
	} else {
		execCmd.Stdout = e.Stdout
	}

	result := &ExecutionResult{
		ExitCode: -1,
		Command:  &cmd,
	}

	result.StartedAt = time.Now()
	err := e.run(execCmd)
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	if limited != nil && limited.truncated {
		result.Truncated = true
		e.log.Warn("captured output truncated",
			zap.String("binary", cmd.Binary),
			zap.Int64("discarded_bytes", limited.discarded))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.log.Debug("command failed to start", zap.String("binary", cmd.Binary), zap.Error(err))
			return result, fmt.Errorf("failed to run %s: %w", cmd.Binary, err)
		}
		result.ExitCode = exitStatus(exitErr.ProcessState)
	} else {
		result.ExitCode = 0
	}

	e.log.Debug("command completed",
		zap.String("binary", cmd.Binary),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// run starts execCmd and waits for it while relaying signals.
func (e *DirectExecutor) run(execCmd *exec.Cmd) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, relayedSignals...)
	defer signal.Stop(sigs)

	if err := execCmd.Start(); err != nil {
		return err
	}

	done := make(chan struct{})
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		for {
			select {
			case sig := <-sigs:
				if !forwardSignal(sig) {
					e.log.Debug("signal left to child", zap.Stringer("signal", sig))
					continue
				}
				e.log.Debug("forwarding signal", zap.Stringer("signal", sig), zap.Int("pid", execCmd.Process.Pid))
				_ = execCmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := execCmd.Wait()
	close(done)
	<-relayed
	return err
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
