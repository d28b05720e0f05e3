package tactile

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestExecutor(t *testing.T) (*DirectExecutor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("direct executor tests use /bin/sh")
	}
	var stdout, stderr bytes.Buffer
	e := NewDirectExecutor(zap.NewNop())
	e.Stdin = strings.NewReader("")
	e.Stdout = &stdout
	e.Stderr = &stderr
	return e, &stdout, &stderr
}

func TestDirectExecutor_Capture(t *testing.T) {
	e, stdout, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), Command{
		Binary:    "echo",
		Arguments: []string{"hello"},
		Capture:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello", result.Output())
	assert.Empty(t, stdout.String(), "captured output must not reach the terminal")
}

func TestDirectExecutor_StreamsWhenNotCapturing(t *testing.T) {
	e, stdout, stderr := newTestExecutor(t)

	result, err := e.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Empty(t, result.Stdout)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestDirectExecutor_QuietDiscardsStderr(t *testing.T) {
	e, _, stderr := newTestExecutor(t)

	_, err := e.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "echo noise >&2"},
		Quiet:     true,
	})
	require.NoError(t, err)
	assert.Empty(t, stderr.String())
}

func TestDirectExecutor_NonZeroExitIsNotAnError(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestDirectExecutor_Environment(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), Command{
		Binary:      "sh",
		Arguments:   []string{"-c", `printf %s "$ISAACLAB_PATH"`},
		Environment: []string{"PATH=/usr/bin:/bin", "ISAACLAB_PATH=/srv/lab"},
		Capture:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/srv/lab", result.Stdout)
}

func TestDirectExecutor_WorkingDirectory(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	dir := t.TempDir()

	out, err := Output(context.Background(), e, Command{Binary: "pwd", WorkingDirectory: dir})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, dir[strings.LastIndex(dir, "/"):]), "pwd = %s, want %s", out, dir)
}

func TestDirectExecutor_MissingBinary(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	_, err := e.Execute(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound), "got %v", err)

	_, err = e.Execute(context.Background(), Command{})
	assert.Error(t, err)
}

func TestDirectExecutor_TruncatesCapture(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	e.MaxOutputBytes = 4

	result, err := e.Execute(context.Background(), Command{
		Binary:    "echo",
		Arguments: []string{"abcdefgh"},
		Capture:   true,
	})
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, "abcd", result.Stdout)
}

func TestRun_PropagatesExitStatus(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	err := Run(context.Background(), e, Command{Binary: "sh", Arguments: []string{"-c", "exit 7"}})
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 7, exitErr.ExitStatus())
	assert.Contains(t, exitErr.Error(), "status 7")

	assert.NoError(t, Run(context.Background(), e, Command{Binary: "true"}))
}

func TestDirectExecutor_SignalledChildReportsShellStatus(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "kill -TERM $$"},
	})
	require.NoError(t, err)
	assert.Equal(t, 128+15, result.ExitCode)
}

func TestExitError_SignalMapsToOne(t *testing.T) {
	assert.Equal(t, 1, (&ExitError{Code: -1}).ExitStatus())
	assert.Equal(t, 2, (&ExitError{Code: 2}).ExitStatus())
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, max: 5}

	n, err := lw.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = lw.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = lw.Write([]byte("h"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "abcde", buf.String())
	assert.True(t, lw.truncated)
	assert.Equal(t, int64(3), lw.discarded)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "python", Command{Binary: "python"}.CommandString())
	assert.Equal(t, "python -m pip", Command{Binary: "python", Arguments: []string{"-m", "pip"}}.CommandString())
}

func TestFakeExecutor(t *testing.T) {
	f := NewFakeExecutor()
	f.Paths["conda"] = "/opt/conda/bin/conda"
	f.Handler = func(cmd Command) (*ExecutionResult, error) {
		if cmd.Binary == "fail" {
			return ExitWith(2, ""), nil
		}
		return ExitWith(0, "ok\n"), nil
	}

	out, err := Output(context.Background(), f, Command{Binary: "python", Arguments: []string{"-V"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	err = Run(context.Background(), f, Command{Binary: "fail"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	want := [][]string{{"python", "-V"}, {"fail"}}
	if diff := cmp.Diff(want, f.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, f.Commands()[0].Capture)

	p, err := f.LookPath("conda")
	require.NoError(t, err)
	assert.Equal(t, "/opt/conda/bin/conda", p)

	_, err = f.LookPath("uv")
	assert.ErrorIs(t, err, exec.ErrNotFound)

	f.Reset()
	assert.Empty(t, f.Commands())
}
