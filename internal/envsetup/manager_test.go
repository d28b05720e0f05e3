package envsetup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awayukki/IsaacLab/internal/config"
	"github.com/awayukki/IsaacLab/internal/console"
	"github.com/awayukki/IsaacLab/internal/environment"
	"github.com/awayukki/IsaacLab/internal/resolve"
	"github.com/awayukki/IsaacLab/internal/tactile"
)

const root = "/work/IsaacLab"

type stubLocator struct {
	root string
	err  error
}

func (s stubLocator) SimulatorRoot(context.Context) (string, resolve.Source, error) {
	return s.root, resolve.SourceBundled, s.err
}

type harness struct {
	fs   afero.Fs
	exec *tactile.FakeExecutor
	out  *bytes.Buffer
	mgr  *Manager
}

func newHarness(t *testing.T, sim stubLocator, environ ...string) *harness {
	t.Helper()
	h := &harness{fs: afero.NewMemMapFs(), exec: tactile.NewFakeExecutor(), out: &bytes.Buffer{}}
	env := environment.Capture(h.fs, environ, root)
	h.mgr = NewManager(env, config.DefaultConfig(), h.fs, h.exec, sim, console.New(h.out), nil)
	return h
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, path)
	require.NoError(t, err)
	return string(data)
}

// condaHandler simulates conda: env list reports prefix once create ran.
func condaHandler(existing bool) func(tactile.Command) (*tactile.ExecutionResult, error) {
	created := existing
	return func(cmd tactile.Command) (*tactile.ExecutionResult, error) {
		switch {
		case len(cmd.Arguments) > 1 && cmd.Arguments[1] == "list":
			if created {
				return tactile.ExitWith(0, `{"envs": ["/opt/conda", "/opt/conda/envs/env_isaaclab"]}`), nil
			}
			return tactile.ExitWith(0, `{"envs": ["/opt/conda"]}`), nil
		case cmd.Arguments[0] == "create":
			created = true
		}
		return tactile.ExitWith(0, ""), nil
	}
}

func TestConda_MissingConda(t *testing.T) {
	h := newHarness(t, stubLocator{err: errors.New("none")})

	err := h.mgr.Conda(context.Background(), "")

	var missing *MissingToolError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Conda", missing.Tool)
	assert.Empty(t, h.exec.Commands())
}

func TestConda_CreatesEnvAndHooks(t *testing.T) {
	h := newHarness(t, stubLocator{root: root + "/_isaac_sim"}, "PYTHONPATH=/keep")
	h.exec.Paths["conda"] = "/opt/conda/bin/conda"
	h.exec.Handler = condaHandler(false)
	require.NoError(t, afero.WriteFile(h.fs, root+"/environment.yml", []byte("name: x\n"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, root+"/_isaac_sim/setup_conda_env.sh", nil, 0o755))

	require.NoError(t, h.mgr.Conda(context.Background(), ""))

	want := [][]string{
		{"/opt/conda/bin/conda", "env", "list", "--json"},
		{"/opt/conda/bin/conda", "create", "-y", "--name", "env_isaaclab", "python=3.11"},
		{"/opt/conda/bin/conda", "env", "list", "--json"},
		{"/opt/conda/bin/conda", "env", "update", "--name", "env_isaaclab", "--file", root + "/environment.yml"},
	}
	if diff := cmp.Diff(want, h.exec.Argv()); diff != "" {
		t.Errorf("conda argv mismatch (-want +got):\n%s", diff)
	}

	setenv := h.read(t, "/opt/conda/envs/env_isaaclab/etc/conda/activate.d/setenv.sh")
	assert.Contains(t, setenv, "export ISAACLAB_PATH='"+root+"'\n")
	assert.Contains(t, setenv, ". '"+root+"/_isaac_sim/setup_conda_env.sh'\n")

	unsetenv := h.read(t, "/opt/conda/envs/env_isaaclab/etc/conda/deactivate.d/unsetenv.sh")
	assert.Contains(t, unsetenv, "export PYTHONPATH='/keep'\n")

	assert.Contains(t, h.out.String(), "conda activate env_isaaclab")
}

func TestConda_ExistingEnvIsReused(t *testing.T) {
	h := newHarness(t, stubLocator{err: errors.New("none")})
	h.exec.Paths["conda"] = "conda"
	h.exec.Handler = condaHandler(true)

	require.NoError(t, h.mgr.Conda(context.Background(), "env_isaaclab"))

	for _, argv := range h.exec.Argv() {
		assert.NotEqual(t, "create", argv[1], "must not recreate an existing env")
	}
	assert.Contains(t, h.out.String(), "already exists")

	setenv := h.read(t, "/opt/conda/envs/env_isaaclab/etc/conda/activate.d/setenv.sh")
	assert.NotContains(t, setenv, "# for Isaac Sim")
}

func TestConda_CreateFailurePropagatesStatus(t *testing.T) {
	h := newHarness(t, stubLocator{})
	h.exec.Paths["conda"] = "conda"
	h.exec.Handler = func(cmd tactile.Command) (*tactile.ExecutionResult, error) {
		if cmd.Arguments[0] == "create" {
			return tactile.ExitWith(3, ""), nil
		}
		return tactile.ExitWith(0, `{"envs": []}`), nil
	}

	err := h.mgr.Conda(context.Background(), "")

	var exitErr *tactile.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitStatus())
}

func TestConda_BadJSON(t *testing.T) {
	h := newHarness(t, stubLocator{})
	h.exec.Paths["conda"] = "conda"
	h.exec.Handler = func(tactile.Command) (*tactile.ExecutionResult, error) {
		return tactile.ExitWith(0, "not json"), nil
	}

	err := h.mgr.Conda(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse conda env list")
}

func TestVenv_MissingUV(t *testing.T) {
	h := newHarness(t, stubLocator{})

	var missing *MissingToolError
	require.ErrorAs(t, h.mgr.Venv(context.Background(), ""), &missing)
	assert.Equal(t, "uv", missing.Tool)
}

func TestVenv_CreatesEnvAndActivateBlock(t *testing.T) {
	h := newHarness(t, stubLocator{err: errors.New("none")})
	h.exec.Paths["uv"] = "/usr/bin/uv"
	require.NoError(t, afero.WriteFile(h.fs, root+"/requirements.txt", []byte("numpy\n"), 0o644))
	activate := root + "/env_isaaclab/bin/activate"
	h.exec.Handler = func(cmd tactile.Command) (*tactile.ExecutionResult, error) {
		if cmd.Arguments[0] == "venv" {
			require.NoError(t, afero.WriteFile(h.fs, activate, []byte("deactivate () { :; }\n"), 0o644))
		}
		return tactile.ExitWith(0, ""), nil
	}

	require.NoError(t, h.mgr.Venv(context.Background(), ""))

	want := [][]string{
		{"/usr/bin/uv", "venv", "--clear", "--python", "3.11", root + "/env_isaaclab"},
		{"/usr/bin/uv", "pip", "install", "--python", root + "/env_isaaclab/bin/python", "pip", "--requirement", root + "/requirements.txt"},
	}
	if diff := cmp.Diff(want, h.exec.Argv()); diff != "" {
		t.Errorf("uv argv mismatch (-want +got):\n%s", diff)
	}

	script := h.read(t, activate)
	assert.True(t, strings.HasPrefix(script, "deactivate () { :; }\n# >>> isaaclab >>>\n"), script)
	assert.Contains(t, script, "export ISAACLAB_PATH='"+root+"'\n")
}

func TestVenv_RerunKeepsSingleBlock(t *testing.T) {
	h := newHarness(t, stubLocator{err: errors.New("none")})
	h.exec.Paths["uv"] = "uv"

	require.NoError(t, h.mgr.Venv(context.Background(), "myenv"))
	require.NoError(t, h.mgr.Venv(context.Background(), "myenv"))

	script := h.read(t, root+"/myenv/bin/activate")
	assert.Equal(t, 1, strings.Count(script, "# >>> isaaclab >>>"))
	assert.Contains(t, h.out.String(), "[WARN] Virtual environment 'myenv' already exists")

	argv := h.exec.Argv()
	require.Len(t, argv, 4)
	assert.Equal(t, []string{"uv", "pip", "install", "--python", root + "/myenv/bin/python", "pip"}, argv[1])
}
