// Package envsetup creates the conda and uv environments Isaac Lab runs in
// and installs the activation helpers that export ISAACLAB_PATH, the
// isaaclab alias and the simulator's own setup script.
package envsetup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/awayukki/IsaacLab/internal/config"
	"github.com/awayukki/IsaacLab/internal/console"
	"github.com/awayukki/IsaacLab/internal/environment"
	"github.com/awayukki/IsaacLab/internal/resolve"
	"github.com/awayukki/IsaacLab/internal/tactile"
)

// simSetupScript is shipped in the simulator root and sourced on activate.
const simSetupScript = "setup_conda_env.sh"

// SimulatorLocator finds the simulator installation directory.
type SimulatorLocator interface {
	SimulatorRoot(ctx context.Context) (string, resolve.Source, error)
}

// MissingToolError reports a prerequisite executable absent from PATH.
type MissingToolError struct {
	Tool string
	Hint string
}

func (e *MissingToolError) Error() string {
	msg := fmt.Sprintf("%s could not be found.", e.Tool)
	if e.Hint != "" {
		msg += " " + e.Hint
	}
	return msg
}

// Manager performs environment creation.
type Manager struct {
	env  environment.Context
	cfg  *config.Config
	fs   afero.Fs
	exec tactile.Executor
	sim  SimulatorLocator
	out  *console.Printer
	log  *zap.Logger

	// Launcher is the target of the isaaclab alias in generated scripts.
	Launcher string
}

// NewManager creates a Manager. The alias defaults to isaaclab under the
// install root.
func NewManager(env environment.Context, cfg *config.Config, fs afero.Fs, exec tactile.Executor, sim SimulatorLocator, out *console.Printer, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		env:      env,
		cfg:      cfg,
		fs:       fs,
		exec:     exec,
		sim:      sim,
		out:      out,
		log:      log,
		Launcher: env.Path("isaaclab"),
	}
}

// hookData fills in everything but the restore paths.
func (m *Manager) hookData(ctx context.Context) HookData {
	d := HookData{
		Root:          m.env.InstallRoot,
		Launcher:      m.Launcher,
		PythonPath:    m.env.PythonPath,
		LDLibraryPath: m.env.LDLibraryPath,
	}
	root, _, err := m.sim.SimulatorRoot(ctx)
	if err != nil {
		m.log.Debug("no simulator root for activation hooks", zap.Error(err))
		return d
	}
	if setup := filepath.Join(root, simSetupScript); m.isFile(setup) {
		d.SimSetup = setup
	}
	return d
}

func (m *Manager) run(ctx context.Context, binary string, args ...string) error {
	cmd := tactile.Command{
		Binary:           binary,
		Arguments:        args,
		WorkingDirectory: m.env.InstallRoot,
		Environment:      m.env.ChildEnv(nil),
	}
	m.log.Debug("spawn", zap.String("cmd", cmd.CommandString()))
	return tactile.Run(ctx, m.exec, cmd)
}

func (m *Manager) writeScript(path, content string) error {
	if err := m.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(m.fs, path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	m.log.Debug("wrote activation script", zap.String("path", path))
	return nil
}

func (m *Manager) isFile(path string) bool {
	info, err := m.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (m *Manager) exists(path string) bool {
	_, err := m.fs.Stat(path)
	return err == nil
}

func (m *Manager) envName(name string) string {
	if name == "" {
		return m.cfg.DefaultEnvName
	}
	return name
}
