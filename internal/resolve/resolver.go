// Package resolve locates the Python interpreter and the Isaac Sim launcher
// across the supported installation layouts: an activated virtualenv, an
// activated conda env, the bundled simulator symlinked under the install
// root, and the pip-installed simulator.
//
// Resolution is a pure function of the captured environment, the
// filesystem, and the package probe; nothing is cached.
package resolve

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/awayukki/IsaacLab/internal/environment"
	"github.com/awayukki/IsaacLab/internal/tactile"
)

// Source records which layout a launcher was found in.
type Source string

const (
	SourceVenv        Source = "venv"
	SourceConda       Source = "conda"
	SourceBundled     Source = "bundled"
	SourceSystem      Source = "system"
	SourcePackagePath Source = "package-path"
	SourceEntryPoint  Source = "entry-point"
)

// Fixed names inside a simulator installation.
const (
	pythonLauncher    = "python.sh"
	simulatorLauncher = "isaac-sim.sh"
)

// entryPoint is the invocation form used when the simulator is only
// available as a pip distribution.
var entryPoint = []string{"isaacsim", "isaacsim.exp.full"}

// introspectScript prints the install root recorded by the pip package.
const introspectScript = "import isaacsim; import os; print(os.environ['ISAAC_PATH'])"

// Launcher is the head of a subprocess invocation.
type Launcher struct {
	Path   string
	Args   []string
	Source Source
}

// Command builds the command for this launcher followed by args.
func (l Launcher) Command(args ...string) tactile.Command {
	argv := make([]string, 0, len(l.Args)+len(args))
	argv = append(argv, l.Args...)
	argv = append(argv, args...)
	return tactile.Command{Binary: l.Path, Arguments: argv}
}

// String returns the launcher as a shell-style string.
func (l Launcher) String() string {
	return strings.Join(append([]string{l.Path}, l.Args...), " ")
}

// Options holds the names the resolver looks for.
type Options struct {
	// SimulatorDir is the bundled simulator directory under the install root.
	SimulatorDir string
	// MarkerPackage is the pip distribution that marks a pip-installed simulator.
	MarkerPackage string
}

// Resolver finds interpreters and simulator launchers.
type Resolver struct {
	env   environment.Context
	fs    afero.Fs
	exec  tactile.Executor
	probe PackageProbe
	opts  Options
	log   *zap.Logger
}

// New creates a Resolver.
func New(env environment.Context, fs afero.Fs, exec tactile.Executor, probe PackageProbe, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{env: env, fs: fs, exec: exec, probe: probe, opts: opts, log: log}
}

// Interpreter returns the Python interpreter to use. First match wins:
// virtualenv, conda env, bundled python.sh, system python when the marker
// package is installed.
func (r *Resolver) Interpreter(ctx context.Context) (Launcher, error) {
	if r.env.VirtualEnv != "" {
		return r.picked(Launcher{Path: filepath.Join(r.env.VirtualEnv, "bin", "python"), Source: SourceVenv}), nil
	}
	if r.env.CondaPrefix != "" {
		return r.picked(Launcher{Path: filepath.Join(r.env.CondaPrefix, "bin", "python"), Source: SourceConda}), nil
	}

	bundled := r.bundledPython()
	if r.isFile(bundled) {
		return r.picked(Launcher{Path: bundled, Source: SourceBundled}), nil
	}

	if system, ok := r.systemPython(ctx); ok {
		return r.picked(Launcher{Path: system, Source: SourceSystem}), nil
	}

	return Launcher{}, r.interpreterError(bundled)
}

// SimulatorRoot returns the simulator installation directory: the bundled
// directory if present, otherwise the path recorded by the pip package.
func (r *Resolver) SimulatorRoot(ctx context.Context) (string, Source, error) {
	return r.simulatorRoot(ctx, &markerState{r: r})
}

func (r *Resolver) simulatorRoot(ctx context.Context, marker *markerState) (string, Source, error) {
	bundled := r.bundledRoot()
	if r.isDir(bundled) {
		return bundled, SourceBundled, nil
	}

	python, ok := marker.installed(ctx)
	if !ok {
		return "", "", r.simulatorDirError(bundled)
	}

	introspect := python.Command("-c", introspectScript)
	introspect.Environment = r.env.ChildEnv(nil)
	out, err := tactile.Output(ctx, r.exec, introspect)
	if err != nil {
		r.log.Debug("simulator introspection failed", zap.String("python", python.Path), zap.Error(err))
		return "", "", r.simulatorDirError(bundled)
	}
	if out != "" && r.isDir(out) {
		r.log.Debug("simulator root from package", zap.String("path", out))
		return out, SourcePackagePath, nil
	}
	return "", "", r.simulatorDirError(out)
}

// Simulator returns the simulator launcher. First match wins: isaac-sim.sh
// under the simulator root, then the pip entry point.
func (r *Resolver) Simulator(ctx context.Context) (Launcher, error) {
	marker := &markerState{r: r}
	root, source, err := r.simulatorRoot(ctx, marker)
	if err == nil {
		exe := filepath.Join(root, simulatorLauncher)
		if r.isFile(exe) {
			return r.picked(Launcher{Path: exe, Source: source}), nil
		}
	}

	if _, ok := marker.installed(ctx); ok {
		return r.picked(Launcher{Path: entryPoint[0], Args: append([]string(nil), entryPoint[1:]...), Source: SourceEntryPoint}), nil
	}

	if err != nil {
		return Launcher{}, err
	}
	return Launcher{}, r.simulatorError(filepath.Join(root, simulatorLauncher))
}

// markerState resolves the interpreter and probes the marker package at
// most once per Simulator call.
type markerState struct {
	r      *Resolver
	done   bool
	python Launcher
	ok     bool
}

func (m *markerState) installed(ctx context.Context) (Launcher, bool) {
	if m.done {
		return m.python, m.ok
	}
	m.done = true
	python, err := m.r.Interpreter(ctx)
	if err != nil {
		return Launcher{}, false
	}
	m.python = python
	// A system interpreter is only picked when the marker is installed.
	m.ok = python.Source == SourceSystem || m.r.markerInstalled(ctx, python.Path)
	return m.python, m.ok
}

func (r *Resolver) systemPython(ctx context.Context) (string, bool) {
	for _, name := range []string{"python", "python3"} {
		path, err := r.exec.LookPath(name)
		if err != nil {
			continue
		}
		if r.markerInstalled(ctx, path) {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) markerInstalled(ctx context.Context, python string) bool {
	ok, err := r.probe.Installed(ctx, python, r.opts.MarkerPackage)
	if err != nil {
		r.log.Debug("marker package probe failed",
			zap.String("python", python),
			zap.String("package", r.opts.MarkerPackage),
			zap.Error(err))
		return false
	}
	return ok
}

func (r *Resolver) picked(l Launcher) Launcher {
	r.log.Debug("resolved launcher", zap.String("path", l.String()), zap.String("source", string(l.Source)))
	return l
}

func (r *Resolver) bundledRoot() string {
	return r.env.Path(r.opts.SimulatorDir)
}

func (r *Resolver) bundledPython() string {
	return filepath.Join(r.bundledRoot(), pythonLauncher)
}

func (r *Resolver) bundledSimulator() string {
	return filepath.Join(r.bundledRoot(), simulatorLauncher)
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (r *Resolver) isDir(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && info.IsDir()
}
