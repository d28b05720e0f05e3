package dispatch

import (
	"context"
	"errors"
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

// Resolver finds the launchers actions delegate to.
type Resolver interface {
	Interpreter(ctx context.Context) (resolve.Launcher, error)
	Simulator(ctx context.Context) (resolve.Launcher, error)
}

// EnvManager creates conda and uv environments.
type EnvManager interface {
	Conda(ctx context.Context, name string) error
	Venv(ctx context.Context, name string) error
}

// Paths under the install root.
var (
	vscodeScript      = []string{".vscode", "tools", "setup_vscode.py"}
	templateDir       = []string{"tools", "template"}
	testsDir          = []string{"tools"}
	dockerScript      = []string{"docker", "container.sh"}
	docsDir           = []string{"docs"}
	extensionManifest = []string{"setup.py", "pyproject.toml"}
)

// noExtras installs the extras packages without an optional-dependency group.
const noExtras = "none"

// Dispatcher runs one action per invocation.
type Dispatcher struct {
	env   environment.Context
	cfg   *config.Config
	fs    afero.Fs
	exec  tactile.Executor
	res   Resolver
	setup EnvManager
	out   *console.Printer
	log   *zap.Logger
}

// New creates a Dispatcher.
func New(env environment.Context, cfg *config.Config, fs afero.Fs, exec tactile.Executor, res Resolver, setup EnvManager, out *console.Printer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{env: env, cfg: cfg, fs: fs, exec: exec, res: res, setup: setup, out: out, log: log}
}

// Run parses args and performs the selected action. A delegated failure is
// returned as the child's *tactile.ExitError.
func (d *Dispatcher) Run(ctx context.Context, args []string) error {
	inv, err := Parse(args)
	if err != nil {
		if errors.Is(err, ErrNoCommand) {
			d.out.Errorf("No arguments provided.")
		} else {
			d.out.Errorf("Invalid argument provided: %s", inv.Flag)
		}
		Usage(d.out.Writer())
		return err
	}
	d.log.Debug("dispatch", zap.Stringer("command", inv.Command), zap.Strings("args", inv.Args))

	switch inv.Command {
	case Help:
		Usage(d.out.Writer())
		return ErrHelp
	case Install:
		return d.install(ctx, optionalArg(inv.Args, d.cfg.DefaultExtras))
	case Conda:
		return d.setup.Conda(ctx, optionalArg(inv.Args, d.cfg.DefaultEnvName))
	case Venv:
		return d.setup.Venv(ctx, optionalArg(inv.Args, d.cfg.DefaultEnvName))
	case Format:
		return d.format(ctx)
	case Python:
		return d.python(ctx, inv.Args)
	case Sim:
		return d.sim(ctx, inv.Args)
	case NewProject:
		return d.newProject(ctx, inv.Args)
	case Test:
		return d.test(ctx, inv.Args)
	case Docker:
		return d.docker(ctx, inv.Args)
	case VSCode:
		return d.vscode(ctx)
	case Docs:
		return d.docs(ctx, inv.Args)
	default:
		Usage(d.out.Writer())
		return &UsageError{Flag: inv.Flag}
	}
}

func (d *Dispatcher) install(ctx context.Context, extras string) error {
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}

	d.out.Infof("Installing extensions inside the Isaac Lab repository...")
	exts, err := d.extensions()
	if err != nil {
		return err
	}
	for _, dir := range exts {
		d.out.Infof("\tModule: %s", filepath.Base(dir))
		if err := d.spawn(ctx, python, "", nil, "-m", "pip", "install", "--editable", dir); err != nil {
			return err
		}
	}

	d.out.Infof("Installing extra requirements such as learning frameworks...")
	for _, pkg := range d.cfg.ExtrasPackages {
		target := d.env.Path(d.cfg.ExtensionsDir, pkg)
		if extras != noExtras {
			target += "[" + extras + "]"
		}
		if err := d.spawn(ctx, python, "", nil, "-m", "pip", "install", "--editable", target); err != nil {
			return err
		}
	}

	if d.env.InDocker {
		return nil
	}
	if err := d.vscode(ctx); err != nil {
		d.out.Warnf("Failed to set up VSCode settings: %v", err)
	}
	return nil
}

// extensions returns the first-level directories of the extensions folder
// that carry a Python package manifest, sorted by name.
func (d *Dispatcher) extensions() ([]string, error) {
	base := d.env.Path(d.cfg.ExtensionsDir)
	entries, err := afero.ReadDir(d.fs, base)
	if err != nil {
		return nil, fmt.Errorf("read extensions directory: %w", err)
	}
	var dirs []string
	for _, entry := range entries {
		dir := filepath.Join(base, entry.Name())
		info, err := d.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		for _, manifest := range extensionManifest {
			if d.isFile(filepath.Join(dir, manifest)) {
				dirs = append(dirs, dir)
				break
			}
		}
	}
	return dirs, nil
}

func (d *Dispatcher) format(ctx context.Context) error {
	precommit, err := d.exec.LookPath("pre-commit")
	var runner resolve.Launcher
	if err == nil {
		runner = resolve.Launcher{Path: precommit}
	} else {
		python, err := d.res.Interpreter(ctx)
		if err != nil {
			return err
		}
		d.out.Warnf("Module 'pre-commit' could not be found. Installing it...")
		if err := d.spawn(ctx, python, "", nil, "-m", "pip", "install", "pre-commit"); err != nil {
			return err
		}
		runner = resolve.Launcher{Path: python.Path, Args: append(append([]string(nil), python.Args...), "-m", "pre_commit")}
	}

	// pre-commit hooks break on the simulator's PYTHONPATH inside conda.
	var overrides map[string]string
	if d.env.CondaDefaultEnv != "" {
		overrides = map[string]string{environment.VarPythonPath: ""}
	}
	d.out.Infof("Formatting the repository...")
	return d.spawn(ctx, runner, d.env.InstallRoot, overrides, "run", "--all-files")
}

func (d *Dispatcher) python(ctx context.Context, args []string) error {
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}
	d.out.Infof("Using python from: %s", python)
	return d.spawn(ctx, python, "", nil, args...)
}

func (d *Dispatcher) sim(ctx context.Context, args []string) error {
	sim, err := d.res.Simulator(ctx)
	if err != nil {
		return err
	}
	d.out.Infof("Running simulator from: %s", sim)
	full := append([]string{"--ext-folder", d.env.Path(d.cfg.ExtensionsDir)}, args...)
	return d.spawn(ctx, sim, "", nil, full...)
}

func (d *Dispatcher) newProject(ctx context.Context, args []string) error {
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}
	dir := d.env.Path(templateDir...)
	d.out.Infof("Installing template dependencies...")
	if err := d.spawn(ctx, python, "", nil, "-m", "pip", "install", "-q", "-r", filepath.Join(dir, "requirements.txt")); err != nil {
		return err
	}
	d.out.Infof("Running template generator...")
	return d.spawn(ctx, python, "", nil, append([]string{filepath.Join(dir, "cli.py")}, args...)...)
}

func (d *Dispatcher) test(ctx context.Context, args []string) error {
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}
	return d.spawn(ctx, python, "", nil, append([]string{"-m", "pytest", d.env.Path(testsDir...)}, args...)...)
}

func (d *Dispatcher) docker(ctx context.Context, args []string) error {
	d.out.Infof("Running docker utility script from: %s", d.env.Path(dockerScript...))
	bash := resolve.Launcher{Path: "bash"}
	return d.spawn(ctx, bash, "", nil, append([]string{d.env.Path(dockerScript...)}, args...)...)
}

func (d *Dispatcher) vscode(ctx context.Context) error {
	script := d.env.Path(vscodeScript...)
	if !d.isFile(script) {
		d.out.Warnf("Unable to find the script 'setup_vscode.py'. Aborting vscode settings setup.")
		return nil
	}
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}
	d.out.Infof("Setting up vscode settings...")
	return d.spawn(ctx, python, "", nil, script)
}

func (d *Dispatcher) docs(ctx context.Context, args []string) error {
	python, err := d.res.Interpreter(ctx)
	if err != nil {
		return err
	}
	dir := d.env.Path(docsDir...)
	d.out.Infof("Building the documentation from source using sphinx...")
	if err := d.spawn(ctx, python, dir, nil, "-m", "pip", "install", "-r", filepath.Join(dir, "requirements.txt")); err != nil {
		return err
	}
	sphinx := append([]string{"-m", "sphinx", "-b", "html", "-d", "_build/doctrees", ".", "_build/current"}, args...)
	if err := d.spawn(ctx, python, dir, nil, sphinx...); err != nil {
		return err
	}
	d.out.Infof("To open documentation on default browser, run:")
	d.out.Println("\n\t\txdg-open " + filepath.Join(dir, "_build", "current", "index.html") + "\n")
	return nil
}

// spawn runs l with args, inheriting stdio. An empty dir keeps the caller's
// working directory.
func (d *Dispatcher) spawn(ctx context.Context, l resolve.Launcher, dir string, overrides map[string]string, args ...string) error {
	cmd := l.Command(args...)
	cmd.WorkingDirectory = dir
	cmd.Environment = d.env.ChildEnv(overrides)
	d.log.Debug("spawn", zap.String("cmd", cmd.CommandString()), zap.String("dir", dir))
	return tactile.Run(ctx, d.exec, cmd)
}

func (d *Dispatcher) isFile(path string) bool {
	info, err := d.fs.Stat(path)
	return err == nil && !info.IsDir()
}
