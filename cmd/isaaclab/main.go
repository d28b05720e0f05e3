// Command isaaclab bootstraps Isaac Lab environments and dispatches tasks
// to the Python interpreter, the simulator and the project tooling.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/awayukki/IsaacLab/internal/config"
	"github.com/awayukki/IsaacLab/internal/console"
	"github.com/awayukki/IsaacLab/internal/dispatch"
	"github.com/awayukki/IsaacLab/internal/environment"
	"github.com/awayukki/IsaacLab/internal/envsetup"
	"github.com/awayukki/IsaacLab/internal/logging"
	"github.com/awayukki/IsaacLab/internal/resolve"
	"github.com/awayukki/IsaacLab/internal/tactile"
)

var version = "dev"

// runtime is everything the root command takes from the process.
type runtime struct {
	fs      afero.Fs
	environ []string
	getenv  func(string) string
	root    string
	self    string
	stdout  io.Writer
	stderr  io.Writer

	// executor overrides the real process executor.
	executor tactile.Executor
}

func processRuntime() runtime {
	self, err := os.Executable()
	if err != nil {
		self = ""
	}
	return runtime{
		fs:      afero.NewOsFs(),
		environ: os.Environ(),
		getenv:  os.Getenv,
		root:    environment.DefaultRoot(),
		self:    self,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

func newRootCmd(rt runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "isaaclab [flag] [args...]",
		Short: "Utility to manage Isaac Lab",
		Long: `isaaclab resolves the Python interpreter and Isaac Sim launcher for the
current environment and runs exactly one task, selected by the leading flag.
Everything after that flag is forwarded to the underlying tool untouched.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, log, err := wire(rt)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return d.Run(cmd.Context(), args)
		},
	}
}

// wire builds the dispatcher and its collaborators.
func wire(rt runtime) (*dispatch.Dispatcher, *zap.Logger, error) {
	env := environment.Capture(rt.fs, rt.environ, rt.root)

	cfg, err := config.Load(rt.fs, config.Path(env.Get(environment.VarConfig), env.InstallRoot), rt.getenv)
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: rt.stderr})
	if err != nil {
		return nil, nil, err
	}
	logging.For(log, logging.CategoryBoot).Debug("starting",
		zap.String("version", version),
		zap.String("root", env.InstallRoot),
		zap.Bool("docker", env.InDocker))

	exec := rt.executor
	if exec == nil {
		exec = tactile.NewDirectExecutor(logging.For(log, logging.CategoryTactile))
	}

	probe, err := resolve.NewProbe(cfg.Probe.Mode, exec, env.ChildEnv(nil))
	if err != nil {
		return nil, nil, err
	}
	res := resolve.New(env, rt.fs, exec, probe, resolve.Options{
		SimulatorDir:  cfg.SimulatorDir,
		MarkerPackage: cfg.MarkerPackage,
	}, logging.For(log, logging.CategoryResolve))

	out := console.New(rt.stdout)
	setup := envsetup.NewManager(env, cfg, rt.fs, exec, res, out, logging.For(log, logging.CategoryEnvSetup))
	if rt.self != "" {
		setup.Launcher = rt.self
	}

	d := dispatch.New(env, cfg, rt.fs, exec, res, setup, out, logging.For(log, logging.CategoryDispatch))
	return d, log, nil
}

// exitCode maps a run error to the process exit status. Delegated failures
// keep the child's status and print nothing extra.
func exitCode(err error, p *console.Printer) int {
	if err == nil {
		return 0
	}
	if dispatch.IsUsage(err) {
		return 1
	}
	var exitErr *tactile.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus()
	}
	p.Errorf("%s", err)
	return 1
}

func main() {
	// A signal stops later steps from starting. The running child is left to
	// handle it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rt := processRuntime()
	err := newRootCmd(rt).ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err, console.New(rt.stderr)))
}
