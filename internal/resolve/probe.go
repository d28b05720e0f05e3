package resolve

import (
	"context"
	"fmt"

	"github.com/awayukki/IsaacLab/internal/config"
	"github.com/awayukki/IsaacLab/internal/tactile"
)

// PackageProbe reports whether a pip distribution is installed for a given
// interpreter.
type PackageProbe interface {
	Installed(ctx context.Context, python, pkg string) (bool, error)
}

// PipShowProbe asks pip directly. The contract is the exit status of
// `python -m pip show --quiet <pkg>`: 0 means installed, 1 means not
// installed. Anything else (pip missing, interpreter broken) is an error.
type PipShowProbe struct {
	Executor    tactile.Executor
	Environment []string
}

// Installed implements PackageProbe.
func (p PipShowProbe) Installed(ctx context.Context, python, pkg string) (bool, error) {
	result, err := p.Executor.Execute(ctx, tactile.Command{
		Binary:      python,
		Arguments:   []string{"-m", "pip", "show", "--quiet", pkg},
		Environment: p.Environment,
		Capture:     true,
		Quiet:       true,
	})
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", pkg, err)
	}
	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("probe %s: pip show exited with status %d", pkg, result.ExitCode)
	}
}

// StaticProbe answers every query with a fixed value.
type StaticProbe bool

// Installed implements PackageProbe.
func (s StaticProbe) Installed(context.Context, string, string) (bool, error) {
	return bool(s), nil
}

// NewProbe builds the probe selected by config.ProbeConfig.Mode.
func NewProbe(mode string, exec tactile.Executor, env []string) (PackageProbe, error) {
	switch mode {
	case "", config.ProbePip:
		return PipShowProbe{Executor: exec, Environment: env}, nil
	case config.ProbeInstalled:
		return StaticProbe(true), nil
	case config.ProbeAbsent:
		return StaticProbe(false), nil
	default:
		return nil, fmt.Errorf("unknown probe mode %q", mode)
	}
}
