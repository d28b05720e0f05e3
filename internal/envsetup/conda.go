package envsetup

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/awayukki/IsaacLab/internal/tactile"
)

const environmentFile = "environment.yml"

// condaEnvList is the shape of `conda env list --json`.
type condaEnvList struct {
	Envs []string `json:"envs"`
}

// Conda creates (or reuses) the conda environment name, updates it from
// environment.yml and installs the activate.d/deactivate.d hooks.
func (m *Manager) Conda(ctx context.Context, name string) error {
	name = m.envName(name)

	conda, err := m.exec.LookPath("conda")
	if err != nil {
		return &MissingToolError{Tool: "Conda", Hint: "Please install conda and try again."}
	}

	prefix, err := m.condaPrefix(ctx, conda, name)
	if err != nil {
		return err
	}
	if prefix != "" {
		m.out.Infof("Conda environment named '%s' already exists.", name)
	} else {
		m.out.Infof("Creating conda environment named '%s'...", name)
		if err := m.run(ctx, conda, "create", "-y", "--name", name, "python="+m.cfg.PythonVersion); err != nil {
			return err
		}
		if prefix, err = m.condaPrefix(ctx, conda, name); err != nil {
			return err
		}
		if prefix == "" {
			return fmt.Errorf("conda environment '%s' was created but is not listed by conda", name)
		}
	}

	if envFile := m.env.Path(environmentFile); m.isFile(envFile) {
		m.out.Infof("Installing dependencies from %s...", envFile)
		if err := m.run(ctx, conda, "env", "update", "--name", name, "--file", envFile); err != nil {
			return err
		}
	}

	data := m.hookData(ctx)
	activate, err := CondaActivateScript(data)
	if err != nil {
		return err
	}
	deactivate, err := CondaDeactivateScript(data)
	if err != nil {
		return err
	}
	if err := m.writeScript(filepath.Join(prefix, "etc", "conda", "activate.d", "setenv.sh"), activate); err != nil {
		return err
	}
	if err := m.writeScript(filepath.Join(prefix, "etc", "conda", "deactivate.d", "unsetenv.sh"), deactivate); err != nil {
		return err
	}

	m.out.Infof("Added 'isaaclab' alias to conda environment for 'isaaclab' launcher.")
	m.out.Infof("Created conda environment named '%s'.", name)
	m.out.Println("")
	m.out.Println("\t\t1. To activate the environment, run:                conda activate " + name)
	m.out.Println("\t\t2. To install Isaac Lab extensions, run:            isaaclab -i")
	m.out.Println("\t\t3. To perform formatting, run:                      isaaclab -f")
	m.out.Println("\t\t4. To deactivate the environment, run:              conda deactivate")
	m.out.Println("")
	return nil
}

// condaPrefix returns the prefix of the named environment, or "" when it
// does not exist.
func (m *Manager) condaPrefix(ctx context.Context, conda, name string) (string, error) {
	out, err := tactile.Output(ctx, m.exec, tactile.Command{
		Binary:      conda,
		Arguments:   []string{"env", "list", "--json"},
		Environment: m.env.ChildEnv(nil),
	})
	if err != nil {
		return "", fmt.Errorf("list conda environments: %w", err)
	}
	var list condaEnvList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return "", fmt.Errorf("parse conda env list: %w", err)
	}
	for _, prefix := range list.Envs {
		if filepath.Base(prefix) == name {
			m.log.Debug("found conda env", zap.String("name", name), zap.String("prefix", prefix))
			return prefix, nil
		}
	}
	return "", nil
}
