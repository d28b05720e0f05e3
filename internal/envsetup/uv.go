package envsetup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const requirementsFile = "requirements.txt"

// Venv creates the uv virtual environment name under the install root,
// seeds it with pip (and requirements.txt when present) and appends the
// isaaclab block to its bin/activate.
func (m *Manager) Venv(ctx context.Context, name string) error {
	name = m.envName(name)

	uv, err := m.exec.LookPath("uv")
	if err != nil {
		return &MissingToolError{Tool: "uv", Hint: "Please install uv and try again."}
	}

	envPath := m.env.Path(name)
	if m.exists(envPath) {
		m.out.Warnf("Virtual environment '%s' already exists at %s. Recreating it.", name, envPath)
	} else {
		m.out.Infof("Creating uv environment named '%s'...", name)
	}
	if err := m.run(ctx, uv, "venv", "--clear", "--python", m.cfg.PythonVersion, envPath); err != nil {
		return err
	}

	python := filepath.Join(envPath, "bin", "python")
	args := []string{"pip", "install", "--python", python, "pip"}
	if reqs := m.env.Path(requirementsFile); m.isFile(reqs) {
		args = append(args, "--requirement", reqs)
	}
	if err := m.run(ctx, uv, args...); err != nil {
		return err
	}

	if err := m.installActivateBlock(ctx, filepath.Join(envPath, "bin", "activate")); err != nil {
		return err
	}

	m.out.Infof("Added 'isaaclab' alias to uv environment for 'isaaclab' launcher.")
	m.out.Infof("Created uv environment named '%s'.", name)
	m.out.Println("")
	m.out.Println("\t\t1. To activate the environment, run:                source " + filepath.Join(envPath, "bin", "activate"))
	m.out.Println("\t\t2. To install Isaac Lab extensions, run:            isaaclab -i")
	m.out.Println("\t\t3. To perform formatting, run:                      isaaclab -f")
	m.out.Println("\t\t4. To deactivate the environment, run:              deactivate")
	m.out.Println("")
	return nil
}

func (m *Manager) installActivateBlock(ctx context.Context, path string) error {
	var existing []byte
	if m.isFile(path) {
		data, err := afero.ReadFile(m.fs, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		existing = data
	}
	block, err := VenvActivateBlock(m.hookData(ctx))
	if err != nil {
		return err
	}
	return m.writeScript(path, UpsertBlock(string(existing), block))
}
