package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up under the install root when ISAACLAB_CONFIG
// is not set.
const DefaultFileName = ".isaaclab.yaml"

// Probe modes for detecting the marker package.
const (
	ProbePip       = "pip"       // ask pip (default)
	ProbeInstalled = "installed" // assume the marker package is installed
	ProbeAbsent    = "absent"    // assume the marker package is not installed
)

// Config holds all isaaclab tool configuration.
type Config struct {
	// Python version requested when creating conda/uv environments.
	PythonVersion string `yaml:"python_version"`

	// Environment name used by --conda and --uv when none is given.
	DefaultEnvName string `yaml:"default_env_name"`

	// Pip distribution whose presence means "simulator installed via pip".
	MarkerPackage string `yaml:"marker_package"`

	// Directory (relative to the install root) holding the bundled simulator.
	SimulatorDir string `yaml:"simulator_dir"`

	// Directory (relative to the install root) holding the extensions.
	ExtensionsDir string `yaml:"extensions_dir"`

	// Extensions installed a second time with an optional-dependency group.
	ExtrasPackages []string `yaml:"extras_packages"`

	// Optional-dependency group used by --install when none is given.
	DefaultExtras string `yaml:"default_extras"`

	Probe   ProbeConfig   `yaml:"probe"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProbeConfig configures marker package detection.
type ProbeConfig struct {
	Mode string `yaml:"mode"` // pip, installed, absent
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		PythonVersion:  "3.11",
		DefaultEnvName: "env_isaaclab",
		MarkerPackage:  "isaacsim-rl",
		SimulatorDir:   "_isaac_sim",
		ExtensionsDir:  "source",
		ExtrasPackages: []string{"isaaclab_rl", "isaaclab_mimic"},
		DefaultExtras:  "all",
		Probe: ProbeConfig{
			Mode: ProbePip,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Path returns the config file location: the explicit override when set,
// otherwise DefaultFileName under root.
func Path(override, root string) string {
	if override != "" {
		return override
	}
	return filepath.Join(root, DefaultFileName)
}

// Load loads configuration from a YAML file on fs. A missing file yields
// defaults. getenv supplies environment overrides; pass os.Getenv in
// production.
func Load(fs afero.Fs, path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fs, path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if getenv != nil {
		cfg.applyEnvOverrides(getenv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if level := getenv("ISAACLAB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if pkg := getenv("ISAACLAB_MARKER_PACKAGE"); pkg != "" {
		c.MarkerPackage = pkg
	}
	if ver := getenv("ISAACLAB_PYTHON_VERSION"); ver != "" {
		c.PythonVersion = ver
	}
}

// Validate checks the configuration for values the tool cannot work with.
func (c *Config) Validate() error {
	if c.PythonVersion == "" {
		return fmt.Errorf("python_version is required")
	}
	if c.DefaultEnvName == "" {
		return fmt.Errorf("default_env_name is required")
	}
	if c.MarkerPackage == "" {
		return fmt.Errorf("marker_package is required")
	}
	if c.SimulatorDir == "" || c.ExtensionsDir == "" {
		return fmt.Errorf("simulator_dir and extensions_dir are required")
	}
	if c.DefaultExtras == "" {
		return fmt.Errorf("default_extras is required")
	}
	switch c.Probe.Mode {
	case ProbePip, ProbeInstalled, ProbeAbsent:
	default:
		return fmt.Errorf("probe.mode must be one of pip, installed, absent; got %q", c.Probe.Mode)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json; got %q", c.Logging.Format)
	}
	return nil
}
