// Package environment captures the process environment once at startup.
//
// The Context is read-only after Capture returns. Anything a child process
// needs on top of it is passed through ChildEnv as an explicit override map;
// the parent process environment is never exported into or mutated.
package environment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Environment variables consumed by the tool.
const (
	VarVirtualEnv      = "VIRTUAL_ENV"
	VarCondaPrefix     = "CONDA_PREFIX"
	VarCondaDefaultEnv = "CONDA_DEFAULT_ENV"
	VarPythonPath      = "PYTHONPATH"
	VarLDLibraryPath   = "LD_LIBRARY_PATH"
	VarInstallRoot     = "ISAACLAB_PATH"
	VarConfig          = "ISAACLAB_CONFIG"
	VarLogLevel        = "ISAACLAB_LOG_LEVEL"
	VarResourceName    = "RESOURCE_NAME"
	VarPath            = "PATH"
)

// dockerMarker is created by the docker runtime in every container.
const dockerMarker = "/.dockerenv"

// Context is an immutable snapshot of the variables and probes the
// resolver and dispatcher depend on.
type Context struct {
	VirtualEnv      string
	CondaPrefix     string
	CondaDefaultEnv string
	PythonPath      string
	LDLibraryPath   string

	// InstallRoot is the Isaac Lab checkout everything else is relative to.
	InstallRoot string

	// InDocker is true when running inside a docker container.
	InDocker bool

	environ []string
}

// Capture builds a Context from environ (KEY=VALUE pairs, as returned by
// os.Environ). defaultRoot is used when ISAACLAB_PATH is unset.
func Capture(fs afero.Fs, environ []string, defaultRoot string) Context {
	c := Context{environ: append([]string(nil), environ...)}

	c.VirtualEnv = c.Get(VarVirtualEnv)
	c.CondaPrefix = c.Get(VarCondaPrefix)
	c.CondaDefaultEnv = c.Get(VarCondaDefaultEnv)
	c.PythonPath = c.Get(VarPythonPath)
	c.LDLibraryPath = c.Get(VarLDLibraryPath)

	c.InstallRoot = c.Get(VarInstallRoot)
	if c.InstallRoot == "" {
		c.InstallRoot = defaultRoot
	}
	c.InstallRoot = filepath.Clean(c.InstallRoot)

	if _, err := fs.Stat(dockerMarker); err == nil {
		c.InDocker = true
	}
	return c
}

// Get returns the value of key, or "" when unset. The last occurrence wins,
// matching how exec treats duplicate keys.
func (c Context) Get(key string) string {
	prefix := key + "="
	value := ""
	for _, kv := range c.environ {
		if strings.HasPrefix(kv, prefix) {
			value = kv[len(prefix):]
		}
	}
	return value
}

// Path joins elem onto the install root.
func (c Context) Path(elem ...string) string {
	return filepath.Join(append([]string{c.InstallRoot}, elem...)...)
}

// ChildEnv returns the environment for a child process: the captured
// environ with overrides applied. An override with an empty value sets the
// variable to the empty string rather than removing it.
func (c Context) ChildEnv(overrides map[string]string) []string {
	env := make([]string, len(c.environ))
	copy(env, c.environ)
	for _, key := range sortedKeys(overrides) {
		env = setEnvKey(env, key, overrides[key])
	}
	return env
}

// DefaultRoot returns the directory holding the running executable, falling
// back to the working directory when that cannot be determined.
func DefaultRoot() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
