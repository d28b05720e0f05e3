// Package logging builds the zap logger shared by every isaaclab component.
// Diagnostics go to stderr so they never mix with the output of the tools
// being dispatched.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a component-scoped child logger.
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryResolve  Category = "resolve"  // Interpreter and simulator resolution
	CategoryDispatch Category = "dispatch" // Subcommand selection and actions
	CategoryTactile  Category = "tactile"  // Process execution
	CategoryEnvSetup Category = "envsetup" // conda/uv environment creation
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Format is "console" or "json". Empty means console.
	Format string
	// Output receives log lines. Nil means os.Stderr.
	Output io.Writer
}

// ParseLevel converts a config level string to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.WarnLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if opts.Output != nil {
		w = opts.Output
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

// For returns the child logger for a category. A nil parent yields a no-op
// logger so components can be constructed without logging wired up.
func For(parent *zap.Logger, cat Category) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(string(cat))
}
