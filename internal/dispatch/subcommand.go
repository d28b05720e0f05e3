// Package dispatch turns the leading flag of an isaaclab invocation into
// exactly one action and forwards everything after it untouched.
package dispatch

import (
	"errors"
	"fmt"
)

// Subcommand is the closed set of actions.
type Subcommand int

const (
	Unknown Subcommand = iota
	Help
	Install
	Conda
	Venv
	Format
	Python
	Sim
	NewProject
	Test
	Docker
	VSCode
	Docs
)

// flagDef describes one subcommand on the command line. The same table
// drives parsing and the usage text.
type flagDef struct {
	cmd     Subcommand
	short   string
	long    string
	aliases []string
	metavar string
	help    string
}

var flagTable = []flagDef{
	{cmd: Help, short: "-h", long: "--help", help: "Display the help content."},
	{cmd: Install, short: "-i", long: "--install", metavar: "[LIB]", help: "Install the extensions inside Isaac Lab and learning frameworks as extra dependencies. Default is 'all'."},
	{cmd: Format, short: "-f", long: "--format", help: "Run pre-commit to format the code and check lints."},
	{cmd: Python, short: "-p", long: "--python", help: "Run the python executable provided by Isaac Sim or virtual environment (if active)."},
	{cmd: Sim, short: "-s", long: "--sim", help: "Run the simulator executable (isaac-sim.sh) provided by Isaac Sim."},
	{cmd: Test, short: "-t", long: "--test", help: "Run all python pytest tests."},
	{cmd: Docker, short: "-o", long: "--docker", help: "Run the docker container helper script (docker/container.sh)."},
	{cmd: VSCode, short: "-v", long: "--vscode", help: "Generate the VSCode settings file from template."},
	{cmd: Docs, short: "-d", long: "--docs", help: "Build the documentation from source using sphinx."},
	{cmd: NewProject, short: "-n", long: "--new", help: "Create a new external project or internal task from template."},
	{cmd: Conda, short: "-c", long: "--conda", metavar: "[NAME]", help: "Create the conda environment for Isaac Lab. Default name is 'env_isaaclab'."},
	{cmd: Venv, short: "-e", long: "--venv", aliases: []string{"-u", "--uv"}, metavar: "[NAME]", help: "Create the uv environment for Isaac Lab. Default name is 'env_isaaclab'."},
}

var (
	byFlag = map[string]flagDef{}
	byCmd  = map[Subcommand]flagDef{}
)

func init() {
	for _, entry := range flagTable {
		byFlag[entry.short] = entry
		byFlag[entry.long] = entry
		for _, alias := range entry.aliases {
			byFlag[alias] = entry
		}
		byCmd[entry.cmd] = entry
	}
}

// String returns the long flag of s, or "unknown".
func (s Subcommand) String() string {
	if entry, ok := byCmd[s]; ok {
		return entry.long
	}
	return "unknown"
}

// Invocation is a parsed command line.
type Invocation struct {
	Command Subcommand
	// Flag is the argument that selected Command, as typed.
	Flag string
	// Args are the remaining arguments, verbatim.
	Args []string
}

// ErrNoCommand is returned when isaaclab is run without arguments.
var ErrNoCommand = errors.New("no arguments provided")

// UsageError reports an unrecognised leading flag.
type UsageError struct {
	Flag string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("unknown arguments: %s", e.Flag)
}

// Parse selects the subcommand from args[0]. Nothing after it is parsed.
func Parse(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{}, ErrNoCommand
	}
	rest := append([]string(nil), args[1:]...)
	entry, ok := byFlag[args[0]]
	if !ok {
		return Invocation{Command: Unknown, Flag: args[0], Args: rest}, &UsageError{Flag: args[0]}
	}
	return Invocation{Command: entry.cmd, Flag: args[0], Args: rest}, nil
}

// IsUsage reports whether err means the usage text should be shown.
func IsUsage(err error) bool {
	var usage *UsageError
	return errors.Is(err, ErrNoCommand) || errors.Is(err, ErrHelp) || errors.As(err, &usage)
}

// ErrHelp is returned after -h prints the usage text, so the process still
// exits 1.
var ErrHelp = errors.New("help requested")

// optionalArg returns args[0] when present, otherwise def.
func optionalArg(args []string, def string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return def
}
