package envsetup

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Markers delimiting the block appended to a uv venv's bin/activate.
const (
	blockBegin = "# >>> isaaclab >>>"
	blockEnd   = "# <<< isaaclab <<<"
)

// HookData is the input to every generated activation script.
type HookData struct {
	// Root is exported as ISAACLAB_PATH.
	Root string
	// Launcher is the target of the isaaclab alias.
	Launcher string
	// SimSetup is the simulator's own env setup script; sourced when set.
	SimSetup string
	// PythonPath and LDLibraryPath are restored on conda deactivate.
	PythonPath    string
	LDLibraryPath string
}

var scriptFuncs = template.FuncMap{"quote": shellQuote}

var condaActivateTmpl = template.Must(template.New("setenv.sh").Funcs(scriptFuncs).Parse(
	"#!/usr/bin/env bash\n" +
		"\n" +
		"# for Isaac Lab\n" +
		"export ISAACLAB_PATH={{quote .Root}}\n" +
		"alias isaaclab={{quote .Launcher}}\n" +
		"\n" +
		"# show icon if not running headless\n" +
		"export RESOURCE_NAME=\"IsaacSim\"\n" +
		"{{- if .SimSetup}}\n" +
		"\n" +
		"# for Isaac Sim\n" +
		". {{quote .SimSetup}}\n" +
		"{{- end}}\n"))

var condaDeactivateTmpl = template.Must(template.New("unsetenv.sh").Funcs(scriptFuncs).Parse(
	"#!/usr/bin/env bash\n" +
		"\n" +
		"# for Isaac Lab\n" +
		"unalias isaaclab &>/dev/null\n" +
		"unset ISAACLAB_PATH\n" +
		"\n" +
		"# restore paths\n" +
		"export PYTHONPATH={{quote .PythonPath}}\n" +
		"export LD_LIBRARY_PATH={{quote .LDLibraryPath}}\n" +
		"\n" +
		"# for Isaac Sim\n" +
		"unset RESOURCE_NAME\n"))

var venvBlockTmpl = template.Must(template.New("activate").Funcs(scriptFuncs).Parse(
	blockBegin + "\n" +
		"export ISAACLAB_PATH={{quote .Root}}\n" +
		"alias isaaclab={{quote .Launcher}}\n" +
		"export RESOURCE_NAME=\"IsaacSim\"\n" +
		"{{- if .SimSetup}}\n" +
		". {{quote .SimSetup}}\n" +
		"{{- end}}\n" +
		blockEnd + "\n"))

// CondaActivateScript renders etc/conda/activate.d/setenv.sh.
func CondaActivateScript(d HookData) (string, error) {
	return render(condaActivateTmpl, d)
}

// CondaDeactivateScript renders etc/conda/deactivate.d/unsetenv.sh.
func CondaDeactivateScript(d HookData) (string, error) {
	return render(condaDeactivateTmpl, d)
}

// VenvActivateBlock renders the block appended to bin/activate.
func VenvActivateBlock(d HookData) (string, error) {
	return render(venvBlockTmpl, d)
}

// UpsertBlock replaces an existing isaaclab block in script with block, or
// appends block when none is present.
func UpsertBlock(script, block string) string {
	if start := strings.Index(script, blockBegin); start >= 0 {
		if rel := strings.Index(script[start:], blockEnd); rel >= 0 {
			end := start + rel + len(blockEnd)
			if end < len(script) && script[end] == '\n' {
				end++
			}
			script = script[:start] + script[end:]
		}
	}
	if script != "" && !strings.HasSuffix(script, "\n") {
		script += "\n"
	}
	return script + block
}

func render(t *template.Template, d HookData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
