package envsetup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondaActivateScript(t *testing.T) {
	got, err := CondaActivateScript(HookData{Root: "/work/IsaacLab", Launcher: "/work/IsaacLab/isaaclab"})
	require.NoError(t, err)

	want := "#!/usr/bin/env bash\n" +
		"\n" +
		"# for Isaac Lab\n" +
		"export ISAACLAB_PATH='/work/IsaacLab'\n" +
		"alias isaaclab='/work/IsaacLab/isaaclab'\n" +
		"\n" +
		"# show icon if not running headless\n" +
		"export RESOURCE_NAME=\"IsaacSim\"\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("setenv.sh mismatch (-want +got):\n%s", diff)
	}
}

func TestCondaActivateScript_SourcesSimSetup(t *testing.T) {
	got, err := CondaActivateScript(HookData{Root: "/r", Launcher: "/r/isaaclab", SimSetup: "/r/_isaac_sim/setup_conda_env.sh"})
	require.NoError(t, err)
	assert.Contains(t, got, "export RESOURCE_NAME=\"IsaacSim\"\n\n# for Isaac Sim\n. '/r/_isaac_sim/setup_conda_env.sh'\n")
}

func TestCondaDeactivateScript_RestoresCapturedPaths(t *testing.T) {
	got, err := CondaDeactivateScript(HookData{PythonPath: "/a:/b", LDLibraryPath: ""})
	require.NoError(t, err)

	assert.Contains(t, got, "unalias isaaclab &>/dev/null\n")
	assert.Contains(t, got, "unset ISAACLAB_PATH\n")
	assert.Contains(t, got, "export PYTHONPATH='/a:/b'\n")
	assert.Contains(t, got, "export LD_LIBRARY_PATH=''\n")
	assert.Contains(t, got, "unset RESOURCE_NAME\n")
}

func TestVenvActivateBlock(t *testing.T) {
	got, err := VenvActivateBlock(HookData{Root: "/r", Launcher: "/r/isaaclab"})
	require.NoError(t, err)

	want := "# >>> isaaclab >>>\n" +
		"export ISAACLAB_PATH='/r'\n" +
		"alias isaaclab='/r/isaaclab'\n" +
		"export RESOURCE_NAME=\"IsaacSim\"\n" +
		"# <<< isaaclab <<<\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("activate block mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertBlock(t *testing.T) {
	block := "# >>> isaaclab >>>\nnew\n# <<< isaaclab <<<\n"

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "empty", script: "", want: block},
		{name: "append", script: "deactivate () {}\n", want: "deactivate () {}\n" + block},
		{name: "missing newline", script: "x=1", want: "x=1\n" + block},
		{
			name:   "replace",
			script: "a\n# >>> isaaclab >>>\nold\n# <<< isaaclab <<<\nb\n",
			want:   "a\nb\n" + block,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpsertBlock(tt.script, block))
		})
	}
}

func TestUpsertBlock_Idempotent(t *testing.T) {
	block := "# >>> isaaclab >>>\nnew\n# <<< isaaclab <<<\n"
	once := UpsertBlock("base\n", block)
	assert.Equal(t, once, UpsertBlock(once, block))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'plain'", shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}
