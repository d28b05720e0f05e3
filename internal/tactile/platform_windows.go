//go:build windows

package tactile

import "os"

func exitStatus(state *os.ProcessState) int {
	return state.ExitCode()
}

// relayedSignals are caught while a child runs. The console delivers
// Ctrl-C to the child itself.
var relayedSignals = []os.Signal{os.Interrupt}

func forwardSignal(os.Signal) bool {
	return false
}
