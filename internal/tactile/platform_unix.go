//go:build !windows

package tactile

import (
	"os"
	"syscall"
)

// exitStatus reports a child killed by a signal as 128+signal, the way a
// shell does, so `isaaclab -p` interrupted by SIGINT exits 130.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// relayedSignals are caught while a child runs.
var relayedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// forwardSignal reports whether sig is sent on to the child. SIGINT is not:
// the terminal delivers it to the whole foreground process group.
func forwardSignal(sig os.Signal) bool {
	return sig == syscall.SIGTERM
}
