//go:build unix

package trigger

import (
	"os"
	"syscall"
)

// HotkeySignals are the signals Signal listens for by default.
var HotkeySignals = []os.Signal{syscall.SIGUSR1}
