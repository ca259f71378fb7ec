//go:build !unix

package trigger

import "os"

// HotkeySignals is empty where there is no user signal to bind a key to.
var HotkeySignals []os.Signal
