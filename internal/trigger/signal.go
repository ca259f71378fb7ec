package trigger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
)

// Signal fires when the process receives one of Signals. It stands in for a
// global hotkey: bind the key in the desktop environment to
// `pkill -USR1 relicscan`.
type Signal struct {
	Signals []os.Signal // nil means HotkeySignals
}

// Start subscribes to the signals until ctx ends.
func (s *Signal) Start(ctx context.Context) (<-chan struct{}, error) {
	sigs := s.Signals
	if sigs == nil {
		sigs = HotkeySignals
	}
	if len(sigs) == 0 {
		return nil, errors.New("no hotkey signal on this platform")
	}

	in := make(chan os.Signal, 1)
	signal.Notify(in, sigs...)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer signal.Stop(in)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-in:
				slog.Debug("hotkey signal", "signal", sig)
				notify(out)
			}
		}
	}()
	return out, nil
}
