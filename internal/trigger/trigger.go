// Package trigger produces "check now" signals for the detection loop from
// the game log and from an external hotkey.
package trigger

import (
	"context"
	"sync"
)

// Source emits a zero-payload value whenever a reward screen may be up.
// The channel is closed when ctx ends.
type Source interface {
	Start(ctx context.Context) (<-chan struct{}, error)
}

// Merge fans several trigger channels into one. The result is closed once
// every input is closed or ctx ends.
func Merge(ctx context.Context, inputs ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, in := range inputs {
		wg.Add(1)
		go func(in <-chan struct{}) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(in)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// notify delivers one signal without blocking. A pending signal already
// covers the new one.
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
