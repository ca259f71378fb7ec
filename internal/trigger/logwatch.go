package trigger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Markers are log lines the game writes when the reward screen opens.
var Markers = []string{
	"Pause countdown done",
	"Got rewards",
	"Created /Lotus/Interface/ProjectionRewardChoice.swf",
}

// Log watcher defaults.
const (
	DefaultDebounce = 100 * time.Millisecond
	DefaultDelay    = 1500 * time.Millisecond
)

// LogWatcher tails the game log and fires after a reward marker appears.
// Only lines appended after Start are considered.
type LogWatcher struct {
	Path     string
	Debounce time.Duration // quiet time after the last write before scanning
	Delay    time.Duration // wait after a marker for the screen to render
	Markers  []string      // nil means Markers

	offset int64
}

// NewLogWatcher creates a watcher with the default timings.
func NewLogWatcher(path string) *LogWatcher {
	return &LogWatcher{
		Path:     path,
		Debounce: DefaultDebounce,
		Delay:    DefaultDelay,
	}
}

// Start seeks to the end of the log and begins watching it.
func (w *LogWatcher) Start(ctx context.Context) (<-chan struct{}, error) {
	path := filepath.Clean(w.Path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	w.offset = info.Size()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// The directory is watched so a recreated log keeps being followed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	slog.Info("watching game log", "path", path, "offset", w.offset)

	out := make(chan struct{}, 1)
	go w.loop(ctx, watcher, path, out)
	return out, nil
}

func (w *LogWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, path string, out chan<- struct{}) {
	defer close(out)
	defer watcher.Close()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(w.debounce())

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("log watcher error", "error", err)

		case <-debounce.C:
			found, err := w.scan()
			if err != nil {
				slog.Warn("failed to read game log", "path", path, "error", err)
				continue
			}
			if !found {
				continue
			}
			slog.Debug("reward screen marker seen, waiting", "delay", w.Delay)
			select {
			case <-time.After(w.Delay):
			case <-ctx.Done():
				return
			}
			notify(out)
		}
	}
}

func (w *LogWatcher) debounce() time.Duration {
	if w.Debounce <= 0 {
		return DefaultDebounce
	}
	return w.Debounce
}

// scan reads the lines appended since the last scan and reports whether any
// of them is a reward marker. A log shorter than the saved offset was
// truncated and is read from the start.
func (w *LogWatcher) scan() (bool, error) {
	file, err := os.Open(w.Path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < w.offset {
		slog.Debug("game log truncated", "path", w.Path)
		w.offset = 0
	}
	if _, err := file.Seek(w.offset, io.SeekStart); err != nil {
		return false, err
	}

	markers := w.Markers
	if markers == nil {
		markers = Markers
	}

	found := false
	reader := bufio.NewReader(file)
	var read int64
	for {
		line, err := reader.ReadString('\n')
		// A trailing partial line is left for the next scan.
		if err != nil {
			if err == io.EOF {
				break
			}
			return found, err
		}
		read += int64(len(line))
		if matchesAny(line, markers) {
			found = true
		}
	}
	w.offset += read
	return found, nil
}

func matchesAny(line string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}
