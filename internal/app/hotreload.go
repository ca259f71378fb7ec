package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CatalogReloader watches the catalog and price files and triggers a
// callback when either changes, so prices can be refreshed without
// restarting the scanner.
type CatalogReloader struct {
	paths         []string
	baseline      map[string]time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func()
}

// NewCatalogReloader creates a reloader for the given files. Empty paths
// are ignored. A file missing now is still watched and fires once it
// appears. Returns nil if no path is given.
func NewCatalogReloader(checkInterval time.Duration, paths ...string) *CatalogReloader {
	h := &CatalogReloader{
		baseline:      make(map[string]time.Time),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		// Resolve symlinks so a replaced target is noticed.
		if real, err := filepath.EvalSymlinks(p); err == nil {
			p = real
		}
		h.paths = append(h.paths, p)
		// Missing files keep a zero baseline.
		h.baseline[p] = time.Time{}
		if info, err := os.Stat(p); err == nil {
			h.baseline[p] = info.ModTime()
		}
	}
	if len(h.paths) == 0 {
		return nil
	}
	return h
}

// OnChange sets the callback to invoke when a watched file changes. The
// callback runs on the watcher goroutine.
func (h *CatalogReloader) OnChange(callback func()) {
	h.onChange = callback
}

// Start begins watching in a background goroutine.
func (h *CatalogReloader) Start() {
	// Fresh stop channel in case we're restarting
	h.stopCh = make(chan struct{})
	go h.watchLoop(h.stopCh)
}

// Stop stops the watcher goroutine.
func (h *CatalogReloader) Stop() {
	close(h.stopCh)
}

func (h *CatalogReloader) watchLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if h.checkForUpdate() {
				slog.Info("catalog changed on disk, reloading")
				if h.onChange != nil {
					h.onChange()
				}
			}
		}
	}
}

// checkForUpdate reports whether any file is newer than its baseline and
// moves the baseline forward.
func (h *CatalogReloader) checkForUpdate() bool {
	changed := false
	for _, p := range h.paths {
		info, err := os.Stat(p)
		if err != nil {
			// Mid-rewrite; try again next tick.
			continue
		}
		if info.ModTime().After(h.baseline[p]) {
			h.baseline[p] = info.ModTime()
			changed = true
		}
	}
	return changed
}

// Paths returns the watched files.
func (h *CatalogReloader) Paths() []string {
	return h.paths
}
