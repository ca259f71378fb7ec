// Package app runs the detection loop: trigger, capture, dedupe, pipeline,
// then overlay and debug output.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"relicscan/internal/annotate"
	"relicscan/internal/capture"
	"relicscan/internal/frame"
	"relicscan/internal/metrics"
	"relicscan/internal/pipeline"

	"github.com/corona10/goimagehash"
)

// ErrDuplicate is returned by Cycle when the captured screen was already
// processed moments ago, e.g. the log marker and the hotkey both fired.
var ErrDuplicate = errors.New("duplicate reward screen")

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// DedupeDistance is the largest pHash distance treated as the same
	// screen. DedupeWindow <= 0 disables deduplication.
	DedupeDistance int
	DedupeWindow   time.Duration

	// DebugImage, when set, receives an annotated copy of every frame.
	DebugImage string
}

// Runner owns the per-process state of the detection loop. Cycle results do
// not leak into later cycles except for the dedupe fingerprint.
type Runner struct {
	source  capture.Source
	overlay Overlay
	metrics *metrics.Metrics
	opts    RunnerOptions
	pipe    atomic.Pointer[pipeline.Pipeline]

	mu       sync.Mutex
	lastHash *goimagehash.ImageHash
	lastTime time.Time
	now      func() time.Time
}

// NewRunner creates a runner. overlay and m may be nil.
func NewRunner(src capture.Source, p *pipeline.Pipeline, overlay Overlay, m *metrics.Metrics, opts RunnerOptions) *Runner {
	r := &Runner{
		source:  src,
		overlay: overlay,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
	r.pipe.Store(p)
	return r
}

// SetPipeline swaps the pipeline used by later cycles, e.g. after the
// catalog was reloaded. Cycles in flight finish on the old one.
func (r *Runner) SetPipeline(p *pipeline.Pipeline) {
	r.pipe.Store(p)
}

// Run executes one cycle per trigger until ctx ends or triggers closes.
// Cycle failures are logged and never stop the loop.
func (r *Runner) Run(ctx context.Context, triggers <-chan struct{}) error {
	slog.Info("waiting for reward screens")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-triggers:
			if !ok {
				return nil
			}
			if _, err := r.Cycle(ctx); err != nil {
				switch {
				case errors.Is(err, ErrDuplicate):
					slog.Debug("skipping duplicate trigger")
				case ctx.Err() != nil:
					return nil
				default:
					slog.Warn("detection cycle skipped", "error", err)
				}
			}
		}
	}
}

// Cycle captures one frame and runs it through the pipeline.
func (r *Runner) Cycle(ctx context.Context) (*pipeline.Result, error) {
	f, err := r.source.Capture(ctx)
	if err != nil {
		r.metrics.ObserveCycle(metrics.CycleCapture, 0)
		return nil, err
	}

	hash, dup := r.checkDuplicate(f)
	if dup {
		r.metrics.ObserveCycle(metrics.CycleDuplicate, 0)
		return nil, ErrDuplicate
	}

	p := r.pipe.Load()
	if p == nil {
		r.metrics.ObserveCycle(metrics.CycleCatalog, 0)
		return nil, pipeline.ErrCatalogUnavailable
	}
	res, err := p.Run(ctx, f)
	if err != nil {
		outcome := metrics.CycleFailed
		if errors.Is(err, pipeline.ErrCatalogUnavailable) {
			outcome = metrics.CycleCatalog
		}
		r.metrics.ObserveCycle(outcome, 0)
		return nil, err
	}
	r.remember(hash)

	outcome := metrics.CycleOK
	if len(res.Slots) == 0 {
		outcome = metrics.CycleEmpty
	}
	r.metrics.ObserveCycle(outcome, res.Duration)

	if r.overlay != nil {
		if err := r.overlay.Show(res, r.source.Origin()); err != nil {
			slog.Warn("overlay failed", "cycle", res.CycleID.String(), "error", err)
		}
	}
	if r.opts.DebugImage != "" {
		if err := annotate.Save(r.opts.DebugImage, annotate.Draw(f, res)); err != nil {
			slog.Warn("debug image not written", "cycle", res.CycleID.String(), "error", err)
		}
	}
	return res, nil
}

// checkDuplicate hashes the frame and compares it with the last processed
// one. A nil hash means the frame could not be hashed and is processed.
func (r *Runner) checkDuplicate(f *frame.Frame) (*goimagehash.ImageHash, bool) {
	if r.opts.DedupeWindow <= 0 {
		return nil, false
	}
	hash, err := goimagehash.PerceptionHash(f.Image())
	if err != nil {
		slog.Debug("frame hash failed", "error", err)
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastHash == nil || r.now().Sub(r.lastTime) > r.opts.DedupeWindow {
		return hash, false
	}
	dist, err := r.lastHash.Distance(hash)
	if err != nil {
		return hash, false
	}
	if dist <= r.opts.DedupeDistance {
		slog.Debug("same screen as last cycle", "distance", dist)
		return hash, true
	}
	return hash, false
}

// remember records a processed frame for deduplication.
func (r *Runner) remember(hash *goimagehash.ImageHash) {
	if hash == nil {
		return
	}
	r.mu.Lock()
	r.lastHash = hash
	r.lastTime = r.now()
	r.mu.Unlock()
}

// String describes the runner configuration for logs.
func (r *Runner) String() string {
	return fmt.Sprintf("runner(dedupe=%d/%s debug=%q)", r.opts.DedupeDistance, r.opts.DedupeWindow, r.opts.DebugImage)
}
