// Package pipeline runs one detection cycle over a captured frame: theme
// detection, slot segmentation, per-slot OCR, normalization, catalog
// resolution and ranking.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"relicscan/internal/catalog"
	"relicscan/internal/frame"
	"relicscan/internal/metrics"
	"relicscan/internal/rank"
	"relicscan/internal/resolve"
	"relicscan/internal/segment"
	"relicscan/internal/textnorm"
	"relicscan/internal/theme"

	"github.com/google/uuid"
)

var (
	// ErrCatalogUnavailable means the pipeline has no catalog to resolve
	// against. The cycle is skipped.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrNoFrame means the cycle was started without pixels.
	ErrNoFrame = errors.New("no frame")
)

// UnknownItem is shown for slots without a confident match.
const UnknownItem = "Unknown item"

// Recognizer reads the text of one label crop within ctx's deadline. It
// must be safe for concurrent use; *ocr.Pool is the production
// implementation.
type Recognizer interface {
	RecognizeContext(ctx context.Context, img *image.RGBA) (string, error)
}

// Options configures a Pipeline.
type Options struct {
	Workers     int           // concurrent slot workers
	SlotTimeout time.Duration // OCR budget per slot
	Threshold   float64       // resolver similarity threshold

	// Theme forces a theme instead of detecting it.
	Theme *theme.Theme

	// Hint narrows resolution, e.g. to one item category.
	Hint *resolve.Hint

	Metrics *metrics.Metrics
}

// DefaultOptions returns settings that fit a reward screen's display time.
func DefaultOptions() Options {
	return Options{
		Workers:     4,
		SlotTimeout: 3 * time.Second,
		Threshold:   resolve.DefaultThreshold,
	}
}

// Slot is one reward slot after resolution.
type Slot struct {
	Part    segment.Part
	Item    *catalog.Item // nil when no confident match
	Match   resolve.Match
	Value   float64
	Err     error // OCR failure; the slot then resolves to nothing
	OCRTime time.Duration
}

// Name returns the resolved item name or UnknownItem.
func (s *Slot) Name() string {
	if s.Item == nil {
		return UnknownItem
	}
	return s.Item.Name
}

// Result is the outcome of one cycle. Slots are in left-to-right order.
type Result struct {
	CycleID  uuid.UUID
	Theme    theme.Theme
	Width    int
	Height   int
	Slots    []Slot
	Best     int // index into Slots, -1 when there are none
	Duration time.Duration
}

// BestSlot returns the highest valued slot.
func (r *Result) BestSlot() (*Slot, bool) {
	if r == nil || r.Best < 0 || r.Best >= len(r.Slots) {
		return nil, false
	}
	return &r.Slots[r.Best], true
}

// Names returns the resolved names in slot order, "" for unknown slots.
func (r *Result) Names() []string {
	names := make([]string, len(r.Slots))
	for i := range r.Slots {
		if it := r.Slots[i].Item; it != nil {
			names[i] = it.Name
		}
	}
	return names
}

// Pipeline holds the long-lived, read-only collaborators of the detection
// cycle. Run may be called concurrently.
type Pipeline struct {
	cat      *catalog.Catalog
	resolver *resolve.Resolver
	ocr      Recognizer
	opts     Options
}

// New creates a pipeline. A nil catalog is accepted so that callers get
// ErrCatalogUnavailable from Run rather than a construction failure.
func New(cat *catalog.Catalog, ocr Recognizer, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.Workers < 1 {
		opts.Workers = def.Workers
	}
	if opts.SlotTimeout <= 0 {
		opts.SlotTimeout = def.SlotTimeout
	}
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}

	p := &Pipeline{cat: cat, ocr: ocr, opts: opts}
	if cat != nil {
		p.resolver = resolve.New(cat, resolve.Options{Threshold: opts.Threshold})
	}
	return p
}

// workItem tags a part with its slot index so results can be re-joined in
// screen order.
type workItem struct {
	index int
	part  segment.Part
}

// Run executes one detection cycle.
func (p *Pipeline) Run(ctx context.Context, f *frame.Frame) (*Result, error) {
	if p.cat == nil || p.cat.Len() == 0 {
		return nil, ErrCatalogUnavailable
	}
	if f.Empty() {
		return nil, ErrNoFrame
	}
	if p.ocr == nil {
		return nil, errors.New("no OCR engine configured")
	}

	start := time.Now()
	res := &Result{
		CycleID: uuid.New(),
		Width:   f.Width(),
		Height:  f.Height(),
		Best:    -1,
	}
	log := slog.With("cycle", res.CycleID.String())

	if p.opts.Theme != nil && p.opts.Theme.Valid() {
		res.Theme = *p.opts.Theme
	} else {
		res.Theme = theme.Detect(f)
	}

	parts := segment.ExtractParts(f, res.Theme)
	log.Debug("segmented frame", "theme", res.Theme, "slots", len(parts), "size", fmt.Sprintf("%dx%d", res.Width, res.Height))

	res.Slots = make([]Slot, len(parts))
	if len(parts) > 0 {
		p.resolveSlots(ctx, log, parts, res.Slots)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cycle cancelled: %w", err)
	}

	values := make([]float64, len(res.Slots))
	for i := range res.Slots {
		values[i] = res.Slots[i].Value
	}
	if best, ok := rank.Best(values); ok {
		res.Best = best
	}
	res.Duration = time.Since(start)

	log.Info("cycle complete", "theme", res.Theme, "slots", len(res.Slots), "best", res.Best, "duration", res.Duration)
	return res, nil
}

// resolveSlots fans the parts out to the worker pool and writes each result
// to its own index of out.
func (p *Pipeline) resolveSlots(ctx context.Context, log *slog.Logger, parts []segment.Part, out []Slot) {
	workers := min(p.opts.Workers, len(parts))
	work := make(chan workItem, len(parts))
	for i, part := range parts {
		work <- workItem{index: i, part: part}
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				out[item.index] = p.resolveSlot(ctx, log, item)
			}
		}()
	}
	wg.Wait()
}

func (p *Pipeline) resolveSlot(ctx context.Context, log *slog.Logger, item workItem) Slot {
	slot := Slot{Part: item.part}
	if err := ctx.Err(); err != nil {
		slot.Err = err
		return slot
	}

	slotCtx, cancel := context.WithTimeout(ctx, p.opts.SlotTimeout)
	defer cancel()

	start := time.Now()
	raw, err := p.ocr.RecognizeContext(slotCtx, item.part.Image)
	slot.OCRTime = time.Since(start)
	if err != nil {
		slot.Err = fmt.Errorf("slot %d: %w", item.index, err)
		log.Warn("OCR failed", "slot", item.index, "error", err)
		p.opts.Metrics.ObserveSlot(metrics.SlotOCRError, slot.OCRTime)
		return slot
	}

	slot.Part.RawText = raw
	slot.Part.Text = textnorm.Normalize(raw)

	if it, m, ok := p.resolver.Find(slot.Part.Text, p.opts.Hint); ok {
		slot.Item = &it
		slot.Match = m
	}
	slot.Value = rank.Value(slot.Item)

	outcome := metrics.SlotResolved
	if slot.Item == nil {
		outcome = metrics.SlotUnknown
	}
	p.opts.Metrics.ObserveSlot(outcome, slot.OCRTime)
	log.Debug("slot resolved", "slot", item.index, "raw", raw, "text", slot.Part.Text, "item", slot.Name(), "similarity", slot.Match.Similarity, "value", slot.Value)
	return slot
}
