// Package metrics exposes detection cycle counters and latencies to
// Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes.
const (
	CycleOK        = "ok"
	CycleEmpty     = "empty"
	CycleDuplicate = "duplicate"
	CycleCapture   = "capture_error"
	CycleCatalog   = "catalog_error"
	CycleFailed    = "error"
)

// Slot outcomes.
const (
	SlotResolved = "resolved"
	SlotUnknown  = "unknown"
	SlotOCRError = "ocr_error"
)

const namespace = "relicscan"

// Metrics groups the collectors. A nil *Metrics ignores every observation.
type Metrics struct {
	cycles        *prometheus.CounterVec
	slots         *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	ocrDuration   prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Detection cycles by outcome.",
		}, []string{"outcome"}),
		slots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_total",
			Help:      "Reward slots by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time from frame to ranked result.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}),
		ocrDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Time spent recognizing one slot.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2},
		}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.slots, m.cycleDuration, m.ocrDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// ObserveCycle records one finished cycle. Zero durations are not timed.
func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.cycleDuration.Observe(d.Seconds())
	}
}

// ObserveSlot records one slot outcome and its OCR time.
func (m *Metrics) ObserveSlot(outcome string, ocr time.Duration) {
	if m == nil {
		return
	}
	m.slots.WithLabelValues(outcome).Inc()
	if ocr > 0 {
		m.ocrDuration.Observe(ocr.Seconds())
	}
}
