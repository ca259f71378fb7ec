// Package evaluate scores the pipeline against a directory of labeled
// reward screenshots.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"relicscan/internal/frame"
	"relicscan/internal/pipeline"
	"relicscan/internal/theme"
)

// Label is the expected outcome for one screenshot. An empty item name
// means the slot must not resolve. An empty theme is not checked.
type Label struct {
	Theme string   `json:"theme,omitempty"`
	Items []string `json:"items"`
}

// Labels maps image file names, relative to the corpus directory, to labels.
type Labels map[string]Label

// LoadLabels reads a labels.json file.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	var labels Labels
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels %s: no entries", path)
	}
	return labels, nil
}

// Outcome is the comparison for one image. Passed covers item names only;
// theme detection is reported separately by ThemeMismatch.
type Outcome struct {
	File          string
	ExpectedTheme string
	Theme         string
	Expected      []string
	Got           []string
	Passed        bool
	Err           error
}

// ThemeMismatch reports whether the label names a theme other than the
// detected one. Images that never reached detection do not count.
func (o *Outcome) ThemeMismatch() bool {
	if o.ExpectedTheme == "" || o.Theme == "" {
		return false
	}
	want, err := theme.Parse(o.ExpectedTheme)
	return err != nil || want.String() != o.Theme
}

// Mismatches returns the slot indices whose names differ from the label.
func (o *Outcome) Mismatches() []int {
	var out []int
	n := max(len(o.Expected), len(o.Got))
	for i := 0; i < n; i++ {
		if at(o.Expected, i) != at(o.Got, i) {
			out = append(out, i)
		}
	}
	return out
}

// Report collects the outcomes of one evaluation run in file order.
type Report struct {
	Outcomes []Outcome
}

// Passed counts images whose every slot matched.
func (r *Report) Passed() int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Passed {
			n++
		}
	}
	return n
}

// ThemeMismatches counts images whose detected theme differs from the label.
func (r *Report) ThemeMismatches() int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].ThemeMismatch() {
			n++
		}
	}
	return n
}

// SuccessRate is the fraction of passing images, 0 for an empty report.
func (r *Report) SuccessRate() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	return float64(r.Passed()) / float64(len(r.Outcomes))
}

// Run feeds every labeled image in dir through p. Images that fail to load
// or process count as failures; only context cancellation aborts the run.
func Run(ctx context.Context, p *pipeline.Pipeline, dir string, labels Labels) (*Report, error) {
	files := make([]string, 0, len(labels))
	for name := range labels {
		files = append(files, name)
	}
	sort.Strings(files)

	report := &Report{Outcomes: make([]Outcome, 0, len(files))}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out := evaluateOne(ctx, p, filepath.Join(dir, name), labels[name])
		out.File = name
		if out.Err != nil && errors.Is(out.Err, context.Canceled) {
			return report, out.Err
		}
		if !out.Passed {
			slog.Info("image mismatch", "file", name, "expected", out.Expected, "got", out.Got, "error", out.Err)
		}
		if out.ThemeMismatch() {
			slog.Info("theme mismatch", "file", name, "expected", out.ExpectedTheme, "got", out.Theme)
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	slog.Info("evaluation done", "images", len(report.Outcomes), "passed", report.Passed(),
		"rate", report.SuccessRate(), "theme_mismatches", report.ThemeMismatches())
	return report, nil
}

func evaluateOne(ctx context.Context, p *pipeline.Pipeline, path string, label Label) Outcome {
	out := Outcome{Expected: label.Items, ExpectedTheme: label.Theme}
	f, err := frame.Load(path)
	if err != nil {
		out.Err = err
		return out
	}
	res, err := p.Run(ctx, f)
	if err != nil {
		out.Err = err
		return out
	}
	out.Theme = res.Theme.String()
	out.Got = res.Names()
	out.Passed = len(out.Mismatches()) == 0
	return out
}

// at returns s[i], or "" past the end so a missing slot reads as unresolved.
func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
