// Package resolve maps noisy OCR text onto catalog items.
//
// Matching works on compact keys (normalized, spaces removed) so the engine
// splitting or merging words costs nothing. An exact key match always wins.
// Otherwise the closest item by Levenshtein distance is accepted when its
// similarity, 1 - distance/max(len), reaches the threshold. Equal
// similarities go to the lexicographically smaller item name.
package resolve

import (
	"strings"

	"relicscan/internal/catalog"
	"relicscan/internal/textnorm"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold accepts roughly one wrong glyph in four.
const DefaultThreshold = 0.75

// Options configures a Resolver.
type Options struct {
	// Threshold is the minimum similarity in (0, 1] for a fuzzy match.
	Threshold float64
}

// DefaultOptions returns the calibrated resolver settings.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Hint narrows the candidate set. The zero value does not narrow.
type Hint struct {
	// Category restricts candidates to items of this category
	// (case-insensitive).
	Category string
}

// Match describes how an item was found.
type Match struct {
	Exact      bool
	Distance   int
	Similarity float64
}

type entry struct {
	key  string
	item catalog.Item
}

// Resolver is safe for concurrent use; it only reads the catalog.
type Resolver struct {
	cat     *catalog.Catalog
	opts    Options
	entries []entry
}

// New builds a resolver over c. A non-positive or out-of-range threshold
// falls back to DefaultThreshold.
func New(c *catalog.Catalog, opts Options) *Resolver {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	items := c.Items()
	entries := make([]entry, len(items))
	for i, it := range items {
		entries[i] = entry{key: it.Key(), item: it}
	}
	return &Resolver{cat: c, opts: opts, entries: entries}
}

// Threshold returns the similarity threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.opts.Threshold
}

// Find resolves text to a catalog item. The bool is false when nothing is
// confident enough; that is an expected outcome, not an error.
func (r *Resolver) Find(text string, hint *Hint) (catalog.Item, Match, bool) {
	key := textnorm.Compact(text)
	if key == "" {
		return catalog.Item{}, Match{}, false
	}

	if it, ok := r.cat.Lookup(key); ok && hint.allows(it) {
		return it, Match{Exact: true, Similarity: 1}, true
	}

	best := -1
	var bestMatch Match
	for i := range r.entries {
		e := &r.entries[i]
		if !hint.allows(e.item) {
			continue
		}

		longest := max(len(key), len(e.key))
		// The length difference is a lower bound on the distance.
		bound := 1 - float64(abs(len(key)-len(e.key)))/float64(longest)
		if bound < r.opts.Threshold || (best >= 0 && bound <= bestMatch.Similarity) {
			continue
		}

		d := levenshtein.ComputeDistance(key, e.key)
		sim := 1 - float64(d)/float64(longest)
		if sim < r.opts.Threshold {
			continue
		}
		// Entries are name-sorted, so keeping the first of equals gives
		// the lexicographic tie-break.
		if best < 0 || sim > bestMatch.Similarity {
			best = i
			bestMatch = Match{Distance: d, Similarity: sim}
		}
	}
	if best < 0 {
		return catalog.Item{}, Match{}, false
	}
	return r.entries[best].item, bestMatch, true
}

// allows reports whether it passes the hint. A nil hint allows everything.
func (h *Hint) allows(it catalog.Item) bool {
	if h == nil || h.Category == "" {
		return true
	}
	return strings.EqualFold(h.Category, it.Category)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
