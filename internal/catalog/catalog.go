// Package catalog holds the reference set of reward items the resolver
// matches OCR text against.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"relicscan/internal/textnorm"
)

// Item is one known reward. Values are copied out of the catalog, never
// shared for writing.
type Item struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Platinum float64 `json:"platinum"`
	Ducats   int     `json:"ducats"`
	Vaulted  bool    `json:"vaulted,omitempty"`
}

// Key returns the compact normalized form of the item name.
func (it Item) Key() string {
	return textnorm.Compact(it.Name)
}

// Catalog is an immutable, name-sorted item set. It is safe for concurrent
// readers.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a catalog. Items are sorted by name; when two names normalize
// to the same key the first in sorted order is kept. Items whose name
// normalizes to nothing are dropped.
func New(items []Item) *Catalog {
	sorted := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Key() != "" {
			sorted = append(sorted, it)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	c := &Catalog{
		items: make([]Item, 0, len(sorted)),
		index: make(map[string]int, len(sorted)),
	}
	for _, it := range sorted {
		key := it.Key()
		if _, dup := c.index[key]; dup {
			continue
		}
		c.index[key] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// Lookup finds an item by name, ignoring case, punctuation and spacing.
func (c *Catalog) Lookup(name string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	i, ok := c.index[textnorm.Compact(name)]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of all items, sorted by name.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Categories returns the distinct non-empty categories in sorted order.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if it.Category != "" && !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}

// file is the on-disk catalog layout.
type file struct {
	Items []Item `json:"items"`
}

// LoadFile reads a JSON catalog of the form {"items": [...]}.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("catalog %s has no items", path)
	}
	return New(f.Items), nil
}

// LoadPrices reads a {name: platinum} price sheet and returns a new catalog
// with those prices applied. Names are matched like Lookup; unknown names
// are ignored and reported in the returned slice.
func LoadPrices(c *Catalog, path string) (*Catalog, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read price sheet: %w", err)
	}

	var prices map[string]float64
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, nil, fmt.Errorf("failed to parse price sheet %s: %w", path, err)
	}
	merged, unknown := c.WithPrices(prices)
	return merged, unknown, nil
}

// WithPrices returns a copy of the catalog with platinum values replaced from
// prices. The names in prices that match no item are returned sorted.
func (c *Catalog) WithPrices(prices map[string]float64) (*Catalog, []string) {
	items := c.Items()
	byKey := make(map[string]int, len(items))
	for i, it := range items {
		byKey[it.Key()] = i
	}

	names := make([]string, 0, len(prices))
	for name := range prices {
		names = append(names, name)
	}
	sort.Strings(names)

	var unknown []string
	for _, name := range names {
		i, ok := byKey[textnorm.Compact(name)]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		items[i].Platinum = prices[name]
	}
	return New(items), unknown
}

// String summarizes the catalog for logs.
func (c *Catalog) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "catalog(%d items", c.Len())
	if cats := c.Categories(); len(cats) > 0 {
		fmt.Fprintf(&sb, ", %s", strings.Join(cats, "/"))
	}
	sb.WriteString(")")
	return sb.String()
}
