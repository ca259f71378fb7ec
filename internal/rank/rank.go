// Package rank scores resolved rewards and picks the most valuable one.
package rank

import (
	"relicscan/internal/catalog"

	"gonum.org/v1/gonum/floats"
)

// DucatRate is how many ducats trade for one platinum.
const DucatRate = 10

// Value is the better of selling an item for platinum or trading it for
// ducats: max(p, d/10 + p/100). Unknown items are worth 0.
func Value(item *catalog.Item) float64 {
	if item == nil {
		return 0
	}
	p := item.Platinum
	return max(p, float64(item.Ducats)/DucatRate+p/100)
}

// Best returns the index of the highest value, preferring the earliest on
// ties. It returns false for an empty slice.
func Best(values []float64) (int, bool) {
	if len(values) == 0 {
		return -1, false
	}
	return floats.MaxIdx(values), true
}

// Values scores each item in order.
func Values(items []*catalog.Item) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = Value(it)
	}
	return out
}
