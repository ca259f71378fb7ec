package rank

import (
	"testing"

	"relicscan/internal/catalog"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name string
		item *catalog.Item
		want float64
	}{
		{"unknown", nil, 0},
		{"platinum wins", &catalog.Item{Platinum: 30, Ducats: 65}, 30},
		{"ducats win", &catalog.Item{Platinum: 2, Ducats: 100}, 10.02},
		{"worthless", &catalog.Item{}, 0},
		{"ducats only", &catalog.Item{Ducats: 45}, 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Value(tt.item), 1e-9)
		})
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   int
		ok     bool
	}{
		{"third slot", []float64{10, 0, 25}, 2, true},
		{"tie goes to earliest", []float64{5, 9, 9, 1}, 1, true},
		{"all zero", []float64{0, 0, 0}, 0, true},
		{"single", []float64{3}, 0, true},
		{"empty", nil, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best(tt.values)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBestFromItems(t *testing.T) {
	items := []*catalog.Item{
		{Name: "A", Platinum: 10},
		nil,
		{Name: "C", Platinum: 25},
	}
	values := Values(items)
	assert.Equal(t, []float64{10, 0, 25}, values)

	got, ok := Best(values)
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}
