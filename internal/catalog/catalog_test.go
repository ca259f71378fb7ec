package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{Name: "Volt Prime Blueprint", Category: "warframe", Platinum: 12, Ducats: 45},
		{Name: "Forma Blueprint", Category: "resource", Platinum: 0, Ducats: 0},
		{Name: "Akstiletto Prime Barrel", Category: "weapon", Platinum: 4, Ducats: 15},
		{Name: "Ash Prime Systems", Category: "warframe", Platinum: 30, Ducats: 65, Vaulted: true},
	}
}

func TestNewSortsByName(t *testing.T) {
	c := New(sampleItems())
	require.Equal(t, 4, c.Len())

	var names []string
	for _, it := range c.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{
		"Akstiletto Prime Barrel",
		"Ash Prime Systems",
		"Forma Blueprint",
		"Volt Prime Blueprint",
	}, names)
}

func TestNewDropsDuplicatesAndBlankNames(t *testing.T) {
	c := New([]Item{
		{Name: "forma blueprint", Platinum: 1},
		{Name: "Forma Blueprint", Platinum: 2},
		{Name: "  --  "},
	})
	require.Equal(t, 1, c.Len())
	// "F" sorts before "f".
	assert.Equal(t, 2.0, c.Items()[0].Platinum)
}

func TestLookup(t *testing.T) {
	c := New(sampleItems())

	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{"exact", "Volt Prime Blueprint", "Volt Prime Blueprint", true},
		{"case and spacing", "volt  prime\nBLUEPRINT", "Volt Prime Blueprint", true},
		{"split word", "Ak stiletto Prime Barrel", "Akstiletto Prime Barrel", true},
		{"unknown", "Excalibur Prime", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := c.Lookup(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, it.Name)
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New(sampleItems())
	items := c.Items()
	items[0].Platinum = 999

	it, ok := c.Lookup(items[0].Name)
	require.True(t, ok)
	assert.NotEqual(t, 999.0, it.Platinum)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Items())
	_, ok := c.Lookup("anything")
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	c := New(sampleItems())
	assert.Equal(t, []string{"resource", "warframe", "weapon"}, c.Categories())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"items": [
			{"name": "Volt Prime Blueprint", "category": "warframe", "platinum": 12, "ducats": 45},
			{"name": "Forma Blueprint", "platinum": 0, "ducats": 0}
		]
	}`), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	it, ok := c.Lookup("volt prime blueprint")
	require.True(t, ok)
	assert.Equal(t, 45, it.Ducats)
	assert.Equal(t, "warframe", it.Category)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"items": [`), 0644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"items": []}`), 0644))
	_, err = LoadFile(empty)
	assert.Error(t, err)
}

func TestLoadPrices(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"volt prime blueprint": 20.5,
		"Nonexistent Part": 3
	}`), 0644))

	base := New(sampleItems())
	merged, unknown, err := LoadPrices(base, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nonexistent Part"}, unknown)

	it, ok := merged.Lookup("Volt Prime Blueprint")
	require.True(t, ok)
	assert.Equal(t, 20.5, it.Platinum)
	assert.Equal(t, 45, it.Ducats)

	// The source catalog is untouched.
	orig, _ := base.Lookup("Volt Prime Blueprint")
	assert.Equal(t, 12.0, orig.Platinum)
}

func TestLoadPricesMissingFile(t *testing.T) {
	_, _, err := LoadPrices(New(sampleItems()), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
