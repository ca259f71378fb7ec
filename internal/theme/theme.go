// Package theme classifies the UI color scheme of a reward screen capture.
package theme

import (
	"fmt"
	"image/color"
	"strings"

	"relicscan/pkg/colorutil"
)

// Theme is one of the game's selectable UI skins.
type Theme int

const (
	Vitruvian Theme = iota
	Stalker
	Baruuk
	Corpus
	Fortuna
	Grineer
	Lotus
	Nidus
	Orokin
	Tenno
	HighContrast
	Legacy
	Equinox
	DarkLotus
	Zephyr

	numThemes
)

// Default is returned when no palette matches the probed pixels.
const Default = Vitruvian

// Palette holds the reference colors of one theme.
type Palette struct {
	Primary   color.RGBA // item name text
	Secondary color.RGBA // highlighted text and borders
}

var palettes = [numThemes]Palette{
	Vitruvian:    {colorutil.RGB(190, 169, 102), colorutil.RGB(245, 227, 173)},
	Stalker:      {colorutil.RGB(153, 31, 35), colorutil.RGB(255, 61, 51)},
	Baruuk:       {colorutil.RGB(238, 193, 105), colorutil.RGB(236, 211, 162)},
	Corpus:       {colorutil.RGB(35, 201, 245), colorutil.RGB(111, 229, 253)},
	Fortuna:      {colorutil.RGB(57, 105, 192), colorutil.RGB(255, 115, 230)},
	Grineer:      {colorutil.RGB(255, 189, 102), colorutil.RGB(255, 224, 153)},
	Lotus:        {colorutil.RGB(36, 184, 242), colorutil.RGB(255, 241, 191)},
	Nidus:        {colorutil.RGB(140, 38, 92), colorutil.RGB(245, 73, 93)},
	Orokin:       {colorutil.RGB(20, 41, 29), colorutil.RGB(178, 125, 5)},
	Tenno:        {colorutil.RGB(9, 78, 106), colorutil.RGB(6, 106, 74)},
	HighContrast: {colorutil.RGB(2, 127, 217), colorutil.RGB(255, 255, 0)},
	Legacy:       {colorutil.RGB(255, 255, 255), colorutil.RGB(232, 213, 93)},
	Equinox:      {colorutil.RGB(158, 159, 167), colorutil.RGB(232, 227, 227)},
	DarkLotus:    {colorutil.RGB(140, 119, 147), colorutil.RGB(189, 169, 237)},
	Zephyr:       {colorutil.RGB(253, 132, 2), colorutil.RGB(255, 53, 0)},
}

var names = [numThemes]string{
	"vitruvian", "stalker", "baruuk", "corpus", "fortuna", "grineer", "lotus",
	"nidus", "orokin", "tenno", "high_contrast", "legacy", "equinox",
	"dark_lotus", "zephyr",
}

// TextTolerance is the RGB distance within which a pixel counts as text of
// the theme. Anti-aliased glyph edges fall outside it, which is intended.
const TextTolerance = 45.0

// All returns every theme in enum order.
func All() []Theme {
	out := make([]Theme, numThemes)
	for i := range out {
		out[i] = Theme(i)
	}
	return out
}

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t >= 0 && t < numThemes
}

func (t Theme) String() string {
	if !t.Valid() {
		return fmt.Sprintf("theme(%d)", int(t))
	}
	return names[t]
}

// Palette returns the reference colors of t. Unknown themes get the default palette.
func (t Theme) Palette() Palette {
	if !t.Valid() {
		return palettes[Default]
	}
	return palettes[t]
}

// IsText reports whether c looks like item name text drawn in theme t.
func (t Theme) IsText(c color.RGBA) bool {
	p := t.Palette()
	return colorutil.Distance(c, p.Primary) <= TextTolerance ||
		colorutil.Distance(c, p.Secondary) <= TextTolerance
}

// Parse resolves a theme name as produced by String. Matching ignores case,
// spaces and dashes.
func Parse(name string) (Theme, error) {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(name)))
	for i, n := range names {
		if n == key || strings.ReplaceAll(n, "_", "") == key {
			return Theme(i), nil
		}
	}
	return Default, fmt.Errorf("unknown theme %q", name)
}
