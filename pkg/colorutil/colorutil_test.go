package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0.0, Distance(Black, Black), 1e-9)
	assert.InDelta(t, 255.0, Distance(Black, RGB(255, 0, 0)), 1e-9)
	assert.InDelta(t, 5.0, Distance(RGB(0, 3, 4), Black), 1e-9)
}

func TestDistanceIgnoresAlpha(t *testing.T) {
	a := color.RGBA{R: 10, G: 20, B: 30, A: 0}
	b := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	assert.Zero(t, Distance(a, b))
}

func TestNearest(t *testing.T) {
	palette := []color.RGBA{Black, White, RGB(255, 0, 0)}

	idx, dist := Nearest(RGB(250, 5, 5), palette)
	assert.Equal(t, 2, idx)
	assert.Less(t, dist, 10.0)

	idx, _ = Nearest(RGB(240, 240, 240), palette)
	assert.Equal(t, 1, idx)
}

func TestNearestTieGoesToLowerIndex(t *testing.T) {
	palette := []color.RGBA{RGB(0, 0, 0), RGB(0, 0, 0)}
	idx, _ := Nearest(RGB(1, 1, 1), palette)
	assert.Equal(t, 0, idx)
}

func TestNearestEmptyPalette(t *testing.T) {
	idx, _ := Nearest(White, nil)
	assert.Equal(t, -1, idx)
}
