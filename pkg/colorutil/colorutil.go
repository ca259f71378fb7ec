// Package colorutil provides shared color utilities for reward screen analysis.
package colorutil

import (
	"image/color"

	"gonum.org/v1/gonum/floats"
)

// Annotation colors used by debug output.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// RGB builds an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// vec returns the RGB channels of c as a float vector. Alpha is ignored.
func vec(c color.RGBA) []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}

// Distance returns the Euclidean distance between two colors in RGB space (0-441.7).
func Distance(a, b color.RGBA) float64 {
	return floats.Distance(vec(a), vec(b), 2)
}

// Nearest returns the index of the palette entry closest to c and its distance.
// Ties go to the lower index. Returns -1 for an empty palette.
func Nearest(c color.RGBA, palette []color.RGBA) (int, float64) {
	best, bestDist := -1, 0.0
	v := vec(c)
	for i, p := range palette {
		d := floats.Distance(v, vec(p), 2)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
