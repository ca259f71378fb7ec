package theme

import (
	"image/color"

	"relicscan/internal/frame"
	"relicscan/internal/layout"
	"relicscan/pkg/colorutil"
)

// MatchTolerance bounds how far a probe pixel may be from a theme's primary
// color and still vote for it.
const MatchTolerance = 40.0

// Probe grid density across the name band.
const (
	probeCols = 96
	probeRows = 8
)

var primaries = func() []color.RGBA {
	out := make([]color.RGBA, numThemes)
	for i, p := range palettes {
		out[i] = p.Primary
	}
	return out
}()

// Detect classifies the theme of a reward screen capture. It samples a fixed
// grid of pixels inside the item name band and lets every pixel close enough
// to a theme's primary color vote for it. The theme with the most votes wins,
// ties going to the lower enum value. Frames with no votes, and nil or empty
// frames, yield Default.
func Detect(f *frame.Frame) Theme {
	if f.Empty() {
		return Default
	}
	var votes [numThemes]int
	for _, pt := range probePoints(f.Width(), f.Height()) {
		idx, dist := colorutil.Nearest(f.RGBAAt(pt[0], pt[1]), primaries)
		if idx >= 0 && dist <= MatchTolerance {
			votes[idx]++
		}
	}

	best, bestVotes := Default, 0
	for i, v := range votes {
		if v > bestVotes {
			best, bestVotes = Theme(i), v
		}
	}
	return best
}

// probePoints returns the deterministic probe coordinates for a frame size.
func probePoints(width, height int) [][2]int {
	band := layout.For(width, height).Band()
	if band.Empty() {
		return nil
	}
	pts := make([][2]int, 0, probeCols*probeRows)
	for r := 0; r < probeRows; r++ {
		y := band.Y + (2*r+1)*band.Height/(2*probeRows)
		for c := 0; c < probeCols; c++ {
			x := band.X + (2*c+1)*band.Width/(2*probeCols)
			pts = append(pts, [2]int{x, y})
		}
	}
	return pts
}
