// Package segment locates the reward slots on a reward screen capture and
// crops the item name label of each for OCR.
package segment

import (
	"image"
	"math"
	"sort"

	"relicscan/internal/frame"
	"relicscan/internal/layout"
	"relicscan/internal/theme"
	"relicscan/pkg/colorutil"
	"relicscan/pkg/geometry"
)

// Tuning at reference resolution.
const (
	boundaryHalfWidth = 6.0  // half width of the gap probed at slot edges
	minInkColumns     = 6.0  // text columns a slot needs to count as occupied
	labelPadding      = 4.0  // margin kept around the tight text box
	maxBoundaryInk    = 0.02 // share of a boundary window allowed to be text
	maxStrayInk       = 0.10 // share of all band ink allowed outside the slots
)

// Part is one detected reward slot. The image holds the item name rendered
// as black text on white.
type Part struct {
	Slot     int               // index within the detected layout, left to right
	Position geometry.PointInt // top-left of Image in frame coordinates
	Bounds   geometry.RectInt  // crop rectangle in frame coordinates
	Image    *image.RGBA

	// Filled in after OCR.
	RawText string
	Text    string
}

// mask is the binary text map of the name band.
type mask struct {
	origin geometry.PointInt
	w, h   int
	on     []bool
	colInk []int
	total  int
}

func newMask(f *frame.Frame, band geometry.RectInt, th theme.Theme) *mask {
	m := &mask{
		origin: geometry.PointInt{X: band.X, Y: band.Y},
		w:      band.Width,
		h:      band.Height,
		on:     make([]bool, band.Width*band.Height),
		colInk: make([]int, band.Width),
	}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if th.IsText(f.RGBAAt(band.X+x, band.Y+y)) {
				m.on[y*m.w+x] = true
				m.colInk[x]++
				m.total++
			}
		}
	}
	return m
}

func (m *mask) at(fx, fy int) bool {
	x, y := fx-m.origin.X, fy-m.origin.Y
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.on[y*m.w+x]
}

// ink sums text pixels over frame columns [x0, x1).
func (m *mask) ink(x0, x1 int) int {
	sum := 0
	for x := max(x0-m.origin.X, 0); x < min(x1-m.origin.X, m.w); x++ {
		sum += m.colInk[x]
	}
	return sum
}

// inkColumns counts frame columns in [x0, x1) holding any text.
func (m *mask) inkColumns(x0, x1 int) int {
	n := 0
	for x := max(x0-m.origin.X, 0); x < min(x1-m.origin.X, m.w); x++ {
		if m.colInk[x] > 0 {
			n++
		}
	}
	return n
}

// ExtractParts finds the reward slots of a capture drawn in theme th and
// returns one Part per occupied slot, ordered left to right. A capture with
// no recognizable slots yields an empty slice.
func ExtractParts(f *frame.Frame, th theme.Theme) []Part {
	if f.Empty() {
		return nil
	}
	l := layout.For(f.Width(), f.Height())
	band := l.Band()
	if band.Empty() {
		return nil
	}
	m := newMask(f, band, th)
	if m.total == 0 {
		return nil
	}

	for n := layout.MaxSlots; n >= 1; n-- {
		slots := l.Slots(n)
		if !fits(m, slots, l.Scale) {
			continue
		}
		parts := make([]Part, 0, n)
		for i, s := range slots {
			if p, ok := cropLabel(f, m, s, l.Scale); ok {
				p.Slot = i
				parts = append(parts, p)
			}
		}
		sort.SliceStable(parts, func(i, j int) bool {
			return parts[i].Position.X < parts[j].Position.X
		})
		return parts
	}
	return nil
}

// fits reports whether the band's ink is explained by the given slot layout:
// every slot carries text, the edges between and around slots are clear, and
// little text lies outside the group.
func fits(m *mask, slots []geometry.RectInt, scale float64) bool {
	need := max(2, int(math.Round(minInkColumns*scale)))
	half := max(1, int(math.Round(boundaryHalfWidth*scale)))

	edges := make([]int, 0, len(slots)+1)
	inside := 0
	for _, s := range slots {
		if m.inkColumns(s.X, s.X+s.Width) < need {
			return false
		}
		inside += m.ink(s.X, s.X+s.Width)
		edges = append(edges, s.X)
	}
	last := slots[len(slots)-1]
	edges = append(edges, last.X+last.Width)

	for _, e := range edges {
		window := 2 * half * m.h
		if float64(m.ink(e-half, e+half)) > maxBoundaryInk*float64(window) {
			return false
		}
	}
	return float64(m.total-inside) <= maxStrayInk*float64(m.total)
}

// cropLabel cuts the padded text box of one slot out of the mask and renders
// it as black on white.
func cropLabel(f *frame.Frame, m *mask, slot geometry.RectInt, scale float64) (Part, bool) {
	x0, y0, x1, y1 := math.MaxInt, math.MaxInt, -1, -1
	for y := slot.Y; y < slot.Y+slot.Height; y++ {
		for x := slot.X; x < slot.X+slot.Width; x++ {
			if m.at(x, y) {
				x0, y0 = min(x0, x), min(y0, y)
				x1, y1 = max(x1, x), max(y1, y)
			}
		}
	}
	if x1 < 0 {
		return Part{}, false
	}

	pad := max(2, int(math.Round(labelPadding*scale)))
	box := geometry.RectInt{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}.
		Pad(pad).
		Clamp(slot).
		Clamp(geometry.FromImage(f.Bounds()))

	img := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	for y := 0; y < box.Height; y++ {
		for x := 0; x < box.Width; x++ {
			c := colorutil.White
			if m.at(box.X+x, box.Y+y) {
				c = colorutil.Black
			}
			img.SetRGBA(x, y, c)
		}
	}
	return Part{
		Position: geometry.PointInt{X: box.X, Y: box.Y},
		Bounds:   box,
		Image:    img,
	}, true
}
