// Package layout describes where the reward screen draws its item names,
// expressed at a 1920x1080 reference resolution and scaled to real frames.
package layout

import (
	"relicscan/pkg/geometry"
)

// Reference resolution the constants below are measured at.
const (
	RefWidth  = 1920.0
	RefHeight = 1080.0
)

// Reward screen geometry at reference resolution.
const (
	BandTop    = 410.0 // first row of item name text
	BandBottom = 490.0 // below the second wrapped line of text
	SlotWidth  = 242.0 // horizontal pitch of one reward slot
	MaxSlots   = 4
)

// Layout is the reference geometry scaled to a concrete frame.
type Layout struct {
	Scale   float64
	CenterX float64
	OffsetY float64
	Bounds  geometry.RectInt
}

// For computes the layout for a frame of the given size. The reward screen
// scales uniformly with the smaller axis ratio and stays centered.
func For(width, height int) Layout {
	sx := float64(width) / RefWidth
	sy := float64(height) / RefHeight
	scale := min(sx, sy)
	return Layout{
		Scale:   scale,
		CenterX: float64(width) / 2,
		OffsetY: (float64(height) - RefHeight*scale) / 2,
		Bounds:  geometry.RectInt{Width: width, Height: height},
	}
}

// Band returns the strip holding item names across the full slot group.
func (l Layout) Band() geometry.RectInt {
	w := SlotWidth * MaxSlots * l.Scale
	r := geometry.NewRect(l.CenterX-w/2, l.OffsetY+BandTop*l.Scale, w, (BandBottom-BandTop)*l.Scale)
	return r.Round().Clamp(l.Bounds)
}

// Slots returns the n slot rectangles of a centered n-slot reward screen,
// left to right. Each spans the name band vertically.
func (l Layout) Slots(n int) []geometry.RectInt {
	if n <= 0 {
		return nil
	}
	pitch := SlotWidth * l.Scale
	left := l.CenterX - pitch*float64(n)/2
	top := l.OffsetY + BandTop*l.Scale
	height := (BandBottom - BandTop) * l.Scale

	slots := make([]geometry.RectInt, n)
	for i := range slots {
		r := geometry.NewRect(left+pitch*float64(i), top, pitch, height)
		slots[i] = r.Round().Clamp(l.Bounds)
	}
	return slots
}
