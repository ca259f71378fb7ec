// Package annotate renders the debug image of a detection cycle: slot boxes,
// resolved names and the baseline under the detected labels.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"relicscan/internal/frame"
	"relicscan/internal/pipeline"
	"relicscan/pkg/colorutil"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box colors.
var (
	BestColor     = colorutil.Green
	ResolvedColor = colorutil.Cyan
	UnknownColor  = colorutil.Magenta
	BaselineColor = colorutil.Green
)

const outlineWidth = 2

// Draw returns a copy of f with the result drawn on top.
func Draw(f *frame.Frame, res *pipeline.Result) *image.RGBA {
	img := f.Clone()
	if res == nil || len(res.Slots) == 0 {
		return img
	}

	for i := range res.Slots {
		s := &res.Slots[i]
		c := ResolvedColor
		switch {
		case i == res.Best && s.Item != nil:
			c = BestColor
		case s.Item == nil:
			c = UnknownColor
		}

		b := s.Part.Bounds
		for w := 0; w < outlineWidth; w++ {
			drawRect(img, b.X-w, b.Y-w, b.X+b.Width-1+w, b.Y+b.Height-1+w, c)
		}

		label := s.Name()
		if s.Item != nil {
			label = fmt.Sprintf("%s  %.0fp %.1fd", s.Item.Name, s.Item.Platinum, float64(s.Item.Ducats)/10)
		}
		drawLabel(img, b.X, b.Y-outlineWidth-3, label, c)
	}

	drawBaseline(img, res)
	return img
}

// drawBaseline underlines the detected labels from the leftmost to the
// rightmost part.
func drawBaseline(img *image.RGBA, res *pipeline.Result) {
	minX, maxX, y := -1, -1, -1
	for i := range res.Slots {
		b := res.Slots[i].Part.Bounds
		if minX < 0 || b.X < minX {
			minX = b.X
		}
		maxX = max(maxX, b.X+b.Width)
		y = max(y, b.Y+b.Height)
	}
	if y < 0 {
		return
	}
	drawHLine(img, minX, maxX-1, y+outlineWidth, BaselineColor)
}

// drawLabel writes text with its baseline at (x, y) on a dark backing box.
func drawLabel(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	bounds, _ := d.BoundString(text)
	backing := image.Rect(bounds.Min.X.Floor()-1, bounds.Min.Y.Floor()-1, bounds.Max.X.Ceil()+1, bounds.Max.Y.Ceil()+1)
	fillRect(img, backing, colorutil.Black)
	d.DrawString(text)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawRect draws a rectangle outline.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	drawHLine(img, x1, x2, y1, c)
	drawHLine(img, x1, x2, y2, c)
	for y := y1; y <= y2; y++ {
		setPixel(img, x1, y, c)
		setPixel(img, x2, y, c)
	}
}

// drawHLine draws a horizontal line from x1 to x2 inclusive.
func drawHLine(img *image.RGBA, x1, x2, y int, c color.RGBA) {
	for x := x1; x <= x2; x++ {
		setPixel(img, x, y, c)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// Save writes img to path; the format follows the extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save debug image: %w", err)
	}
	return nil
}
