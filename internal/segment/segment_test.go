package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relicscan/internal/frame"
	"relicscan/internal/layout"
	"relicscan/internal/theme"
	"relicscan/pkg/colorutil"
)

func paint(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// rewardScreen paints n label blocks of the given width centered in the
// n-slot layout, on a black background.
func rewardScreen(w, h, n, labelWidth int, c color.RGBA) *frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	paint(img, img.Bounds(), colorutil.Black)
	l := layout.For(w, h)
	for _, s := range l.Slots(n) {
		cx := s.X + s.Width/2
		lw := int(float64(labelWidth) * l.Scale)
		top := s.Y + int(12*l.Scale)
		paint(img, image.Rect(cx-lw/2, top, cx+lw/2, top+int(18*l.Scale)), c)
	}
	return frame.New(img)
}

func TestExtractPartsVariableSlotCount(t *testing.T) {
	ink := theme.Vitruvian.Palette().Primary
	for n := 1; n <= layout.MaxSlots; n++ {
		f := rewardScreen(1920, 1080, n, 150, ink)
		parts := ExtractParts(f, theme.Vitruvian)
		require.Len(t, parts, n, "slots=%d", n)

		slots := layout.For(1920, 1080).Slots(n)
		for i, p := range parts {
			assert.Equal(t, i, p.Slot)
			assert.True(t, p.Bounds.Image().In(slots[i].Image()), "part %d outside slot", i)
			assert.Equal(t, p.Bounds.X, p.Position.X)
			assert.Equal(t, p.Bounds.Width, p.Image.Bounds().Dx())
		}
	}
}

func TestExtractPartsOrderedLeftToRight(t *testing.T) {
	f := rewardScreen(1920, 1080, 4, 180, theme.Corpus.Palette().Primary)
	parts := ExtractParts(f, theme.Corpus)
	require.Len(t, parts, 4)
	for i := 1; i < len(parts); i++ {
		assert.Less(t, parts[i-1].Position.X, parts[i].Position.X)
	}
}

func TestExtractPartsRendersBlackOnWhite(t *testing.T) {
	f := rewardScreen(1920, 1080, 1, 150, theme.Grineer.Palette().Primary)
	parts := ExtractParts(f, theme.Grineer)
	require.Len(t, parts, 1)

	img := parts[0].Image
	b := img.Bounds()
	assert.Equal(t, colorutil.White, img.RGBAAt(0, 0), "padding should be white")
	assert.Equal(t, colorutil.Black, img.RGBAAt(b.Dx()/2, b.Dy()/2), "label should be black")
}

func TestExtractPartsScaledFrame(t *testing.T) {
	f := rewardScreen(1280, 720, 3, 150, theme.Lotus.Palette().Primary)
	parts := ExtractParts(f, theme.Lotus)
	assert.Len(t, parts, 3)
}

func TestExtractPartsEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	paint(img, img.Bounds(), colorutil.Black)

	assert.Empty(t, ExtractParts(frame.New(img), theme.Vitruvian))
	assert.Empty(t, ExtractParts(nil, theme.Vitruvian))
}

func TestExtractPartsWrongThemeFindsNothing(t *testing.T) {
	f := rewardScreen(1920, 1080, 4, 150, theme.Stalker.Palette().Primary)
	assert.Empty(t, ExtractParts(f, theme.Corpus))
}

func TestExtractPartsRejectsTextAcrossSlotEdges(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	paint(img, img.Bounds(), colorutil.Black)
	band := layout.For(1920, 1080).Band().Image()
	paint(img, image.Rect(band.Min.X, band.Min.Y+10, band.Max.X, band.Min.Y+30), theme.Vitruvian.Palette().Primary)

	assert.Empty(t, ExtractParts(frame.New(img), theme.Vitruvian))
}

func TestExtractPartsDeterministic(t *testing.T) {
	f := rewardScreen(1920, 1080, 3, 160, theme.Orokin.Palette().Secondary)
	first := ExtractParts(f, theme.Orokin)
	require.Len(t, first, 3)
	for i := 0; i < 3; i++ {
		again := ExtractParts(f, theme.Orokin)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Bounds, again[j].Bounds)
			assert.Equal(t, first[j].Image.Pix, again[j].Image.Pix)
		}
	}
}
