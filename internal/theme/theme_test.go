package theme

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relicscan/internal/frame"
	"relicscan/internal/layout"
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

func blank(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	paint(img, img.Bounds(), c)
	return img
}

func TestDetectBlankFramesYieldDefault(t *testing.T) {
	assert.Equal(t, Default, Detect(nil))
	assert.Equal(t, Default, Detect(frame.New(image.NewRGBA(image.Rect(0, 0, 0, 0)))))
	assert.Equal(t, Default, Detect(frame.New(blank(1920, 1080, colorutil.Black))))
	assert.Equal(t, Default, Detect(frame.New(blank(1, 1, colorutil.Black))))
	assert.Equal(t, Default, Detect(frame.New(blank(640, 360, colorutil.RGB(128, 0, 255)))))
}

func TestDetectEveryPalette(t *testing.T) {
	for _, th := range All() {
		t.Run(th.String(), func(t *testing.T) {
			img := blank(1920, 1080, colorutil.Black)
			paint(img, layout.For(1920, 1080).Band().Image(), th.Palette().Primary)
			assert.Equal(t, th, Detect(frame.New(img)))
		})
	}
}

func TestDetectTieGoesToLowerTheme(t *testing.T) {
	img := blank(1920, 1080, colorutil.Black)
	band := layout.For(1920, 1080).Band().Image()
	mid := band.Min.X + band.Dx()/2
	paint(img, image.Rect(band.Min.X, band.Min.Y, mid, band.Max.Y), Corpus.Palette().Primary)
	paint(img, image.Rect(mid, band.Min.Y, band.Max.X, band.Max.Y), Stalker.Palette().Primary)
	assert.Equal(t, Stalker, Detect(frame.New(img)))
}

func TestDetectIsDeterministic(t *testing.T) {
	img := blank(1280, 720, colorutil.Black)
	band := layout.For(1280, 720).Band().Image()
	paint(img, image.Rect(band.Min.X, band.Min.Y, band.Min.X+band.Dx()/3, band.Max.Y), Zephyr.Palette().Primary)
	f := frame.New(img)
	first := Detect(f)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Detect(f))
	}
	assert.Equal(t, Zephyr, first)
}

func TestIsText(t *testing.T) {
	p := Corpus.Palette()
	assert.True(t, Corpus.IsText(p.Primary))
	assert.True(t, Corpus.IsText(p.Secondary))
	assert.True(t, Corpus.IsText(colorutil.RGB(40, 195, 240)))
	assert.False(t, Corpus.IsText(colorutil.Black))
	assert.False(t, Corpus.IsText(Stalker.Palette().Primary))
}

func TestParse(t *testing.T) {
	for _, th := range All() {
		got, err := Parse(th.String())
		require.NoError(t, err)
		assert.Equal(t, th, got)
	}

	got, err := Parse("High Contrast")
	require.NoError(t, err)
	assert.Equal(t, HighContrast, got)

	got, err = Parse("DarkLotus")
	require.NoError(t, err)
	assert.Equal(t, DarkLotus, got)

	_, err = Parse("neon")
	assert.Error(t, err)
}

func TestInvalidTheme(t *testing.T) {
	bad := Theme(99)
	assert.False(t, bad.Valid())
	assert.Equal(t, "theme(99)", bad.String())
	assert.Equal(t, Default.Palette(), bad.Palette())
}
