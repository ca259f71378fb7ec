//go:build tesseract

package tesseract

import (
	"context"
	"image"
	"image/draw"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"relicscan/internal/ocr"
	"relicscan/pkg/colorutil"
)

// label renders text the way the segmenter hands crops over: dark glyphs on
// a light background.
func label(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8*len(text)+8, 20))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorutil.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 15),
	}
	d.DrawString(text)
	big := imaging.Resize(img, img.Bounds().Dx()*3, 0, imaging.NearestNeighbor)
	out := image.NewRGBA(big.Bounds())
	draw.Draw(out, out.Bounds(), big, image.Point{}, draw.Src)
	return out
}

func TestEngineRecognizesLabel(t *testing.T) {
	e, err := NewEngine(DefaultOptions())
	require.NoError(t, err)
	defer e.Close()

	text, err := e.Recognize(label("FORMA BLUEPRINT"))
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(text), "BLUEPRINT")
}

func TestEngineEmptyImage(t *testing.T) {
	e, err := NewEngine(DefaultOptions())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Recognize(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ocr.ErrEmptyImage)

	_, err = e.RecognizeBuffer(make([]byte, 10), 4, 4, 12)
	assert.Error(t, err)
}

func TestFactoryInPool(t *testing.T) {
	pool := ocr.NewPool(2, Factory(DefaultOptions()))
	defer pool.Close()

	text, err := pool.RecognizeContext(context.Background(), label("AXI RELIC"))
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
