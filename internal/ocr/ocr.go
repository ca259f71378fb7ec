// Package ocr runs text recognition on reward label crops. Engines are
// pooled because a Tesseract handle can serve only one caller at a time.
package ocr

import (
	"errors"
	"image"
)

var (
	// ErrTimeout is returned when recognition does not finish within the
	// caller's deadline. The engine keeps running and is reused afterwards.
	ErrTimeout = errors.New("ocr timed out")

	// ErrEmptyImage is returned for nil or zero-sized input.
	ErrEmptyImage = errors.New("empty image")

	// ErrPoolClosed is returned after Close.
	ErrPoolClosed = errors.New("ocr pool closed")
)

// Recognizer extracts text from one image. Implementations need not be safe
// for concurrent use.
type Recognizer interface {
	Recognize(img *image.RGBA) (string, error)
	Close() error
}

// PackRGB copies img into a tightly packed 3-channel RGB buffer and returns it
// with the geometry an engine needs: width, height and row stride in bytes.
func PackRGB(img *image.RGBA) (pix []byte, width, height, stride int) {
	if img == nil {
		return nil, 0, 0, 0
	}
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	stride = width * 3
	pix = make([]byte, stride*height)
	for y := 0; y < height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := pix[y*stride:]
		for x := 0; x < width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return pix, width, height, stride
}
