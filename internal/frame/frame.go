// Package frame holds captured screenshots in a fixed RGBA layout.
package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Frame is one captured screenshot. It is not modified after construction.
type Frame struct {
	img *image.RGBA
}

// New copies img into a Frame whose bounds start at the origin.
func New(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Frame{img: rgba}
}

// FromRGBA builds a Frame from raw RGBA samples (4 bytes per pixel, row-major).
func FromRGBA(width, height int, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("frame buffer is %d bytes, want %d", len(pix), width*height*4)
	}
	buf := make([]byte, len(pix))
	copy(buf, pix)
	return &Frame{img: &image.RGBA{Pix: buf, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}}, nil
}

// Load decodes an image file into a Frame.
func Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		// imaging knows a few more encodings and applies EXIF orientation.
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}
	return New(img), nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	if f == nil || f.img == nil {
		return 0
	}
	return f.img.Rect.Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	if f == nil || f.img == nil {
		return 0
	}
	return f.img.Rect.Dy()
}

// Empty reports whether the frame holds no pixels.
func (f *Frame) Empty() bool {
	return f.Width() == 0 || f.Height() == 0
}

// Bounds returns the frame rectangle, always anchored at (0,0).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width(), f.Height())
}

// RGBAAt returns the pixel at (x, y), or transparent black outside the frame.
func (f *Frame) RGBAAt(x, y int) color.RGBA {
	if f.Empty() {
		return color.RGBA{}
	}
	return f.img.RGBAAt(x, y)
}

// Crop copies the pixels inside r into a new image anchored at the origin.
func (f *Frame) Crop(r image.Rectangle) *image.RGBA {
	r = r.Intersect(f.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if !r.Empty() {
		draw.Draw(out, out.Bounds(), f.img, r.Min, draw.Src)
	}
	return out
}

// Clone returns a writable copy of the frame pixels, e.g. for annotation.
func (f *Frame) Clone() *image.RGBA {
	return f.Crop(f.Bounds())
}

// Image exposes the frame as a read-only image.Image.
func (f *Frame) Image() image.Image {
	return f.img
}
