// Package tesseract provides the Tesseract-backed OCR engine for reward labels.
package tesseract

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"relicscan/internal/ocr"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// ItemNameChars is the character set printed in reward item names.
const ItemNameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 -'&"

// Options configures an Engine.
type Options struct {
	Language    string // traineddata name, e.g. "eng"
	Whitelist   string // empty disables the whitelist
	MinScaleDim int    // crops shorter than this are upscaled to it
	Border      int    // white margin added around the crop, in pixels
}

// DefaultOptions returns settings tuned for reward screen labels.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		Whitelist:   ItemNameChars,
		MinScaleDim: 96,
		Border:      12,
	}
}

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client *gosseract.Client
	opts   Options
}

var _ ocr.Recognizer = (*Engine)(nil)

// NewEngine creates a new OCR engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Item names are proper nouns; dictionary correction only hurts.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	// Labels wrap onto at most two lines of uniform text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	return &Engine{client: client, opts: opts}, nil
}

// Factory adapts NewEngine for ocr.NewPool.
func Factory(opts Options) ocr.Factory {
	return func() (ocr.Recognizer, error) {
		return NewEngine(opts)
	}
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize performs OCR on one label crop.
func (e *Engine) Recognize(img *image.RGBA) (string, error) {
	pix, w, h, stride := ocr.PackRGB(img)
	if w == 0 || h == 0 {
		return "", ocr.ErrEmptyImage
	}
	return e.RecognizeBuffer(pix, w, h, stride)
}

// RecognizeBuffer performs OCR on a packed 3-channel RGB buffer.
func (e *Engine) RecognizeBuffer(pix []byte, width, height, stride int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", ocr.ErrEmptyImage
	}
	if stride != width*3 || len(pix) < stride*height {
		return "", fmt.Errorf("invalid buffer geometry %dx%d stride %d (%d bytes)", width, height, stride, len(pix))
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, pix[:stride*height])
	if err != nil {
		return "", fmt.Errorf("failed to wrap buffer: %w", err)
	}
	defer mat.Close()

	processed := preprocess(mat, e.opts)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.Join(strings.Fields(text), " "), nil
}

// preprocess upscales short crops, binarizes and adds a white margin.
// Tesseract reads dark text on light background best, which is what the
// segmenter produces; Otsu cleans up resampling blur.
func preprocess(src gocv.Mat, opts Options) gocv.Mat {
	h := src.Rows()

	var scaled gocv.Mat
	if opts.MinScaleDim > 0 && h < opts.MinScaleDim {
		scale := float64(opts.MinScaleDim) / float64(h)
		scaled = gocv.NewMat()
		gocv.Resize(src, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = src.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorRGBToGray)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// Mostly dark means the polarity is inverted.
	if gocv.CountNonZero(binary) < binary.Rows()*binary.Cols()/2 {
		gocv.BitwiseNot(binary, &binary)
	}

	if opts.Border <= 0 {
		return binary
	}
	bordered := gocv.NewMat()
	b := opts.Border
	gocv.CopyMakeBorder(binary, &bordered, b, b, b, b, gocv.BorderConstant, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	binary.Close()
	return bordered
}
