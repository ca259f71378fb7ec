package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	id      int
	delay   time.Duration
	text    string
	err     error
	panics  bool
	closed  atomic.Bool
	running *atomic.Int32
	peak    *atomic.Int32
}

func (f *fakeEngine) Recognize(_ *image.RGBA) (string, error) {
	if f.running != nil {
		n := f.running.Add(1)
		defer f.running.Add(-1)
		for {
			old := f.peak.Load()
			if n <= old || f.peak.CompareAndSwap(old, n) {
				break
			}
		}
	}
	if f.panics {
		panic("boom")
	}
	time.Sleep(f.delay)
	return f.text, f.err
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(1, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	return img
}

func TestPackRGB(t *testing.T) {
	pix, w, h, stride := PackRGB(testImage())
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 12, stride)
	require.Len(t, pix, 24)
	assert.Equal(t, []byte{1, 2, 3}, pix[3:6])
}

func TestPackRGBSubImage(t *testing.T) {
	img := testImage().SubImage(image.Rect(1, 0, 3, 1)).(*image.RGBA)
	pix, w, h, stride := PackRGB(img)
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, 6, stride)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0}, pix)
}

func TestPackRGBNil(t *testing.T) {
	pix, w, h, stride := PackRGB(nil)
	assert.Nil(t, pix)
	assert.Zero(t, w+h+stride)
}

func TestPoolReturnsText(t *testing.T) {
	p := NewPool(1, func() (Recognizer, error) { return &fakeEngine{text: "forma blueprint"}, nil })
	defer p.Close()

	text, err := p.RecognizeContext(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, "forma blueprint", text)
}

func TestPoolEmptyImage(t *testing.T) {
	p := NewPool(1, func() (Recognizer, error) { return &fakeEngine{}, nil })
	_, err := p.RecognizeContext(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = p.RecognizeContext(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestPoolEngineError(t *testing.T) {
	engineErr := errors.New("tesseract exploded")
	p := NewPool(1, func() (Recognizer, error) { return &fakeEngine{err: engineErr}, nil })
	_, err := p.RecognizeContext(context.Background(), testImage())
	assert.ErrorIs(t, err, engineErr)
}

func TestPoolFactoryError(t *testing.T) {
	calls := 0
	p := NewPool(1, func() (Recognizer, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no traineddata")
		}
		return &fakeEngine{text: "ok"}, nil
	})
	_, err := p.RecognizeContext(context.Background(), testImage())
	require.Error(t, err)

	// A failed creation does not use up pool capacity.
	text, err := p.RecognizeContext(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestPoolTimeoutReleasesEngineLater(t *testing.T) {
	var created atomic.Int32
	p := NewPool(1, func() (Recognizer, error) {
		created.Add(1)
		return &fakeEngine{delay: 50 * time.Millisecond, text: "late"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := p.RecognizeContext(ctx, testImage())
	assert.ErrorIs(t, err, ErrTimeout)

	// The slow engine comes back to the pool once it finishes.
	text, err := p.RecognizeContext(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, "late", text)
	assert.Equal(t, int32(1), created.Load())
}

func TestPoolWaitTimesOutWhenAllBusy(t *testing.T) {
	p := NewPool(1, func() (Recognizer, error) { return &fakeEngine{delay: 100 * time.Millisecond}, nil })

	go func() { _, _ = p.RecognizeContext(context.Background(), testImage()) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.RecognizeContext(ctx, testImage())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	p := NewPool(2, func() (Recognizer, error) {
		return &fakeEngine{delay: 10 * time.Millisecond, running: &running, peak: &peak}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.RecognizeContext(context.Background(), testImage())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolRecoversPanic(t *testing.T) {
	p := NewPool(1, func() (Recognizer, error) { return &fakeEngine{panics: true}, nil })
	_, err := p.RecognizeContext(context.Background(), testImage())
	assert.ErrorContains(t, err, "panic")
}

func TestPoolClose(t *testing.T) {
	engine := &fakeEngine{text: "x"}
	p := NewPool(1, func() (Recognizer, error) { return engine, nil })
	_, err := p.RecognizeContext(context.Background(), testImage())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, engine.closed.Load())
	require.NoError(t, p.Close())

	_, err = p.RecognizeContext(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
