package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

// Factory creates a new engine for the pool.
type Factory func() (Recognizer, error)

// Pool lends engines to concurrent callers, creating up to size of them on
// demand.
type Pool struct {
	factory Factory
	idle    chan Recognizer

	mu      sync.Mutex
	size    int
	created int
	closed  bool
}

// NewPool creates a pool that holds at most size engines.
func NewPool(size int, factory Factory) *Pool {
	size = max(size, 1)
	return &Pool{
		factory: factory,
		idle:    make(chan Recognizer, size),
		size:    size,
	}
}

// Size returns the maximum number of engines.
func (p *Pool) Size() int {
	return p.size
}

// get takes an idle engine, creates one if the pool is not full, or waits.
func (p *Pool) get(ctx context.Context) (Recognizer, error) {
	select {
	case e := <-p.idle:
		return e, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()
		e, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, fmt.Errorf("failed to create OCR engine: %w", err)
		}
		return e, nil
	}
	p.mu.Unlock()

	select {
	case e := <-p.idle:
		return e, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for engine: %v", ErrTimeout, ctx.Err())
	}
}

// put returns an engine. Engines returned after Close are released.
func (p *Pool) put(e Recognizer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = e.Close()
		return
	}
	// Never blocks: at most size engines exist.
	p.idle <- e
}

// RecognizeContext runs recognition on an engine from the pool. If ctx ends
// first, ErrTimeout is returned at once; the engine finishes in the
// background, its result is dropped, and it goes back to the pool.
func (p *Pool) RecognizeContext(ctx context.Context, img *image.RGBA) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrEmptyImage
	}
	e, err := p.get(ctx)
	if err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := recognize(e, img)
		p.put(e)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		slog.Debug("OCR call abandoned", "error", ctx.Err())
		return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// recognize calls the engine, turning a panic into an error.
func recognize(e Recognizer, img *image.RGBA) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("OCR engine panic: %v", r)
		}
	}()
	return e.Recognize(img)
}

// Close releases idle engines. Engines still running are released when they
// finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for {
		select {
		case e := <-p.idle:
			if err := e.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
