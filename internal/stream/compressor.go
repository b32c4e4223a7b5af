// Package stream adapts the frame contexts to byte sinks and sources:
// a push-style Compressor over an optional io.Writer and a pull-style
// Decompressor over an io.Reader.
package stream

import (
	"fmt"
	"io"
	"sync"

	"github.com/framelabs/lz4framed/internal/frame"
)

// Compressor wraps one CompressionContext, buffering caller input until a
// block boundary (or flushing every call when AutoFlush is set). When
// bound to a sink the encoded header is not written eagerly: it is held
// back and written together with the first update, so a Compressor that
// never receives data never leaves a dangling header behind.
type Compressor struct {
	mu  sync.Mutex
	ctx *frame.CompressionContext

	w       io.Writer // nil when the caller collects returned bytes
	header  []byte    // pending frame header, nil once written/returned
	started bool
	ended   bool
}

// NewCompressor begins a frame with cfg. If w is non-nil all output is
// written to it and the update/end results are nil; otherwise the caller
// collects the returned bytes. End must be called exactly once to
// finalize the frame.
func NewCompressor(w io.Writer, cfg frame.Config) (*Compressor, error) {
	ctx := frame.NewCompressionContext()
	header, err := ctx.Begin(cfg)
	if err != nil {
		return nil, err
	}
	return &Compressor{ctx: ctx, w: w, header: header}, nil
}

// Update compresses p, returning (or writing) any complete-block output.
// Zero-length input returns frame.ErrNoData, the end-of-input signal.
func (c *Compressor) Update(p []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return nil, fmt.Errorf("%w: Update on an ended compressor", frame.ErrUsage)
	}
	out, err := c.ctx.Update(p)
	if err != nil {
		return nil, err
	}
	if c.w == nil {
		if c.header != nil {
			out = append(c.header, out...)
			c.header = nil
		}
		return out, nil
	}
	return nil, c.flush(out)
}

// End flushes any buffered partial block and finalizes the frame. Calling
// it twice is a usage error.
func (c *Compressor) End() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return nil, fmt.Errorf("%w: End on an ended compressor", frame.ErrUsage)
	}
	out, err := c.ctx.End()
	if err != nil {
		return nil, err
	}
	c.ended = true
	if c.w == nil {
		if c.header != nil {
			out = append(c.header, out...)
			c.header = nil
		}
		return out, nil
	}
	return nil, c.flush(out)
}

// flush writes the pending header, if still held back, followed by out.
func (c *Compressor) flush(out []byte) error {
	if c.header != nil {
		if _, err := c.w.Write(c.header); err != nil {
			return fmt.Errorf("writing frame header: %w", err)
		}
		c.header = nil
		c.started = true
	}
	if len(out) == 0 {
		return nil
	}
	if _, err := c.w.Write(out); err != nil {
		if c.started {
			return fmt.Errorf("writing frame data (earlier output already flushed): %w", err)
		}
		return fmt.Errorf("writing frame data: %w", err)
	}
	c.started = true
	return nil
}
