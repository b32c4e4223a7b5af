package stream

import (
	"io"

	"github.com/framelabs/lz4framed/internal/frame"
)

// initialChunkLen is the output chunk size used until the frame's block
// size is known from the parsed header.
const initialChunkLen = 32

// Decompressor wraps a DecompressionContext and a pull-based byte source,
// exposing the decoded frame as a forward-only, single-pass sequence of
// chunks. The first pull covers the largest possible header; once the
// header is parsed, output chunks are sized to the frame's block size.
//
// All iteration state is explicit: the context, the source, the pending
// input hint, the chunks not yet handed out, and the parsed frame info.
type Decompressor struct {
	ctx *frame.DecompressionContext
	r   io.Reader

	hint     int
	chunkLen int
	pending  [][]byte
	info     *frame.FrameInfo
	err      error // sticky
}

// NewDecompressor returns a Decompressor reading one frame from r.
func NewDecompressor(r io.Reader) *Decompressor {
	return &Decompressor{
		ctx:      frame.NewDecompressionContext(),
		r:        r,
		hint:     frame.MaxHeaderSize,
		chunkLen: initialChunkLen,
	}
}

// FrameInfo returns the parsed frame header, or nil while not enough input
// has been pulled to decode it (typically before the first Next call). It
// is set exactly once and never mutated afterwards.
func (d *Decompressor) FrameInfo() *frame.FrameInfo {
	return d.info
}

// Next returns the next decoded chunk. It returns io.EOF once the frame
// has been fully decoded, and frame.ErrNoData if the source runs dry
// before the frame's end marker — letting callers tell a clean end from a
// starved source. Errors are sticky: after a failure every call returns
// the same error.
func (d *Decompressor) Next() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	for len(d.pending) == 0 {
		if d.hint == 0 {
			d.err = io.EOF
			return nil, io.EOF
		}
		if err := d.pull(); err != nil {
			d.err = err
			return nil, err
		}
	}
	chunk := d.pending[0]
	d.pending = d.pending[1:]
	return chunk, nil
}

// pull reads up to the hinted byte count from the source and feeds it to
// the context, queueing any decoded chunks.
func (d *Decompressor) pull() error {
	buf := make([]byte, d.hint)
	n, rerr := io.ReadFull(d.r, buf)
	if n == 0 {
		// Source starved mid-frame: same signal as empty input.
		return frame.ErrNoData
	}

	chunks, hint, err := d.ctx.Update(buf[:n], d.chunkLen)
	if err != nil {
		return err
	}
	d.hint = hint
	d.pending = append(d.pending, chunks...)

	if d.info == nil {
		info, err := d.ctx.FrameInfo()
		switch {
		case err == nil:
			size, err := frame.BlockSize(info.BlockSizeID)
			if err != nil {
				return err
			}
			d.info = &info
			d.chunkLen = size
		case err == frame.ErrHeaderIncomplete:
			// Tolerated: retry on the next pull. Should not happen once
			// the maximum header length has been read.
		default:
			return err
		}
	}

	if d.hint > 0 && rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return rerr
	}
	return nil
}
