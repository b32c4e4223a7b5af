package frame

import (
	"encoding/binary"
	"fmt"
	"hash"
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/framelabs/lz4framed/internal/block"
)

type cctxState int

const (
	cstateIdle cctxState = iota
	cstateHeaderEmitted
	cstateActive
	cstateEnded
)

// CompressionContext owns the encode state of one outgoing frame: it
// sequences header emission, per-block compression and end-of-frame
// finalization. A context serves exactly one frame; once ended it must be
// discarded and a fresh one created for the next frame.
//
// All methods serialize on an internal lock, so a context is safe to drive
// from multiple goroutines, though it models a single logical producer.
type CompressionContext struct {
	mu    sync.Mutex
	state cctxState

	cfg       Config
	codec     block.Codec
	blockSize int
	buf       []byte // pending uncompressed bytes, always < blockSize

	contentHash hash.Hash32 // nil unless content checksum requested
}

// NewCompressionContext returns an idle context; Begin must be called
// before any data is supplied.
func NewCompressionContext() *CompressionContext {
	return &CompressionContext{}
}

// Begin validates cfg and returns the encoded frame header, which must be
// emitted before any block data. Calling Begin twice is a usage error.
func (c *CompressionContext) Begin(cfg Config) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != cstateIdle {
		return nil, fmt.Errorf("%w: Begin on a started context", ErrUsage)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	codec, err := block.ForLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	size, err := BlockSize(cfg.BlockSizeID)
	if err != nil {
		return nil, err
	}

	c.cfg = cfg
	c.codec = codec
	c.blockSize = size
	if cfg.ContentChecksum {
		c.contentHash = xxhash.New32()
	}
	c.state = cstateHeaderEmitted
	return encodeHeader(cfg), nil
}

// Update buffers p and returns the compressed bytes for every complete
// block it forms. The returned slice may be empty while data is being
// buffered (unless AutoFlush is set, in which case all buffered data is
// emitted each call). A zero-length p returns ErrNoData, the end-of-input
// signal for read loops.
func (c *CompressionContext) Update(p []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case cstateIdle:
		return nil, fmt.Errorf("%w: Update before Begin", ErrUsage)
	case cstateEnded:
		return nil, fmt.Errorf("%w: Update on an ended context", ErrUsage)
	}
	if len(p) == 0 {
		return nil, ErrNoData
	}
	c.state = cstateActive

	if c.contentHash != nil {
		c.contentHash.Write(p)
	}
	c.buf = append(c.buf, p...)

	var out []byte
	for len(c.buf) >= c.blockSize {
		var err error
		if out, err = c.appendBlock(out, c.buf[:c.blockSize]); err != nil {
			return nil, err
		}
		c.buf = c.buf[c.blockSize:]
	}
	if c.cfg.AutoFlush && len(c.buf) > 0 {
		var err error
		if out, err = c.appendBlock(out, c.buf); err != nil {
			return nil, err
		}
		c.buf = c.buf[:0]
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// End flushes any buffered partial block, emits the end marker and, if
// requested, the content checksum. The context is unusable afterwards;
// calling End twice is a usage error.
func (c *CompressionContext) End() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case cstateIdle:
		return nil, fmt.Errorf("%w: End before Begin", ErrUsage)
	case cstateEnded:
		return nil, fmt.Errorf("%w: End on an ended context", ErrUsage)
	}
	c.state = cstateEnded

	var out []byte
	if len(c.buf) > 0 {
		var err error
		if out, err = c.appendBlock(out, c.buf); err != nil {
			return nil, err
		}
		c.buf = nil
	}
	out = binary.LittleEndian.AppendUint32(out, 0) // end marker
	if c.contentHash != nil {
		out = binary.LittleEndian.AppendUint32(out, c.contentHash.Sum32())
	}
	return out, nil
}

// appendBlock compresses one raw block (at most blockSize bytes) and
// appends its encoded form to out: length word, payload, optional
// checksum. Blocks that do not shrink are stored raw with the top bit of
// the length word set.
func (c *CompressionContext) appendBlock(out, raw []byte) ([]byte, error) {
	payload, err := c.codec.Compress(raw)
	if err != nil {
		return nil, err
	}
	word := uint32(len(payload))
	if payload == nil {
		payload = raw
		word = uint32(len(raw)) | rawBlockFlag
	}
	out = binary.LittleEndian.AppendUint32(out, word)
	out = append(out, payload...)
	if c.cfg.BlockChecksum {
		out = binary.LittleEndian.AppendUint32(out, xxhash.Checksum32(payload))
	}
	return out, nil
}
