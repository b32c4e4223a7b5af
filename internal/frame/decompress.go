package frame

import (
	"encoding/binary"
	"fmt"
	"hash"
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/framelabs/lz4framed/internal/block"
)

type dctxState int

const (
	dstateAwaitingHeader dctxState = iota
	dstateAwaitingBlock
	dstateCompleted
)

// linkedWindowSize is how much decoded history a linked-block frame may
// reference from earlier blocks.
const linkedWindowSize = 64 << 10

// FrameInfo describes a parsed frame header.
type FrameInfo struct {
	BlockSizeID     BlockSizeID
	LinkedBlocks    bool
	ContentChecksum bool
	BlockChecksum   bool
	// ContentLength is the declared uncompressed length; only meaningful
	// when ContentLengthKnown is set (the encoder may not declare it).
	ContentLength      uint64
	ContentLengthKnown bool
	// InputHint advises how many further compressed bytes to supply.
	InputHint int
}

// DecompressionContext owns the decode state of one incoming frame. It
// consumes arbitrarily sized byte chunks, carrying over any incomplete
// trailing header or block bytes internally, and produces decoded chunks
// plus a hint of how much further input the next call should supply.
//
// A context decodes exactly one frame. Format and checksum failures are
// fatal: the context remembers the error and every later call returns it.
type DecompressionContext struct {
	mu    sync.Mutex
	state dctxState
	err   error // sticky fatal error

	carry []byte // fed but not yet consumed bytes
	hint  int

	hdr       header
	parsed    bool
	blockSize int

	contentHash hash.Hash32 // nil unless the frame carries a content checksum
	decodedLen  uint64
	window      []byte // linked-mode history, at most linkedWindowSize
}

// NewDecompressionContext returns a context awaiting the frame header.
func NewDecompressionContext() *DecompressionContext {
	return &DecompressionContext{hint: MaxHeaderSize}
}

// FrameInfo returns the parsed header fields. Until enough input has been
// supplied to parse the full header it fails with ErrHeaderIncomplete.
func (d *DecompressionContext) FrameInfo() (FrameInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.parsed {
		if d.err != nil {
			return FrameInfo{}, d.err
		}
		return FrameInfo{}, ErrHeaderIncomplete
	}
	return FrameInfo{
		BlockSizeID:        d.hdr.blockSizeID,
		LinkedBlocks:       d.hdr.linked,
		ContentChecksum:    d.hdr.contentChecksum,
		BlockChecksum:      d.hdr.blockChecksum,
		ContentLength:      d.hdr.contentSize,
		ContentLengthKnown: d.hdr.contentSizeKnown,
		InputHint:          d.hint,
	}, nil
}

// Update consumes as much of p as forms complete header and block units,
// carrying any incomplete tail over to the next call. It returns the
// decoded chunks, each at most chunkLen bytes, and the input hint: how
// many bytes the caller should supply next (0 once the frame completed).
//
// A zero-length p returns ErrNoData so read loops can detect a starved
// source. A chunkLen below 1 is a usage error.
func (d *DecompressionContext) Update(p []byte, chunkLen int) ([][]byte, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if chunkLen < 1 {
		return nil, 0, fmt.Errorf("%w: output chunk length %d", ErrUsage, chunkLen)
	}
	if d.err != nil {
		return nil, 0, d.err
	}
	if d.state == dstateCompleted {
		return nil, 0, fmt.Errorf("%w: Update on a completed context", ErrUsage)
	}
	if len(p) == 0 {
		return nil, d.hint, ErrNoData
	}

	d.carry = append(d.carry, p...)
	chunks, off, err := d.consume(chunkLen)
	d.carry = append(d.carry[:0], d.carry[off:]...)
	if err != nil {
		d.err = err
		return nil, 0, err
	}
	return chunks, d.hint, nil
}

// consume walks the carry buffer decoding complete units, returning the
// decoded chunks and the number of bytes used. It stops, setting the input
// hint, as soon as the next unit is incomplete.
func (d *DecompressionContext) consume(chunkLen int) ([][]byte, int, error) {
	var chunks [][]byte
	off := 0
	for {
		rest := d.carry[off:]
		switch d.state {
		case dstateAwaitingHeader:
			n, err := headerLen(rest)
			if err == ErrHeaderIncomplete {
				d.hint = MinHeaderSize - len(rest)
				return chunks, off, nil
			}
			if err != nil {
				return chunks, off, err
			}
			if len(rest) < n {
				d.hint = n - len(rest)
				return chunks, off, nil
			}
			hdr, err := parseHeader(rest[:n])
			if err != nil {
				return chunks, off, err
			}
			size, err := BlockSize(hdr.blockSizeID)
			if err != nil {
				return chunks, off, err
			}
			d.hdr = hdr
			d.parsed = true
			d.blockSize = size
			if hdr.contentChecksum {
				d.contentHash = xxhash.New32()
			}
			d.state = dstateAwaitingBlock
			off += n

		case dstateAwaitingBlock:
			if len(rest) < blockLenSize {
				d.hint = blockLenSize - len(rest)
				return chunks, off, nil
			}
			word := binary.LittleEndian.Uint32(rest[:blockLenSize])
			if word == 0 {
				used, err := d.consumeTrailer(rest)
				if err != nil {
					return chunks, off, err
				}
				if used == 0 { // trailer incomplete, hint already set
					return chunks, off, nil
				}
				off += used
				continue
			}
			decoded, used, err := d.consumeBlock(rest, word)
			if err != nil {
				return chunks, off, err
			}
			if used == 0 { // block incomplete, hint already set
				return chunks, off, nil
			}
			off += used
			for len(decoded) > 0 {
				n := min(len(decoded), chunkLen)
				chunks = append(chunks, decoded[:n])
				decoded = decoded[n:]
			}

		case dstateCompleted:
			d.hint = 0
			return chunks, off, nil
		}
	}
}

// consumeTrailer handles the end marker and, if the frame declares one, the
// trailing content checksum. It returns 0 consumed bytes (with the hint
// set) when the trailer is still incomplete.
func (d *DecompressionContext) consumeTrailer(rest []byte) (int, error) {
	need := endMarkerSize
	if d.hdr.contentChecksum {
		need += checksumSize
	}
	if len(rest) < need {
		d.hint = need - len(rest)
		return 0, nil
	}
	if d.hdr.contentChecksum {
		got := binary.LittleEndian.Uint32(rest[endMarkerSize:need])
		if want := d.contentHash.Sum32(); got != want {
			return 0, fmt.Errorf("%w: got %#08x, computed %#08x", ErrContentChecksum, got, want)
		}
	}
	if d.hdr.contentSizeKnown && d.decodedLen != d.hdr.contentSize {
		return 0, fmt.Errorf("%w: declared %d, decoded %d",
			ErrContentLenMismatch, d.hdr.contentSize, d.decodedLen)
	}
	d.state = dstateCompleted
	d.hint = 0
	return need, nil
}

// consumeBlock decodes one block unit (length word, payload, optional
// checksum) from rest. It returns the decoded bytes in a buffer the caller
// may keep, and the consumed byte count — 0, with the hint set, when the
// unit is still incomplete.
func (d *DecompressionContext) consumeBlock(rest []byte, word uint32) ([]byte, int, error) {
	stored := word&rawBlockFlag != 0
	payloadLen := int(word &^ rawBlockFlag)
	if payloadLen == 0 {
		return nil, 0, fmt.Errorf("%w: zero-length block", ErrFormat)
	}
	if payloadLen > d.blockSize {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, payloadLen, d.blockSize)
	}

	need := blockLenSize + payloadLen
	if d.hdr.blockChecksum {
		need += checksumSize
	}
	if len(rest) < need {
		d.hint = need - len(rest)
		return nil, 0, nil
	}

	payload := rest[blockLenSize : blockLenSize+payloadLen]
	if d.hdr.blockChecksum {
		got := binary.LittleEndian.Uint32(rest[blockLenSize+payloadLen : need])
		if want := xxhash.Checksum32(payload); got != want {
			return nil, 0, fmt.Errorf("%w: got %#08x, computed %#08x", ErrBlockChecksum, got, want)
		}
	}

	// Stored payloads are copied out: the carry buffer is compacted and
	// reused after this call, decoded chunks must not alias it.
	var decoded []byte
	if stored {
		decoded = append([]byte(nil), payload...)
	} else {
		dst := make([]byte, d.blockSize)
		var n int
		var err error
		if d.hdr.linked {
			n, err = block.DecompressLinked(payload, dst, d.window)
		} else {
			n, err = block.Decompress(payload, dst)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		decoded = dst[:n]
	}

	if d.contentHash != nil {
		d.contentHash.Write(decoded)
	}
	d.decodedLen += uint64(len(decoded))
	if d.hdr.linked {
		d.window = append(d.window, decoded...)
		if n := len(d.window); n > linkedWindowSize {
			d.window = append(d.window[:0], d.window[n-linkedWindowSize:]...)
		}
	}
	return decoded, need, nil
}
