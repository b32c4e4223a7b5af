package frame

import (
	"errors"
	"fmt"
)

// Error kinds. Specific failures below wrap one of these, so callers can
// match either the exact failure or its class with errors.Is.
var (
	// ErrFormat reports a structurally invalid frame: the bytes cannot be
	// an LZ4 frame at all. Fatal for the context.
	ErrFormat = errors.New("lz4framed: malformed frame")
	// ErrCorrupt reports a checksum mismatch: the frame is well formed but
	// its content cannot be trusted. Fatal for the context.
	ErrCorrupt = errors.New("lz4framed: corrupt frame")
	// ErrUsage reports a programming mistake, such as driving a context in
	// the wrong state. Never retried internally.
	ErrUsage = errors.New("lz4framed: context misuse")
)

// Signals. These are conditions rather than failures: callers branch on
// them in ordinary read loops, the way io.EOF is used.
var (
	// ErrNoData reports that a zero-length input was supplied. Read loops
	// use it as the end-of-input marker.
	ErrNoData = errors.New("lz4framed: no data")
	// ErrFrameIncomplete reports that input ended before the frame's end
	// marker (and trailing checksum, if any) was seen. Bytes already
	// decoded remain valid.
	ErrFrameIncomplete = errors.New("lz4framed: frame incomplete")
	// ErrHeaderIncomplete reports that not enough input has been supplied
	// yet to parse the frame header.
	ErrHeaderIncomplete = errors.New("lz4framed: frame header incomplete")
)

// Format errors.
var (
	ErrMagicUnknown       = fmt.Errorf("%w: unknown magic number", ErrFormat)
	ErrVersionUnknown     = fmt.Errorf("%w: unsupported frame version", ErrFormat)
	ErrReservedBitSet     = fmt.Errorf("%w: reserved header bit set", ErrFormat)
	ErrBlockSizeInvalid   = fmt.Errorf("%w: invalid block size id", ErrFormat)
	ErrBlockTooLarge      = fmt.Errorf("%w: block exceeds frame block size", ErrFormat)
	ErrContentLenMismatch = fmt.Errorf("%w: decoded length differs from declared content size", ErrFormat)
)

// Corruption errors, one per check so callers can tell which digest failed.
var (
	ErrHeaderChecksum  = fmt.Errorf("%w: header checksum mismatch", ErrCorrupt)
	ErrBlockChecksum   = fmt.Errorf("%w: block checksum mismatch", ErrCorrupt)
	ErrContentChecksum = fmt.Errorf("%w: content checksum mismatch", ErrCorrupt)
)
