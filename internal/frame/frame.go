// Package frame implements the LZ4 frame container: an incremental codec
// for the self-describing envelope of magic, header, independently
// compressed blocks, end marker and optional checksums. The LZ4 block
// algorithm itself lives in internal/block.
package frame

import (
	"fmt"

	"github.com/framelabs/lz4framed/internal/block"
)

const (
	frameMagic uint32 = 0x184D2204

	// MinHeaderSize and MaxHeaderSize bound the variable-length frame
	// header: magic + FLG + BD + checksum byte, plus an optional 8-byte
	// content size.
	MinHeaderSize = 7
	MaxHeaderSize = 15

	blockLenSize  = 4
	checksumSize  = 4
	endMarkerSize = 4

	// Top bit of the block length word marks a block stored uncompressed.
	rawBlockFlag uint32 = 1 << 31
)

// FLG byte layout (bits): 7-6 version (01), 5 block independence,
// 4 block checksum, 3 content size present, 2 content checksum,
// 1-0 reserved.
const (
	flagVersion         = 1 << 6
	flagVersionMask     = 0xC0
	flagBlockIndep      = 1 << 5
	flagBlockChecksum   = 1 << 4
	flagContentSize     = 1 << 3
	flagContentChecksum = 1 << 2
	flagReservedMask    = 0x03

	// BD byte: bits 6-4 carry the block max size id, the rest is reserved.
	bdBlockSizeShift = 4
	bdReservedMask   = 0x8F
)

// BlockSizeID enumerates the frame's negotiated maximum block sizes.
type BlockSizeID int

const (
	BlockSizeDefault  BlockSizeID = 0
	BlockSizeMax64KB  BlockSizeID = 4
	BlockSizeMax256KB BlockSizeID = 5
	BlockSizeMax1MB   BlockSizeID = 6
	BlockSizeMax4MB   BlockSizeID = 7
)

// BlockSize returns the byte count for a block size id. The default id
// resolves to 64KiB.
func BlockSize(id BlockSizeID) (int, error) {
	switch id {
	case BlockSizeDefault, BlockSizeMax64KB:
		return 64 << 10, nil
	case BlockSizeMax256KB:
		return 256 << 10, nil
	case BlockSizeMax1MB:
		return 1 << 20, nil
	case BlockSizeMax4MB:
		return 4 << 20, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBlockSizeInvalid, id)
	}
}

// Config carries the compression-side frame options. The zero value is
// usable: default block size, independent checksums off, fast level 0.
// The original container default links blocks; NewConfig sets that.
type Config struct {
	// BlockSizeID selects the frame's maximum block size.
	BlockSizeID BlockSizeID
	// LinkedBlocks lets blocks reference prior blocks as history.
	LinkedBlocks bool
	// ContentChecksum appends an XXH32 of the whole uncompressed payload.
	ContentChecksum bool
	// BlockChecksum appends an XXH32 after every block.
	BlockChecksum bool
	// Level selects the compression level: negative values are accelerated
	// fast mode, values below block.MinHighCompression are fast, higher
	// ones (up to block.MaxCompression) are high-compression.
	Level int
	// AutoFlush emits buffered data on every update call instead of
	// waiting for a full block.
	AutoFlush bool
	// ContentSize, when non-zero, declares the uncompressed length in the
	// header so decoders can report it before decoding.
	ContentSize uint64
}

// NewConfig returns a Config with the container's historical defaults.
func NewConfig() Config {
	return Config{LinkedBlocks: true}
}

func (c Config) validate() error {
	if _, err := BlockSize(c.BlockSizeID); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if _, err := block.ForLevel(c.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
