package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// header holds the parsed frame preamble.
type header struct {
	blockSizeID      BlockSizeID
	linked           bool
	blockChecksum    bool
	contentChecksum  bool
	contentSize      uint64
	contentSizeKnown bool
	size             int // full encoded header length in bytes
}

// headerChecksum is the single-byte digest of the FLG..contentSize region:
// the second byte of their XXH32.
func headerChecksum(b []byte) byte {
	return byte(xxhash.Checksum32(b) >> 8)
}

// encodeHeader emits the full frame preamble for cfg. cfg must already be
// validated.
func encodeHeader(cfg Config) []byte {
	buf := make([]byte, 0, MaxHeaderSize)
	buf = binary.LittleEndian.AppendUint32(buf, frameMagic)

	flg := byte(flagVersion)
	if !cfg.LinkedBlocks {
		flg |= flagBlockIndep
	}
	if cfg.BlockChecksum {
		flg |= flagBlockChecksum
	}
	if cfg.ContentSize > 0 {
		flg |= flagContentSize
	}
	if cfg.ContentChecksum {
		flg |= flagContentChecksum
	}
	buf = append(buf, flg)

	id := cfg.BlockSizeID
	if id == BlockSizeDefault {
		id = BlockSizeMax64KB
	}
	buf = append(buf, byte(id)<<bdBlockSizeShift)

	if cfg.ContentSize > 0 {
		buf = binary.LittleEndian.AppendUint64(buf, cfg.ContentSize)
	}
	return append(buf, headerChecksum(buf[4:]))
}

// headerLen reports the full header length implied by the first bytes of a
// frame. It needs the magic and FLG byte (5 bytes); with less it returns
// ErrHeaderIncomplete.
func headerLen(buf []byte) (int, error) {
	if len(buf) < 5 {
		return 0, ErrHeaderIncomplete
	}
	if binary.LittleEndian.Uint32(buf[:4]) != frameMagic {
		return 0, ErrMagicUnknown
	}
	n := MinHeaderSize
	if buf[4]&flagContentSize != 0 {
		n += 8
	}
	return n, nil
}

// parseHeader decodes the frame preamble. buf must hold at least
// headerLen(buf) bytes.
func parseHeader(buf []byte) (header, error) {
	n, err := headerLen(buf)
	if err != nil {
		return header{}, err
	}
	if len(buf) < n {
		return header{}, ErrHeaderIncomplete
	}

	flg := buf[4]
	if flg&flagVersionMask != flagVersion {
		return header{}, fmt.Errorf("%w: version bits %#02x", ErrVersionUnknown, flg>>6)
	}
	if flg&flagReservedMask != 0 {
		return header{}, fmt.Errorf("%w: FLG %#02x", ErrReservedBitSet, flg)
	}
	bd := buf[5]
	if bd&bdReservedMask != 0 {
		return header{}, fmt.Errorf("%w: BD %#02x", ErrReservedBitSet, bd)
	}

	h := header{
		blockSizeID:     BlockSizeID(bd >> bdBlockSizeShift),
		linked:          flg&flagBlockIndep == 0,
		blockChecksum:   flg&flagBlockChecksum != 0,
		contentChecksum: flg&flagContentChecksum != 0,
		size:            n,
	}
	if h.blockSizeID < BlockSizeMax64KB {
		return header{}, fmt.Errorf("%w: %d", ErrBlockSizeInvalid, h.blockSizeID)
	}
	if flg&flagContentSize != 0 {
		h.contentSize = binary.LittleEndian.Uint64(buf[6:14])
		h.contentSizeKnown = true
	}
	if got, want := buf[n-1], headerChecksum(buf[4:n-1]); got != want {
		return header{}, fmt.Errorf("%w: got %#02x, computed %#02x", ErrHeaderChecksum, got, want)
	}
	return h, nil
}
