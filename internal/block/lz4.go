package block

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// fastCodec is the default LZ4 block compressor. Negative ("accelerated")
// and low positive levels all map here.
type fastCodec struct{}

func (fastCodec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		// Data is incompressible, store as-is
		return nil, nil
	}
	return dst[:n], nil
}

// highCodec is the slower high-compression LZ4 block compressor.
type highCodec struct {
	depth lz4.CompressionLevel
}

func (c highCodec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlockHC(src, dst, c.depth, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 hc compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		return nil, nil
	}
	return dst[:n], nil
}

// hcDepth maps a frame-level compression level onto the library's HC search
// depths, clamping at the deepest one.
func hcDepth(level int) lz4.CompressionLevel {
	depths := [...]lz4.CompressionLevel{
		lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
		lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
	}
	i := level - MinHighCompression
	if i >= len(depths) {
		i = len(depths) - 1
	}
	return depths[i]
}

func errLevelRange(level int) error {
	return fmt.Errorf("compression level %d exceeds maximum %d", level, MaxCompression)
}

// Decompress expands one compressed block into dst, which must be sized to
// the frame's block size. Returns the decoded length.
func Decompress(src, dst []byte) (int, error) {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return 0, fmt.Errorf("lz4 decompress: %w", err)
	}
	return n, nil
}

// DecompressLinked is Decompress for linked-block frames: dict carries up to
// 64KiB of previously decoded history the block may reference.
func DecompressLinked(src, dst, dict []byte) (int, error) {
	n, err := lz4.UncompressBlockWithDict(src, dst, dict)
	if err != nil {
		return 0, fmt.Errorf("lz4 decompress: %w", err)
	}
	return n, nil
}
