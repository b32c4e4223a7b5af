// Package block wraps the raw LZ4 block primitives used by the frame codec.
package block

// Compression level bounds. Levels below MinHighCompression (including
// negative "accelerated" values) select the fast compressor; levels from
// MinHighCompression up to MaxCompression select the high-compression one.
const (
	MinCompression     = 0
	MinHighCompression = 3
	MaxCompression     = 16
)

// Codec compresses one raw block. Implementations are stateless and safe
// for concurrent use.
type Codec interface {
	// Compress returns the compressed form of src, or nil if compression
	// would not make the block strictly smaller (caller stores it raw).
	Compress(src []byte) ([]byte, error)
}

// ForLevel returns the codec for a compression level.
func ForLevel(level int) (Codec, error) {
	if level > MaxCompression {
		return nil, errLevelRange(level)
	}
	if level < MinHighCompression {
		return fastCodec{}, nil
	}
	return highCodec{depth: hcDepth(level)}, nil
}
