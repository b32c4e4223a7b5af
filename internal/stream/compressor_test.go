package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelabs/lz4framed/internal/frame"
)

func compressAll(t *testing.T, data []byte, cfg frame.Config, readSize int, sink bool) []byte {
	t.Helper()
	var out bytes.Buffer
	var w *bytes.Buffer
	if sink {
		w = &out
	}

	var c *Compressor
	var err error
	if sink {
		c, err = NewCompressor(w, cfg)
	} else {
		c, err = NewCompressor(nil, cfg)
	}
	require.NoError(t, err)

	in := bytes.NewReader(data)
	buf := make([]byte, readSize)
	for {
		n, _ := in.Read(buf)
		ret, err := c.Update(buf[:n])
		if errors.Is(err, frame.ErrNoData) {
			break // empty read: end of input
		}
		require.NoError(t, err)
		if !sink {
			out.Write(ret)
		}
	}
	ret, err := c.End()
	require.NoError(t, err)
	if !sink {
		out.Write(ret)
	}
	return out.Bytes()
}

func TestCompressorWithoutSink(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789"), 100000)
	enc := compressAll(t, data, frame.NewConfig(), 1024, false)

	got, err := frame.Decompress(enc)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}

func TestCompressorWithSink(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789"), 100000)
	enc := compressAll(t, data, frame.NewConfig(), 1024, true)

	got, err := frame.Decompress(enc)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}

func TestCompressorOptions(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789"), 10000)
	cfgs := []frame.Config{
		{BlockSizeID: frame.BlockSizeMax256KB},
		{LinkedBlocks: true},
		{ContentChecksum: true},
		{BlockChecksum: true},
		{AutoFlush: true},
		{Level: 16},
		{Level: -1},
	}
	for _, cfg := range cfgs {
		enc := compressAll(t, data, cfg, 4096, true)
		got, err := frame.Decompress(enc)
		require.NoError(t, err)
		require.True(t, bytes.Equal(data, got))
	}
}

func TestCompressorDefersHeader(t *testing.T) {
	var out bytes.Buffer
	c, err := NewCompressor(&out, frame.NewConfig())
	require.NoError(t, err)

	// Construction alone must not write a dangling header.
	assert.Zero(t, out.Len())

	_, err = c.Update([]byte("x"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Len(), frame.MinHeaderSize, "first update flushes the header")
}

func TestCompressorEndExactlyOnce(t *testing.T) {
	var out bytes.Buffer
	c, err := NewCompressor(&out, frame.NewConfig())
	require.NoError(t, err)

	_, err = c.Update([]byte("x"))
	require.NoError(t, err)
	_, err = c.End()
	require.NoError(t, err)

	_, err = c.End()
	assert.ErrorIs(t, err, frame.ErrUsage)
	_, err = c.Update([]byte("x"))
	assert.ErrorIs(t, err, frame.ErrUsage)
}

func TestCompressorInvalidConfig(t *testing.T) {
	_, err := NewCompressor(nil, frame.Config{Level: 99})
	assert.ErrorIs(t, err, frame.ErrUsage)
	_, err = NewCompressor(nil, frame.Config{BlockSizeID: 1})
	assert.ErrorIs(t, err, frame.ErrUsage)
	assert.ErrorIs(t, err, frame.ErrBlockSizeInvalid)
}

func TestCompressorEmptyUpdateSignals(t *testing.T) {
	c, err := NewCompressor(nil, frame.NewConfig())
	require.NoError(t, err)
	_, err = c.Update(nil)
	assert.ErrorIs(t, err, frame.ErrNoData)
}
