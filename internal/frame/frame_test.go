package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSize(t *testing.T) {
	tests := []struct {
		name string
		id   BlockSizeID
		want int
	}{
		{"default", BlockSizeDefault, 64 << 10},
		{"64KB", BlockSizeMax64KB, 64 << 10},
		{"256KB", BlockSizeMax256KB, 256 << 10},
		{"1MB", BlockSizeMax1MB, 1 << 20},
		{"4MB", BlockSizeMax4MB, 4 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BlockSize(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlockSizeInvalid(t *testing.T) {
	for _, id := range []BlockSizeID{-1, 1, 2, 3, 8, 100} {
		_, err := BlockSize(id)
		assert.ErrorIs(t, err, ErrBlockSizeInvalid, "id %d", id)
	}
}

func TestBlockSizeIDsMatchShift(t *testing.T) {
	// The enumerated ids encode their size as 1 << (8 + 2*id).
	for _, id := range []BlockSizeID{BlockSizeMax64KB, BlockSizeMax256KB, BlockSizeMax1MB, BlockSizeMax4MB} {
		got, err := BlockSize(id)
		require.NoError(t, err)
		assert.Equal(t, 1<<(8+2*int(id)), got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewConfig()
	assert.True(t, cfg.LinkedBlocks)
	require.NoError(t, cfg.validate())

	cfg.BlockSizeID = 3
	assert.ErrorIs(t, cfg.validate(), ErrBlockSizeInvalid)

	cfg = NewConfig()
	cfg.Level = 17
	assert.ErrorIs(t, cfg.validate(), ErrUsage)

	// Negative levels select accelerated fast mode and are valid.
	cfg.Level = -5
	assert.NoError(t, cfg.validate())
}
