package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeSize(t *testing.T) {
	tests := []struct {
		name     string
		bufferMB int
		snapLen  int
		pageSize int
	}{
		{"default", 8, 65535, 4096},
		{"small snap", 8, 96, 4096},
		{"mtu snap", 16, 1600, 4096},
		{"large page", 64, 9000, 65536},
		{"tiny buffer", 1, 65535, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frameSize, blockSize, numBlocks, err := recomputeSize(tt.bufferMB, tt.snapLen, tt.pageSize)
			require.NoError(t, err)

			assert.Zero(t, frameSize%16, "frame size %d not 16-aligned", frameSize)
			assert.GreaterOrEqual(t, frameSize, tt.snapLen)
			assert.Zero(t, blockSize%tt.pageSize, "block size %d not page-aligned", blockSize)
			assert.Zero(t, blockSize%frameSize, "block size %d not a multiple of frame size %d", blockSize, frameSize)
			assert.GreaterOrEqual(t, numBlocks, 1)
		})
	}
}

func TestRecomputeSizeInvalid(t *testing.T) {
	_, _, _, err := recomputeSize(0, 65535, 4096)
	assert.Error(t, err)
	_, _, _, err = recomputeSize(8, 0, 4096)
	assert.Error(t, err)
	_, _, _, err = recomputeSize(8, 65535, 1000)
	assert.Error(t, err)
}

func TestLCM(t *testing.T) {
	assert.Equal(t, 12, lcm(4, 6))
	assert.Equal(t, 0, lcm(0, 6))
	assert.Equal(t, 4096, lcm(4096, 128))
}
