package mgz_test

import (
	"math/rand"
	"testing"

	"github.com/herohde/xiangqisolve/internal/db/mgz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeflateInflateRoundTrip(t *testing.T) {
	raw := make([]byte, 4<<20)
	rand.New(rand.NewSource(1)).Read(raw)

	compressed, offsets, err := mgz.Deflate(raw, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, 4, len(offsets))

	got, err := mgz.Inflate(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestInflateBlockMatchesFullInflate(t *testing.T) {
	raw := make([]byte, 4<<20)
	rand.New(rand.NewSource(2)).Read(raw)

	compressed, offsets, err := mgz.Deflate(raw, 1<<20)
	require.NoError(t, err)

	full, err := mgz.Inflate(compressed)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		off := r.Intn(len(raw))
		block, err := mgz.InflateBlock(compressed, offsets, off, 1<<20)
		require.NoError(t, err)

		blockIdx := off / (1 << 20)
		blockStart := blockIdx * (1 << 20)
		assert.Equal(t, full[blockStart:blockStart+len(block)], block)
	}
}

func TestDeflateSmallInput(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	compressed, offsets, err := mgz.Deflate(raw, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, 1, len(offsets))

	got, err := mgz.Inflate(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestNumBlocks(t *testing.T) {
	assert.Equal(t, 1, mgz.NumBlocks(0, 1<<20))
	assert.Equal(t, 1, mgz.NumBlocks(100, 1<<20))
	assert.Equal(t, 4, mgz.NumBlocks(4<<20, 1<<20))
	assert.Equal(t, 5, mgz.NumBlocks(4<<20+1, 1<<20))
}
