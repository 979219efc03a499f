package sz

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func headerBlock(h VolumeHeader) []byte {
	buf := make([]byte, DiskBlockBytes)
	binary.LittleEndian.PutUint32(buf[offHeaderBlocks:], uint32(h.HeaderBlocks))
	binary.LittleEndian.PutUint32(buf[offSamples:], uint32(h.Samples))
	binary.LittleEndian.PutUint32(buf[offCrosslines:], uint32(h.Crosslines))
	binary.LittleEndian.PutUint32(buf[offInlines:], uint32(h.Inlines))
	binary.LittleEndian.PutUint32(buf[offRate:], uint32(h.Rate))
	return buf
}

func TestDecodeVolumeHeader(t *testing.T) {
	want := VolumeHeader{HeaderBlocks: 1, Samples: 300, Crosslines: 5, Inlines: 6, Rate: 8}

	got, err := DecodeVolumeHeader(headerBlock(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecodeVolumeHeaderErrors(t *testing.T) {
	valid := VolumeHeader{HeaderBlocks: 1, Samples: 300, Crosslines: 5, Inlines: 6, Rate: 8}

	_, err := DecodeVolumeHeader(make([]byte, DiskBlockBytes-1))
	require.ErrorIs(t, err, ErrFormat)

	for name, mutate := range map[string]func(*VolumeHeader){
		"zero header blocks": func(h *VolumeHeader) { h.HeaderBlocks = 0 },
		"zero samples":       func(h *VolumeHeader) { h.Samples = 0 },
		"zero crosslines":    func(h *VolumeHeader) { h.Crosslines = 0 },
		"zero inlines":       func(h *VolumeHeader) { h.Inlines = 0 },
	} {
		h := valid
		mutate(&h)
		_, err := DecodeVolumeHeader(headerBlock(h))
		require.ErrorIs(t, err, ErrFormat, name)
	}
}

func TestDeriveLayout(t *testing.T) {
	h := VolumeHeader{HeaderBlocks: 1, Samples: 300, Crosslines: 5, Inlines: 6, Rate: 8}

	lay, err := DeriveLayout(h)
	require.NoError(t, err)

	require.Equal(t, [3]int{4, 4, 256}, lay.BlockShape)
	require.Equal(t, [3]int{8, 8, 512}, lay.PaddedShape)
	require.Equal(t, 64, lay.UnitBytes)
	require.Equal(t, DiskBlockBytes, lay.BlockBytes)
	require.Equal(t, 8192, lay.ChunkBytes)
	require.Equal(t, int64(4096), lay.DataStart)
	require.Equal(t, 2, lay.inlineBlocks())
	require.Equal(t, 2, lay.crosslineBlocks())
	require.Equal(t, 128, lay.zUnitsPerChunk())
	require.Equal(t, int64(4*8192), lay.DataBytes())
}

func TestDeriveLayoutRates(t *testing.T) {
	base := VolumeHeader{HeaderBlocks: 1, Samples: 100, Crosslines: 4, Inlines: 4}

	// Every valid rate yields exactly one disk block per compressed block.
	for _, rate := range []int{1, 2, 4, 8, 16, 32} {
		h := base
		h.Rate = rate
		lay, err := DeriveLayout(h)
		require.NoError(t, err, "rate %d", rate)
		require.Equal(t, 2048/rate, lay.BlockShape[2])
		require.Equal(t, DiskBlockBytes, lay.BlockBytes)
	}

	// Rates that do not divide 2048 break the block-size invariant.
	for _, rate := range []int{3, 5, 24, 31} {
		h := base
		h.Rate = rate
		_, err := DeriveLayout(h)
		require.ErrorIs(t, err, ErrFormat, "rate %d", rate)
	}

	for _, rate := range []int{0, -1, 33} {
		h := base
		h.Rate = rate
		_, err := DeriveLayout(h)
		require.ErrorIs(t, err, ErrFormat, "rate %d", rate)
	}
}

func TestDeriveLayoutHeaderBlocks(t *testing.T) {
	h := VolumeHeader{HeaderBlocks: 3, Samples: 100, Crosslines: 4, Inlines: 4, Rate: 8}

	lay, err := DeriveLayout(h)
	require.NoError(t, err)
	require.Equal(t, int64(3*DiskBlockBytes), lay.DataStart)
}

func TestPad(t *testing.T) {
	require.Equal(t, 0, pad(0, 4))
	require.Equal(t, 4, pad(1, 4))
	require.Equal(t, 4, pad(4, 4))
	require.Equal(t, 8, pad(5, 4))
	require.Equal(t, 512, pad(300, 256))
	require.Equal(t, 256, pad(256, 256))
}
