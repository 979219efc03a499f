package szcodec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// quantized returns a value that survives rate-bit truncation exactly.
func quantized(rate int, seed uint32) float32 {
	q := seed & uint32(1<<uint(rate)-1)
	return math.Float32frombits(q << (32 - uint(rate)))
}

func fillQuantized(shape [3]int, rate int) []float32 {
	vals := make([]float32, shape[0]*shape[1]*shape[2])
	for i := range vals {
		vals[i] = quantized(rate, uint32(i*101+7))
	}
	return vals
}

// bits turns samples into bit patterns so comparisons stay exact even when
// a quantized value lands on a NaN encoding.
func bits(vals []float32) []uint32 {
	out := make([]uint32, len(vals))
	for i, v := range vals {
		out[i] = math.Float32bits(v)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		shape [3]int
		rate  int
	}{
		{[3]int{4, 4, 4}, 8},
		{[3]int{8, 4, 256}, 8},
		{[3]int{4, 8, 128}, 16},
		{[3]int{8, 8, 8}, 4},
		{[3]int{4, 4, 8}, 1},
	} {
		vals := fillQuantized(tc.shape, tc.rate)

		buf, err := FixedRate{}.Compress(vals, tc.shape, tc.rate)
		require.NoError(t, err)
		require.Len(t, buf, StreamBytes(tc.shape, tc.rate))

		got, err := FixedRate{}.Decompress(buf, tc.shape, tc.rate)
		require.NoError(t, err)
		require.Equal(t, bits(vals), bits(got), "shape %v rate %d", tc.shape, tc.rate)
	}
}

func TestRate32Lossless(t *testing.T) {
	shape := [3]int{4, 4, 4}
	vals := make([]float32, 64)
	for i := range vals {
		vals[i] = float32(i)*0.37 - 11.5
	}

	buf, err := FixedRate{}.Compress(vals, shape, 32)
	require.NoError(t, err)

	got, err := FixedRate{}.Decompress(buf, shape, 32)
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

func TestTruncationIsLossy(t *testing.T) {
	shape := [3]int{4, 4, 4}
	vals := make([]float32, 64)
	for i := range vals {
		vals[i] = float32(i) + 0.123
	}

	buf, err := FixedRate{}.Compress(vals, shape, 8)
	require.NoError(t, err)

	got, err := FixedRate{}.Decompress(buf, shape, 8)
	require.NoError(t, err)

	// Every decoded bit pattern must be the truncation of the original.
	for i := range vals {
		want := math.Float32bits(vals[i]) >> 24 << 24
		require.Equal(t, want, math.Float32bits(got[i]), "voxel %d", i)
	}
}

// The stream of a tall shape must equal the concatenation of its unit
// streams in (inline-unit, crossline-unit, z-unit) order. The SZ file
// layout depends on this: a chunk is the byte-concatenation of its
// z-units.
func TestStreamIsUnitConcatenation(t *testing.T) {
	rate := 8
	shape := [3]int{4, 4, 8}
	vals := fillQuantized(shape, rate)

	whole, err := FixedRate{}.Compress(vals, shape, rate)
	require.NoError(t, err)

	// Split the volume into its two z-units and compress separately.
	lo := make([]float32, 64)
	hi := make([]float32, 64)
	for i := 0; i < 4; i++ {
		for x := 0; x < 4; x++ {
			for z := 0; z < 4; z++ {
				lo[(i*4+x)*4+z] = vals[(i*4+x)*8+z]
				hi[(i*4+x)*4+z] = vals[(i*4+x)*8+z+4]
			}
		}
	}
	unit := [3]int{4, 4, 4}
	bufLo, err := FixedRate{}.Compress(lo, unit, rate)
	require.NoError(t, err)
	bufHi, err := FixedRate{}.Compress(hi, unit, rate)
	require.NoError(t, err)

	require.Equal(t, append(bufLo, bufHi...), whole)
}

func TestValidation(t *testing.T) {
	good := [3]int{4, 4, 4}

	_, err := FixedRate{}.Decompress(make([]byte, 64), [3]int{3, 4, 4}, 8)
	require.ErrorIs(t, err, ErrShape)

	_, err = FixedRate{}.Decompress(make([]byte, 64), [3]int{4, 0, 4}, 8)
	require.ErrorIs(t, err, ErrShape)

	_, err = FixedRate{}.Decompress(make([]byte, 64), good, 0)
	require.ErrorIs(t, err, ErrRate)

	_, err = FixedRate{}.Decompress(make([]byte, 64), good, 33)
	require.ErrorIs(t, err, ErrRate)

	_, err = FixedRate{}.Decompress(make([]byte, 63), good, 8)
	require.ErrorIs(t, err, ErrBufferSize)

	_, err = FixedRate{}.Compress(make([]float32, 63), good, 8)
	require.ErrorIs(t, err, ErrBufferSize)
}
