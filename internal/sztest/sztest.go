// Package sztest builds synthetic SZ volumes for tests and benchmarks.
package sztest

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/seisio/szvol/pkg/sz"
	"github.com/seisio/szvol/pkg/szcodec"
)

// VoxelBits returns the float32 bit pattern stored at (il, xl, z) in a
// synthetic volume. Values are exact under rate-bit truncation, so decoded
// arrays can be compared bit-for-bit against this function. The mixing
// constants keep neighbouring coordinates from aliasing within the
// quantized value space.
func VoxelBits(rate, il, xl, z int) uint32 {
	q := uint32(il*151+xl*83+z*5+11) & uint32(1<<uint(rate)-1)
	return q << (32 - uint(rate))
}

// Voxel is VoxelBits as a float32.
func Voxel(rate, il, xl, z int) float32 {
	return math.Float32frombits(VoxelBits(rate, il, xl, z))
}

// Volume builds a complete SZ file image for the given header: the header
// region followed by the compressed, block-padded data. Voxels inside the
// true extents hold Voxel values; padding is zero.
func Volume(h sz.VolumeHeader) ([]byte, error) {
	lay, err := sz.DeriveLayout(h)
	if err != nil {
		return nil, err
	}

	ni, nx, nz := lay.PaddedShape[0], lay.PaddedShape[1], lay.PaddedShape[2]
	vals := make([]float32, ni*nx*nz)
	for i := 0; i < h.Inlines; i++ {
		for x := 0; x < h.Crosslines; x++ {
			for z := 0; z < h.Samples; z++ {
				vals[(i*nx+x)*nz+z] = Voxel(h.Rate, i, x, z)
			}
		}
	}

	// The codec's unit stream over the full padded shape is exactly the
	// file's chunk layout, so the data region is one Compress call.
	data, err := szcodec.FixedRate{}.Compress(vals, lay.PaddedShape, h.Rate)
	if err != nil {
		return nil, err
	}

	file := make([]byte, lay.DataStart, lay.DataStart+int64(len(data)))
	binary.LittleEndian.PutUint32(file[0:], uint32(h.HeaderBlocks))
	binary.LittleEndian.PutUint32(file[4:], uint32(h.Samples))
	binary.LittleEndian.PutUint32(file[8:], uint32(h.Crosslines))
	binary.LittleEndian.PutUint32(file[12:], uint32(h.Inlines))
	binary.LittleEndian.PutUint32(file[40:], uint32(h.Rate))
	return append(file, data...), nil
}

// WriteVolume writes a synthetic volume to path.
func WriteVolume(path string, h sz.VolumeHeader) error {
	buf, err := Volume(h)
	if err != nil {
		return fmt.Errorf("build volume: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}
