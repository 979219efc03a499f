package sz

import (
	"encoding/binary"
	"fmt"
)

// DiskBlockBytes is the physical disk block size. Every compressed block in
// an SZ file is aligned to and exactly fills one disk block, which is what
// permits block-level random access without partial-block bookkeeping.
const DiskBlockBytes = 4096

// Header field byte offsets within the first disk block.
const (
	offHeaderBlocks = 0
	offSamples      = 4
	offCrosslines   = 8
	offInlines      = 12
	offRate         = 40
)

// VolumeHeader holds the raw geometry fields parsed from the file header.
// It is parsed once at open and never mutated.
type VolumeHeader struct {
	HeaderBlocks int // fixed-size header blocks preceding the data region
	Samples      int // depth/time samples per trace
	Crosslines   int
	Inlines      int
	Rate         int // compressed bits per voxel
}

// DecodeVolumeHeader parses the geometry fields from the first disk block.
func DecodeVolumeHeader(buf []byte) (VolumeHeader, error) {
	if len(buf) < DiskBlockBytes {
		return VolumeHeader{}, fmt.Errorf("%w: header truncated at %d bytes", ErrFormat, len(buf))
	}
	h := VolumeHeader{
		HeaderBlocks: int(binary.LittleEndian.Uint32(buf[offHeaderBlocks:])),
		Samples:      int(binary.LittleEndian.Uint32(buf[offSamples:])),
		Crosslines:   int(binary.LittleEndian.Uint32(buf[offCrosslines:])),
		Inlines:      int(binary.LittleEndian.Uint32(buf[offInlines:])),
		Rate:         int(binary.LittleEndian.Uint32(buf[offRate:])),
	}
	if h.HeaderBlocks < 1 {
		return VolumeHeader{}, fmt.Errorf("%w: header block count %d", ErrFormat, h.HeaderBlocks)
	}
	if h.Samples <= 0 || h.Crosslines <= 0 || h.Inlines <= 0 {
		return VolumeHeader{}, fmt.Errorf("%w: non-positive extents %dx%dx%d",
			ErrFormat, h.Inlines, h.Crosslines, h.Samples)
	}
	return h, nil
}

// Layout is the geometry derived from a VolumeHeader. It is computed once
// at open time and is immutable for the lifetime of the reader, so it is
// safe to share across any number of concurrent read calls.
type Layout struct {
	VolumeHeader

	// BlockShape is the voxel extent of one compressed block: (4, 4, 2048/rate).
	BlockShape [3]int
	// PaddedShape is (inlines, crosslines, samples) rounded up to block
	// multiples. Padding is always at the high end of each axis.
	PaddedShape [3]int

	// UnitBytes is the compressed size of one 4x4x4 voxel unit, the
	// smallest independently addressable granule.
	UnitBytes int
	// BlockBytes is the compressed size of one full block, always 4096.
	BlockBytes int
	// ChunkBytes is the size of a full depth-column of blocks sharing one
	// 4-inline x 4-crossline footprint.
	ChunkBytes int
	// DataStart is the file offset of the first data block.
	DataStart int64
}

// DeriveLayout computes the Layout for a header, enforcing the disk-block
// invariant the codec and the planners depend on.
func DeriveLayout(h VolumeHeader) (Layout, error) {
	if h.Rate < 1 || h.Rate > 32 {
		return Layout{}, fmt.Errorf("%w: bit rate %d", ErrFormat, h.Rate)
	}
	blockZ := 2048 / h.Rate
	blockBytes := 4 * 4 * blockZ * h.Rate / 8
	if blockBytes != DiskBlockBytes {
		return Layout{}, fmt.Errorf("%w: rate %d gives %d-byte blocks, want %d",
			ErrFormat, h.Rate, blockBytes, DiskBlockBytes)
	}

	paddedZ := pad(h.Samples, blockZ)
	return Layout{
		VolumeHeader: h,
		BlockShape:   [3]int{4, 4, blockZ},
		PaddedShape:  [3]int{pad(h.Inlines, 4), pad(h.Crosslines, 4), paddedZ},
		UnitBytes:    4 * 4 * 4 * h.Rate / 8,
		BlockBytes:   blockBytes,
		ChunkBytes:   blockBytes * (paddedZ / blockZ),
		DataStart:    int64(h.HeaderBlocks) * DiskBlockBytes,
	}, nil
}

// pad rounds n up to the nearest multiple of m.
func pad(n, m int) int {
	if n%m == 0 {
		return n
	}
	return m * (n/m + 1)
}

func (l Layout) inlineBlocks() int    { return l.PaddedShape[0] / 4 }
func (l Layout) crosslineBlocks() int { return l.PaddedShape[1] / 4 }

// zUnitsPerChunk is the number of 4-sample units stacked along z in one chunk.
func (l Layout) zUnitsPerChunk() int { return l.PaddedShape[2] / 4 }

// DataBytes is the size of the data region implied by the layout.
func (l Layout) DataBytes() int64 {
	return int64(l.inlineBlocks()) * int64(l.crosslineBlocks()) * int64(l.ChunkBytes)
}
