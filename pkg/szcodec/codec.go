// Package szcodec implements the fixed-rate block codec used by SZ volumes.
//
// The codec operates on 4x4x4 voxel units. A compressed stream for a shape
// (ni, nx, nz) — all multiples of 4 — is the concatenation of units ordered
// by (inline-unit, crossline-unit, z-unit) with the z-unit varying fastest.
// Within a unit, voxels are packed in (inline, crossline, z) order with z
// fastest, each voxel reduced to its top `rate` bits. One unit therefore
// occupies exactly 8*rate bytes, which is the addressing granule the SZ
// file layout depends on.
package szcodec

import (
	"errors"
	"fmt"
	"math"
)

// UnitDim is the voxel extent of a compressed unit along every axis.
const UnitDim = 4

var (
	// ErrShape indicates a shape not aligned to 4-voxel units.
	ErrShape = errors.New("shape not aligned to codec units")
	// ErrRate indicates a bit rate outside the supported range.
	ErrRate = errors.New("unsupported bit rate")
	// ErrBufferSize indicates a buffer whose length does not match the
	// declared shape and rate.
	ErrBufferSize = errors.New("buffer size does not match shape and rate")
)

// FixedRate is the default SZ codec: each float32 voxel keeps the top
// `rate` bits of its IEEE-754 bit pattern. Rate 32 is lossless.
type FixedRate struct{}

// StreamBytes returns the compressed size of a dense array of the given
// shape at the given rate.
func StreamBytes(shape [3]int, rate int) int {
	return shape[0] * shape[1] * shape[2] * rate / 8
}

func validate(shape [3]int, rate int) error {
	for _, n := range shape {
		if n <= 0 || n%UnitDim != 0 {
			return fmt.Errorf("%w: %v", ErrShape, shape)
		}
	}
	if rate < 1 || rate > 32 {
		return fmt.Errorf("%w: %d bits per voxel", ErrRate, rate)
	}
	return nil
}

// Decompress decodes a compressed stream into a dense row-major float32
// array of the given shape, z varying fastest.
func (FixedRate) Decompress(buf []byte, shape [3]int, rate int) ([]float32, error) {
	if err := validate(shape, rate); err != nil {
		return nil, err
	}
	if len(buf) != StreamBytes(shape, rate) {
		return nil, fmt.Errorf("%w: have %d bytes, shape %v at rate %d needs %d",
			ErrBufferSize, len(buf), shape, rate, StreamBytes(shape, rate))
	}

	ni, nx, nz := shape[0], shape[1], shape[2]
	out := make([]float32, ni*nx*nz)
	br := bitReader{buf: buf}
	shift := uint(32 - rate)

	for ui := 0; ui < ni; ui += UnitDim {
		for ux := 0; ux < nx; ux += UnitDim {
			for uz := 0; uz < nz; uz += UnitDim {
				for di := 0; di < UnitDim; di++ {
					for dx := 0; dx < UnitDim; dx++ {
						base := ((ui+di)*nx+(ux+dx))*nz + uz
						for dz := 0; dz < UnitDim; dz++ {
							q := br.read(uint(rate))
							out[base+dz] = math.Float32frombits(q << shift)
						}
					}
				}
			}
		}
	}
	return out, nil
}

// Compress encodes a dense row-major float32 array of the given shape into
// the fixed-rate stream layout. It is the inverse of Decompress up to the
// rate-bit truncation and exists so callers can build valid volumes for
// testing; the reader itself never compresses.
func (FixedRate) Compress(vals []float32, shape [3]int, rate int) ([]byte, error) {
	if err := validate(shape, rate); err != nil {
		return nil, err
	}
	ni, nx, nz := shape[0], shape[1], shape[2]
	if len(vals) != ni*nx*nz {
		return nil, fmt.Errorf("%w: have %d values, shape %v needs %d",
			ErrBufferSize, len(vals), shape, ni*nx*nz)
	}

	bw := bitWriter{buf: make([]byte, 0, StreamBytes(shape, rate))}
	shift := uint(32 - rate)

	for ui := 0; ui < ni; ui += UnitDim {
		for ux := 0; ux < nx; ux += UnitDim {
			for uz := 0; uz < nz; uz += UnitDim {
				for di := 0; di < UnitDim; di++ {
					for dx := 0; dx < UnitDim; dx++ {
						base := ((ui+di)*nx+(ux+dx))*nz + uz
						for dz := 0; dz < UnitDim; dz++ {
							q := math.Float32bits(vals[base+dz]) >> shift
							bw.write(q, uint(rate))
						}
					}
				}
			}
		}
	}
	return bw.buf, nil
}

// bitWriter packs values MSB-first. A unit is 64*rate bits, a whole number
// of bytes, so the stream never ends mid-byte.
type bitWriter struct {
	buf   []byte
	acc   uint64
	nbits uint
}

func (w *bitWriter) write(v uint32, bits uint) {
	w.acc = w.acc<<bits | uint64(v)
	w.nbits += bits
	for w.nbits >= 8 {
		w.nbits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nbits))
	}
}

type bitReader struct {
	buf   []byte
	acc   uint64
	nbits uint
}

func (r *bitReader) read(bits uint) uint32 {
	for r.nbits < bits {
		r.acc = r.acc<<8 | uint64(r.buf[0])
		r.buf = r.buf[1:]
		r.nbits += 8
	}
	r.nbits -= bits
	return uint32(r.acc>>r.nbits) & uint32(1<<bits-1)
}
