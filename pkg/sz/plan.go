package sz

import "fmt"

// byteRange is one contiguous span of the file.
type byteRange struct {
	off    int64
	length int
}

// trimWindow selects the caller-requested extents out of the decoded,
// padded array. Bounds are half-open per axis.
type trimWindow struct {
	i0, i1 int
	x0, x1 int
	z0, z1 int
}

// plan describes exactly which bytes a read needs, the shape the assembled
// buffer represents for decoding, and the trim to apply afterwards. Plans
// are pure values computed without I/O and discarded after the call.
type plan struct {
	ranges []byteRange
	shape  [3]int
	trim   trimWindow
}

func (p plan) totalBytes() int {
	n := 0
	for _, r := range p.ranges {
		n += r.length
	}
	return n
}

// planInline covers the 4-inline block-row containing il. The whole row is
// one contiguous region: chunks for consecutive crossline-blocks are
// adjacent within a row.
func planInline(l Layout, il int) (plan, error) {
	if il < 0 || il >= l.Inlines {
		return plan{}, fmt.Errorf("%w: inline %d not in [0, %d)", ErrRange, il, l.Inlines)
	}
	rowBytes := l.ChunkBytes * l.crosslineBlocks()
	return plan{
		ranges: []byteRange{{
			off:    l.DataStart + int64(il/4)*int64(rowBytes),
			length: rowBytes,
		}},
		shape: [3]int{4, l.PaddedShape[1], l.PaddedShape[2]},
		trim: trimWindow{
			i0: il % 4, i1: il%4 + 1,
			x0: 0, x1: l.Crosslines,
			z0: 0, z1: l.Samples,
		},
	}, nil
}

// planCrossline covers the 4-crossline chunk column containing xl. The
// column is not contiguous: it recurs once per inline block-row, at a
// stride of one full row of chunks.
func planCrossline(l Layout, xl int) (plan, error) {
	if xl < 0 || xl >= l.Crosslines {
		return plan{}, fmt.Errorf("%w: crossline %d not in [0, %d)", ErrRange, xl, l.Crosslines)
	}
	first := l.DataStart + int64(xl/4)*int64(l.ChunkBytes)
	stride := int64(l.ChunkBytes) * int64(l.crosslineBlocks())

	ranges := make([]byteRange, l.inlineBlocks())
	for k := range ranges {
		ranges[k] = byteRange{off: first + int64(k)*stride, length: l.ChunkBytes}
	}
	return plan{
		ranges: ranges,
		shape:  [3]int{l.PaddedShape[0], 4, l.PaddedShape[2]},
		trim: trimWindow{
			i0: 0, i1: l.Inlines,
			x0: xl % 4, x1: xl%4 + 1,
			z0: 0, z1: l.Samples,
		},
	}, nil
}

// planZSlice covers the 4-sample unit containing z in every chunk. Within a
// chunk, z selects block z/blockZ and unit (z%blockZ)/4 inside that block.
// This is the scattered pattern: one small fixed-size range per chunk,
// executed by the parallel gather engine.
func planZSlice(l Layout, z int) (plan, error) {
	if z < 0 || z >= l.Samples {
		return plan{}, fmt.Errorf("%w: zslice %d not in [0, %d)", ErrRange, z, l.Samples)
	}
	blockZ := l.BlockShape[2]
	inChunk := int64(z/blockZ)*int64(l.BlockBytes) + int64(z%blockZ/4)*int64(l.UnitBytes)

	chunks := l.inlineBlocks() * l.crosslineBlocks()
	ranges := make([]byteRange, chunks)
	for c := range ranges {
		ranges[c] = byteRange{
			off:    l.DataStart + int64(c)*int64(l.ChunkBytes) + inChunk,
			length: l.UnitBytes,
		}
	}
	return plan{
		ranges: ranges,
		shape:  [3]int{l.PaddedShape[0], l.PaddedShape[1], 4},
		trim: trimWindow{
			i0: 0, i1: l.Inlines,
			x0: 0, x1: l.Crosslines,
			z0: z % 4, z1: z%4 + 1,
		},
	}, nil
}

// planSubvolume covers an axis-aligned box with half-open bounds. For each
// (inline-unit, crossline-unit) pair the z-range is contiguous on disk, so
// the plan emits one range per pair spanning all requested z-units.
func planSubvolume(l Layout, il0, il1, xl0, xl1, z0, z1 int) (plan, error) {
	if err := checkBounds(il0, il1, l.Inlines, "inline"); err != nil {
		return plan{}, err
	}
	if err := checkBounds(xl0, xl1, l.Crosslines, "crossline"); err != nil {
		return plan{}, err
	}
	if err := checkBounds(z0, z1, l.Samples, "z"); err != nil {
		return plan{}, err
	}

	ilUnits := ceilDiv(il1, 4) - il0/4
	xlUnits := ceilDiv(xl1, 4) - xl0/4
	zUnits := ceilDiv(z1, 4) - z0/4

	// Unit index space: (inline-block, crossline-block, z-unit) row-major,
	// one UnitBytes granule each, starting at DataStart.
	xlBlocks := l.crosslineBlocks()
	zPerChunk := l.zUnitsPerChunk()

	ranges := make([]byteRange, 0, ilUnits*xlUnits)
	for i := 0; i < ilUnits; i++ {
		for x := 0; x < xlUnits; x++ {
			unit := ((i+il0/4)*xlBlocks+(x+xl0/4))*zPerChunk + z0/4
			ranges = append(ranges, byteRange{
				off:    l.DataStart + int64(unit)*int64(l.UnitBytes),
				length: l.UnitBytes * zUnits,
			})
		}
	}
	return plan{
		ranges: ranges,
		shape:  [3]int{ilUnits * 4, xlUnits * 4, zUnits * 4},
		trim: trimWindow{
			i0: il0 % 4, i1: il0%4 + (il1 - il0),
			x0: xl0 % 4, x1: xl0%4 + (xl1 - xl0),
			z0: z0 % 4, z1: z0%4 + (z1 - z0),
		},
	}, nil
}

func checkBounds(lo, hi, extent int, axis string) error {
	if lo < 0 || lo >= hi || hi > extent {
		return fmt.Errorf("%w: %s bounds [%d, %d) not within [0, %d)", ErrRange, axis, lo, hi, extent)
	}
	return nil
}

func ceilDiv(n, m int) int { return (n + m - 1) / m }
