// Package sz implements random-access reading of SZ block-compressed 3D
// seismic volumes: inline and crossline slabs, horizontal (z) slices, and
// arbitrary axis-aligned subvolumes, each translated into exact byte-range
// plans over the block layout and decoded through a fixed-rate codec.
package sz

import (
	"context"
	"fmt"

	"github.com/seisio/szvol/internal/logctx"
	"github.com/seisio/szvol/pkg/szcodec"
)

// Codec decodes a fixed-rate compressed buffer into a dense row-major
// float32 array of the given shape. Implementations must treat the buffer
// as the unit/block stream layout described in package szcodec.
type Codec interface {
	Decompress(buf []byte, shape [3]int, rate int) ([]float32, error)
}

// DefaultWorkers is the gather engine's default worker count.
const DefaultWorkers = 32

// Option configures a Reader at open time.
type Option func(*options)

type options struct {
	workers int
	codec   Codec
	mmap    bool
}

// WithWorkers sets the zslice gather worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCodec overrides the default fixed-rate codec.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMmap memory-maps local volumes instead of issuing seek+read calls.
// Only valid with Open; ignored by OpenBackend.
func WithMmap() Option {
	return func(o *options) { o.mmap = true }
}

// Reader provides random access to one SZ volume.
//
// Thread Safety: Reader is safe for concurrent use. The layout is immutable
// after open, and every read call owns its buffer and file handles
// exclusively. Close should only be called once, after all reads have
// completed.
type Reader struct {
	layout  Layout
	backend Backend
	codec   Codec
	workers int
	gather  *gatherPool
}

func defaultOptions() options {
	return options{workers: DefaultWorkers, codec: szcodec.FixedRate{}}
}

// Open opens a local SZ file.
func Open(ctx context.Context, path string, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		b   Backend
		err error
	)
	if o.mmap {
		b, err = newMmapBackend(path)
	} else {
		b, err = NewFileBackend(path)
	}
	if err != nil {
		return nil, err
	}

	r, err := openBackend(ctx, b, o)
	if err != nil {
		b.Close()
		return nil, err
	}
	return r, nil
}

// OpenBackend opens an SZ volume over an arbitrary backend, such as an
// s3io ranged-read backend. The backend is owned by the returned Reader
// and released by Close.
func OpenBackend(ctx context.Context, b Backend, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return openBackend(ctx, b, o)
}

func openBackend(ctx context.Context, b Backend, o options) (*Reader, error) {
	lay, err := readLayout(ctx, b)
	if err != nil {
		return nil, err
	}

	size, err := b.Size(ctx)
	if err != nil {
		return nil, err
	}
	if want := lay.DataStart + lay.DataBytes(); size < want {
		return nil, fmt.Errorf("%w: %s is %d bytes, layout needs %d",
			ErrFormat, b.Name(), size, want)
	}

	lg := logctx.FromContext(ctx)
	lg.Debug().
		Str("volume", b.Name()).
		Int("inlines", lay.Inlines).
		Int("crosslines", lay.Crosslines).
		Int("samples", lay.Samples).
		Int("bit_rate", lay.Rate).
		Ints("padded_shape", lay.PaddedShape[:]).
		Msg("opened sz volume")

	return &Reader{
		layout:  lay,
		backend: b,
		codec:   o.codec,
		workers: o.workers,
		gather:  newGatherPool(o.workers),
	}, nil
}

// readLayout reads the first disk block and derives the volume layout. All
// geometry fields live in the first block even when the header spans
// several; extra header blocks only move the data start.
func readLayout(ctx context.Context, b Backend) (Layout, error) {
	h, err := b.Open(ctx)
	if err != nil {
		return Layout{}, err
	}
	defer h.Close()

	head := make([]byte, DiskBlockBytes)
	if _, err := h.ReadAt(head, 0); err != nil {
		return Layout{}, fmt.Errorf("%w: %s truncated below one disk block: %w",
			ErrFormat, b.Name(), err)
	}

	hdr, err := DecodeVolumeHeader(head)
	if err != nil {
		return Layout{}, err
	}
	return DeriveLayout(hdr)
}

// Layout returns the immutable volume geometry.
func (r *Reader) Layout() Layout { return r.layout }

// Close stops the gather pool and releases the backend. In-flight reads
// must have completed.
func (r *Reader) Close() error {
	r.gather.close()
	return r.backend.Close()
}

// ReadInline returns one inline as a (crosslines, samples) array.
func (r *Reader) ReadInline(ctx context.Context, il int) (Array2D, error) {
	p, err := planInline(r.layout, il)
	if err != nil {
		return Array2D{}, err
	}
	vol, err := r.readSequential(ctx, p)
	if err != nil {
		return Array2D{}, err
	}
	return Array2D{Data: vol.Data, Rows: vol.Nx, Cols: vol.Nz}, nil
}

// ReadCrossline returns one crossline as an (inlines, samples) array.
func (r *Reader) ReadCrossline(ctx context.Context, xl int) (Array2D, error) {
	p, err := planCrossline(r.layout, xl)
	if err != nil {
		return Array2D{}, err
	}
	vol, err := r.readSequential(ctx, p)
	if err != nil {
		return Array2D{}, err
	}
	return Array2D{Data: vol.Data, Rows: vol.Ni, Cols: vol.Nz}, nil
}

// ReadZSlice returns one horizontal slice as an (inlines, crosslines)
// array. This is the scattered access pattern: one small read per chunk,
// executed by the parallel gather engine.
func (r *Reader) ReadZSlice(ctx context.Context, z int) (Array2D, error) {
	p, err := planZSlice(r.layout, z)
	if err != nil {
		return Array2D{}, err
	}

	lg := logctx.FromContext(ctx)
	lg.Debug().
		Int("z", z).
		Int("ranges", len(p.ranges)).
		Int("workers", r.workers).
		Msg("gathering zslice")

	buf := make([]byte, p.totalBytes())
	if err := r.gather.execute(ctx, r.backend, p, buf, r.workers); err != nil {
		return Array2D{}, err
	}
	vol, err := r.decodeTrim(p, buf)
	if err != nil {
		return Array2D{}, err
	}
	return Array2D{Data: vol.Data, Rows: vol.Ni, Cols: vol.Nx}, nil
}

// ReadSubvolume returns the box [il0,il1) x [xl0,xl1) x [z0,z1) as a dense
// 3D array of exactly that shape.
func (r *Reader) ReadSubvolume(ctx context.Context, il0, il1, xl0, xl1, z0, z1 int) (Array3D, error) {
	p, err := planSubvolume(r.layout, il0, il1, xl0, xl1, z0, z1)
	if err != nil {
		return Array3D{}, err
	}
	return r.readSequential(ctx, p)
}

func (r *Reader) readSequential(ctx context.Context, p plan) (Array3D, error) {
	h, err := r.backend.Open(ctx)
	if err != nil {
		return Array3D{}, err
	}
	defer h.Close()

	buf := make([]byte, p.totalBytes())
	if err := fetchSequential(h, p, buf); err != nil {
		return Array3D{}, err
	}
	return r.decodeTrim(p, buf)
}

// decodeTrim decodes the assembled buffer at the plan's shape and slices
// the padded result down to the requested extents.
func (r *Reader) decodeTrim(p plan, buf []byte) (Array3D, error) {
	vals, err := r.codec.Decompress(buf, p.shape, r.layout.Rate)
	if err != nil {
		return Array3D{}, fmt.Errorf("%w: decode: %w", ErrFormat, err)
	}

	t := p.trim
	ni, nx, nz := t.i1-t.i0, t.x1-t.x0, t.z1-t.z0
	out := make([]float32, ni*nx*nz)
	for i := 0; i < ni; i++ {
		for x := 0; x < nx; x++ {
			src := ((t.i0+i)*p.shape[1]+t.x0+x)*p.shape[2] + t.z0
			copy(out[(i*nx+x)*nz:(i*nx+x+1)*nz], vals[src:src+nz])
		}
	}
	return Array3D{Data: out, Ni: ni, Nx: nx, Nz: nz}, nil
}
