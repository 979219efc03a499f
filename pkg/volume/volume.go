// Package volume dispatches over the supported seismic container formats.
//
// Dispatch is a closed set of kinds selected once at open time; every kind
// exposes the same geometry and read capability through the Volume
// interface. SZ is implemented by pkg/sz; SEG-Y and ZGY are recognized but
// served by external collaborators, so opening them reports
// ErrUnsupported.
package volume

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/seisio/szvol/pkg/sz"
)

// Kind identifies a seismic container format.
type Kind int

const (
	KindUnknown Kind = iota
	KindSZ
	KindSEGY
	KindZGY
)

func (k Kind) String() string {
	switch k {
	case KindSZ:
		return "sz"
	case KindSEGY:
		return "segy"
	case KindZGY:
		return "zgy"
	default:
		return "unknown"
	}
}

// ErrUnsupported indicates a recognized but unimplemented container kind,
// or an extension outside the closed set.
var ErrUnsupported = errors.New("unsupported container format")

// Volume is the capability set every container kind exposes.
type Volume interface {
	Kind() Kind
	Inlines() int
	Crosslines() int
	Samples() int

	ReadInline(ctx context.Context, il int) (sz.Array2D, error)
	ReadCrossline(ctx context.Context, xl int) (sz.Array2D, error)
	ReadZSlice(ctx context.Context, z int) (sz.Array2D, error)
	ReadSubvolume(ctx context.Context, il0, il1, xl0, xl1, z0, z1 int) (sz.Array3D, error)

	Close() error
}

// DetectKind classifies a path by extension.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sz":
		return KindSZ
	case ".sgy", ".segy":
		return KindSEGY
	case ".zgy":
		return KindZGY
	default:
		return KindUnknown
	}
}

// Open opens a local volume, selecting the container kind by extension.
func Open(ctx context.Context, path string, opts ...sz.Option) (Volume, error) {
	kind := DetectKind(path)
	switch kind {
	case KindSZ:
		r, err := sz.Open(ctx, path, opts...)
		if err != nil {
			return nil, err
		}
		return &szVolume{reader: r}, nil
	case KindSEGY, KindZGY:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	default:
		return nil, fmt.Errorf("%w: unknown extension %q", ErrUnsupported, filepath.Ext(path))
	}
}

type szVolume struct {
	reader *sz.Reader
}

func (v *szVolume) Kind() Kind      { return KindSZ }
func (v *szVolume) Inlines() int    { return v.reader.Layout().Inlines }
func (v *szVolume) Crosslines() int { return v.reader.Layout().Crosslines }
func (v *szVolume) Samples() int    { return v.reader.Layout().Samples }

func (v *szVolume) ReadInline(ctx context.Context, il int) (sz.Array2D, error) {
	return v.reader.ReadInline(ctx, il)
}

func (v *szVolume) ReadCrossline(ctx context.Context, xl int) (sz.Array2D, error) {
	return v.reader.ReadCrossline(ctx, xl)
}

func (v *szVolume) ReadZSlice(ctx context.Context, z int) (sz.Array2D, error) {
	return v.reader.ReadZSlice(ctx, z)
}

func (v *szVolume) ReadSubvolume(ctx context.Context, il0, il1, xl0, xl1, z0, z1 int) (sz.Array3D, error) {
	return v.reader.ReadSubvolume(ctx, il0, il1, xl0, xl1, z0, z1)
}

func (v *szVolume) Close() error { return v.reader.Close() }
