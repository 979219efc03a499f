package volume_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seisio/szvol/internal/sztest"
	"github.com/seisio/szvol/pkg/sz"
	"github.com/seisio/szvol/pkg/volume"
)

func TestDetectKind(t *testing.T) {
	for path, want := range map[string]volume.Kind{
		"survey.sz":        volume.KindSZ,
		"/data/SURVEY.SZ":  volume.KindSZ,
		"survey.sgy":       volume.KindSEGY,
		"survey.segy":      volume.KindSEGY,
		"survey.zgy":       volume.KindZGY,
		"survey.dat":       volume.KindUnknown,
		"survey":           volume.KindUnknown,
		"dir.sz/file.segy": volume.KindSEGY,
	} {
		require.Equal(t, want, volume.DetectKind(path), "path %q", path)
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "sz", volume.KindSZ.String())
	require.Equal(t, "segy", volume.KindSEGY.String())
	require.Equal(t, "zgy", volume.KindZGY.String())
	require.Equal(t, "unknown", volume.KindUnknown.String())
}

func TestOpenSZ(t *testing.T) {
	h := sz.VolumeHeader{HeaderBlocks: 1, Samples: 300, Crosslines: 5, Inlines: 6, Rate: 8}
	path := filepath.Join(t.TempDir(), "survey.sz")
	require.NoError(t, sztest.WriteVolume(path, h))

	v, err := volume.Open(context.Background(), path)
	require.NoError(t, err)
	defer v.Close()

	require.Equal(t, volume.KindSZ, v.Kind())
	require.Equal(t, h.Inlines, v.Inlines())
	require.Equal(t, h.Crosslines, v.Crosslines())
	require.Equal(t, h.Samples, v.Samples())

	a, err := v.ReadInline(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, sztest.VoxelBits(h.Rate, 3, 1, 7), math.Float32bits(a.At(1, 7)))

	zs, err := v.ReadZSlice(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, h.Inlines, zs.Rows)
	require.Equal(t, h.Crosslines, zs.Cols)

	sub, err := v.ReadSubvolume(context.Background(), 0, 2, 0, 2, 0, 4)
	require.NoError(t, err)
	require.Equal(t, sztest.Voxel(h.Rate, 1, 1, 3), sub.At(1, 1, 3))
}

func TestOpenUnimplementedKinds(t *testing.T) {
	for _, path := range []string{"survey.sgy", "survey.segy", "survey.zgy"} {
		_, err := volume.Open(context.Background(), path)
		require.ErrorIs(t, err, volume.ErrUnsupported, "path %q", path)
	}
}

func TestOpenUnknownExtension(t *testing.T) {
	_, err := volume.Open(context.Background(), "survey.dat")
	require.ErrorIs(t, err, volume.ErrUnsupported)
}

func TestOpenMissingSZ(t *testing.T) {
	_, err := volume.Open(context.Background(), filepath.Join(t.TempDir(), "none.sz"))
	require.ErrorIs(t, err, sz.ErrNotFound)
}
