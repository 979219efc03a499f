package sz

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	for _, tc := range []struct{ n, k int }{
		{100, 32}, {4, 4}, {5, 4}, {1, 1}, {7, 3}, {64, 1}, {3, 3},
	} {
		covered := 0
		prevHi := 0
		for idx := 0; idx < tc.k; idx++ {
			lo, hi := partition(tc.n, tc.k, idx)
			require.Equal(t, prevHi, lo, "n=%d k=%d idx=%d", tc.n, tc.k, idx)
			require.GreaterOrEqual(t, hi, lo)

			size := hi - lo
			require.InDelta(t, float64(tc.n)/float64(tc.k), float64(size), 1)
			covered += size
			prevHi = hi
		}
		require.Equal(t, tc.n, covered, "n=%d k=%d", tc.n, tc.k)
	}
}

func TestGatherPoolMatchesSequential(t *testing.T) {
	// A scattered uniform plan over an arbitrary byte file must assemble the
	// same buffer no matter how many workers execute it.
	rng := rand.New(rand.NewSource(1))
	raw := make([]byte, 1<<16)
	rng.Read(raw)

	path := filepath.Join(t.TempDir(), "scatter.bin")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	const size = 64
	p := plan{}
	for i := 0; i < 100; i++ {
		p.ranges = append(p.ranges, byteRange{off: int64(i)*640 + 16, length: size})
	}

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	defer b.Close()

	h, err := b.Open(context.Background())
	require.NoError(t, err)
	defer h.Close()

	want := make([]byte, p.totalBytes())
	require.NoError(t, fetchSequential(h, p, want))

	for _, workers := range []int{1, 3, 32, 100, 500} {
		pool := newGatherPool(workers)
		got := make([]byte, p.totalBytes())
		err := pool.execute(context.Background(), b, p, got, workers)
		pool.close()
		require.NoError(t, err, "workers=%d", workers)
		require.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestGatherPoolReuse(t *testing.T) {
	// One pool serves many calls; repeated executions stay correct.
	path := filepath.Join(t.TempDir(), "scatter.bin")
	raw := make([]byte, 8192)
	for i := range raw {
		raw[i] = byte(i * 13)
	}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	defer b.Close()

	p := plan{ranges: []byteRange{{off: 0, length: 32}, {off: 4096, length: 32}, {off: 100, length: 32}}}

	pool := newGatherPool(4)
	defer pool.close()

	h, err := b.Open(context.Background())
	require.NoError(t, err)
	defer h.Close()
	want := make([]byte, p.totalBytes())
	require.NoError(t, fetchSequential(h, p, want))

	for call := 0; call < 10; call++ {
		got := make([]byte, p.totalBytes())
		require.NoError(t, pool.execute(context.Background(), b, p, got, 2))
		require.Equal(t, want, got, "call %d", call)
	}
}

func TestGatherPoolCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	defer b.Close()

	p := plan{ranges: []byteRange{{off: 0, length: 64}, {off: 64, length: 64}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := newGatherPool(2)
	defer pool.close()

	err = pool.execute(ctx, b, p, make([]byte, p.totalBytes()), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGatherPoolReadPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	defer b.Close()

	pool := newGatherPool(4)
	defer pool.close()

	p := plan{ranges: []byteRange{{off: 80, length: 64}}}
	err = pool.execute(context.Background(), b, p, make([]byte, 64), 4)
	require.ErrorIs(t, err, ErrIO)
}
