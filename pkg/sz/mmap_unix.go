//go:build unix

package sz

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// mmapBackend maps the whole volume once; handles are cheap views over the
// mapping. The mapping is read-only, so sharing it across concurrent calls
// is safe.
type mmapBackend struct {
	path string
	data []byte
}

func newMmapBackend(path string) (Backend, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFormat, path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %w", ErrIO, path, err)
	}
	return &mmapBackend{path: path, data: data}, nil
}

func (b *mmapBackend) Open(ctx context.Context) (Handle, error) {
	return mmapHandle{data: b.data}, nil
}

func (b *mmapBackend) Size(ctx context.Context) (int64, error) {
	return int64(len(b.data)), nil
}

func (b *mmapBackend) Close() error {
	if b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap %s: %w", b.path, err)
	}
	return nil
}

func (b *mmapBackend) Name() string { return b.path }

type mmapHandle struct {
	data []byte
}

func (h mmapHandle) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h mmapHandle) Close() error { return nil }
