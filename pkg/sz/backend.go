package sz

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Handle is an independent read handle on a volume. A handle is exclusive
// to the read call it was opened for and is never shared across calls.
type Handle interface {
	io.ReaderAt
	io.Closer
}

// Backend abstracts where a volume's bytes live. Open returns a handle
// scoped to a single read call; the gather engine opens one handle per
// worker, so Open must be safe for concurrent use.
type Backend interface {
	// Open returns a fresh read handle. The context covers the lifetime
	// of the read call the handle serves.
	Open(ctx context.Context) (Handle, error)
	// Size returns the total byte size of the volume.
	Size(ctx context.Context) (int64, error)
	// Close releases resources held by the backend itself.
	Close() error
	// Name identifies the volume in errors and logs.
	Name() string
}

// fileBackend reopens the file for every handle, so concurrent gather
// workers never contend on a shared seek position.
type fileBackend struct {
	path string
}

// NewFileBackend returns a Backend over a local SZ file.
func NewFileBackend(path string) (Backend, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &fileBackend{path: path}, nil
}

func (b *fileBackend) Open(ctx context.Context) (Handle, error) {
	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, b.path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, b.path, err)
	}
	return f, nil
}

func (b *fileBackend) Size(ctx context.Context) (int64, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", b.path, err)
	}
	return info.Size(), nil
}

func (b *fileBackend) Close() error { return nil }

func (b *fileBackend) Name() string { return b.path }
