package sz

import (
	"context"
	"fmt"
)

// Verify checks that a local SZ file has a parseable header and that its
// size matches the data region the layout implies exactly. It reads only
// the header block.
func Verify(ctx context.Context, path string) (Layout, error) {
	b, err := NewFileBackend(path)
	if err != nil {
		return Layout{}, err
	}
	defer b.Close()

	lay, err := readLayout(ctx, b)
	if err != nil {
		return Layout{}, err
	}

	size, err := b.Size(ctx)
	if err != nil {
		return Layout{}, err
	}
	if want := lay.DataStart + lay.DataBytes(); size != want {
		return Layout{}, fmt.Errorf("%w: %s is %d bytes, layout implies %d",
			ErrFormat, path, size, want)
	}
	return lay, nil
}
