//go:build !unix

package sz

import "errors"

func newMmapBackend(path string) (Backend, error) {
	return nil, errors.New("mmap backend is not supported on this platform")
}
