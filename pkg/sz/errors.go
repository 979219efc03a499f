package sz

import "errors"

var (
	// ErrNotFound indicates the volume file does not exist.
	ErrNotFound = errors.New("volume not found")
	// ErrFormat indicates an invalid or corrupted SZ header, or a
	// rate/shape combination the format does not support.
	ErrFormat = errors.New("invalid sz format")
	// ErrRange indicates a requested index or bound outside the volume.
	ErrRange = errors.New("index out of range")
	// ErrIO indicates a seek or read failure mid-operation.
	ErrIO = errors.New("i/o failure")
)
