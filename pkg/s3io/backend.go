package s3io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/seisio/szvol/pkg/sz"
)

// ObjectAPI is the subset of the S3 client the backend needs. It is an
// interface so tests can substitute an in-memory object store.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Backend reads an SZ volume stored as a single S3 object through ranged
// GetObject calls. It implements sz.Backend; handles are stateless, so
// gather workers issue their ranged reads independently with no shared
// position.
type Backend struct {
	api    ObjectAPI
	bucket string
	key    string

	sizeOnce sync.Once
	size     int64
	sizeErr  error
}

// NewBackend returns a Backend over s3://bucket/key.
func NewBackend(api ObjectAPI, bucket, key string) *Backend {
	return &Backend{api: api, bucket: bucket, key: key}
}

// Open returns a handle scoped to one read call; its ranged requests use
// the call's context.
func (b *Backend) Open(ctx context.Context) (sz.Handle, error) {
	return &rangeHandle{backend: b, ctx: ctx}, nil
}

// Size returns the object size via HeadObject, cached after the first call.
func (b *Backend) Size(ctx context.Context) (int64, error) {
	b.sizeOnce.Do(func() {
		out, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.key),
		})
		if err != nil {
			var nf *types.NotFound
			if errors.As(err, &nf) {
				b.sizeErr = fmt.Errorf("%w: %s", sz.ErrNotFound, b.Name())
				return
			}
			b.sizeErr = fmt.Errorf("head %s: %w", b.Name(), err)
			return
		}
		b.size = aws.ToInt64(out.ContentLength)
	})
	return b.size, b.sizeErr
}

func (b *Backend) Close() error { return nil }

func (b *Backend) Name() string { return "s3://" + b.bucket + "/" + b.key }

// rangeHandle turns ReadAt calls into ranged GetObject requests.
type rangeHandle struct {
	backend *Backend
	ctx     context.Context
}

func (h *rangeHandle) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b := h.backend
	out, err := b.api.GetObject(h.ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)),
	})
	if err != nil {
		var nk *types.NoSuchKey
		if errors.As(err, &nk) {
			return 0, fmt.Errorf("%w: %s", sz.ErrNotFound, b.Name())
		}
		return 0, fmt.Errorf("get %s range at %d: %w", b.Name(), off, err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p)
	if err != nil {
		return n, fmt.Errorf("read %s range at %d: %w", b.Name(), off, err)
	}
	return n, nil
}

func (h *rangeHandle) Close() error { return nil }
