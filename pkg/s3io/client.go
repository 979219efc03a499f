// Package s3io reads SZ volumes resident in S3.
//
// The reader's byte-range plans map directly onto HTTP range requests, so a
// volume can be sliced in place without downloading it: each planned range
// becomes one ranged GetObject. For repeated access the Downloader caches a
// whole volume locally instead.
package s3io

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewClient creates an S3 client using the default AWS configuration chain.
func NewClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// NewClientWithConfig creates an S3 client from a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// ParseURI parses an S3 URI (s3://bucket/key) into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid S3 URI: need s3://bucket/key")
	}
	return parts[0], parts[1], nil
}

// IsURI reports whether the path looks like an S3 URI.
func IsURI(path string) bool { return strings.HasPrefix(path, "s3://") }
