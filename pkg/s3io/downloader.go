package s3io

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/seisio/szvol/internal/logctx"
	"github.com/seisio/szvol/pkg/humanfmt"
)

// DownloadConfig configures a bulk volume download.
type DownloadConfig struct {
	// Concurrency is the number of concurrent download parts.
	// Default: max(4, NumCPU), capped at 16.
	Concurrency int

	// PartSize is the size of each download part in bytes. Default: 16MB.
	PartSize int64
}

// DefaultDownloadConfig returns defaults based on the current machine.
func DefaultDownloadConfig() DownloadConfig {
	concurrency := runtime.NumCPU()
	if concurrency < 4 {
		concurrency = 4
	}
	if concurrency > 16 {
		concurrency = 16
	}
	return DownloadConfig{
		Concurrency: concurrency,
		PartSize:    16 * 1024 * 1024,
	}
}

// DownloadResult contains statistics for a completed download.
type DownloadResult struct {
	Bytes    int64
	Duration time.Duration
}

// Downloader caches whole SZ volumes locally using the S3 download manager
// for parallel range downloads.
type Downloader struct {
	manager *manager.Downloader
	config  DownloadConfig
}

// NewDownloader creates a Downloader from an existing S3 client.
func NewDownloader(client manager.DownloadAPIClient, cfg DownloadConfig) *Downloader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultDownloadConfig().Concurrency
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = DefaultDownloadConfig().PartSize
	}

	mgr := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
		d.BufferProvider = manager.NewPooledBufferedWriterReadFromProvider(int(cfg.PartSize))
	})
	return &Downloader{manager: mgr, config: cfg}
}

// DownloadToFile downloads s3://bucket/key to destPath. The partial file is
// removed on failure.
func (d *Downloader) DownloadToFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	startTime := time.Now()

	file, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}
	defer file.Close()

	n, err := d.manager.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	result := &DownloadResult{Bytes: n, Duration: time.Since(startTime)}
	lg := logctx.FromContext(ctx)
	lg.Debug().
		Str("source", "s3://"+bucket+"/"+key).
		Str("dest", destPath).
		Str("bytes", humanfmt.Bytes(result.Bytes)).
		Str("throughput", humanfmt.Throughput(result.Bytes, result.Duration)).
		Msg("volume download complete")
	return result, nil
}

// Config returns the downloader configuration.
func (d *Downloader) Config() DownloadConfig { return d.config }
