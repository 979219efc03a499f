package cli

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/seisio/szvol/internal/logctx"
	"github.com/seisio/szvol/pkg/humanfmt"
)

// writeSlice writes a decoded slice as little-endian float32, raw or
// zstd-compressed, to the given path or stdout.
func writeSlice(ctx context.Context, path string, compress bool, data []float32, dims []int) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	bw := bufio.NewWriterSize(out, 1<<20)
	w := io.Writer(bw)

	var enc *zstd.Encoder
	if compress {
		var err error
		enc, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		w = enc
	}

	start := time.Now()
	if err := writeFloats(w, data); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush zstd stream: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	lg := logctx.FromContext(ctx)
	lg.Info().
		Ints("shape", dims).
		Str("bytes", humanfmt.Bytes(int64(4*len(data)))).
		Str("duration", humanfmt.Duration(time.Since(start))).
		Bool("zstd", compress).
		Msg("wrote slice")
	return nil
}

// writeFloats streams values as little-endian float32 in fixed-size batches.
func writeFloats(w io.Writer, data []float32) error {
	const batch = 16 * 1024
	buf := make([]byte, 4*batch)
	for len(data) > 0 {
		n := len(data)
		if n > batch {
			n = batch
		}
		for i, v := range data[:n] {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		if _, err := w.Write(buf[:4*n]); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		data = data[n:]
	}
	return nil
}
