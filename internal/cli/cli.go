// Package cli implements the command-line interface for szvol.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/seisio/szvol/internal/config"
	"github.com/seisio/szvol/internal/logctx"
	"github.com/seisio/szvol/pkg/humanfmt"
	"github.com/seisio/szvol/pkg/s3io"
	"github.com/seisio/szvol/pkg/sz"
	"github.com/seisio/szvol/pkg/volume"
)

const usage = "usage: szvol <command> [options]\n" +
	"commands: info, inline, xline, zslice, subvol, verify, fetch"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "info":
		return runInfo(args[1:])
	case "inline":
		return runInline(args[1:])
	case "xline":
		return runCrossline(args[1:])
	case "zslice":
		return runZSlice(args[1:])
	case "subvol":
		return runSubvolume(args[1:])
	case "verify":
		return runVerify(args[1:])
	case "fetch":
		return runFetch(args[1:])
	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath string
	debug      bool
	human      bool
	workers    int
	mmap       bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "TOML config file with defaults")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.human, "human", false, "human-friendly console logs")
	fs.IntVar(&c.workers, "workers", 0, "zslice gather worker count")
	fs.BoolVar(&c.mmap, "mmap", false, "memory-map local volumes")
}

// resolve merges flags over the config file and returns a context carrying
// the configured logger.
func (c *commonFlags) resolve() (context.Context, config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	cfg.Debug = cfg.Debug || c.debug
	cfg.Human = cfg.Human || c.human

	logger := logctx.NewConfiguredLogger(cfg.Debug, cfg.Human)
	return logctx.WithLogger(context.Background(), logger), cfg, nil
}

// sliceReader is the read capability shared by local volumes (via the
// format dispatch) and S3-resident SZ volumes.
type sliceReader interface {
	ReadInline(ctx context.Context, il int) (sz.Array2D, error)
	ReadCrossline(ctx context.Context, xl int) (sz.Array2D, error)
	ReadZSlice(ctx context.Context, z int) (sz.Array2D, error)
	ReadSubvolume(ctx context.Context, il0, il1, xl0, xl1, z0, z1 int) (sz.Array3D, error)
	Close() error
}

func openVolume(ctx context.Context, path string, cfg config.Config, mmap bool) (sliceReader, error) {
	opts := []sz.Option{sz.WithWorkers(cfg.Workers)}
	if mmap {
		opts = append(opts, sz.WithMmap())
	}

	if s3io.IsURI(path) {
		bucket, key, err := s3io.ParseURI(path)
		if err != nil {
			return nil, err
		}
		client, err := s3io.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		return sz.OpenBackend(ctx, s3io.NewBackend(client, bucket, key), opts...)
	}
	return volume.Open(ctx, path, opts...)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: szvol info [options] <volume>")
	}

	ctx, _, err := common.resolve()
	if err != nil {
		return err
	}

	lay, err := sz.Verify(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("inlines:     %d\n", lay.Inlines)
	fmt.Printf("crosslines:  %d\n", lay.Crosslines)
	fmt.Printf("samples:     %d\n", lay.Samples)
	fmt.Printf("bit rate:    %d\n", lay.Rate)
	fmt.Printf("block shape: %dx%dx%d\n", lay.BlockShape[0], lay.BlockShape[1], lay.BlockShape[2])
	fmt.Printf("data size:   %s\n", humanfmt.Bytes(lay.DataBytes()))
	return nil
}

func runInline(args []string) error {
	return runSliceCommand("inline", args, func(ctx context.Context, r sliceReader, idx int) (sz.Array2D, error) {
		return r.ReadInline(ctx, idx)
	})
}

func runCrossline(args []string) error {
	return runSliceCommand("xline", args, func(ctx context.Context, r sliceReader, idx int) (sz.Array2D, error) {
		return r.ReadCrossline(ctx, idx)
	})
}

func runZSlice(args []string) error {
	return runSliceCommand("zslice", args, func(ctx context.Context, r sliceReader, idx int) (sz.Array2D, error) {
		return r.ReadZSlice(ctx, idx)
	})
}

func runSliceCommand(name string, args []string, read func(context.Context, sliceReader, int) (sz.Array2D, error)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	idx := fs.Int("n", -1, "slice index")
	out := fs.String("o", "", "output file (default stdout)")
	compress := fs.Bool("zstd", false, "zstd-compress the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: szvol %s -n <index> [options] <volume>", name)
	}
	if *idx < 0 {
		return errors.New("-n is required")
	}

	ctx, cfg, err := common.resolve()
	if err != nil {
		return err
	}

	r, err := openVolume(ctx, fs.Arg(0), cfg, common.mmap)
	if err != nil {
		return err
	}
	defer r.Close()

	a, err := read(ctx, r, *idx)
	if err != nil {
		return err
	}
	return writeSlice(ctx, *out, *compress, a.Data, []int{a.Rows, a.Cols})
}

func runSubvolume(args []string) error {
	fs := flag.NewFlagSet("subvol", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	ilRange := fs.String("il", "", "inline range lo:hi (half-open)")
	xlRange := fs.String("xl", "", "crossline range lo:hi (half-open)")
	zRange := fs.String("z", "", "z range lo:hi (half-open)")
	out := fs.String("o", "", "output file (default stdout)")
	compress := fs.Bool("zstd", false, "zstd-compress the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: szvol subvol -il lo:hi -xl lo:hi -z lo:hi [options] <volume>")
	}

	il0, il1, err := parseRange(*ilRange, "il")
	if err != nil {
		return err
	}
	xl0, xl1, err := parseRange(*xlRange, "xl")
	if err != nil {
		return err
	}
	z0, z1, err := parseRange(*zRange, "z")
	if err != nil {
		return err
	}

	ctx, cfg, err := common.resolve()
	if err != nil {
		return err
	}

	r, err := openVolume(ctx, fs.Arg(0), cfg, common.mmap)
	if err != nil {
		return err
	}
	defer r.Close()

	a, err := r.ReadSubvolume(ctx, il0, il1, xl0, xl1, z0, z1)
	if err != nil {
		return err
	}
	return writeSlice(ctx, *out, *compress, a.Data, []int{a.Ni, a.Nx, a.Nz})
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: szvol verify [options] <volume>")
	}

	ctx, _, err := common.resolve()
	if err != nil {
		return err
	}

	lay, err := sz.Verify(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%dx%dx%d at %d bits per voxel)\n",
		fs.Arg(0), lay.Inlines, lay.Crosslines, lay.Samples, lay.Rate)
	return nil
}

func runFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	concurrency := fs.Int("concurrency", 0, "parallel download parts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: szvol fetch [options] s3://bucket/key <dest>")
	}

	bucket, key, err := s3io.ParseURI(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, _, err := common.resolve()
	if err != nil {
		return err
	}

	client, err := s3io.NewClient(ctx)
	if err != nil {
		return err
	}

	cfg := s3io.DefaultDownloadConfig()
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}

	result, err := s3io.NewDownloader(client, cfg).DownloadToFile(ctx, bucket, key, fs.Arg(1))
	if err != nil {
		return err
	}
	lg := logctx.FromContext(ctx)
	lg.Info().
		Str("dest", fs.Arg(1)).
		Str("bytes", humanfmt.Bytes(result.Bytes)).
		Str("duration", humanfmt.Duration(result.Duration)).
		Str("throughput", humanfmt.Throughput(result.Bytes, result.Duration)).
		Msg("fetched volume")
	return nil
}

// parseRange parses "lo:hi" into half-open integer bounds.
func parseRange(s, name string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("-%s must be lo:hi, got %q", name, s)
	}
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("-%s lower bound: %w", name, err)
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("-%s upper bound: %w", name, err)
	}
	return lo, hi, nil
}
