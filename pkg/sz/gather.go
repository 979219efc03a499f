package sz

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// gatherPool executes scattered read plans (the zslice pattern) over a
// bounded set of long-lived workers. The pool is owned by the Reader and
// runs from open to close, so a read call pays no pool startup cost. Each
// submitted task owns a disjoint slice of the destination buffer, which is
// what makes unsynchronized worker writes safe.
type gatherPool struct {
	tasks chan gatherTask
	stop  chan struct{}

	g    errgroup.Group
	once sync.Once
}

// gatherTask is one worker's share of a read call: a contiguous group of
// uniform ranges and the buffer region holding their bytes.
type gatherTask struct {
	ctx     context.Context
	backend Backend
	ranges  []byteRange
	dst     []byte
	size    int
	done    chan<- error
}

func newGatherPool(workers int) *gatherPool {
	if workers < 1 {
		workers = 1
	}
	p := &gatherPool{
		tasks: make(chan gatherTask),
		stop:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.g.Go(func() error {
			p.worker()
			return nil
		})
	}
	return p
}

func (p *gatherPool) worker() {
	for {
		select {
		case <-p.stop:
			return
		case t := <-p.tasks:
			t.done <- t.run()
		}
	}
}

func (t gatherTask) run() error {
	h, err := t.backend.Open(t.ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	for i, r := range t.ranges {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		if _, err := h.ReadAt(t.dst[i*t.size:(i+1)*t.size], r.off); err != nil {
			return fmt.Errorf("%w: gather read at offset %d: %w", ErrIO, r.off, err)
		}
	}
	return nil
}

// execute runs a plan whose ranges all share one fixed length, split into up
// to `batches` contiguous groups, and blocks until every group has finished.
// The first task error cancels the remaining tasks and fails the call; no
// partial buffer is ever decoded.
func (p *gatherPool) execute(ctx context.Context, b Backend, pl plan, buf []byte, batches int) error {
	n := len(pl.ranges)
	if n == 0 {
		return nil
	}
	size := pl.ranges[0].length
	if batches < 1 {
		batches = 1
	}
	if batches > n {
		batches = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, batches)
	for i := 0; i < batches; i++ {
		lo, hi := partition(n, batches, i)
		p.tasks <- gatherTask{
			ctx:     ctx,
			backend: b,
			ranges:  pl.ranges[lo:hi],
			dst:     buf[lo*size : hi*size],
			size:    size,
			done:    done,
		}
	}

	var first error
	for i := 0; i < batches; i++ {
		if err := <-done; err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

// close stops the workers and waits for them to exit. Safe to call more
// than once; in-flight tasks finish first.
func (p *gatherPool) close() {
	p.once.Do(func() { close(p.stop) })
	p.g.Wait()
}

// partition returns the half-open item range owned by group idx when n
// items are split into k contiguous groups whose sizes differ by at most
// one.
func partition(n, k, idx int) (lo, hi int) {
	base, rem := n/k, n%k
	lo = idx * base
	if idx < rem {
		lo += idx
	} else {
		lo += rem
	}
	hi = lo + base
	if idx < rem {
		hi++
	}
	return lo, hi
}
