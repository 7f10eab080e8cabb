// Package transform drives per-cell raster computations over a flat index
// space, either serially or on a fixed pool of workers.
//
// Every destination cell is computed independently, so workers share only
// read-only inputs and write disjoint cells; no locking is needed.
package transform

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultGrain is the number of consecutive cells a worker claims at once.
	DefaultGrain = 256
	// checkEvery is how many cells the serial path processes between
	// cancellation checks.
	checkEvery = 10000
)

// Options configures how a transform is scheduled.
type Options struct {
	// Workers is the number of goroutines. 0 means runtime.NumCPU(); 1 runs
	// the serial path on the calling goroutine.
	Workers int
	// Grain is the chunk size in cells. 0 means DefaultGrain.
	Grain int
	// Progress, if set, is called with the number of cells just completed.
	// It may be called concurrently from several workers.
	Progress func(done int)
}

// WorkerCount resolves the number of goroutines Run will start at most.
func (o Options) WorkerCount() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o Options) grain() int {
	if o.Grain <= 0 {
		return DefaultGrain
	}
	return o.Grain
}

// Body processes the cells with flat index in [lo, hi).
type Body func(lo, hi int) error

// Run executes a Body for every index in [0, n). newBody is called once per
// worker so each worker can own scratch state. When ctx is cancelled, Run
// stops claiming work and returns the context's error; cells already written
// stay written.
func Run(ctx context.Context, n int, opts Options, newBody func() Body) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transform interrupted: %w", err)
	}
	grain := opts.grain()
	workers := opts.WorkerCount()
	if chunks := (n + grain - 1) / grain; workers > chunks {
		workers = chunks
	}
	if workers <= 1 {
		return runSerial(ctx, n, opts, newBody())
	}

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		body := newBody()
		g.Go(func() error {
			for {
				lo := int(next.Add(int64(grain))) - grain
				if lo >= n {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				hi := min(lo+grain, n)
				if err := body(lo, hi); err != nil {
					return err
				}
				if opts.Progress != nil {
					opts.Progress(hi - lo)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("transform interrupted: %w", ctxErr)
		}
		return err
	}
	return nil
}

// runSerial walks [0, n) in order, checking for cancellation every
// checkEvery cells. It produces the same cells as the parallel path.
func runSerial(ctx context.Context, n int, opts Options, body Body) error {
	for lo := 0; lo < n; lo += checkEvery {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transform interrupted: %w", err)
		}
		hi := min(lo+checkEvery, n)
		if err := body(lo, hi); err != nil {
			return err
		}
		if opts.Progress != nil {
			opts.Progress(hi - lo)
		}
	}
	return nil
}
