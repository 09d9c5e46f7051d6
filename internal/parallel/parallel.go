// Package parallel evaluates independent graphs concurrently, one tape per worker.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/born-ml/tapegrad/internal/autodiff"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// Func builds and evaluates item i on tape. The tape is cleared before every
// call and must not escape the call.
type Func func(ctx context.Context, i int, tape *autodiff.Tape) error

// ForEach calls fn for every i in [0, n). Each worker goroutine owns a private
// tape built with opts, so fn never shares a tape with another goroutine. The
// first error cancels ctx for the remaining items and is returned.
//
// Falls back to a single tape on the calling goroutine if parallelism is
// disabled or n is too small.
func ForEach(ctx context.Context, n int, fn Func, cfg Config, opts ...autodiff.Option) error {
	if n <= 0 {
		return nil
	}
	workers := max(cfg.NumWorkers, 1)
	chunkSize := max((n+workers-1)/workers, cfg.MinChunkSize, 1)

	if !cfg.Enabled || workers == 1 || n <= chunkSize {
		return run(ctx, 0, n, fn, opts)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			return run(ctx, start, end, fn, opts)
		})
	}
	return g.Wait()
}

func run(ctx context.Context, start, end int, fn Func, opts []autodiff.Option) error {
	tape := autodiff.NewTape(opts...)
	defer tape.Destroy()

	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tape.Clear()
		if err := fn(ctx, i, tape); err != nil {
			return err
		}
	}
	klog.V(4).InfoS("Worker finished", "start", start, "end", end, "nodes", tape.NumNodes(), "blocks", tape.NumBlocks())
	return nil
}
