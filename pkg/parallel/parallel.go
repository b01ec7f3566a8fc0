// Package parallel runs independent index-addressed work items on a bounded
// errgroup. Callers write results into pre-sized slices at their own index,
// so no locking is needed.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach calls fn(i) for i in [0, n) with at most GOMAXPROCS in flight. The
// first error cancels the remaining items and is returned.
func ForEach(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
