package scanner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives the number of completed tickers out of total.
type ProgressFunc func(completed, total int)

// ForEach runs fn for every ticker on at most workers goroutines, in launch order.
// fn reports whether the ticker counts as processed; tickers abandoned on cancellation do not.
// Progress callbacks are serialized and monotonic. ForEach returns ctx.Err().
func ForEach(ctx context.Context, tickers []string, workers int, fn func(ctx context.Context, i int, ticker string) bool, onProgress ProgressFunc) error {
	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))

	var mu sync.Mutex
	completed := 0
	for i, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if !fn(ctx, i, ticker) {
				return nil
			}
			mu.Lock()
			completed++
			if onProgress != nil {
				onProgress(completed, len(tickers))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
