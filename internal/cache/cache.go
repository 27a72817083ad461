package cache

import (
	"context"
	"time"

	"Kolgejt/internal/model"
)

// BarCache stores daily bars per ticker on the provider side of the scan.
type BarCache interface {
	// Get returns the cached bars of symbol if at least days bars were stored within maxAge.
	Get(ctx context.Context, symbol string, days int, maxAge time.Duration) ([]model.OHLCV, bool, error)
	// Put replaces the cached bars of symbol.
	Put(ctx context.Context, symbol string, days int, bars []model.OHLCV) error
	Close() error
}
