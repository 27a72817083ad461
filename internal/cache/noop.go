package cache

import (
	"context"
	"time"

	"Kolgejt/internal/model"
)

// NoopBarCache is used when SQLite is not configured.
type NoopBarCache struct{}

func NewNoopBarCache() *NoopBarCache { return &NoopBarCache{} }

func (n *NoopBarCache) Get(_ context.Context, _ string, _ int, _ time.Duration) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}
func (n *NoopBarCache) Put(_ context.Context, _ string, _ int, _ []model.OHLCV) error { return nil }
func (n *NoopBarCache) Close() error                                                  { return nil }
