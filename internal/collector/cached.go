package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Kolgejt/internal/cache"
	"Kolgejt/internal/model"
)

// CachedFetcher is a read-through bar cache in front of another Fetcher.
type CachedFetcher struct {
	Next   Fetcher
	Cache  cache.BarCache
	MaxAge time.Duration
	Logger *zap.Logger
}

// NewCachedFetcher wraps next with a bar cache whose entries expire after maxAge.
func NewCachedFetcher(next Fetcher, c cache.BarCache, maxAge time.Duration, logger *zap.Logger) *CachedFetcher {
	return &CachedFetcher{Next: next, Cache: c, MaxAge: maxAge, Logger: logger}
}

func (f *CachedFetcher) Name() string { return "cached-" + f.Next.Name() }

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	bars, ok, err := f.Cache.Get(ctx, symbol, days, f.MaxAge)
	if err != nil {
		f.Logger.Warn("bar cache read failed", zap.String("ticker", symbol), zap.Error(err))
	} else if ok {
		return bars, nil
	}

	bars, err = f.Next.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Put(ctx, symbol, days, bars); err != nil {
		f.Logger.Warn("bar cache write failed", zap.String("ticker", symbol), zap.Error(err))
	}
	return bars, nil
}

// CachedFundamentals keeps fundamentals bags in Redis for TTL.
type CachedFundamentals struct {
	Next   FundamentalsFetcher
	Redis  *cache.RedisClient
	TTL    time.Duration
	Logger *zap.Logger
}

func (f *CachedFundamentals) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	key := "kolgejt:fundamentals:" + symbol
	var cached model.Fundamentals
	if f.Redis != nil {
		if err := f.Redis.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	fd, err := f.Next.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if f.Redis != nil {
		if err := f.Redis.Set(ctx, key, fd, f.TTL); err != nil {
			f.Logger.Warn("fundamentals cache write failed", zap.String("ticker", symbol), zap.Error(err))
		}
	}
	return fd, nil
}
