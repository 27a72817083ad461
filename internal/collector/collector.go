package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"Kolgejt/internal/model"
)

// Collector fetches one ticker's history with an individual deadline.
type Collector struct {
	Fetcher  Fetcher
	Lookback int
	Timeout  time.Duration
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookback int, timeout time.Duration) *Collector {
	return &Collector{Fetcher: fetcher, Lookback: lookback, Timeout: timeout}
}

// Depth is the most bars History can return per ticker.
func (c *Collector) Depth() int { return c.Lookback }

// History returns the price series of symbol, oldest bar first.
func (c *Collector) History(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Lookback)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%s: %w after %v", symbol, ErrTimeout, c.Timeout)
		}
		return nil, classify(symbol, err)
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      normalize(bars),
		FetchedAt: time.Now(),
	}, nil
}

// normalize orders bars by time and keeps the last bar of any duplicated timestamp.
func normalize(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(b.Time) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}
