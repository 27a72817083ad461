package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"Kolgejt/internal/model"
)

func sampleBars(n int) []model.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 1000 + float64(i)}
	}
	return bars
}

func TestSQLiteBarCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteBarCache(filepath.Join(t.TempDir(), "bars.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get(ctx, "AAPL", 10, time.Hour); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	bars := sampleBars(30)
	if err := c.Put(ctx, "AAPL", 30, bars); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, "AAPL", 10, time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 10 {
		t.Fatalf("expected the last 10 bars, got %d", len(got))
	}
	if !got[0].Time.Equal(bars[20].Time) || got[9].Close != bars[29].Close {
		t.Errorf("expected oldest-first tail of the stored bars, got %v..%v", got[0].Time, got[9].Close)
	}

	if _, ok, _ := c.Get(ctx, "AAPL", 60, time.Hour); ok {
		t.Error("expected miss when more days are requested than were stored")
	}
}

func TestSQLiteBarCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteBarCache(filepath.Join(t.TempDir(), "bars.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	if err := c.Put(ctx, "MSFT", 5, sampleBars(5)); err != nil {
		t.Fatalf("put: %v", err)
	}

	c.now = func() time.Time { return fixed.Add(2 * time.Hour) }
	if _, ok, _ := c.Get(ctx, "MSFT", 5, time.Hour); ok {
		t.Error("expected stale entry to miss")
	}
	if _, ok, _ := c.Get(ctx, "MSFT", 5, 3*time.Hour); !ok {
		t.Error("expected fresh entry to hit")
	}

	// Put replaces rather than appends.
	if err := c.Put(ctx, "MSFT", 3, sampleBars(3)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, _ := c.Get(ctx, "MSFT", 3, 3*time.Hour)
	if !ok || len(got) != 3 {
		t.Errorf("expected 3 replaced bars, got ok=%v len=%d", ok, len(got))
	}
}

func TestNilRedisClientIsSafe(t *testing.T) {
	var r *RedisClient
	ctx := context.Background()
	if err := r.Set(ctx, "k", 1, time.Minute); err == nil {
		t.Error("expected error from nil client Set")
	}
	var v int
	if err := r.Get(ctx, "k", &v); err == nil {
		t.Error("expected error from nil client Get")
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected nil Close on nil client, got %v", err)
	}
}
