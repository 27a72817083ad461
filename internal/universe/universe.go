// Package universe resolves the ordered ticker list a scan runs against.
package universe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"Kolgejt/internal/cache"
)

// Source yields an ordered list of ticker identifiers.
type Source interface {
	Name() string
	Tickers(ctx context.Context) ([]string, error)
}

// Normalize trims, upper-cases and dedupes tickers, keeping first-seen order.
// Class-share dots become dashes (BRK.B -> BRK-B), the form price providers expect.
func Normalize(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		t = strings.ReplaceAll(t, ".", "-")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// StaticSource serves a fixed list, typically from configuration.
type StaticSource struct {
	Label string
	List  []string
}

func (s *StaticSource) Name() string { return "static:" + s.Label }

func (s *StaticSource) Tickers(_ context.Context) ([]string, error) {
	out := Normalize(s.List)
	if len(out) == 0 {
		return nil, errors.New("static list is empty")
	}
	return out, nil
}

// FirstSuccess tries its sources in order and returns the first non-empty list.
type FirstSuccess struct {
	Sources []Source
	Logger  *zap.Logger
}

func (f *FirstSuccess) Name() string {
	names := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (f *FirstSuccess) Tickers(ctx context.Context) ([]string, error) {
	var errs []error
	for _, s := range f.Sources {
		tickers, err := s.Tickers(ctx)
		if err == nil && len(tickers) > 0 {
			return Normalize(tickers), nil
		}
		if err == nil {
			err = errors.New("empty list")
		}
		f.Logger.Warn("universe source failed, trying next", zap.String("source", s.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all universe sources failed: %w", errors.Join(errs...))
}

// Cached keeps the result of Source in Redis for TTL.
type Cached struct {
	Source Source
	Redis  *cache.RedisClient
	Key    string
	TTL    time.Duration
	Logger *zap.Logger
}

func (c *Cached) Name() string { return "cached:" + c.Source.Name() }

func (c *Cached) Tickers(ctx context.Context) ([]string, error) {
	var tickers []string
	if err := c.Redis.Get(ctx, c.Key, &tickers); err == nil && len(tickers) > 0 {
		return tickers, nil
	}
	tickers, err := c.Source.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	if c.Redis != nil {
		if err := c.Redis.Set(ctx, c.Key, tickers, c.TTL); err != nil {
			c.Logger.Warn("universe cache write failed", zap.String("key", c.Key), zap.Error(err))
		}
	}
	return tickers, nil
}
