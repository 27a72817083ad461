// Package app wires configuration into the data-source and scan components shared by the binaries.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"Kolgejt/internal/cache"
	"Kolgejt/internal/collector"
	"Kolgejt/internal/config"
	"Kolgejt/internal/scanner"
	"Kolgejt/internal/universe"
)

// Services are the long-lived components built from a Config.
type Services struct {
	Fetcher      collector.Fetcher
	Fundamentals collector.FundamentalsFetcher
	Collector    *collector.Collector
	Scanner      *scanner.Scanner
	Universes    map[string]universe.Source
	Redis        *cache.RedisClient

	bars cache.BarCache
}

// New builds the fetcher chain, caches, universes and scanner described by cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Services, error) {
	s := &Services{}

	var base collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		base = collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret, cfg.DataSource.AlpacaFeed, cfg.DataSource.Timeout)
	case "mock":
		base = &collector.MockFetcher{Price: 100}
	default:
		base = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	logger.Info("data source", zap.String("provider", base.Name()))

	if cfg.Cache.SQLitePath != "" && cfg.DataSource.Provider != "mock" {
		sc, err := cache.NewSQLiteBarCache(cfg.Cache.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite bar cache failed, using noop", zap.Error(err))
			s.bars = cache.NewNoopBarCache()
		} else {
			s.bars = sc
		}
	} else {
		s.bars = cache.NewNoopBarCache()
	}
	s.Fetcher = collector.NewCachedFetcher(base, s.bars, cfg.Cache.BarMaxAge, logger)

	if cfg.Cache.RedisHost != "" {
		s.Redis = cache.NewRedisClient(cfg.Cache.RedisHost, cfg.Cache.RedisPort, cfg.Cache.RedisPassword, logger)
	}

	// Alpaca has no fundamentals endpoint; Yahoo serves them for every provider but mock.
	if cfg.DataSource.Provider != "mock" {
		s.Fundamentals = &collector.CachedFundamentals{
			Next:   collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout),
			Redis:  s.Redis,
			TTL:    cfg.Cache.FundamentalTTL,
			Logger: logger,
		}
	}

	s.Universes = map[string]universe.Source{}
	markets := []string{cfg.Universe.Market}
	for _, job := range cfg.Scans {
		markets = append(markets, job.Market)
	}
	for _, m := range markets {
		if _, ok := s.Universes[m]; ok {
			continue
		}
		src, err := universe.New(universe.Options{
			Market:       m,
			Static:       cfg.Universe.Tickers,
			WikipediaURL: cfg.Universe.WikipediaURL,
			CSVURL:       cfg.Universe.CSVURL,
			Timeout:      cfg.Universe.Timeout,
			Redis:        s.Redis,
			TTL:          cfg.Cache.UniverseTTL,
		}, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("universe %s: %w", m, err)
		}
		s.Universes[m] = src
	}

	s.Collector = collector.NewCollector(s.Fetcher, cfg.DataSource.LookbackDays, cfg.Scan.TickerTimeout)
	s.Scanner = scanner.New(s.Collector, cfg.Evaluator(), cfg.Scan.Workers, logger)
	return s, nil
}

// Close releases the caches.
func (s *Services) Close() {
	if s.bars != nil {
		s.bars.Close()
	}
	s.Redis.Close()
}
