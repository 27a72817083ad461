package universe

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Kolgejt/internal/cache"
)

// Options configures New.
type Options struct {
	Market       string // "sp500" or "custom"
	Static       []string
	WikipediaURL string
	CSVURL       string
	Timeout      time.Duration
	Redis        *cache.RedisClient
	TTL          time.Duration
}

// New builds the fallback chain for a market. The static list, when present, is the last resort.
func New(opts Options, logger *zap.Logger) (Source, error) {
	client := &http.Client{Timeout: opts.Timeout}
	var sources []Source
	switch opts.Market {
	case "sp500":
		wiki, csvURL := opts.WikipediaURL, opts.CSVURL
		if wiki == "" {
			wiki = SP500WikipediaURL
		}
		if csvURL == "" {
			csvURL = SP500CSVURL
		}
		sources = append(sources,
			&WikipediaSource{URL: wiki, Client: client},
			&CSVSource{URL: csvURL, Column: "Symbol", Client: client},
		)
	case "custom":
	default:
		return nil, fmt.Errorf("unknown market %q", opts.Market)
	}
	if len(opts.Static) > 0 {
		sources = append(sources, &StaticSource{Label: opts.Market, List: opts.Static})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("market %q has no sources configured", opts.Market)
	}

	var src Source = &FirstSuccess{Sources: sources, Logger: logger}
	if opts.Redis != nil {
		src = &Cached{
			Source: src,
			Redis:  opts.Redis,
			Key:    "kolgejt:universe:" + opts.Market,
			TTL:    opts.TTL,
			Logger: logger,
		}
	}
	return src, nil
}
