// Package overview summarizes day and period price changes over a sample of the universe.
package overview

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"Kolgejt/internal/calculator"
	"Kolgejt/internal/model"
	"Kolgejt/internal/scanner"
)

const (
	DefaultSampleSize = 50
	DefaultPeriod     = 5
	DefaultTopN       = 5
)

// Options bound the overview.
type Options struct {
	// SampleSize is how many leading universe tickers are summarized; 0 or less means all.
	SampleSize int `yaml:"sample_size"`
	// Period is the bar distance of the period change.
	Period  int `yaml:"period"`
	TopN    int `yaml:"top_n"`
	Workers int `yaml:"workers"`
}

func (o Options) withDefaults() Options {
	if o.Period <= 0 {
		o.Period = DefaultPeriod
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// Summarize fetches the sampled tickers and ranks them by day change.
// Tickers that fail to load or are too short for the period change count as Failed.
func Summarize(ctx context.Context, history scanner.HistoryProvider, universe []string, opts Options, logger *zap.Logger) (*model.MarketOverview, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	sample := universe
	if opts.SampleSize > 0 && len(sample) > opts.SampleSize {
		sample = sample[:opts.SampleSize]
	}

	var (
		mu     sync.Mutex
		movers []model.Mover
		failed int
	)
	err := scanner.ForEach(ctx, sample, opts.Workers, func(ctx context.Context, _ int, ticker string) bool {
		m, err := mover(ctx, history, ticker, opts.Period)
		if err != nil && ctx.Err() != nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Debug("overview ticker failed", zap.String("ticker", ticker), zap.Error(err))
			failed++
			return true
		}
		movers = append(movers, *m)
		return true
	}, nil)

	ov := &model.MarketOverview{
		Sampled:    len(movers) + failed,
		Failed:     failed,
		PeriodBars: opts.Period,
	}
	var sum float64
	for _, m := range movers {
		sum += m.DayChangePct
		switch {
		case m.DayChangePct > 0:
			ov.Advancers++
		case m.DayChangePct < 0:
			ov.Decliners++
		}
	}
	if len(movers) > 0 {
		ov.AvgDayChangePct = sum / float64(len(movers))
	}

	sort.Slice(movers, func(i, j int) bool {
		if movers[i].DayChangePct != movers[j].DayChangePct {
			return movers[i].DayChangePct > movers[j].DayChangePct
		}
		return movers[i].Symbol < movers[j].Symbol
	})
	ov.TopGainers = top(movers, opts.TopN, func(m model.Mover) bool { return m.DayChangePct > 0 })

	sort.Slice(movers, func(i, j int) bool {
		if movers[i].DayChangePct != movers[j].DayChangePct {
			return movers[i].DayChangePct < movers[j].DayChangePct
		}
		return movers[i].Symbol < movers[j].Symbol
	})
	ov.TopLosers = top(movers, opts.TopN, func(m model.Mover) bool { return m.DayChangePct < 0 })

	logger.Info("overview finished",
		zap.Int("sampled", ov.Sampled),
		zap.Int("failed", ov.Failed),
		zap.Int("advancers", ov.Advancers),
		zap.Int("decliners", ov.Decliners),
	)
	return ov, err
}

// mover is the per-ticker failure boundary: errors, an absent series and panics all become errors.
func mover(ctx context.Context, history scanner.HistoryProvider, ticker string, period int) (m *model.Mover, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%s: overview panicked: %v", ticker, r)
		}
	}()
	series, err := history.History(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("%s: no price history", ticker)
	}
	closes := series.Closes()
	day, err := calculator.DayChangePct(closes)
	if err != nil {
		return nil, err
	}
	chg, err := calculator.PeriodChangePct(closes, period)
	if err != nil {
		return nil, err
	}
	return &model.Mover{
		Symbol:          ticker,
		LastClose:       closes[len(closes)-1],
		DayChangePct:    day,
		PeriodChangePct: chg,
	}, nil
}

func top(sorted []model.Mover, n int, keep func(model.Mover) bool) []model.Mover {
	var out []model.Mover
	for _, m := range sorted {
		if len(out) == n {
			break
		}
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
