// Package fundamentals ranks tickers by growth and picks the analyst strong-buy with the most upside.
package fundamentals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Kolgejt/internal/collector"
	"Kolgejt/internal/model"
	"Kolgejt/internal/scanner"
)

// StrongBuyMeanCeiling is the highest recommendation mean still read as strong buy.
const StrongBuyMeanCeiling = 1.5

var hundred = decimal.NewFromInt(100)

// Options bound the ranking.
type Options struct {
	// TopN truncates Ranked; 0 keeps every scored ticker.
	TopN    int `yaml:"top_n"`
	Workers int `yaml:"workers"`
}

// Rank fetches fundamentals for every ticker and scores them. Fetch failures only count as Failed.
func Rank(ctx context.Context, universe []string, fetcher collector.FundamentalsFetcher, opts Options, logger *zap.Logger) (*model.FundamentalsReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		mu     sync.Mutex
		bags   []*model.Fundamentals
		failed int
	)
	err := scanner.ForEach(ctx, universe, opts.Workers, func(ctx context.Context, _ int, ticker string) bool {
		f, err := fetchOne(ctx, fetcher, ticker)
		if err != nil && ctx.Err() != nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Debug("fundamentals fetch failed", zap.String("ticker", ticker), zap.Error(err))
			failed++
			return true
		}
		bags = append(bags, f)
		return true
	}, nil)

	report := &model.FundamentalsReport{Evaluated: len(bags), Failed: failed}
	for _, f := range bags {
		if s, ok := Score(f); ok {
			report.Ranked = append(report.Ranked, s)
		}
		report.Pick = betterPick(report.Pick, StrongBuy(f))
	}
	sort.Slice(report.Ranked, func(i, j int) bool {
		a, b := report.Ranked[i], report.Ranked[j]
		if a.GrowthScore != b.GrowthScore {
			return a.GrowthScore > b.GrowthScore
		}
		return a.Symbol < b.Symbol
	})
	if opts.TopN > 0 && len(report.Ranked) > opts.TopN {
		report.Ranked = report.Ranked[:opts.TopN]
	}

	logger.Info("fundamentals ranked",
		zap.Int("evaluated", report.Evaluated),
		zap.Int("failed", report.Failed),
		zap.Int("ranked", len(report.Ranked)),
		zap.Bool("pick", report.Pick != nil),
	)
	return report, err
}

// fetchOne is the per-ticker failure boundary: an absent bag and a panic both become errors.
func fetchOne(ctx context.Context, fetcher collector.FundamentalsFetcher, ticker string) (f *model.Fundamentals, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("%s: fundamentals fetch panicked: %v", ticker, r)
		}
	}()
	f, err = fetcher.FetchFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%s: %w: no fundamentals reported", ticker, collector.ErrDataUnavailable)
	}
	if f.Symbol == "" {
		f.Symbol = ticker
	}
	return f, nil
}

// Score returns the growth row of f; ok is false when neither growth figure is reported.
func Score(f *model.Fundamentals) (model.FundamentalScore, bool) {
	if !f.HasRevenueGrowth && !f.HasEarningsGrowth {
		return model.FundamentalScore{}, false
	}
	s := model.FundamentalScore{
		Symbol:         f.Symbol,
		RevenueGrowth:  f.RevenueGrowth,
		EarningsGrowth: f.EarningsGrowth,
		GrowthScore: decimal.NewFromFloat(f.RevenueGrowth).
			Add(decimal.NewFromFloat(f.EarningsGrowth)).
			Round(4).InexactFloat64(),
		Recommendation: f.Recommendation,
	}
	if f.EPSEstimate != 0 {
		s.HasEPS = true
		s.EPSBeat = f.EPSActual > f.EPSEstimate
		s.EPSSurprisePct = surprise(f.EPSActual, f.EPSEstimate)
	}
	if f.RevenueEstimate > 0 && f.RevenueActual > 0 {
		s.HasRevenue = true
		s.RevenueBeat = f.RevenueActual > f.RevenueEstimate
		s.RevenueSurprise = surprise(f.RevenueActual, f.RevenueEstimate)
	}
	return s, true
}

// surprise is (actual-estimate)/|estimate| in percent, two decimals.
func surprise(actual, estimate float64) float64 {
	est := decimal.NewFromFloat(estimate)
	return decimal.NewFromFloat(actual).Sub(est).
		Div(est.Abs()).Mul(hundred).
		Round(2).InexactFloat64()
}

// StrongBuy returns the pick candidate of f, or nil when analysts are not at strong buy
// or the target does not exceed the current price.
func StrongBuy(f *model.Fundamentals) *model.StrongBuyPick {
	strong := strings.EqualFold(f.Recommendation, "strong_buy") ||
		(f.RecommendationMean > 0 && f.RecommendationMean <= StrongBuyMeanCeiling)
	if !strong || f.CurrentPrice <= 0 || f.TargetMeanPrice <= f.CurrentPrice {
		return nil
	}
	cur := decimal.NewFromFloat(f.CurrentPrice)
	upside := decimal.NewFromFloat(f.TargetMeanPrice).Sub(cur).Div(cur).Mul(hundred).Round(2)
	return &model.StrongBuyPick{
		Symbol:       f.Symbol,
		CurrentPrice: f.CurrentPrice,
		TargetPrice:  f.TargetMeanPrice,
		UpsidePct:    upside.InexactFloat64(),
	}
}

func betterPick(cur, cand *model.StrongBuyPick) *model.StrongBuyPick {
	switch {
	case cand == nil:
		return cur
	case cur == nil:
		return cand
	case cand.UpsidePct != cur.UpsidePct:
		if cand.UpsidePct > cur.UpsidePct {
			return cand
		}
		return cur
	case cand.Symbol < cur.Symbol:
		return cand
	}
	return cur
}
