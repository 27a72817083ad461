// Package scanner drives the signal evaluator across a ticker universe.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Kolgejt/internal/model"
	"Kolgejt/internal/strategy"
)

// HistoryProvider returns one ticker's price history.
type HistoryProvider interface {
	History(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// Scanner applies one strategy to every ticker of a universe.
type Scanner struct {
	History   HistoryProvider
	Evaluator *strategy.Evaluator
	// Workers bounds concurrent fetches; 1 scans sequentially.
	Workers int
	// MaxBars is the deepest history the provider returns; 0 means unbounded.
	MaxBars int
	Logger  *zap.Logger
}

// depthReporter is implemented by providers with a fixed history window.
type depthReporter interface {
	Depth() int
}

// New creates a Scanner.
func New(history HistoryProvider, evaluator *strategy.Evaluator, workers int, logger *zap.Logger) *Scanner {
	if evaluator == nil {
		evaluator = strategy.NewEvaluator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{History: history, Evaluator: evaluator, Workers: workers, Logger: logger}
	if d, ok := history.(depthReporter); ok {
		s.MaxBars = d.Depth()
	}
	return s
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeSignal
	outcomeSkipped
	outcomeFailed
	outcomeAbandoned
)

// Run scans universe with p. Invalid parameters, or a strategy needing more bars than
// MaxBars, fail before any fetch.
// Per-ticker failures only drop that ticker. On cancellation the partial report is
// returned together with the context error.
func (s *Scanner) Run(ctx context.Context, universe []string, p model.StrategyParams, onProgress ProgressFunc) (*model.ScanReport, error) {
	if err := strategy.Validate(p); err != nil {
		return nil, err
	}
	if need := s.Evaluator.MinimumHistory(p); s.MaxBars > 0 && need > s.MaxBars {
		return nil, fmt.Errorf("%w: %s needs %d bars, history holds %d", strategy.ErrInvalidParameter, Describe(p), need, s.MaxBars)
	}

	report := &model.ScanReport{
		ID:        uuid.NewString(),
		Strategy:  p,
		Trigger:   model.TriggerManual,
		StartedAt: time.Now(),
		Total:     len(universe),
	}
	slots := make([]*model.SignalResult, len(universe))
	var processed, skipped, failed atomic.Int64

	err := ForEach(ctx, universe, s.Workers, func(ctx context.Context, i int, ticker string) bool {
		res, oc := s.scanTicker(ctx, ticker, p)
		switch oc {
		case outcomeAbandoned:
			return false
		case outcomeSignal:
			slots[i] = res
		case outcomeSkipped:
			skipped.Add(1)
		case outcomeFailed:
			failed.Add(1)
		}
		processed.Add(1)
		return true
	}, onProgress)

	for _, res := range slots {
		if res != nil {
			report.Signals = append(report.Signals, *res)
		}
	}
	report.Processed = int(processed.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	report.FinishedAt = time.Now()
	report.Partial = err != nil

	s.Logger.Info("scan finished",
		zap.String("id", report.ID),
		zap.String("strategy", string(p.Kind)),
		zap.Int("total", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("signals", len(report.Signals)),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("partial", report.Partial),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, err
}

// scanTicker is the per-ticker failure boundary: errors and panics become outcomes.
func (s *Scanner) scanTicker(ctx context.Context, ticker string, p model.StrategyParams) (res *model.SignalResult, oc outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Warn("ticker evaluation panicked", zap.String("ticker", ticker), zap.Any("panic", r))
			res, oc = nil, outcomeFailed
		}
	}()

	series, err := s.History.History(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomeAbandoned
		}
		s.Logger.Debug("ticker fetch failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, outcomeFailed
	}
	if series == nil {
		s.Logger.Debug("ticker has no price history", zap.String("ticker", ticker))
		return nil, outcomeFailed
	}

	res, err = s.Evaluator.Evaluate(series, p)
	switch {
	case errors.Is(err, strategy.ErrInsufficientHistory):
		s.Logger.Debug("ticker skipped", zap.String("ticker", ticker), zap.Error(err))
		return nil, outcomeSkipped
	case err != nil:
		s.Logger.Debug("ticker evaluation failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, outcomeFailed
	case res == nil:
		return nil, outcomeNone
	}
	return res, outcomeSignal
}

// Describe is a one-line label for a strategy, used in logs and reports.
func Describe(p model.StrategyParams) string {
	var s string
	switch p.Kind {
	case model.StrategyRSI:
		s = fmt.Sprintf("RSI(%d) <= %g", p.RSIWindow(), p.Threshold)
	case model.StrategySMA:
		s = fmt.Sprintf("Close > SMA(%d)", p.Period)
	case model.StrategyBollinger:
		s = fmt.Sprintf("Close within %g%% of BB(%d, %g) lower", p.Tolerance*100, p.Period, p.StdDevMultiplier)
	case model.StrategyRSIRebound:
		s = fmt.Sprintf("RSI(%d) crosses up %g, Close > SMA(%d)", p.RSIWindow(), p.Threshold, p.Period)
	default:
		s = string(p.Kind)
	}
	if p.RequireVolumeConfirmation {
		s += " + volume"
	}
	return s
}
