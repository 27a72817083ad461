package strategy

import (
	"errors"
	"fmt"
	"math"

	"Kolgejt/internal/calculator"
	"Kolgejt/internal/model"
)

var (
	// ErrInvalidParameter marks a misconfigured strategy; scans reject it before any fetch.
	ErrInvalidParameter = errors.New("invalid strategy parameter")
	// ErrInsufficientHistory marks a ticker with fewer bars than the strategy needs.
	ErrInsufficientHistory = errors.New("insufficient price history")
)

const (
	DefaultMinBars          = 50
	DefaultTailLength       = 60
	DefaultVolumeMultiplier = 1.2
	volumePeriod            = 20
)

// Evaluator applies one strategy to one ticker's price series.
type Evaluator struct {
	// MinBars is the history floor applied on top of each strategy's own lookback.
	MinBars int
	// TailLength bounds the chart series attached to a signal.
	TailLength int
	// VolumeMultiplier is the factor over the 20-bar volume average required for confirmation.
	VolumeMultiplier float64
}

// NewEvaluator returns an Evaluator with the dashboard defaults.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		MinBars:          DefaultMinBars,
		TailLength:       DefaultTailLength,
		VolumeMultiplier: DefaultVolumeMultiplier,
	}
}

// Validate checks the parameters of p.
func Validate(p model.StrategyParams) error {
	if p.RSIPeriod < 0 {
		return fmt.Errorf("%w: rsi period %d must not be negative", ErrInvalidParameter, p.RSIPeriod)
	}
	switch p.Kind {
	case model.StrategyRSI:
		return validThreshold(p.Threshold)
	case model.StrategySMA:
		if p.Period <= 0 {
			return fmt.Errorf("%w: sma period %d must be positive", ErrInvalidParameter, p.Period)
		}
	case model.StrategyBollinger:
		if p.Period < 2 {
			return fmt.Errorf("%w: bollinger period %d must be at least 2", ErrInvalidParameter, p.Period)
		}
		if !(p.StdDevMultiplier > 0) {
			return fmt.Errorf("%w: bollinger multiplier %v must be positive", ErrInvalidParameter, p.StdDevMultiplier)
		}
		if !(p.Tolerance >= 0 && p.Tolerance < 1) {
			return fmt.Errorf("%w: bollinger tolerance %v outside [0,1)", ErrInvalidParameter, p.Tolerance)
		}
	case model.StrategyRSIRebound:
		if err := validThreshold(p.Threshold); err != nil {
			return err
		}
		if p.Period <= 0 {
			return fmt.Errorf("%w: rebound trend period %d must be positive", ErrInvalidParameter, p.Period)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidParameter, p.Kind)
	}
	return nil
}

func validThreshold(t float64) error {
	if !(t >= 0 && t <= 100) {
		return fmt.Errorf("%w: rsi threshold %v outside [0,100]", ErrInvalidParameter, t)
	}
	return nil
}

// Lookback is the longest window p reads, in bars.
func Lookback(p model.StrategyParams) int {
	var n int
	switch p.Kind {
	case model.StrategyRSI:
		n = p.RSIWindow() + 1
	case model.StrategyRSIRebound:
		n = max(p.RSIWindow()+2, p.Period)
	default:
		n = p.Period
	}
	if p.RequireVolumeConfirmation {
		n = max(n, volumePeriod)
	}
	return n
}

// MinimumHistory is the bar count below which p is not evaluated:
// the lookback plus one bar for the day change and one for the boundary, never below MinBars.
func (e *Evaluator) MinimumHistory(p model.StrategyParams) int {
	return max(e.MinBars, Lookback(p)+2)
}

// Evaluate returns the signal for the latest bar of series, or nil when the predicate fails.
// Short series return ErrInsufficientHistory, which callers treat as "no signal".
func (e *Evaluator) Evaluate(series *model.PriceSeries, p model.StrategyParams) (*model.SignalResult, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if need := e.MinimumHistory(p); series.Len() < need {
		return nil, fmt.Errorf("%s has %d bars, need %d: %w", series.Symbol, series.Len(), need, ErrInsufficientHistory)
	}

	closes := series.Closes()
	n := len(closes)
	dayChange, err := calculator.DayChangePct(closes)
	if err != nil {
		return nil, fmt.Errorf("%s day change: %w", series.Symbol, err)
	}

	volumes := series.Volumes()
	volSMA, err := calculator.SMA(volumes, volumePeriod)
	if err != nil {
		return nil, err
	}
	volRatio := 0.0
	if avg := volSMA[n-1]; avg > 0 {
		volRatio = volumes[n-1] / avg
	}
	if p.RequireVolumeConfirmation && !e.volumeConfirmed(volumes[n-1], volSMA[n-1]) {
		return nil, nil
	}

	ind, err := calculator.Compute(series, p)
	if err != nil {
		return nil, err
	}

	var res *model.SignalResult
	switch p.Kind {
	case model.StrategyRSI:
		res = evalRSI(closes, ind, p)
	case model.StrategySMA:
		res = evalSMA(closes, ind, p)
	case model.StrategyBollinger:
		res = evalBollinger(closes, ind, p)
	case model.StrategyRSIRebound:
		res, err = evalRebound(closes, ind, p)
		if err != nil {
			return nil, err
		}
	}
	if res == nil {
		return nil, nil
	}

	res.Ticker = series.Symbol
	res.LastClose = closes[n-1]
	res.DayChangePct = dayChange
	res.VolumeRatio = volRatio
	res.Series["close"] = closes
	res.Series = alignedTail(res.Series, e.TailLength)
	return res, nil
}

func (e *Evaluator) volumeConfirmed(volume, avg float64) bool {
	if !(avg > 0) {
		return false
	}
	return volume >= e.VolumeMultiplier*avg
}

// alignedTail cuts every series to the same trailing window in which none of them is NaN.
func alignedTail(series map[string][]float64, tail int) map[string][]float64 {
	k := tail
	for _, s := range series {
		run := 0
		for i := len(s) - 1; i >= 0 && !math.IsNaN(s[i]); i-- {
			run++
		}
		k = min(k, run)
	}
	out := make(map[string][]float64, len(series))
	for name, s := range series {
		out[name] = calculator.Tail(s, k)
	}
	return out
}
