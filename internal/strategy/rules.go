package strategy

import (
	"fmt"
	"math"

	"Kolgejt/internal/calculator"
	"Kolgejt/internal/model"
)

// evalRSI fires when the latest RSI is at or below the threshold.
func evalRSI(closes []float64, ind *calculator.Indicator, p model.StrategyParams) *model.SignalResult {
	v := calculator.Last(ind.Values)
	if math.IsNaN(v) || v > p.Threshold {
		return nil
	}
	return &model.SignalResult{
		IndicatorName:  ind.Name,
		IndicatorValue: v,
		Narrative:      fmt.Sprintf("RSI %.1f at or below %.0f (oversold)", v, p.Threshold),
		Series:         map[string][]float64{"rsi": ind.Values},
	}
}

// evalSMA fires on every bar the close trades above its average, not only on the crossing bar.
func evalSMA(closes []float64, ind *calculator.Indicator, p model.StrategyParams) *model.SignalResult {
	avg := calculator.Last(ind.Values)
	last := closes[len(closes)-1]
	if math.IsNaN(avg) || !(last > avg) {
		return nil
	}
	dist, err := calculator.PercentChange(avg, last)
	if err != nil {
		return nil
	}
	return &model.SignalResult{
		IndicatorName:  ind.Name,
		IndicatorValue: avg,
		Narrative:      fmt.Sprintf("Price %.2f is %.1f%% above SMA%d (%.2f)", last, dist, p.Period, avg),
		Series:         map[string][]float64{"sma": ind.Values},
	}
}

// evalBollinger fires when the close is at or within Tolerance above the lower band.
func evalBollinger(closes []float64, ind *calculator.Indicator, p model.StrategyParams) *model.SignalResult {
	lower := calculator.Last(ind.Lower)
	last := closes[len(closes)-1]
	if math.IsNaN(lower) || last > lower*(1+p.Tolerance) {
		return nil
	}
	narrative := fmt.Sprintf("Price %.2f within %.0f%% of lower band %.2f", last, p.Tolerance*100, lower)
	if last < lower {
		narrative = fmt.Sprintf("Price %.2f below lower band %.2f", last, lower)
	}
	return &model.SignalResult{
		IndicatorName:  "BB_LOWER",
		IndicatorValue: lower,
		Narrative:      narrative,
		Series: map[string][]float64{
			"bb_upper":  ind.Upper,
			"bb_middle": ind.Values,
			"bb_lower":  ind.Lower,
		},
	}
}

// evalRebound fires when RSI crosses up through the threshold on the latest bar
// while the close holds above its trend average.
func evalRebound(closes []float64, ind *calculator.Indicator, p model.StrategyParams) (*model.SignalResult, error) {
	n := len(ind.Values)
	prev, cur := ind.Values[n-2], ind.Values[n-1]
	if math.IsNaN(prev) || math.IsNaN(cur) || !(prev <= p.Threshold && cur > p.Threshold) {
		return nil, nil
	}
	trend, err := calculator.SMA(closes, p.Period)
	if err != nil {
		return nil, err
	}
	avg := calculator.Last(trend)
	last := closes[len(closes)-1]
	if math.IsNaN(avg) || !(last > avg) {
		return nil, nil
	}
	return &model.SignalResult{
		IndicatorName:  ind.Name,
		IndicatorValue: cur,
		Narrative:      fmt.Sprintf("RSI crossed up through %.0f (%.1f -> %.1f), price above SMA%d", p.Threshold, prev, cur, p.Period),
		Series: map[string][]float64{
			"rsi": ind.Values,
			"sma": trend,
		},
	}, nil
}
