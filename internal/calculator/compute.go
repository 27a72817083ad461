package calculator

import (
	"fmt"

	"Kolgejt/internal/model"
)

// Indicator is the output of Compute. Upper and Lower are set only for Bollinger.
type Indicator struct {
	Name   string
	Values []float64
	Upper  []float64
	Lower  []float64
}

// Compute derives the indicator series that strategy p is evaluated on.
func Compute(series *model.PriceSeries, p model.StrategyParams) (*Indicator, error) {
	closes := series.Closes()
	switch p.Kind {
	case model.StrategyRSI, model.StrategyRSIRebound:
		period := p.RSIWindow()
		v, err := RSI(closes, period)
		if err != nil {
			return nil, err
		}
		return &Indicator{Name: fmt.Sprintf("RSI_%d", period), Values: v}, nil
	case model.StrategySMA:
		v, err := SMA(closes, p.Period)
		if err != nil {
			return nil, err
		}
		return &Indicator{Name: fmt.Sprintf("SMA_%d", p.Period), Values: v}, nil
	case model.StrategyBollinger:
		b, err := Bollinger(closes, p.Period, p.StdDevMultiplier)
		if err != nil {
			return nil, err
		}
		return &Indicator{
			Name:   fmt.Sprintf("BB_%d_%g", p.Period, p.StdDevMultiplier),
			Values: b.Middle,
			Upper:  b.Upper,
			Lower:  b.Lower,
		}, nil
	default:
		return nil, fmt.Errorf("unknown indicator kind %q", p.Kind)
	}
}
