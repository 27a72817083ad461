package calculator

import (
	"fmt"
	"math"
)

// Bands is a Bollinger envelope aligned with its input.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger computes SMA(period) ± k * sample standard deviation over the trailing window.
// Indices before period-1 are NaN in all three series.
func Bollinger(closes []float64, period int, k float64) (*Bands, error) {
	if period < 2 {
		return nil, fmt.Errorf("bollinger period %d: sample deviation needs at least 2 bars: %w", period, ErrInvalidPeriod)
	}
	mid, err := SMA(closes, period)
	if err != nil {
		return nil, err
	}
	b := &Bands{
		Middle: mid,
		Upper:  nanSeries(len(closes)),
		Lower:  nanSeries(len(closes)),
	}
	for i := period - 1; i < len(closes); i++ {
		sd := sampleStdDev(closes[i-period+1:i+1], mid[i])
		b.Upper[i] = mid[i] + k*sd
		b.Lower[i] = mid[i] - k*sd
	}
	return b, nil
}

func sampleStdDev(window []float64, mean float64) float64 {
	ss := 0.0
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(window)-1))
}
