package calculator

import (
	"errors"
	"math"
)

// ErrInvalidPeriod is returned when a window length is not positive.
var ErrInvalidPeriod = errors.New("period must be positive")

// SMA computes the trailing simple moving average of values over period.
// The result is aligned with values; indices before period-1 are NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out, nil
}

// Last returns the final element of a series, NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// Tail returns at most the last n elements of series as a fresh slice.
func Tail(series []float64, n int) []float64 {
	start := len(series) - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, len(series)-start)
	copy(out, series[start:])
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
