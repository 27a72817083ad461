package calculator

import (
	"errors"
	"fmt"
)

// PercentChange returns (to-from)/from*100.
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, errors.New("percent change from zero base")
	}
	return (to - from) / from * 100, nil
}

// DayChangePct is the percent change between the last two closes.
func DayChangePct(closes []float64) (float64, error) {
	return PeriodChangePct(closes, 1)
}

// PeriodChangePct is the percent change of the last close versus the close bars earlier.
func PeriodChangePct(closes []float64, bars int) (float64, error) {
	if bars <= 0 {
		return 0, ErrInvalidPeriod
	}
	n := len(closes)
	if n < bars+1 {
		return 0, fmt.Errorf("need %d closes for a %d-bar change, have %d", bars+1, bars, n)
	}
	return PercentChange(closes[n-1-bars], closes[n-1])
}
