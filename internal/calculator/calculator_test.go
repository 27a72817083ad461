package calculator

import (
	"errors"
	"math"
	"testing"

	"Kolgejt/internal/model"
)

// Wilder's worked example as published by StockCharts.
var wilderCloses = []float64{
	44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
	45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
	46.03, 46.41, 46.22, 45.64,
}

func randomWalk(n int, start float64) []float64 {
	out := make([]float64, n)
	p := start
	seed := uint32(7)
	for i := range out {
		seed = seed*1664525 + 1013904223
		step := (float64(seed>>8)/float64(1<<24) - 0.5) * 2
		p += step
		if p < 1 {
			p = 1
		}
		out[i] = p
	}
	return out
}

func TestRSI_GoldenValue(t *testing.T) {
	rsi, err := RSI(wilderCloses, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rsi) != len(wilderCloses) {
		t.Fatalf("expected %d values, got %d", len(wilderCloses), len(rsi))
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Errorf("index %d: expected NaN before the seed, got %.4f", i, rsi[i])
		}
	}
	if got := rsi[14]; math.Abs(got-70.5) > 0.5 {
		t.Errorf("expected RSI ~70.5 at the 15th sample, got %.4f", got)
	}
	if got := rsi[15]; math.Abs(got-66.25) > 0.05 {
		t.Errorf("expected RSI ~66.25 at the 16th sample, got %.4f", got)
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := randomWalk(500, 100)
	rsi, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("index %d: RSI %.4f out of [0,100]", i, v)
		}
	}
}

func TestRSI_NoLossesIsExactly100(t *testing.T) {
	closes := []float64{10, 10, 11, 11, 12, 13, 13, 14, 15, 15, 16, 17, 18, 18, 19, 20, 20}
	rsi, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 14; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("index %d: expected exactly 100, got %v", i, rsi[i])
		}
	}
}

func TestRSI_ShortAndEmpty(t *testing.T) {
	rsi, err := RSI(nil, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rsi) != 0 {
		t.Errorf("expected empty series, got %d values", len(rsi))
	}

	rsi, err = RSI([]float64{1, 2, 3}, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range rsi {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestRSI_InvalidPeriod(t *testing.T) {
	if _, err := RSI([]float64{1, 2}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestSMA_ConstantSeries(t *testing.T) {
	tests := []struct {
		c      float64
		n      int
		period int
	}{
		{42.5, 30, 20},
		{100, 20, 20},
		{0.25, 7, 3},
		{17, 1, 1},
	}
	for _, tt := range tests {
		values := make([]float64, tt.n)
		for i := range values {
			values[i] = tt.c
		}
		sma, err := SMA(values, tt.period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < tt.period-1; i++ {
			if !math.IsNaN(sma[i]) {
				t.Errorf("c=%v period=%d: index %d expected NaN, got %v", tt.c, tt.period, i, sma[i])
			}
		}
		for i := tt.period - 1; i < tt.n; i++ {
			if sma[i] != tt.c {
				t.Errorf("c=%v period=%d: index %d expected %v, got %v", tt.c, tt.period, i, tt.c, sma[i])
			}
		}
	}
}

func TestSMA_Window(t *testing.T) {
	sma, err := SMA([]float64{11, 12, 13, 14, 20, 16}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{12, 13, (13 + 14 + 20) / 3.0, (14 + 20 + 16) / 3.0}
	for i, want := range expected {
		if got := sma[i+2]; math.Abs(got-want) > 1e-12 {
			t.Errorf("index %d: expected %v, got %v", i+2, want, got)
		}
	}
	if empty, _ := SMA(nil, 3); len(empty) != 0 {
		t.Errorf("expected empty series for empty input")
	}
	if _, err := SMA([]float64{1}, -1); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestBollinger_Ordering(t *testing.T) {
	closes := randomWalk(300, 50)
	b, err := Bollinger(closes, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range closes {
		if i < 19 {
			if !math.IsNaN(b.Upper[i]) || !math.IsNaN(b.Lower[i]) {
				t.Fatalf("index %d: expected NaN bands", i)
			}
			continue
		}
		if !(b.Lower[i] < b.Middle[i] && b.Middle[i] < b.Upper[i]) {
			t.Fatalf("index %d: expected lower < middle < upper, got %v %v %v", i, b.Lower[i], b.Middle[i], b.Upper[i])
		}
	}
}

func TestBollinger_ZeroDeviationCollapses(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10
	}
	b, err := Bollinger(closes, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 19; i < len(closes); i++ {
		if b.Lower[i] != 10 || b.Middle[i] != 10 || b.Upper[i] != 10 {
			t.Errorf("index %d: expected collapsed bands at 10, got %v %v %v", i, b.Lower[i], b.Middle[i], b.Upper[i])
		}
	}
}

func TestBollinger_SampleDeviation(t *testing.T) {
	// window {1,2,3}: mean 2, sample variance 1
	b, err := Bollinger([]float64{1, 2, 3}, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Upper[2] != 4 || b.Lower[2] != 0 {
		t.Errorf("expected bands [0,4], got [%v,%v]", b.Lower[2], b.Upper[2])
	}
	if _, err := Bollinger([]float64{1, 2}, 1, 2); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod for period 1, got %v", err)
	}
}

func TestPeriodChangePct(t *testing.T) {
	closes := []float64{100, 110, 99}
	day, err := DayChangePct(closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(day-(-10)) > 1e-9 {
		t.Errorf("expected -10%%, got %v", day)
	}
	period, err := PeriodChangePct(closes, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(period-(-1)) > 1e-9 {
		t.Errorf("expected -1%%, got %v", period)
	}
	if _, err := PeriodChangePct(closes, 3); err == nil {
		t.Error("expected error for insufficient closes")
	}
	if _, err := DayChangePct([]float64{0, 5}); err == nil {
		t.Error("expected error for zero base")
	}
}

func TestCompute(t *testing.T) {
	series := &model.PriceSeries{Symbol: "TEST"}
	for _, c := range randomWalk(80, 30) {
		series.Bars = append(series.Bars, model.OHLCV{Close: c, Volume: 1000})
	}

	tests := []struct {
		params    model.StrategyParams
		name      string
		wantBands bool
	}{
		{model.RSIParams(30), "RSI_14", false},
		{model.SMAParams(50), "SMA_50", false},
		{model.BollingerParams(0.05), "BB_20_2", true},
		{model.RSIReboundParams(35, 20), "RSI_14", false},
		{model.RSIParams(30).WithRSIPeriod(7), "RSI_7", false},
	}
	for _, tt := range tests {
		ind, err := Compute(series, tt.params)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.params.Kind, err)
		}
		if ind.Name != tt.name {
			t.Errorf("%s: expected name %q, got %q", tt.params.Kind, tt.name, ind.Name)
		}
		if len(ind.Values) != series.Len() {
			t.Errorf("%s: expected aligned series", tt.params.Kind)
		}
		if (ind.Lower != nil) != tt.wantBands {
			t.Errorf("%s: bands presence mismatch", tt.params.Kind)
		}
	}

	short, _ := Compute(series, model.RSIParams(30).WithRSIPeriod(7))
	if math.IsNaN(short.Values[7]) || !math.IsNaN(short.Values[6]) {
		t.Errorf("RSI_7 must be defined from index 7, got %v", short.Values[:8])
	}

	if _, err := Compute(series, model.StrategyParams{Kind: "MACD"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
