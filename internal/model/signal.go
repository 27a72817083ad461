package model

import "time"

// StrategyKind selects the threshold rule applied by a scan.
type StrategyKind string

const (
	StrategyRSI        StrategyKind = "RSI"
	StrategySMA        StrategyKind = "SMA"
	StrategyBollinger  StrategyKind = "BOLLINGER"
	StrategyRSIRebound StrategyKind = "RSI_REBOUND"
)

// Defaults observed in the dashboard configurations.
const (
	DefaultRSIPeriod          = 14
	DefaultRSIThreshold       = 30.0
	DefaultSMAPeriod          = 50
	DefaultBollingerPeriod    = 20
	DefaultBollingerStdDev    = 2.0
	DefaultBollingerTolerance = 0.05
	DefaultReboundThreshold   = 35.0
	DefaultReboundTrendPeriod = 20
)

// StrategyParams is a tagged union keyed by Kind. Fields not used by Kind are ignored.
type StrategyParams struct {
	Kind StrategyKind `json:"kind" yaml:"kind"`

	// Threshold is the RSI level for RSI and RSI_REBOUND.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold"`
	// RSIPeriod is the RSI window for RSI and RSI_REBOUND; 0 means DefaultRSIPeriod.
	RSIPeriod int `json:"rsi_period,omitempty" yaml:"rsi_period"`
	// Period is the SMA window, the Bollinger window, or the RSI_REBOUND trend window.
	Period int `json:"period,omitempty" yaml:"period"`
	// StdDevMultiplier widens the Bollinger envelope.
	StdDevMultiplier float64 `json:"std_dev_multiplier,omitempty" yaml:"std_dev_multiplier"`
	// Tolerance is the fraction above the lower band still counted as "at the band".
	Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance"`

	RequireVolumeConfirmation bool `json:"require_volume_confirmation" yaml:"require_volume_confirmation"`
}

// RSIParams builds RSI-oversold parameters.
func RSIParams(threshold float64) StrategyParams {
	return StrategyParams{Kind: StrategyRSI, Threshold: threshold}
}

// SMAParams builds SMA-trend parameters.
func SMAParams(period int) StrategyParams {
	return StrategyParams{Kind: StrategySMA, Period: period}
}

// BollingerParams builds low-band proximity parameters with the fixed 20/2 envelope.
func BollingerParams(tolerance float64) StrategyParams {
	return StrategyParams{
		Kind:             StrategyBollinger,
		Period:           DefaultBollingerPeriod,
		StdDevMultiplier: DefaultBollingerStdDev,
		Tolerance:        tolerance,
	}
}

// RSIReboundParams builds RSI-rebound parameters.
func RSIReboundParams(threshold float64, trendPeriod int) StrategyParams {
	return StrategyParams{Kind: StrategyRSIRebound, Threshold: threshold, Period: trendPeriod}
}

// RSIWindow is the effective RSI period.
func (p StrategyParams) RSIWindow() int {
	if p.RSIPeriod > 0 {
		return p.RSIPeriod
	}
	return DefaultRSIPeriod
}

// WithRSIPeriod returns a copy using an RSI window of period bars.
func (p StrategyParams) WithRSIPeriod(period int) StrategyParams {
	p.RSIPeriod = period
	return p
}

// WithVolume returns a copy with volume confirmation switched on or off.
func (p StrategyParams) WithVolume(on bool) StrategyParams {
	p.RequireVolumeConfirmation = on
	return p
}

// TriggerType indicates what started a scan.
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerScheduled TriggerType = "SCHEDULED"
)

// SignalResult is one ticker whose strategy predicate held on its latest bar.
type SignalResult struct {
	Ticker         string               `json:"ticker"`
	LastClose      float64              `json:"last_close"`
	DayChangePct   float64              `json:"day_change_pct"`
	IndicatorName  string               `json:"indicator_name"`
	IndicatorValue float64              `json:"indicator_value"`
	VolumeRatio    float64              `json:"volume_ratio"`
	Narrative      string               `json:"narrative"`
	Series         map[string][]float64 `json:"series"`
}

// ScanReport holds the results of one scan in universe order.
type ScanReport struct {
	ID         string         `json:"id"`
	Strategy   StrategyParams `json:"strategy"`
	Trigger    TriggerType    `json:"trigger"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Total      int            `json:"total"`
	Processed  int            `json:"processed"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Partial    bool           `json:"partial"`
	Signals    []SignalResult `json:"signals"`
}
