package model

// Mover is one ticker's change summary in the market overview.
type Mover struct {
	Symbol          string  `json:"symbol"`
	LastClose       float64 `json:"last_close"`
	DayChangePct    float64 `json:"day_change_pct"`
	PeriodChangePct float64 `json:"period_change_pct"`
}

// MarketOverview summarizes a sampled slice of the universe.
type MarketOverview struct {
	Sampled         int     `json:"sampled"`
	Failed          int     `json:"failed"`
	Advancers       int     `json:"advancers"`
	Decliners       int     `json:"decliners"`
	AvgDayChangePct float64 `json:"avg_day_change_pct"`
	PeriodBars      int     `json:"period_bars"`
	TopGainers      []Mover `json:"top_gainers"`
	TopLosers       []Mover `json:"top_losers"`
}
