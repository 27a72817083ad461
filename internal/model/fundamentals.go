package model

// Fundamentals is the vendor metadata bag for one ticker. Zero values mean "not reported".
type Fundamentals struct {
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name,omitempty"`
	CurrentPrice       float64 `json:"current_price"`
	EPSActual          float64 `json:"eps_actual"`
	EPSEstimate        float64 `json:"eps_estimate"`
	RevenueActual      float64 `json:"revenue_actual"`
	RevenueEstimate    float64 `json:"revenue_estimate"`
	RevenueGrowth      float64 `json:"revenue_growth"`
	EarningsGrowth     float64 `json:"earnings_growth"`
	HasRevenueGrowth   bool    `json:"has_revenue_growth"`
	HasEarningsGrowth  bool    `json:"has_earnings_growth"`
	Recommendation     string  `json:"recommendation"` // strong_buy, buy, hold, ...
	RecommendationMean float64 `json:"recommendation_mean"`
	TargetMeanPrice    float64 `json:"target_mean_price"`
}

// FundamentalScore is one ranked row of the fundamentals view.
type FundamentalScore struct {
	Symbol          string  `json:"symbol"`
	GrowthScore     float64 `json:"growth_score"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	EarningsGrowth  float64 `json:"earnings_growth"`
	EPSBeat         bool    `json:"eps_beat"`
	EPSSurprisePct  float64 `json:"eps_surprise_pct"`
	HasEPS          bool    `json:"has_eps"`
	RevenueBeat     bool    `json:"revenue_beat"`
	RevenueSurprise float64 `json:"revenue_surprise_pct"`
	HasRevenue      bool    `json:"has_revenue"`
	Recommendation  string  `json:"recommendation"`
}

// StrongBuyPick is the analyst "strong buy with upside" selection.
type StrongBuyPick struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
	UpsidePct    float64 `json:"upside_pct"`
}

// FundamentalsReport is the output of the fundamentals ranker.
type FundamentalsReport struct {
	Ranked    []FundamentalScore `json:"ranked"`
	Pick      *StrongBuyPick     `json:"pick"`
	Evaluated int                `json:"evaluated"`
	Failed    int                `json:"failed"`
}
