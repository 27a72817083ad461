package fundamentals

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"Kolgejt/internal/collector"
	"Kolgejt/internal/model"
)

type fakeFetcher map[string]*model.Fundamentals

func (f fakeFetcher) FetchFundamentals(_ context.Context, symbol string) (*model.Fundamentals, error) {
	bag, ok := f[symbol]
	if !ok {
		return nil, collector.ErrDataUnavailable
	}
	cp := *bag
	return &cp, nil
}

func growth(sym string, rev, earn float64) *model.Fundamentals {
	return &model.Fundamentals{
		Symbol: sym, RevenueGrowth: rev, EarningsGrowth: earn,
		HasRevenueGrowth: true, HasEarningsGrowth: true,
	}
}

func TestRank_OrdersByGrowthAndPicksUpside(t *testing.T) {
	aaa := growth("AAA", 0.10, 0.20)
	aaa.Recommendation, aaa.CurrentPrice, aaa.TargetMeanPrice = "strong_buy", 100, 120
	bbb := growth("BBB", 0.25, 0.05)
	bbb.RecommendationMean, bbb.CurrentPrice, bbb.TargetMeanPrice = 1.4, 50, 75
	ccc := growth("CCC", 0.50, 0)
	ccc.Recommendation, ccc.CurrentPrice, ccc.TargetMeanPrice = "buy", 10, 30
	ddd := &model.Fundamentals{Symbol: "DDD", Recommendation: "strong_buy", CurrentPrice: 10, TargetMeanPrice: 9}

	f := fakeFetcher{"AAA": aaa, "BBB": bbb, "CCC": ccc, "DDD": ddd}
	report, err := Rank(context.Background(), []string{"AAA", "BBB", "CCC", "DDD", "GONE"}, f, Options{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if report.Evaluated != 4 || report.Failed != 1 {
		t.Errorf("expected 4 evaluated and 1 failed, got %d and %d", report.Evaluated, report.Failed)
	}

	var got []string
	for _, s := range report.Ranked {
		got = append(got, s.Symbol)
	}
	// CCC 0.50 first; AAA and BBB tie at 0.30 and break by ticker; DDD reports no growth.
	want := []string{"CCC", "AAA", "BBB"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if report.Pick == nil || report.Pick.Symbol != "BBB" || report.Pick.UpsidePct != 50 {
		t.Errorf("expected BBB with 50%% upside, got %+v", report.Pick)
	}
}

func TestScore_BeatFlags(t *testing.T) {
	f := growth("X", 0.1, -0.05)
	f.EPSActual, f.EPSEstimate = 1.10, 1.00
	f.RevenueActual, f.RevenueEstimate = 95, 100

	s, ok := Score(f)
	if !ok {
		t.Fatal("expected a score")
	}
	if s.GrowthScore != 0.05 {
		t.Errorf("expected growth 0.05, got %v", s.GrowthScore)
	}
	if !s.HasEPS || !s.EPSBeat || s.EPSSurprisePct != 10 {
		t.Errorf("expected EPS beat by 10%%, got %+v", s)
	}
	if !s.HasRevenue || s.RevenueBeat || s.RevenueSurprise != -5 {
		t.Errorf("expected revenue miss by 5%%, got %+v", s)
	}

	neg := growth("N", 0, 0)
	neg.EPSActual, neg.EPSEstimate = -0.5, -1
	s, _ = Score(neg)
	if !s.EPSBeat || s.EPSSurprisePct != 50 {
		t.Errorf("a smaller loss beats a negative estimate: %+v", s)
	}
}

func TestScore_OneSidedGrowth(t *testing.T) {
	f := &model.Fundamentals{Symbol: "R", RevenueGrowth: 0.2, HasRevenueGrowth: true}
	s, ok := Score(f)
	if !ok || s.GrowthScore != 0.2 {
		t.Errorf("missing earnings growth counts as zero, got %+v ok=%v", s, ok)
	}
	if _, ok := Score(&model.Fundamentals{Symbol: "E"}); ok {
		t.Error("expected no score without growth figures")
	}
}

func TestRank_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rank(ctx, []string{"A"}, fakeFetcher{}, Options{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// sparseFetcher reports no bag for some tickers and panics for others.
type sparseFetcher struct {
	fakeFetcher
	absent map[string]bool
	panics map[string]bool
}

func (f sparseFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	if f.absent[symbol] {
		return nil, nil
	}
	if f.panics[symbol] {
		panic("vendor payload")
	}
	return f.fakeFetcher.FetchFundamentals(ctx, symbol)
}

func TestRank_AbsentBagAndPanicOnlyDropThatTicker(t *testing.T) {
	f := sparseFetcher{
		fakeFetcher: fakeFetcher{"A": growth("A", 0.1, 0.1), "C": growth("C", 0.2, 0)},
		absent:      map[string]bool{"NOBAG": true},
		panics:      map[string]bool{"BOOM": true},
	}
	report, err := Rank(context.Background(), []string{"A", "NOBAG", "BOOM", "C"}, f, Options{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if report.Evaluated != 2 || report.Failed != 2 {
		t.Errorf("expected 2 evaluated and 2 failed, got %d and %d", report.Evaluated, report.Failed)
	}
	if len(report.Ranked) != 2 || report.Ranked[0].Symbol != "A" || report.Ranked[1].Symbol != "C" {
		t.Errorf("unexpected ranking: %+v", report.Ranked)
	}
}

func TestFetchOne_AbsentBagIsUnavailable(t *testing.T) {
	f := sparseFetcher{absent: map[string]bool{"X": true}}
	if _, err := fetchOne(context.Background(), f, "X"); !errors.Is(err, collector.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestReport_SnakeCaseJSON(t *testing.T) {
	report := &model.FundamentalsReport{
		Ranked: []model.FundamentalScore{{Symbol: "A", GrowthScore: 0.2}},
		Pick:   &model.StrongBuyPick{Symbol: "B", UpsidePct: 12},
	}
	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"ranked"`, `"growth_score"`, `"eps_surprise_pct"`, `"pick"`, `"upside_pct"`, `"evaluated"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("expected key %s in %s", key, raw)
		}
	}
}
