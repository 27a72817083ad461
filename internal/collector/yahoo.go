package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"Kolgejt/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher and FundamentalsFetcher using Yahoo Finance public APIs.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) get(ctx context.Context, symbol, u string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := f.Client.Do(req)
	if err != nil {
		return classify(symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(symbol, fmt.Errorf("yahoo read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w: yahoo status %d", symbol, ErrDataUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%s: %w: yahoo decode: %v", symbol, ErrDataUnavailable, err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	var chart yahooChart
	if err := f.get(ctx, symbol, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %w: yahoo api error: %s", symbol, ErrDataUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w: yahoo returned no data", symbol, ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // null bars (holidays, halted sessions)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns up to days daily bars, oldest first.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "5y"
	if days <= 20 {
		rng = "1mo"
	} else if days <= 60 {
		rng = "3mo"
	} else if days <= 120 {
		rng = "6mo"
	} else if days <= 250 {
		rng = "1y"
	} else if days <= 500 {
		rng = "2y"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

type yahooRaw struct {
	Raw *float64 `json:"raw"`
}

func (r yahooRaw) value() (float64, bool) {
	if r.Raw == nil {
		return 0, false
	}
	return *r.Raw, true
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				ShortName string `json:"shortName"`
			} `json:"price"`
			FinancialData struct {
				CurrentPrice       yahooRaw `json:"currentPrice"`
				TargetMeanPrice    yahooRaw `json:"targetMeanPrice"`
				RecommendationKey  string   `json:"recommendationKey"`
				RecommendationMean yahooRaw `json:"recommendationMean"`
				RevenueGrowth      yahooRaw `json:"revenueGrowth"`
				EarningsGrowth     yahooRaw `json:"earningsGrowth"`
			} `json:"financialData"`
			Earnings struct {
				EarningsChart struct {
					Quarterly []struct {
						Actual   yahooRaw `json:"actual"`
						Estimate yahooRaw `json:"estimate"`
					} `json:"quarterly"`
				} `json:"earningsChart"`
				FinancialsChart struct {
					Quarterly []struct {
						Revenue yahooRaw `json:"revenue"`
					} `json:"quarterly"`
				} `json:"financialsChart"`
			} `json:"earnings"`
			CalendarEvents struct {
				Earnings struct {
					RevenueAverage yahooRaw `json:"revenueAverage"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals returns analyst and earnings metadata from the quoteSummary API.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,financialData,earnings,calendarEvents",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)))

	var s yahooSummary
	if err := f.get(ctx, symbol, u, &s); err != nil {
		return nil, err
	}
	if s.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%s: %w: yahoo api error: %s", symbol, ErrDataUnavailable, s.QuoteSummary.Error.Description)
	}
	if len(s.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w: yahoo returned no summary", symbol, ErrDataUnavailable)
	}

	r := s.QuoteSummary.Result[0]
	fd := r.FinancialData
	out := &model.Fundamentals{
		Symbol:         symbol,
		Name:           r.Price.ShortName,
		Recommendation: fd.RecommendationKey,
	}
	out.CurrentPrice, _ = fd.CurrentPrice.value()
	out.TargetMeanPrice, _ = fd.TargetMeanPrice.value()
	out.RecommendationMean, _ = fd.RecommendationMean.value()
	out.RevenueGrowth, out.HasRevenueGrowth = fd.RevenueGrowth.value()
	out.EarningsGrowth, out.HasEarningsGrowth = fd.EarningsGrowth.value()

	if q := r.Earnings.EarningsChart.Quarterly; len(q) > 0 {
		last := q[len(q)-1]
		out.EPSActual, _ = last.Actual.value()
		out.EPSEstimate, _ = last.Estimate.value()
	}
	if q := r.Earnings.FinancialsChart.Quarterly; len(q) > 0 {
		out.RevenueActual, _ = q[len(q)-1].Revenue.value()
	}
	out.RevenueEstimate, _ = r.CalendarEvents.Earnings.RevenueAverage.value()
	return out, nil
}
