package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"Kolgejt/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market data API.
type AlpacaFetcher struct {
	Client *marketdata.Client
}

// NewAlpacaFetcher creates a market data client. feed is "iex" or "sip".
func NewAlpacaFetcher(apiKey, apiSecret, feed string, timeout time.Duration) *AlpacaFetcher {
	return &AlpacaFetcher{
		Client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			Feed:       marketdata.Feed(feed),
			HTTPClient: &http.Client{Timeout: timeout},
		}),
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

type barsResult struct {
	bars []marketdata.Bar
	err  error
}

// FetchDailyBars requests enough calendar days to cover days sessions and trims the excess.
func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	// ~252 sessions per 365 calendar days, plus slack for holidays.
	calendarDays := days*365/252 + 10
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     time.Now().AddDate(0, 0, -calendarDays),
	}

	// The client call is not context-aware, so the deadline is enforced here.
	ch := make(chan barsResult, 1)
	go func() {
		bars, err := f.Client.GetBars(symbol, req)
		ch <- barsResult{bars: bars, err: err}
	}()

	var res barsResult
	select {
	case <-ctx.Done():
		return nil, classify(symbol, ctx.Err())
	case res = <-ch:
	}
	if res.err != nil {
		return nil, classify(symbol, fmt.Errorf("alpaca get bars: %w", res.err))
	}
	if len(res.bars) == 0 {
		return nil, fmt.Errorf("%s: %w: alpaca returned no bars", symbol, ErrDataUnavailable)
	}

	bars := make([]model.OHLCV, len(res.bars))
	for i, b := range res.bars {
		bars[i] = model.OHLCV{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}
