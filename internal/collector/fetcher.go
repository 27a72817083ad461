package collector

import (
	"context"
	"errors"
	"fmt"
	"net"

	"Kolgejt/internal/model"
)

var (
	// ErrDataUnavailable marks a delisted, unknown or rate-limited ticker.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrTimeout marks a fetch that got no response within its deadline.
	ErrTimeout = errors.New("fetch timed out")
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// FundamentalsFetcher returns the vendor metadata bag for one ticker.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
}

// classify maps transport failures onto ErrTimeout, everything else onto ErrDataUnavailable.
func classify(symbol string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrDataUnavailable) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s: %w: %v", symbol, ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", symbol, ErrDataUnavailable, err)
}
