package collector

import (
	"context"
	"fmt"
	"strings"

	"WaveSentinel/internal/model"
)

// Interval is the bar size requested from a data source.
type Interval string

const (
	Daily  Interval = "1d"
	Weekly Interval = "1wk"
)

// ParseInterval accepts "1d"/"daily" and "1wk"/"weekly".
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1d", "daily", "day":
		return Daily, nil
	case "1wk", "1w", "weekly", "week":
		return Weekly, nil
	default:
		return "", fmt.Errorf("unsupported interval %q", s)
	}
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.OHLCV, error)
	Name() string
}

// NewFetcher builds the fetcher for a provider name: "yahoo", "vstrader" or
// "mock".
func NewFetcher(provider, baseURL, apiKey, proxyURL string) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "yahoo":
		f := NewYahooFetcher(proxyURL)
		if baseURL != "" {
			f.BaseURL = baseURL
		}
		return f, nil
	case "vstrader":
		if baseURL == "" {
			return nil, fmt.Errorf("vstrader requires a base url")
		}
		return NewVsTraderFetcher(baseURL, apiKey, proxyURL), nil
	case "mock":
		return &MockFetcher{Price: 4000}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}
