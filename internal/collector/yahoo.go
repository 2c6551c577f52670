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

	"WaveSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a Yahoo Finance fetcher, optionally behind a proxy.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
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

// chartResponse is the part of the v8 chart payload we read. Quote arrays
// hold null for sessions without trades.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
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
}

// value returns vals[i], or false when it is missing or null.
func value(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// bars converts the result into OHLCV bars, skipping sessions with any
// missing price.
func (r *chartResult) bars() []model.OHLCV {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]model.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, ok1 := value(q.Open, i)
		h, ok2 := value(q.High, i)
		l, ok3 := value(q.Low, i)
		c, ok4 := value(q.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}
		v, _ := value(q.Volume, i)
		out = append(out, model.OHLCV{Time: time.Unix(ts, 0).UTC(), Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	base := f.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	q := url.Values{"interval": {interval}, "range": {rng}}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if e := chart.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo api error %s: %s", e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	bars := chart.Chart.Result[0].bars()
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// yahooRange picks the smallest chart range covering limit bars.
func yahooRange(interval Interval, limit int) string {
	if interval == Weekly {
		switch {
		case limit <= 26:
			return "6mo"
		case limit <= 52:
			return "1y"
		case limit <= 104:
			return "2y"
		case limit <= 260:
			return "5y"
		default:
			return "max"
		}
	}
	switch {
	case limit <= 20:
		return "1mo"
	case limit <= 60:
		return "3mo"
	case limit <= 125:
		return "6mo"
	case limit <= 250:
		return "1y"
	case limit <= 500:
		return "2y"
	case limit <= 1250:
		return "5y"
	case limit <= 2500:
		return "10y"
	default:
		return "max"
	}
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.OHLCV, error) {
	bars, err := f.fetchChart(ctx, symbol, string(interval), yahooRange(interval, limit))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}
