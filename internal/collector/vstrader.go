package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"WaveSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a vstrader fetcher, optionally behind a proxy.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{BaseURL: baseURL, APIKey: apiKey, Client: newHTTPClient(proxyURL)}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (b vsBar) ohlcv() model.OHLCV {
	return model.OHLCV{
		Time:   time.Unix(b.Timestamp, 0).UTC(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

// FetchBars asks the weekly endpoint first for weekly bars and falls back to
// aggregating daily bars when the server does not provide them.
func (f *VsTraderFetcher) FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.OHLCV, error) {
	if interval != Weekly {
		return f.get(ctx, "daily", symbol, limit)
	}
	bars, err := f.get(ctx, "weekly", symbol, limit)
	if err == nil {
		return bars, nil
	}
	daily, dailyErr := f.get(ctx, "daily", symbol, limit*7)
	if dailyErr != nil {
		return nil, fmt.Errorf("vstrader weekly: %w; daily fallback: %w", err, dailyErr)
	}
	bars = aggregateDailyToWeekly(daily)
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (f *VsTraderFetcher) get(ctx context.Context, kind, symbol string, limit int) ([]model.OHLCV, error) {
	q := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	u := f.BaseURL + "/api/v1/bars/" + kind + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vstrader %s: %w", kind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vstrader %s: status %d: %s", kind, resp.StatusCode, body)
	}

	var raw []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("vstrader decode: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("vstrader %s %s: %w", kind, symbol, ErrNoData)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		bars[i] = b.ohlcv()
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func isoWeek(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}

// aggregateDailyToWeekly folds daily bars into one bar per ISO week, stamped
// with the first session of the week.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	for _, d := range daily {
		n := len(weekly)
		if n == 0 || isoWeek(weekly[n-1].Time) != isoWeek(d.Time) {
			weekly = append(weekly, d)
			continue
		}
		w := &weekly[n-1]
		w.High = math.Max(w.High, d.High)
		w.Low = math.Min(w.Low, d.Low)
		w.Close = d.Close
		w.Volume += d.Volume
	}
	return weekly
}
