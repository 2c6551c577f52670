package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
)

// ErrNoData is returned when a source yields no usable bars.
var ErrNoData = errors.New("no data")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval Interval, limit int) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	step := 24 * time.Hour
	if interval == Weekly {
		step = 7 * 24 * time.Hour
	}
	return generateMockBars(m.Price, limit, step), nil
}

// generateMockBars draws a rising series with a superimposed swing cycle so
// that swing detection has something to find.
func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		drift := 1 + float64(i)*0.001
		cycle := 1 + 0.06*math.Sin(float64(i)*2*math.Pi/40)
		p := basePrice * drift * cycle
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector loads the bar history of one symbol.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Interval Interval
	Bars     int
	log      zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, interval Interval, bars int, log zerolog.Logger) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Interval: interval, Bars: bars, log: log}
}

// Collect fetches the latest bars and returns them as a clean series:
// chronological, one bar per timestamp, without empty or malformed bars.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Interval, c.Bars)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars from %s: %w", c.Symbol, c.Fetcher.Name(), err)
	}
	bars, dropped := Clean(raw)
	if dropped > 0 {
		c.log.Warn().Str("symbol", c.Symbol).Int("dropped", dropped).Msg("dropped malformed bars")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("collect %s: %w", c.Symbol, ErrNoData)
	}
	if c.Bars > 0 && len(bars) > c.Bars {
		bars = bars[len(bars)-c.Bars:]
	}
	c.log.Debug().
		Str("symbol", c.Symbol).
		Str("source", c.Fetcher.Name()).
		Int("bars", len(bars)).
		Time("last", bars[len(bars)-1].Time).
		Msg("bars collected")
	return &model.PriceSeries{Symbol: c.Symbol, Bars: bars, FetchedAt: time.Now()}, nil
}

// Clean keeps bars with positive finite prices and a consistent range, in
// strictly increasing time order. A later bar with a duplicate timestamp
// replaces the earlier one. It returns the number of bars removed.
func Clean(raw []model.OHLCV) ([]model.OHLCV, int) {
	out := make([]model.OHLCV, 0, len(raw))
	dropped := 0
	for _, b := range raw {
		if !usable(b) {
			dropped++
			continue
		}
		if n := len(out); n > 0 {
			last := out[n-1].Time
			if b.Time.Equal(last) {
				out[n-1] = b
				dropped++
				continue
			}
			if b.Time.Before(last) {
				dropped++
				continue
			}
		}
		out = append(out, b)
	}
	return out, dropped
}

func usable(b model.OHLCV) bool {
	for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return b.High >= b.Low && !b.Time.IsZero()
}
