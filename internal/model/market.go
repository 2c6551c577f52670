package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bar history of one instrument, oldest first.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Prefix returns the bars from the start up to and including index.
// The returned slice shares the underlying array and must not be modified.
func (s *PriceSeries) Prefix(index int) []OHLCV {
	if index < 0 {
		return nil
	}
	if index >= len(s.Bars) {
		index = len(s.Bars) - 1
	}
	return s.Bars[:index+1 : index+1]
}

// Last returns the most recent bar and false when the series is empty.
func (s *PriceSeries) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
