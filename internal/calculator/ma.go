package calculator

import (
	"errors"
	"fmt"

	"WaveSentinel/internal/model"

	"github.com/sdcoffey/techan"
)

// Periods configures the indicator windows used by the strategy rules.
type Periods struct {
	SMA      int
	RSI      int
	MACDFast int
	MACDSlow int
}

// DefaultPeriods returns SMA(200), RSI(14) and MACD(12,26).
func DefaultPeriods() Periods {
	return Periods{SMA: 200, RSI: 14, MACDFast: 12, MACDSlow: 26}
}

// Validate checks that every window is positive and MACD fast < slow.
func (p Periods) Validate() error {
	if p.SMA <= 0 || p.RSI <= 0 || p.MACDFast <= 0 || p.MACDSlow <= 0 {
		return errors.New("indicator periods must be positive")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd fast period %d must be below slow period %d", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// Set bundles the close, SMA, RSI and MACD indicators of one series.
//
// techan returns zero for indices inside an indicator's unstable window, so
// callers must check the matching Ready method before trusting a value.
type Set struct {
	Close techan.Indicator
	SMA   techan.Indicator
	RSI   techan.Indicator
	MACD  techan.Indicator

	periods Periods
	length  int
}

// NewSet builds the indicator set over series.
func NewSet(series *techan.TimeSeries, p Periods) (*Set, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	closePrice := techan.NewClosePriceIndicator(series)
	return &Set{
		Close:   closePrice,
		SMA:     techan.NewSimpleMovingAverage(closePrice, p.SMA),
		RSI:     newRSI(closePrice, p.RSI),
		MACD:    newMACD(closePrice, p.MACDFast, p.MACDSlow),
		periods: p,
		length:  len(series.Candles),
	}, nil
}

// Len returns the number of bars covered by the set.
func (s *Set) Len() int { return s.length }

// Periods returns the configured windows.
func (s *Set) Periods() Periods { return s.periods }

func (s *Set) inRange(index int) bool { return index >= 0 && index < s.length }

// SMAReady reports whether a full SMA window exists at index.
func (s *Set) SMAReady(index int) bool {
	return s.inRange(index) && index >= s.periods.SMA-1
}

// UnstablePeriod returns the first index at which every indicator is ready.
func (s *Set) UnstablePeriod() int {
	n := s.periods.SMA - 1
	if s.periods.RSI > n {
		n = s.periods.RSI
	}
	if s.periods.MACDSlow-1 > n {
		n = s.periods.MACDSlow - 1
	}
	return n
}

// ClosePrice returns close[index] as a float.
func (s *Set) ClosePrice(index int) float64 {
	if !s.inRange(index) {
		return 0
	}
	return s.Close.Calculate(index).Float()
}

// Snapshot reads every indicator at index.
func (s *Set) Snapshot(index int) model.IndicatorSnapshot {
	snap := model.IndicatorSnapshot{}
	if !s.inRange(index) {
		return snap
	}
	snap.Close = s.Close.Calculate(index).Float()
	if snap.SMAReady = s.SMAReady(index); snap.SMAReady {
		snap.SMA = s.SMA.Calculate(index).Float()
	}
	if snap.RSIReady = s.RSIReady(index); snap.RSIReady {
		snap.RSI = s.RSI.Calculate(index).Float()
	}
	if snap.MACDReady = s.MACDReady(index); snap.MACDReady {
		snap.MACD = s.MACD.Calculate(index).Float()
	}
	return snap
}
