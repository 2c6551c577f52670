package calculator

import "github.com/sdcoffey/techan"

func newRSI(closePrice techan.Indicator, period int) techan.Indicator {
	return techan.NewRelativeStrengthIndexIndicator(closePrice, period)
}

func newMACD(closePrice techan.Indicator, fast, slow int) techan.Indicator {
	return techan.NewMACDIndicator(closePrice, fast, slow)
}

// RSIReady reports whether RSI has seen a full window of price changes at index.
func (s *Set) RSIReady(index int) bool {
	return s.inRange(index) && index >= s.periods.RSI
}

// MACDReady reports whether the slow EMA of the MACD is seeded at index.
func (s *Set) MACDReady(index int) bool {
	return s.inRange(index) && index >= s.periods.MACDSlow-1
}
