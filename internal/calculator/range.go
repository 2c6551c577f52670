package calculator

import (
	"errors"
	"math"

	"WaveSentinel/internal/model"

	talib "github.com/markcheno/go-talib"
)

// WindowRange returns the highest high and lowest low of bars[start:end].
func WindowRange(bars []model.OHLCV, start, end int) (high, low float64, err error) {
	if start < 0 {
		start = 0
	}
	if end > len(bars) {
		end = len(bars)
	}
	if start >= end {
		return 0, 0, errors.New("empty bar window")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// ATR computes Wilder's average true range for every bar.
// Values before index period are zero; with fewer than period+2 bars the
// whole result is zero.
func ATR(bars []model.OHLCV, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) < period+2 {
		return make([]float64, len(bars)), nil
	}
	return talib.Atr(extractHighs(bars), extractLows(bars), extractCloses(bars), period), nil
}
