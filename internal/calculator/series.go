package calculator

import (
	"time"

	"WaveSentinel/internal/model"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// ToTimeSeries converts bars into a techan time series with one candle per bar.
// Candles are appended directly so irregular bar spacing (weekends, DST) is kept.
func ToTimeSeries(bars []model.OHLCV, barDuration time.Duration) *techan.TimeSeries {
	if barDuration <= 0 {
		barDuration = 24 * time.Hour
	}
	series := techan.NewTimeSeries()
	series.Candles = make([]*techan.Candle, 0, len(bars))
	for _, b := range bars {
		candle := techan.NewCandle(techan.NewTimePeriod(b.Time, barDuration))
		candle.OpenPrice = big.NewDecimal(b.Open)
		candle.MaxPrice = big.NewDecimal(b.High)
		candle.MinPrice = big.NewDecimal(b.Low)
		candle.ClosePrice = big.NewDecimal(b.Close)
		candle.Volume = big.NewDecimal(b.Volume)
		series.Candles = append(series.Candles, candle)
	}
	return series
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractHighs(bars []model.OHLCV) []float64 {
	highs := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
	}
	return highs
}

func extractLows(bars []model.OHLCV) []float64 {
	lows := make([]float64, len(bars))
	for i, b := range bars {
		lows[i] = b.Low
	}
	return lows
}
