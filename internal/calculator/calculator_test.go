package calculator

import (
	"math"
	"testing"
	"time"

	"WaveSentinel/internal/model"
)

func makeBars(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

func ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func TestPeriodsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Periods
		wantErr bool
	}{
		{"defaults", DefaultPeriods(), false},
		{"zero sma", Periods{SMA: 0, RSI: 14, MACDFast: 12, MACDSlow: 26}, true},
		{"fast above slow", Periods{SMA: 20, RSI: 14, MACDFast: 26, MACDSlow: 12}, true},
	}
	for _, tt := range tests {
		err := tt.p.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() err=%v, wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}

func TestSetReadiness(t *testing.T) {
	bars := makeBars(ramp(40, 100, 1)...)
	set, err := NewSet(ToTimeSeries(bars, 0), Periods{SMA: 20, RSI: 14, MACDFast: 12, MACDSlow: 26})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if set.SMAReady(18) || !set.SMAReady(19) {
		t.Errorf("SMA readiness boundary wrong: 18=%v 19=%v", set.SMAReady(18), set.SMAReady(19))
	}
	if set.RSIReady(13) || !set.RSIReady(14) {
		t.Errorf("RSI readiness boundary wrong")
	}
	if set.MACDReady(24) || !set.MACDReady(25) {
		t.Errorf("MACD readiness boundary wrong")
	}
	if set.SMAReady(40) {
		t.Error("index past the end must not be ready")
	}
	if got := set.UnstablePeriod(); got != 25 {
		t.Errorf("UnstablePeriod() = %d, want 25", got)
	}
}

func TestSetSnapshotValues(t *testing.T) {
	closes := ramp(40, 100, 1)
	for i := range closes {
		if i%4 == 3 {
			closes[i] -= 2.5
		}
	}
	bars := makeBars(closes...)
	set, err := NewSet(ToTimeSeries(bars, 0), Periods{SMA: 20, RSI: 14, MACDFast: 12, MACDSlow: 26})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	snap := set.Snapshot(39)
	if snap.Close != closes[39] {
		t.Errorf("close = %.2f, want %.2f", snap.Close, closes[39])
	}
	sum := 0.0
	for _, c := range closes[20:] {
		sum += c
	}
	if want := sum / 20; math.Abs(snap.SMA-want) > 1e-9 {
		t.Errorf("sma = %.4f, want %.4f", snap.SMA, want)
	}
	if snap.RSI <= 50 || snap.RSI >= 100 {
		t.Errorf("rsi on a choppy uptrend = %.2f, want within (50, 100)", snap.RSI)
	}
	if snap.MACD <= 0 {
		t.Errorf("macd on an uptrend = %.4f, want > 0", snap.MACD)
	}

	early := set.Snapshot(5)
	if early.SMAReady || early.SMA != 0 {
		t.Errorf("early snapshot should not carry an SMA: %+v", early)
	}
}

func TestWindowRange(t *testing.T) {
	bars := makeBars(10, 12, 8, 15, 9)
	high, low, err := WindowRange(bars, 1, 4)
	if err != nil {
		t.Fatalf("WindowRange: %v", err)
	}
	if high != 16 || low != 7 {
		t.Errorf("got high=%.1f low=%.1f, want 16 and 7", high, low)
	}
	if _, _, err := WindowRange(bars, 3, 3); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestATR(t *testing.T) {
	short, err := ATR(makeBars(1, 2, 3), 14)
	if err != nil {
		t.Fatalf("ATR: %v", err)
	}
	for i, v := range short {
		if v != 0 {
			t.Errorf("short input atr[%d] = %.2f, want 0", i, v)
		}
	}

	bars := makeBars(ramp(30, 100, 0)...)
	atr, err := ATR(bars, 14)
	if err != nil {
		t.Fatalf("ATR: %v", err)
	}
	// flat closes with a constant 2-point range
	if math.Abs(atr[29]-2) > 1e-9 {
		t.Errorf("atr[29] = %.4f, want 2", atr[29])
	}
	if _, err := ATR(bars, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}
