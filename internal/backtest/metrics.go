package backtest

import (
	"math"

	"WaveSentinel/internal/model"
)

// Summarize computes the run statistics from closed trades and the equity curve.
func Summarize(series *model.PriceSeries, name string, capital float64, trades []model.Trade, equity []Point, barsInMarket int) model.BacktestSummary {
	s := model.BacktestSummary{
		Symbol:       series.Symbol,
		Strategy:     name,
		Bars:         series.Len(),
		Trades:       len(trades),
		StartCapital: capital,
		EndCapital:   capital,
	}
	if n := series.Len(); n > 0 {
		s.From = series.Bars[0].Time
		s.To = series.Bars[n-1].Time
		if first := series.Bars[0].Close; first > 0 {
			s.BuyAndHoldPct = (series.Bars[n-1].Close/first - 1) * 100
		}
		s.ExposurePct = float64(barsInMarket) / float64(n) * 100
	}

	var gross, loss float64
	for _, t := range trades {
		s.NetProfit += t.PnL
		if t.Win() {
			s.Wins++
			gross += t.PnL
		} else {
			s.Losses++
			loss += -t.PnL
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	// Zero when there is no losing trade.
	if loss > 0 {
		s.ProfitFactor = gross / loss
	}
	if len(equity) > 0 {
		s.EndCapital = equity[len(equity)-1].Equity
	}
	if capital > 0 {
		s.TotalReturnPct = (s.EndCapital/capital - 1) * 100
	}
	s.MaxDrawdownPct = maxDrawdown(equity)
	return s
}

// maxDrawdown returns the deepest peak-to-trough fall of the curve in percent
// (a non-positive number).
func maxDrawdown(eq []Point) float64 {
	var peak, dd float64
	if len(eq) > 0 {
		peak = eq[0].Equity
	}
	for _, p := range eq {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		if d := (p.Equity - peak) / peak * 100; d < dd {
			dd = d
		}
	}
	return dd
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
