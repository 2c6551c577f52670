package model

import "time"

// BacktestSummary aggregates the result of one backtest run.
type BacktestSummary struct {
	RunID          string    `json:"run_id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Bars           int       `json:"bars"`
	Trades         int       `json:"trades"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	WinRate        float64   `json:"win_rate"`
	StartCapital   float64   `json:"start_capital"`
	EndCapital     float64   `json:"end_capital"`
	NetProfit      float64   `json:"net_profit"`
	TotalReturnPct float64   `json:"total_return_pct"`
	BuyAndHoldPct  float64   `json:"buy_and_hold_pct"`
	ProfitFactor   float64   `json:"profit_factor"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	ExposurePct    float64   `json:"exposure_pct"`
}
