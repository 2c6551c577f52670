package model

import "time"

// PositionState tracks the paper position of the live bot.
type PositionState struct {
	Symbol        string    `json:"symbol"`
	Open          bool      `json:"open"`
	EntryPrice    float64   `json:"entry_price"`
	EntryTime     time.Time `json:"entry_time"`
	Quantity      float64   `json:"quantity"`
	Capital       float64   `json:"capital"`
	RealizedPnL   float64   `json:"realized_pnl"`
	ClosedTrades  int       `json:"closed_trades"`
	WinningTrades int       `json:"winning_trades"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Status is the snapshot served by the status endpoint and bot commands.
type Status struct {
	Symbol       string        `json:"symbol"`
	LastDecision *Decision     `json:"last_decision,omitempty"`
	Position     PositionState `json:"position"`
	LastRunAt    time.Time     `json:"last_run_at"`
	LastError    string        `json:"last_error,omitempty"`
}
