package model

import "time"

// Trade is a closed long round trip.
type Trade struct {
	Symbol     string     `json:"symbol"`
	EntryIndex int        `json:"entry_index"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitIndex  int        `json:"exit_index"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	PnL        float64    `json:"pnl"`
	ReturnPct  float64    `json:"return_pct"`
	ExitReason ExitReason `json:"exit_reason"`
}

// Win reports whether the trade closed with a profit.
func (t Trade) Win() bool { return t.PnL > 0 }
