package recorder

import "WaveSentinel/internal/model"

// LiveRunID tags rows written by the live bot.
const LiveRunID = "live"

// Recorder persists decisions, trades and backtest runs for analysis.
type Recorder interface {
	RecordDecision(runID string, d *model.Decision) error
	RecordTrade(runID string, t *model.Trade) error
	RecordRun(s *model.BacktestSummary) error
	Close() error
}
