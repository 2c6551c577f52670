package recorder

import "WaveSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDecision(_ string, _ *model.Decision) error { return nil }
func (n *NoopRecorder) RecordTrade(_ string, _ *model.Trade) error       { return nil }
func (n *NoopRecorder) RecordRun(_ *model.BacktestSummary) error         { return nil }
func (n *NoopRecorder) Close() error                                     { return nil }
