package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"WaveSentinel/internal/model"

	"github.com/rs/zerolog"
)

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer r.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d := &model.Decision{
		Symbol:      "SPX500",
		Index:       250,
		Time:        at,
		Trend:       true,
		Momentum:    true,
		Impulse:     true,
		ImpulseNote: "reward/risk 3.20",
		RewardRisk:  3.2,
		Enter:       true,
		Trigger:     model.TriggerScheduled,
		Scenario:    &model.ScenarioView{Type: "IMPULSE", Phase: "WAVE3", Confidence: 0.7},
	}
	if err := r.RecordDecision(LiveRunID, d); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if err := r.RecordDecision(LiveRunID, &model.Decision{Symbol: "SPX500", Index: 251}); err != nil {
		t.Fatalf("RecordDecision without scenario: %v", err)
	}

	trade := &model.Trade{Symbol: "SPX500", EntryTime: at, EntryPrice: 100, ExitTime: at.AddDate(0, 0, 5), ExitPrice: 110, Quantity: 1, PnL: 10, ExitReason: model.ExitStopBreach}
	if err := r.RecordTrade("run-1", trade); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}

	sum := &model.BacktestSummary{RunID: "run-1", Symbol: "SPX500", Trades: 1, Wins: 1, NetProfit: 10}
	if err := r.RecordRun(sum); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	sum.NetProfit = 12
	if err := r.RecordRun(sum); err != nil {
		t.Fatalf("RecordRun replace: %v", err)
	}

	var action, phase string
	if err := r.db.QueryRow(`SELECT action, scenario_phase FROM decisions WHERE bar_index = 250`).Scan(&action, &phase); err != nil {
		t.Fatalf("query decision: %v", err)
	}
	if action != "ENTER" || phase != "WAVE3" {
		t.Errorf("decision row = %s/%s, want ENTER/WAVE3", action, phase)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil || n != 2 {
		t.Errorf("decision rows = %d (%v), want 2", n, err)
	}
	var reason string
	if err := r.db.QueryRow(`SELECT exit_reason FROM trades WHERE run_id = 'run-1'`).Scan(&reason); err != nil || reason != "stop_breach" {
		t.Errorf("trade exit reason = %q (%v)", reason, err)
	}
	var profit float64
	if err := r.db.QueryRow(`SELECT COUNT(*), MAX(net_profit) FROM backtest_runs`).Scan(&n, &profit); err != nil || n != 1 || profit != 12 {
		t.Errorf("runs = %d, profit = %.0f (%v), want 1 row with 12", n, profit, err)
	}
}

func TestSQLiteRecorderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r.Close()
	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	r.Close()
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordDecision(LiveRunID, &model.Decision{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
