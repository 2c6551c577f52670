package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"WaveSentinel/internal/model"
	"WaveSentinel/internal/wave"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentAnalyzer(t *testing.T) {
	m := New()
	fail := false
	inner := wave.AnalyzerFunc(func([]model.OHLCV) (*wave.Result, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return &wave.Result{}, nil
	})
	a := InstrumentAnalyzer(inner, m)

	if _, err := a.Analyze(nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	fail = true
	if _, err := a.Analyze(nil); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.Analyses.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok analyses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Analyses.WithLabelValues("error")); got != 1 {
		t.Errorf("failed analyses = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.AnalysisDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCacheObserver(t *testing.T) {
	m := New()
	m.CacheHit(wave.LayerMemory)
	m.CacheHit(wave.LayerMemory)
	m.CacheHit(wave.LayerStore)
	m.CacheMiss()

	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues(wave.LayerMemory)); got != 2 {
		t.Errorf("memory hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues(wave.LayerStore)); got != 1 {
		t.Errorf("store hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestObserveDecision(t *testing.T) {
	m := New()
	at := time.Unix(1700000000, 0)
	m.ObserveDecision(&model.Decision{Trigger: model.TriggerScheduled, Enter: true}, at)
	m.ObserveDecision(&model.Decision{Trigger: model.TriggerManual, PositionOpen: true, Exit: true, ExitReason: model.ExitStopBreach}, at)
	m.ObserveDecision(&model.Decision{Trigger: model.TriggerScheduled}, at)

	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues(string(model.TriggerScheduled))); got != 2 {
		t.Errorf("scheduled evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Signals.WithLabelValues("ENTER", "")); got != 1 {
		t.Errorf("enter signals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Signals.WithLabelValues("EXIT", "stop_breach")); got != 1 {
		t.Errorf("exit signals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastEvaluation); got != 1700000000 {
		t.Errorf("last evaluation = %v", got)
	}

	m.SetPositionOpen(true)
	if got := testutil.ToFloat64(m.PositionOpen); got != 1 {
		t.Errorf("position gauge = %v, want 1", got)
	}
	m.SetPositionOpen(false)
	if got := testutil.ToFloat64(m.PositionOpen); got != 0 {
		t.Errorf("position gauge = %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.CacheMiss()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wavesentinel_wave_cache_misses_total 1") {
		t.Errorf("exposition missing cache misses:\n%s", rec.Body.String())
	}
}
