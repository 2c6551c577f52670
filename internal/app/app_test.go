package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"WaveSentinel/internal/config"
	"WaveSentinel/internal/metrics"
	"WaveSentinel/internal/recorder"
	"WaveSentinel/internal/wave"

	"github.com/rs/zerolog"
)

func TestNewAnalyzerMemoryOnly(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.Timeout = 100 * time.Millisecond

	a, err := NewAnalyzer(context.Background(), cfg, metrics.New(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	defer a.Close()
	if a.Store != nil {
		t.Error("unreachable redis should leave the store unset")
	}
	if _, ok := a.Analyzer.(*wave.Cached); !ok {
		t.Errorf("analyzer is %T, want *wave.Cached", a.Analyzer)
	}
	res, err := a.Analyze(nil)
	if err != nil || len(res.Scenarios) != 0 {
		t.Errorf("empty input = %+v, %v", res, err)
	}
}

func TestNewRecorder(t *testing.T) {
	if _, ok := NewRecorder("", zerolog.Nop()).(*recorder.NoopRecorder); !ok {
		t.Error("empty path should give the noop recorder")
	}
	rec := NewRecorder(filepath.Join(t.TempDir(), "r.db"), zerolog.Nop())
	defer rec.Close()
	if _, ok := rec.(*recorder.SQLiteRecorder); !ok {
		t.Errorf("recorder is %T", rec)
	}
}
