package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"WaveSentinel/internal/collector"
	"WaveSentinel/internal/wave"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Symbol != "SPX500" || cfg.DataSource.Provider != "yahoo" || cfg.DataSource.Bars != 400 {
		t.Errorf("data source defaults = %+v", cfg.DataSource)
	}
	if cfg.Interval() != collector.Daily {
		t.Errorf("interval = %s", cfg.Interval())
	}
	if cfg.Position.Capital != 10000 {
		t.Errorf("capital = %.2f", cfg.Position.Capital)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := cfg.ValidateBot(); err == nil {
		t.Error("bot validation should require a telegram token")
	}

	p, err := cfg.StrategyParams()
	if err != nil {
		t.Fatalf("StrategyParams: %v", err)
	}
	if p.Periods.SMA != 200 || p.Periods.RSI != 14 || p.Periods.MACDFast != 12 || p.Periods.MACDSlow != 26 {
		t.Errorf("periods = %+v", p.Periods)
	}
	if p.RSIThreshold != 50 || p.MinRewardRisk != 3 {
		t.Errorf("thresholds = %.0f %.0f", p.RSIThreshold, p.MinRewardRisk)
	}

	w, err := cfg.WaveConfig()
	if err != nil {
		t.Fatalf("WaveConfig: %v", err)
	}
	if w.Fingerprint() != wave.DefaultConfig().Fingerprint() {
		t.Errorf("empty analyzer section should produce the default config, got %+v", w)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "tok"
  chat_id: "42"
data_source:
  provider: mock
  symbol: NDX
  interval: weekly
  bars: 250
redis:
  enabled: true
  ttl: 48h
  timeout: 500ms
strategy:
  sma_period: 50
  min_reward_risk: 2.5
  phases: [wave3]
analyzer:
  fractal_window: 7
  composite_mode: any
  tolerance: 0
  compression: intermediate
  patterns: [impulse, corrective]
  impulse_weights:
    fibonacci: 0.5
    time_proportion: 0.2
    alternation: 0.1
    channel: 0.1
    completeness: 0.1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Fatalf("ValidateBot: %v", err)
	}
	if cfg.Interval() != collector.Weekly || cfg.DataSource.Bars != 250 {
		t.Errorf("data source = %+v", cfg.DataSource)
	}
	if cfg.Redis.TTL != 48*time.Hour || cfg.Redis.Timeout != 500*time.Millisecond {
		t.Errorf("redis durations = %v %v", cfg.Redis.TTL, cfg.Redis.Timeout)
	}

	p, err := cfg.StrategyParams()
	if err != nil {
		t.Fatalf("StrategyParams: %v", err)
	}
	if p.Periods.SMA != 50 || p.Periods.RSI != 14 || p.MinRewardRisk != 2.5 {
		t.Errorf("params = %+v", p)
	}
	if len(p.TradeablePhases) != 1 || p.TradeablePhases[0] != wave.Wave3 {
		t.Errorf("phases = %v", p.TradeablePhases)
	}

	w, err := cfg.WaveConfig()
	if err != nil {
		t.Fatalf("WaveConfig: %v", err)
	}
	if w.Detector.Fractal.Window != 7 || w.Detector.Mode != wave.ModeAny || w.Detector.Tolerance != 0 {
		t.Errorf("detector = %+v", w.Detector)
	}
	if w.Compression.Name != "intermediate" || !w.Patterns.Corrective {
		t.Errorf("compression %s patterns %s", w.Compression.Name, w.Patterns)
	}
	if w.Confidence.Impulse.Fibonacci != 0.5 {
		t.Errorf("impulse weights = %+v", w.Confidence.Impulse)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("DATA_SYMBOL", "DJI")
	t.Setenv("POSITION_CAPITAL", "2500")
	t.Setenv("REDIS_ENABLED", "true")
	path := writeConfig(t, "telegram:\n  bot_token: file-token\ndata_source:\n  symbol: SPX\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" || cfg.DataSource.Symbol != "DJI" {
		t.Errorf("env not applied: %+v %+v", cfg.Telegram, cfg.DataSource)
	}
	if cfg.Position.Capital != 2500 || !cfg.Redis.Enabled {
		t.Errorf("capital %.0f redis %v", cfg.Position.Capital, cfg.Redis.Enabled)
	}

	t.Setenv("POSITION_CAPITAL", "lots")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed POSITION_CAPITAL")
	}
}

func TestValidateRejects(t *testing.T) {
	for name, body := range map[string]string{
		"bad interval":  "data_source:\n  interval: hourly\n",
		"bad phase":     "strategy:\n  phases: [wave9]\n",
		"bad macd":      "strategy:\n  macd_fast: 30\n",
		"bad weights":   "analyzer:\n  impulse_weights:\n    fibonacci: 0.9\n",
		"bad pattern":   "analyzer:\n  patterns: [triangle]\n",
		"negative bars": "data_source:\n  bars: -1\n",
	} {
		cfg, err := Load(writeConfig(t, body))
		if err != nil {
			t.Errorf("%s: Load: %v", name, err)
			continue
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "telegram: [")); err == nil {
		t.Error("expected parse error")
	}
}
