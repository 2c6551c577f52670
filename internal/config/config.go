package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"WaveSentinel/internal/calculator"
	"WaveSentinel/internal/collector"
	"WaveSentinel/internal/strategy"
	"WaveSentinel/internal/wave"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
		Interval string `yaml:"interval"`
		Bars     int    `yaml:"bars"`
	} `yaml:"data_source"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
	} `yaml:"schedule"`
	Position struct {
		Capital   float64 `yaml:"capital"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"position"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`
	API struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Strategy StrategyConfig `yaml:"strategy"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Proxy    string         `yaml:"proxy"`
}

// StrategyConfig holds the indicator windows and gate thresholds. Zero
// values fall back to the defaults, except macd_threshold where zero is the
// default.
type StrategyConfig struct {
	Name          string   `yaml:"name"`
	SMAPeriod     int      `yaml:"sma_period"`
	RSIPeriod     int      `yaml:"rsi_period"`
	MACDFast      int      `yaml:"macd_fast"`
	MACDSlow      int      `yaml:"macd_slow"`
	RSIThreshold  float64  `yaml:"rsi_threshold"`
	MACDThreshold float64  `yaml:"macd_threshold"`
	MinRewardRisk float64  `yaml:"min_reward_risk"`
	Phases        []string `yaml:"phases"`
}

// AnalyzerConfig holds the wave analyzer settings.
type AnalyzerConfig struct {
	ATRPeriod         int          `yaml:"atr_period"`
	ATRMultiplier     float64      `yaml:"atr_multiplier"`
	MinThreshold      float64      `yaml:"min_threshold"`
	MaxThreshold      float64      `yaml:"max_threshold"`
	FractalWindow     int          `yaml:"fractal_window"`
	CompositeMode     string       `yaml:"composite_mode"`
	Tolerance         *int         `yaml:"tolerance"`
	Compression       string       `yaml:"compression"`
	Patterns          []string     `yaml:"patterns"`
	ImpulseWeights    wave.Weights `yaml:"impulse_weights"`
	CorrectiveWeights wave.Weights `yaml:"corrective_weights"`
	WeightTotal       float64      `yaml:"weight_total"`
	HighConfidence    float64      `yaml:"high_confidence"`
	ConsensusBand     float64      `yaml:"consensus_band"`
	ConsensusRatio    float64      `yaml:"consensus_ratio"`
	MaxScenarios      int          `yaml:"max_scenarios"`
	MinBars           int          `yaml:"min_bars"`
	CacheSize         int          `yaml:"cache_size"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Environment variable overrides
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"VSTRADER_BASE_URL":  &c.DataSource.BaseURL,
		"VSTRADER_API_KEY":   &c.DataSource.APIKey,
		"DATA_SYMBOL":        &c.DataSource.Symbol,
		"DATA_INTERVAL":      &c.DataSource.Interval,
		"HTTPS_PROXY":        &c.Proxy,
		"CRON_EVALUATE":      &c.Schedule.EvaluateCron,
		"POSITION_STATE":     &c.Position.StateFile,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"REDIS_ADDR":         &c.Redis.Addr,
		"REDIS_PASSWORD":     &c.Redis.Password,
		"API_ADDR":           &c.API.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("POSITION_CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("POSITION_CAPITAL: %w", err)
		}
		c.Position.Capital = capital
	}
	if v := os.Getenv("DATA_BARS"); v != "" {
		bars, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DATA_BARS: %w", err)
		}
		c.DataSource.Bars = bars
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REDIS_ENABLED: %w", err)
		}
		c.Redis.Enabled = enabled
	}
	if v := os.Getenv("API_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("API_ENABLED: %w", err)
		}
		c.API.Enabled = enabled
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "SPX500"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = string(collector.Daily)
	}
	if c.DataSource.Bars == 0 {
		c.DataSource.Bars = 400
	}
	if c.Schedule.EvaluateCron == "" {
		c.Schedule.EvaluateCron = "0 30 22 * * 1-5"
	}
	if c.Position.Capital == 0 {
		c.Position.Capital = 10000
	}
	if c.Position.StateFile == "" {
		c.Position.StateFile = "data/position_state.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/wave_sentinel.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = strategy.DefaultName
	}
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if _, err := collector.ParseInterval(c.DataSource.Interval); err != nil {
		return fmt.Errorf("data_source.interval: %w", err)
	}
	if c.DataSource.Bars <= 0 {
		return fmt.Errorf("data_source.bars must be positive")
	}
	if c.Position.Capital <= 0 {
		return fmt.Errorf("position.capital must be positive")
	}
	if _, err := c.StrategyParams(); err != nil {
		return err
	}
	if _, err := c.WaveConfig(); err != nil {
		return err
	}
	return nil
}

// ValidateBot additionally checks the settings the live bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.DataSource.Provider == "vstrader" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	return nil
}

// Interval returns the parsed bar interval.
func (c *Config) Interval() collector.Interval {
	iv, err := collector.ParseInterval(c.DataSource.Interval)
	if err != nil {
		return collector.Daily
	}
	return iv
}

// StrategyParams builds the validated strategy parameters.
func (c *Config) StrategyParams() (strategy.Params, error) {
	p := strategy.DefaultParams()
	s := c.Strategy
	if s.Name != "" {
		p.Name = s.Name
	}
	p.Periods = calculator.Periods{
		SMA:      orInt(s.SMAPeriod, p.Periods.SMA),
		RSI:      orInt(s.RSIPeriod, p.Periods.RSI),
		MACDFast: orInt(s.MACDFast, p.Periods.MACDFast),
		MACDSlow: orInt(s.MACDSlow, p.Periods.MACDSlow),
	}
	p.RSIThreshold = orFloat(s.RSIThreshold, p.RSIThreshold)
	p.MACDThreshold = s.MACDThreshold
	p.MinRewardRisk = orFloat(s.MinRewardRisk, p.MinRewardRisk)
	if len(s.Phases) > 0 {
		p.TradeablePhases = p.TradeablePhases[:0:0]
		for _, name := range s.Phases {
			ph, err := wave.ParsePhase(name)
			if err != nil {
				return strategy.Params{}, fmt.Errorf("strategy.phases: %w", err)
			}
			p.TradeablePhases = append(p.TradeablePhases, ph)
		}
	}
	if err := p.Validate(); err != nil {
		return strategy.Params{}, fmt.Errorf("strategy: %w", err)
	}
	return p, nil
}

// WaveConfig builds the validated analyzer configuration.
func (c *Config) WaveConfig() (wave.Config, error) {
	w := wave.DefaultConfig()
	a := c.Analyzer

	z := &w.Detector.ZigZag
	z.ATRPeriod = orInt(a.ATRPeriod, z.ATRPeriod)
	z.ATRMultiplier = orFloat(a.ATRMultiplier, z.ATRMultiplier)
	z.MinThreshold = orFloat(a.MinThreshold, z.MinThreshold)
	z.MaxThreshold = orFloat(a.MaxThreshold, z.MaxThreshold)
	w.Detector.Fractal.Window = orInt(a.FractalWindow, w.Detector.Fractal.Window)
	if a.CompositeMode != "" {
		mode, err := wave.ParseCompositeMode(a.CompositeMode)
		if err != nil {
			return wave.Config{}, fmt.Errorf("analyzer.composite_mode: %w", err)
		}
		w.Detector.Mode = mode
	}
	if a.Tolerance != nil {
		w.Detector.Tolerance = *a.Tolerance
	}

	comp, err := wave.ParseCompression(a.Compression)
	if err != nil {
		return wave.Config{}, fmt.Errorf("analyzer.compression: %w", err)
	}
	w.Compression = comp
	if w.Patterns, err = wave.ParsePatternSet(a.Patterns); err != nil {
		return wave.Config{}, fmt.Errorf("analyzer.patterns: %w", err)
	}

	if a.ImpulseWeights != (wave.Weights{}) {
		w.Confidence.Impulse = a.ImpulseWeights
	}
	if a.CorrectiveWeights != (wave.Weights{}) {
		w.Confidence.Corrective = a.CorrectiveWeights
	}
	w.Confidence.Total = orFloat(a.WeightTotal, w.Confidence.Total)
	w.Confidence.HighThreshold = orFloat(a.HighConfidence, w.Confidence.HighThreshold)
	w.ConsensusBand = orFloat(a.ConsensusBand, w.ConsensusBand)
	w.ConsensusRatio = orFloat(a.ConsensusRatio, w.ConsensusRatio)
	w.MaxScenarios = orInt(a.MaxScenarios, w.MaxScenarios)
	w.MinBars = orInt(a.MinBars, w.MinBars)

	if err := w.Validate(); err != nil {
		return wave.Config{}, fmt.Errorf("analyzer: %w", err)
	}
	return w, nil
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
