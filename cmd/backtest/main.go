package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"WaveSentinel/internal/app"
	"WaveSentinel/internal/backtest"
	"WaveSentinel/internal/collector"
	"WaveSentinel/internal/config"
	"WaveSentinel/internal/logging"
	"WaveSentinel/internal/model"
	"WaveSentinel/internal/notifier"
	"WaveSentinel/internal/strategy"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath    = flag.String("config", "configs/config.yaml", "config file")
		symbol     = flag.String("symbol", "", "symbol to test (default from config)")
		bars       = flag.Int("bars", 0, "number of bars to load (default from config)")
		closeAtEnd = flag.Bool("close-at-end", true, "close an open position on the last bar")
		record     = flag.Bool("record", false, "store the run, its trades and decisions in SQLite")
		asJSON     = flag.Bool("json", false, "print the summary and trades as JSON")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *symbol != "" {
		cfg.DataSource.Symbol = *symbol
	}
	if *bars > 0 {
		cfg.DataSource.Bars = *bars
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	if err != nil {
		return err
	}
	series, err := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.Interval(), cfg.DataSource.Bars, log).Collect(ctx)
	if err != nil {
		return err
	}

	analyzer, err := app.NewAnalyzer(ctx, cfg, nil, logging.Component(log, "wave"))
	if err != nil {
		return err
	}
	defer analyzer.Close()

	params, err := cfg.StrategyParams()
	if err != nil {
		return err
	}
	engine, err := strategy.NewEngine(series, params, analyzer, strategy.WithLogger(log))
	if err != nil {
		return err
	}

	opts := backtest.Options{Capital: cfg.Position.Capital, CloseAtEnd: *closeAtEnd, KeepDecisions: *record}
	res, err := backtest.NewRunner(engine, opts, log).Run(ctx)
	if err != nil {
		return err
	}

	if *record {
		rec := app.NewRecorder(cfg.Database.SQLitePath, log)
		defer rec.Close()
		if err := backtest.Persist(rec, res); err != nil {
			return err
		}
		log.Info().Str("run", res.Summary.RunID).Str("db", cfg.Database.SQLitePath).Msg("run recorded")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary model.BacktestSummary `json:"summary"`
			Trades  []model.Trade         `json:"trades"`
		}{res.Summary, res.Trades})
	}
	fmt.Print(stripTags(notifier.FormatBacktest(&res.Summary)))
	for i := range res.Trades {
		fmt.Println()
		fmt.Print(stripTags(notifier.FormatTrade(&res.Trades[i])))
	}
	return nil
}
