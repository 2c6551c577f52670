package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WaveSentinel/internal/api"
	"WaveSentinel/internal/app"
	"WaveSentinel/internal/collector"
	"WaveSentinel/internal/config"
	"WaveSentinel/internal/logging"
	"WaveSentinel/internal/metrics"
	"WaveSentinel/internal/notifier"
	"WaveSentinel/internal/position"
	"WaveSentinel/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wavesentinel: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	log.Info().Str("symbol", cfg.DataSource.Symbol).Msg("WaveSentinel starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	if err != nil {
		return err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.Interval(), cfg.DataSource.Bars, logging.Component(log, "collector"))

	pm, err := position.NewManager(cfg.Position.StateFile, cfg.DataSource.Symbol, cfg.Position.Capital, logging.Component(log, "position"))
	if err != nil {
		return fmt.Errorf("init position manager: %w", err)
	}

	m := metrics.New()
	analyzer, err := app.NewAnalyzer(ctx, cfg, m, logging.Component(log, "wave"))
	if err != nil {
		return err
	}
	defer analyzer.Close()

	params, err := cfg.StrategyParams()
	if err != nil {
		return err
	}

	rec := app.NewRecorder(cfg.Database.SQLitePath, logging.Component(log, "recorder"))
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logging.Component(log, "telegram"))

	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector: col,
		Positions: pm,
		Analyzer:  analyzer,
		Params:    params,
		Notifier:  tn,
		Recorder:  rec,
		Metrics:   m,
	}, logging.Component(log, "scheduler"))
	if err := sched.Register(cfg.Schedule.EvaluateCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	var srv *api.Server
	if cfg.API.Enabled {
		srv = api.NewServer(cfg.API.Addr, sched, m.Handler(), logging.Component(log, "api"))
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, evaluating now")
		go sched.HandleCommand(ctx, "/evaluate")
	}

	log.Info().Msg("WaveSentinel is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	return nil
}
