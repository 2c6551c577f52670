// Package app wires the components shared by the commands.
package app

import (
	"context"
	"fmt"

	"WaveSentinel/internal/cache"
	"WaveSentinel/internal/config"
	"WaveSentinel/internal/metrics"
	"WaveSentinel/internal/recorder"
	"WaveSentinel/internal/wave"

	"github.com/rs/zerolog"
)

// Analyzer is the assembled wave analyzer and the resources behind it.
type Analyzer struct {
	wave.Analyzer
	Store *cache.RedisStore
}

// Close releases the Redis connection, if any.
func (a *Analyzer) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// NewAnalyzer builds the reference analyzer behind the memoizing cache. When
// Redis is enabled but unreachable the cache runs memory-only. m may be nil.
func NewAnalyzer(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*Analyzer, error) {
	wcfg, err := cfg.WaveConfig()
	if err != nil {
		return nil, err
	}
	ref, err := wave.New(wcfg)
	if err != nil {
		return nil, fmt.Errorf("build wave analyzer: %w", err)
	}

	var inner wave.Analyzer = ref
	opts := []wave.CacheOption{wave.WithCacheLogger(log)}
	if m != nil {
		inner = metrics.InstrumentAnalyzer(ref, m)
		opts = append(opts, wave.WithObserver(m))
	}

	out := &Analyzer{}
	if cfg.Redis.Enabled {
		store, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, wave cache is memory-only")
		} else {
			out.Store = store
			ns := cache.Namespace(cfg.DataSource.Symbol, string(cfg.Interval()), wcfg)
			opts = append(opts, wave.WithStore(store, ns))
			log.Info().Str("addr", cfg.Redis.Addr).Str("namespace", ns).Msg("wave cache backed by redis")
		}
	}
	out.Analyzer = wave.NewCached(inner, cfg.Analyzer.CacheSize, opts...)
	return out, nil
}

// NewRecorder opens the SQLite recorder, falling back to the no-op recorder
// when the path is empty or the database cannot be opened.
func NewRecorder(path string, log zerolog.Logger) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
