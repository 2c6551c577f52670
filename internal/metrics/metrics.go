// Package metrics exposes Prometheus metrics for the strategy pipeline.
package metrics

import (
	"net/http"
	"time"

	"WaveSentinel/internal/model"
	"WaveSentinel/internal/wave"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wavesentinel"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Analyses         *prometheus.CounterVec // labels: result
	AnalysisDuration prometheus.Histogram
	CacheHits        *prometheus.CounterVec // labels: layer
	CacheMisses      prometheus.Counter
	Evaluations      *prometheus.CounterVec // labels: trigger
	EvaluationErrors prometheus.Counter
	Signals          *prometheus.CounterVec // labels: action, reason
	PositionOpen     prometheus.Gauge
	LastEvaluation   prometheus.Gauge
}

// New registers every collector plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wave_analyses_total",
			Help:      "Wave analyses run, by result",
		}, []string{"result"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wave_analysis_duration_seconds",
			Help:      "Wave analysis latency per bar prefix",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wave_cache_hits_total",
			Help:      "Wave cache hits, by layer",
		}, []string{"layer"}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wave_cache_misses_total",
			Help:      "Wave cache misses",
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Strategy evaluations, by trigger",
		}, []string{"trigger"}),
		EvaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Strategy evaluations that failed",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Entry and exit signals, by action and exit reason",
		}, []string{"action", "reason"}),
		PositionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "position_open",
			Help:      "1 while the paper position is open",
		}),
		LastEvaluation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_evaluation_timestamp_seconds",
			Help:      "Unix time of the last successful evaluation",
		}),
	}
	m.registry.MustRegister(
		m.Analyses, m.AnalysisDuration, m.CacheHits, m.CacheMisses,
		m.Evaluations, m.EvaluationErrors, m.Signals, m.PositionOpen, m.LastEvaluation,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(layer string) { m.CacheHits.WithLabelValues(layer).Inc() }

func (m *Metrics) CacheMiss() { m.CacheMisses.Inc() }

var _ wave.CacheObserver = (*Metrics)(nil)

// ObserveDecision counts a successful evaluation and the signal it produced.
func (m *Metrics) ObserveDecision(d *model.Decision, at time.Time) {
	m.Evaluations.WithLabelValues(string(d.Trigger)).Inc()
	m.LastEvaluation.Set(float64(at.Unix()))
	switch d.Action() {
	case model.ActionEnter:
		m.Signals.WithLabelValues(string(model.ActionEnter), "").Inc()
	case model.ActionExit:
		m.Signals.WithLabelValues(string(model.ActionExit), string(d.ExitReason)).Inc()
	}
}

// SetPositionOpen updates the open-position gauge.
func (m *Metrics) SetPositionOpen(open bool) {
	if open {
		m.PositionOpen.Set(1)
		return
	}
	m.PositionOpen.Set(0)
}

type instrumented struct {
	inner wave.Analyzer
	m     *Metrics
}

// InstrumentAnalyzer counts and times every call to inner.
func InstrumentAnalyzer(inner wave.Analyzer, m *Metrics) wave.Analyzer {
	return &instrumented{inner: inner, m: m}
}

func (a *instrumented) Analyze(bars []model.OHLCV) (*wave.Result, error) {
	start := time.Now()
	res, err := a.inner.Analyze(bars)
	a.m.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.m.Analyses.WithLabelValues("error").Inc()
		return nil, err
	}
	a.m.Analyses.WithLabelValues("ok").Inc()
	return res, nil
}
