package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"WaveSentinel/internal/collector"
	"WaveSentinel/internal/metrics"
	"WaveSentinel/internal/model"
	"WaveSentinel/internal/notifier"
	"WaveSentinel/internal/position"
	"WaveSentinel/internal/recorder"
	"WaveSentinel/internal/strategy"
	"WaveSentinel/internal/wave"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sendRetries = 3

// Deps are the components a Scheduler drives. Metrics is optional.
type Deps struct {
	Collector *collector.Collector
	Positions *position.Manager
	Analyzer  wave.Analyzer
	Params    strategy.Params
	Notifier  notifier.Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
}

// Scheduler runs the evaluation task on a cron schedule and on demand.
// Evaluations never overlap.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	Ctx context.Context

	log  zerolog.Logger
	now  func() time.Time
	runs sync.Mutex

	mu        sync.RWMutex
	status    model.Status
	lastClose float64
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log}
	s := &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Deps: deps,
		Ctx:  ctx,
		log:  log,
		now:  time.Now,
	}
	s.status = model.Status{Symbol: deps.Collector.Symbol, Position: deps.Positions.State()}
	if deps.Metrics != nil {
		deps.Metrics.SetPositionOpen(s.status.Position.Open)
	}
	return s
}

// Register adds the evaluation task.
func (s *Scheduler) Register(evaluateCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.scheduledTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) scheduledTask() {
	if _, err := s.Evaluate(s.Ctx, model.TriggerScheduled); err != nil {
		s.log.Error().Err(err).Msg("scheduled evaluation failed")
	}
}

// Evaluate collects the latest bars, evaluates the last one and applies the
// resulting action to the paper position. Failures are logged, reported in
// the status and notified; nothing is recorded for a failed evaluation.
func (s *Scheduler) Evaluate(ctx context.Context, trigger model.TriggerType) (*model.Decision, error) {
	s.runs.Lock()
	defer s.runs.Unlock()

	s.log.Info().Str("trigger", string(trigger)).Msg("running evaluation")
	d, trade, err := s.evaluate(ctx, trigger)
	if err != nil {
		s.fail(ctx, err)
		return nil, err
	}

	if err := s.Recorder.RecordDecision(recorder.LiveRunID, d); err != nil {
		s.log.Error().Err(err).Msg("record decision")
	}
	report := notifier.FormatDecision(s.Params.Name, d)
	if trade != nil {
		if err := s.Recorder.RecordTrade(recorder.LiveRunID, trade); err != nil {
			s.log.Error().Err(err).Msg("record trade")
		}
		report += "\n" + notifier.FormatTrade(trade)
	}
	state := s.Positions.State()
	report += "\n" + notifier.FormatPosition(&state, d.Indicators.Close)
	s.trySend(ctx, report)

	now := s.now()
	s.mu.Lock()
	s.status.LastDecision = d
	s.status.Position = state
	s.status.LastRunAt = now
	s.status.LastError = ""
	s.lastClose = d.Indicators.Close
	s.mu.Unlock()

	if s.Metrics != nil {
		s.Metrics.ObserveDecision(d, now)
		s.Metrics.SetPositionOpen(state.Open)
	}
	return d, nil
}

func (s *Scheduler) evaluate(ctx context.Context, trigger model.TriggerType) (*model.Decision, *model.Trade, error) {
	series, err := s.Collector.Collect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("collect: %w", err)
	}
	engine, err := strategy.NewEngine(series, s.Params, s.Analyzer, strategy.WithLogger(s.log))
	if err != nil {
		return nil, nil, fmt.Errorf("build strategy: %w", err)
	}

	last := series.Len() - 1
	d, err := engine.Evaluate(last, s.Positions.TradingRecord())
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", series.Symbol, err)
	}
	d.Trigger = trigger

	bar := series.Bars[last]
	switch d.Action() {
	case model.ActionEnter:
		if err := s.Positions.Open(bar.Close, bar.Time); err != nil {
			return nil, nil, fmt.Errorf("open position: %w", err)
		}
	case model.ActionExit:
		trade, err := s.Positions.Close(bar.Close, bar.Time, d.ExitReason)
		if err != nil {
			return nil, nil, fmt.Errorf("close position: %w", err)
		}
		trade.ExitIndex = last
		return d, &trade, nil
	}
	return d, nil, nil
}

func (s *Scheduler) fail(ctx context.Context, err error) {
	s.log.Error().Err(err).Msg("evaluation failed")
	s.mu.Lock()
	s.status.LastRunAt = s.now()
	s.status.LastError = err.Error()
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.EvaluationErrors.Inc()
	}
	s.trySend(ctx, notifier.FormatError("Evaluation", err))
}

// Status returns the latest snapshot.
func (s *Scheduler) Status() model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Position = s.Positions.State()
	return st
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(command)), "@")
	switch cmd {
	case "/status":
		st := s.Status()
		if st.LastDecision == nil {
			if st.LastError != "" {
				return notifier.FormatError("Last evaluation", errors.New(st.LastError))
			}
			return "No evaluation yet. Send /evaluate to run one."
		}
		return notifier.FormatDecision(s.Params.Name, st.LastDecision)
	case "/position":
		st := s.Positions.State()
		s.mu.RLock()
		price := s.lastClose
		s.mu.RUnlock()
		return notifier.FormatPosition(&st, price)
	case "/evaluate":
		// The report, or the failure, is sent by Evaluate.
		_, _ = s.Evaluate(ctx, model.TriggerManual)
		return ""
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
