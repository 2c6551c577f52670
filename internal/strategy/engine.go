package strategy

import (
	"fmt"

	"WaveSentinel/internal/calculator"
	"WaveSentinel/internal/model"
	"WaveSentinel/internal/wave"

	"github.com/rs/zerolog"
	"github.com/sdcoffey/techan"
)

// Engine composes the condition rules over one price series.
//
// The techan indicators cache values internally, so an Engine must be used by
// one goroutine at a time. Engines built over different series are
// independent.
type Engine struct {
	series   *model.PriceSeries
	set      *calculator.Set
	analyzer wave.Analyzer
	params   Params
	gate     impulseGate
	log      zerolog.Logger

	trend    Rule
	momentum Rule
	impulse  Rule
	entry    Rule
	exit     Rule
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds the indicators and rules for series.
func NewEngine(series *model.PriceSeries, params Params, analyzer wave.Analyzer, opts ...Option) (*Engine, error) {
	if series == nil {
		return nil, fmt.Errorf("nil price series")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("nil wave analyzer")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("strategy params: %w", err)
	}
	set, err := calculator.NewSet(calculator.ToTimeSeries(series.Bars, 0), params.Periods)
	if err != nil {
		return nil, fmt.Errorf("build indicators: %w", err)
	}

	e := &Engine{
		series:   series,
		set:      set,
		analyzer: analyzer,
		params:   params,
		gate:     newImpulseGate(params),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	e.trend = TrendRule(set)
	e.momentum = MomentumRule(set, params.RSIThreshold, params.MACDThreshold)
	e.impulse = e.impulseRule
	// Cheap indicator filters run first so the analyzer only sees bars that
	// already pass them.
	e.entry = And(e.trend, e.momentum, e.impulse)
	e.exit = e.exitRule
	return e, nil
}

// Series returns the price series the engine evaluates.
func (e *Engine) Series() *model.PriceSeries { return e.series }

// Indicators returns the indicator set.
func (e *Engine) Indicators() *calculator.Set { return e.set }

// UnstablePeriod returns the first index at which every indicator is ready.
func (e *Engine) UnstablePeriod() int { return e.set.UnstablePeriod() }

func (e *Engine) Trend() Rule    { return e.trend }
func (e *Engine) Momentum() Rule { return e.momentum }
func (e *Engine) Impulse() Rule  { return e.impulse }
func (e *Engine) Entry() Rule    { return e.entry }
func (e *Engine) Exit() Rule     { return e.exit }

// ShouldEnter evaluates the entry conjunction at index.
func (e *Engine) ShouldEnter(index int, record *techan.TradingRecord) (bool, error) {
	return e.entry(index, record)
}

// ShouldExit evaluates the exit rule at index.
func (e *Engine) ShouldExit(index int, record *techan.TradingRecord) (bool, error) {
	return e.exit(index, record)
}

// analyze runs the analyzer on bars [0, index]. A nil result means the index
// is outside the series.
func (e *Engine) analyze(index int) (*wave.Result, error) {
	if index < 0 || index >= e.series.Len() {
		return nil, nil
	}
	res, err := e.analyzer.Analyze(e.series.Prefix(index))
	if err != nil {
		return nil, fmt.Errorf("analyze prefix %d: %w", index, err)
	}
	return res, nil
}

// CheckImpulse runs the impulse gate at index and explains the outcome.
func (e *Engine) CheckImpulse(index int) (ImpulseVerdict, error) {
	res, err := e.analyze(index)
	if err != nil {
		return ImpulseVerdict{Reason: "analysis failed"}, err
	}
	if res == nil {
		return ImpulseVerdict{Reason: "index out of range"}, nil
	}
	return e.gate.check(res, e.set.Close.Calculate(index)), nil
}

func (e *Engine) impulseRule(index int, _ *techan.TradingRecord) (bool, error) {
	v, err := e.CheckImpulse(index)
	if err != nil {
		return false, err
	}
	return v.OK, nil
}

// CheckExit evaluates the exit state machine at index and names the condition
// that fired. While flat it returns false without analyzing.
func (e *Engine) CheckExit(index int, record *techan.TradingRecord) (bool, model.ExitReason, error) {
	if !isOpen(record) {
		return false, model.ExitNone, nil
	}
	res, err := e.analyze(index)
	if err != nil {
		return false, model.ExitNone, err
	}
	if base := res.Base(); base != nil {
		switch {
		case base.ExpectsCompletion:
			return true, model.ExitScenarioComplete, nil
		case base.Invalidated:
			return true, model.ExitScenarioInvalidated, nil
		case e.set.ClosePrice(index) <= base.InvalidationPrice:
			return true, model.ExitStopBreach, nil
		}
	}
	momentum, err := e.momentum(index, record)
	if err != nil {
		return false, model.ExitNone, err
	}
	if !momentum {
		return true, model.ExitMomentumReversal, nil
	}
	return false, model.ExitNone, nil
}

func (e *Engine) exitRule(index int, record *techan.TradingRecord) (bool, error) {
	ok, _, err := e.CheckExit(index, record)
	return ok, err
}

// Evaluate returns the full decision breakdown at index. Every condition is
// evaluated so the report is complete; Enter and Exit carry the same values
// as the entry and exit rules.
func (e *Engine) Evaluate(index int, record *techan.TradingRecord) (*model.Decision, error) {
	if index < 0 || index >= e.series.Len() {
		return nil, fmt.Errorf("index %d outside series of %d bars", index, e.series.Len())
	}
	d := &model.Decision{
		Symbol:       e.series.Symbol,
		Index:        index,
		Time:         e.series.Bars[index].Time,
		Indicators:   e.set.Snapshot(index),
		PositionOpen: isOpen(record),
	}

	var err error
	if d.Trend, err = e.trend(index, record); err != nil {
		return nil, err
	}
	if d.Momentum, err = e.momentum(index, record); err != nil {
		return nil, err
	}
	verdict, err := e.CheckImpulse(index)
	if err != nil {
		return nil, err
	}
	d.Impulse = verdict.OK
	d.ImpulseNote = verdict.Reason
	d.RewardRisk = verdict.RewardRisk
	if b := verdict.Base; b != nil {
		d.Scenario = &model.ScenarioView{
			Type:              b.Type.String(),
			Phase:             b.Phase.String(),
			Confidence:        b.Confidence,
			HighConfidence:    b.HighConfidence,
			StrongConsensus:   verdict.Summary.StrongConsensus,
			InvalidationPrice: b.InvalidationPrice,
			PrimaryTarget:     b.PrimaryTarget,
			ExpectsCompletion: b.ExpectsCompletion,
			Invalidated:       b.Invalidated,
		}
	}
	d.Enter = d.Trend && d.Momentum && d.Impulse

	if d.Exit, d.ExitReason, err = e.CheckExit(index, record); err != nil {
		return nil, err
	}

	e.log.Debug().
		Str("symbol", d.Symbol).
		Int("index", index).
		Bool("trend", d.Trend).
		Bool("momentum", d.Momentum).
		Bool("impulse", d.Impulse).
		Str("note", d.ImpulseNote).
		Str("action", string(d.Action())).
		Msg("bar evaluated")
	return d, nil
}
