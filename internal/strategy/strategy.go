// Package strategy implements the High-Reward Elliott Wave decision logic:
// a trend filter, a momentum confirmation and an impulse gate with a minimum
// reward/risk, combined into entry and exit rules.
package strategy

import (
	"WaveSentinel/internal/model"
	"WaveSentinel/internal/wave"

	"github.com/sdcoffey/techan"
)

// Strategy pairs a display name with entry and exit rules. UnstablePeriod
// is the first index at which every indicator is ready.
type Strategy struct {
	Name           string
	Entry          Rule
	Exit           Rule
	UnstablePeriod int
}

// Strategy returns the named entry/exit pair of the engine.
func (e *Engine) Strategy() Strategy {
	name := e.params.Name
	if name == "" {
		name = DefaultName
	}
	return Strategy{
		Name:           name,
		Entry:          e.entry,
		Exit:           e.exit,
		UnstablePeriod: e.UnstablePeriod(),
	}
}

// Build constructs the strategy for series.
func Build(series *model.PriceSeries, params Params, analyzer wave.Analyzer, opts ...Option) (Strategy, error) {
	e, err := NewEngine(series, params, analyzer, opts...)
	if err != nil {
		return Strategy{}, err
	}
	return e.Strategy(), nil
}

// Techan adapts s to a techan.RuleStrategy. Rule errors go to onErr and the
// failing rule reports false. techan only acts on indices strictly above its
// UnstablePeriod, so it receives the last unstable index.
func (s Strategy) Techan(onErr func(index int, err error)) techan.RuleStrategy {
	return techan.RuleStrategy{
		EntryRule:      s.Entry.Techan(onErr),
		ExitRule:       s.Exit.Techan(onErr),
		UnstablePeriod: s.UnstablePeriod - 1,
	}
}
