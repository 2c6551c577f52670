// Package wave provides the Elliott-wave analysis consumed by the strategy
// rules: swing detection, swing compression, scenario counting, confidence
// scoring and the invalidation/target levels of each scenario.
//
// An Analyzer is a pure function of the bar prefix it receives. Results are
// shared between callers by Cached and must be treated as read-only.
package wave

import (
	"errors"
	"fmt"
	"strings"

	"WaveSentinel/internal/model"
)

// ErrInvalidBar is returned when a bar cannot be analyzed (non-positive or
// non-finite prices, high below low).
var ErrInvalidBar = errors.New("invalid bar")

// ScenarioType classifies a wave count.
type ScenarioType int

const (
	ScenarioUnknown ScenarioType = iota
	Impulse
	Corrective
)

func (t ScenarioType) String() string {
	switch t {
	case Impulse:
		return "IMPULSE"
	case Corrective:
		return "CORRECTIVE"
	default:
		return "UNKNOWN"
	}
}

// ParseScenarioType converts "impulse" or "corrective" (any case).
func ParseScenarioType(s string) (ScenarioType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMPULSE":
		return Impulse, nil
	case "CORRECTIVE":
		return Corrective, nil
	default:
		return ScenarioUnknown, fmt.Errorf("unknown scenario type %q", s)
	}
}

// Phase is the wave the most recent price action belongs to.
type Phase int

const (
	PhaseNone Phase = iota
	Wave1
	Wave2
	Wave3
	Wave4
	Wave5
	WaveA
	WaveB
	WaveC
)

var phaseNames = map[Phase]string{
	PhaseNone: "NONE",
	Wave1:     "WAVE1",
	Wave2:     "WAVE2",
	Wave3:     "WAVE3",
	Wave4:     "WAVE4",
	Wave5:     "WAVE5",
	WaveA:     "WAVEA",
	WaveB:     "WAVEB",
	WaveC:     "WAVEC",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "NONE"
}

// ParsePhase converts a phase name such as "WAVE3" (any case).
func ParsePhase(s string) (Phase, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for p, name := range phaseNames {
		if name == want {
			return p, nil
		}
	}
	return PhaseNone, fmt.Errorf("unknown phase %q", s)
}

// Direction is the direction of the pattern's first wave.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

func (d Direction) String() string {
	if d == Down {
		return "DOWN"
	}
	return "UP"
}

// Scenario is one interpretation of the recent swings. Swings holds the
// confirmed pivots of the count, pattern origin first.
type Scenario struct {
	Type              ScenarioType        `json:"type"`
	Direction         Direction           `json:"direction"`
	Phase             Phase               `json:"phase"`
	Swings            []Swing             `json:"swings"`
	Confidence        float64             `json:"confidence"`
	Factors           []model.FactorScore `json:"factors"`
	HighConfidence    bool                `json:"high_confidence"`
	InvalidationPrice float64             `json:"invalidation_price"`
	PrimaryTarget     float64             `json:"primary_target"`
	Targets           []float64           `json:"targets"`
	ExpectsCompletion bool                `json:"expects_completion"`
	Invalidated       bool                `json:"invalidated"`
}

// Summary describes the agreement among the generated scenarios.
type Summary struct {
	ScenarioCount   int     `json:"scenario_count"`
	Agreement       float64 `json:"agreement"`
	StrongConsensus bool    `json:"strong_consensus"`
}

// Result is the analysis of one bar prefix.
type Result struct {
	BarCount  int        `json:"bar_count"`
	Scenarios []Scenario `json:"scenarios"`
	Summary   Summary    `json:"summary"`
}

// Base returns the highest ranked scenario, or nil when none was found.
func (r *Result) Base() *Scenario {
	if r == nil || len(r.Scenarios) == 0 {
		return nil
	}
	return &r.Scenarios[0]
}

// Analyzer analyzes a bar prefix ordered oldest first.
// Insufficient history yields an empty result, not an error.
type Analyzer interface {
	Analyze(bars []model.OHLCV) (*Result, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(bars []model.OHLCV) (*Result, error)

func (f AnalyzerFunc) Analyze(bars []model.OHLCV) (*Result, error) { return f(bars) }
