package model

import "time"

// TriggerType indicates what triggered an evaluation.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerBacktest  TriggerType = "BACKTEST"
)

// Action is the outcome of evaluating one bar.
type Action string

const (
	ActionHold  Action = "HOLD"
	ActionEnter Action = "ENTER"
	ActionExit  Action = "EXIT"
)

// ExitReason names the exit condition that fired.
type ExitReason string

const (
	ExitNone                ExitReason = ""
	ExitScenarioComplete    ExitReason = "scenario_complete"
	ExitScenarioInvalidated ExitReason = "scenario_invalidated"
	ExitStopBreach          ExitReason = "stop_breach"
	ExitMomentumReversal    ExitReason = "momentum_reversal"
	ExitEndOfData           ExitReason = "end_of_data"
)

// ScenarioView is a flattened copy of the base wave scenario used for reports.
type ScenarioView struct {
	Type              string  `json:"type"`
	Phase             string  `json:"phase"`
	Confidence        float64 `json:"confidence"`
	HighConfidence    bool    `json:"high_confidence"`
	StrongConsensus   bool    `json:"strong_consensus"`
	InvalidationPrice float64 `json:"invalidation_price"`
	PrimaryTarget     float64 `json:"primary_target"`
	ExpectsCompletion bool    `json:"expects_completion"`
	Invalidated       bool    `json:"invalidated"`
}

// Decision is the full breakdown of one bar's evaluation.
type Decision struct {
	Symbol       string            `json:"symbol"`
	Index        int               `json:"index"`
	Time         time.Time         `json:"time"`
	Indicators   IndicatorSnapshot `json:"indicators"`
	Trend        bool              `json:"trend"`
	Momentum     bool              `json:"momentum"`
	Impulse      bool              `json:"impulse"`
	ImpulseNote  string            `json:"impulse_note"`
	RewardRisk   float64           `json:"reward_risk"`
	PositionOpen bool              `json:"position_open"`
	Enter        bool              `json:"enter"`
	Exit         bool              `json:"exit"`
	ExitReason   ExitReason        `json:"exit_reason,omitempty"`
	Scenario     *ScenarioView     `json:"scenario,omitempty"`
	Trigger      TriggerType       `json:"trigger"`
}

// Action returns the action implied by the decision for the current position.
func (d *Decision) Action() Action {
	switch {
	case d.PositionOpen && d.Exit:
		return ActionExit
	case !d.PositionOpen && d.Enter:
		return ActionEnter
	default:
		return ActionHold
	}
}
