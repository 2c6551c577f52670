package strategy

import (
	"errors"
	"fmt"

	"WaveSentinel/internal/calculator"
	"WaveSentinel/internal/wave"
)

// DefaultName is the display name of the strategy.
const DefaultName = "High-Reward Elliott Wave Strategy"

// Params configures the condition rules.
type Params struct {
	Name            string
	Periods         calculator.Periods
	RSIThreshold    float64
	MACDThreshold   float64
	MinRewardRisk   float64
	TradeablePhases []wave.Phase
}

func DefaultParams() Params {
	return Params{
		Name:            DefaultName,
		Periods:         calculator.DefaultPeriods(),
		RSIThreshold:    50,
		MACDThreshold:   0,
		MinRewardRisk:   3,
		TradeablePhases: []wave.Phase{wave.Wave3, wave.Wave5},
	}
}

func (p Params) Validate() error {
	if err := p.Periods.Validate(); err != nil {
		return err
	}
	if p.RSIThreshold < 0 || p.RSIThreshold > 100 {
		return fmt.Errorf("rsi threshold %.2f outside [0, 100]", p.RSIThreshold)
	}
	if p.MinRewardRisk <= 0 {
		return errors.New("min reward/risk must be positive")
	}
	if len(p.TradeablePhases) == 0 {
		return errors.New("no tradeable phases")
	}
	return nil
}
