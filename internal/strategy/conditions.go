package strategy

import (
	"fmt"
	"strings"

	"WaveSentinel/internal/calculator"
	"WaveSentinel/internal/wave"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// TrendRule is close > SMA. It stays false until the SMA window is full.
func TrendRule(set *calculator.Set) Rule {
	over := techan.OverIndicatorRule{First: set.Close, Second: set.SMA}
	return func(index int, record *techan.TradingRecord) (bool, error) {
		if !set.SMAReady(index) {
			return false, nil
		}
		return over.IsSatisfied(index, record), nil
	}
}

// MomentumRule is RSI > rsiThreshold and MACD > macdThreshold. Each term is
// false while its indicator is unstable.
func MomentumRule(set *calculator.Set, rsiThreshold, macdThreshold float64) Rule {
	both := techan.And(
		techan.OverIndicatorRule{First: set.RSI, Second: techan.NewConstantIndicator(rsiThreshold)},
		techan.OverIndicatorRule{First: set.MACD, Second: techan.NewConstantIndicator(macdThreshold)},
	)
	return func(index int, record *techan.TradingRecord) (bool, error) {
		if !set.RSIReady(index) || !set.MACDReady(index) {
			return false, nil
		}
		return both.IsSatisfied(index, record), nil
	}
}

// ImpulseVerdict explains the outcome of the impulse gate at one bar.
type ImpulseVerdict struct {
	OK         bool
	Reason     string
	RewardRisk float64
	Base       *wave.Scenario
	Summary    wave.Summary
}

// impulseGate checks the base scenario of an analysis against the entry
// filters and the reward/risk threshold.
type impulseGate struct {
	phases map[wave.Phase]bool
	minRR  big.Decimal
}

func newImpulseGate(p Params) impulseGate {
	phases := make(map[wave.Phase]bool, len(p.TradeablePhases))
	for _, ph := range p.TradeablePhases {
		phases[ph] = true
	}
	return impulseGate{phases: phases, minRR: big.NewDecimal(p.MinRewardRisk)}
}

func (g impulseGate) check(res *wave.Result, closePrice big.Decimal) ImpulseVerdict {
	base := res.Base()
	v := ImpulseVerdict{Base: base}
	if res != nil {
		v.Summary = res.Summary
	}
	switch {
	case base == nil:
		v.Reason = "no base scenario"
		return v
	case base.Type != wave.Impulse:
		v.Reason = fmt.Sprintf("base scenario is %s", strings.ToLower(base.Type.String()))
		return v
	case !g.phases[base.Phase]:
		v.Reason = fmt.Sprintf("phase %s not tradeable", base.Phase)
		return v
	case !base.HighConfidence:
		v.Reason = fmt.Sprintf("low confidence %.2f", base.Confidence)
		return v
	case !res.Summary.StrongConsensus:
		v.Reason = fmt.Sprintf("weak consensus %.2f", res.Summary.Agreement)
		return v
	}

	invalidation := big.NewDecimal(base.InvalidationPrice)
	target := big.NewDecimal(base.PrimaryTarget)
	switch {
	case closePrice.LTE(invalidation):
		v.Reason = "close at or below invalidation"
		return v
	case closePrice.GTE(target):
		v.Reason = "close at or above target"
		return v
	}
	rr, ok := RewardRisk(closePrice, invalidation, target)
	if !ok {
		v.Reason = "non-positive risk"
		return v
	}
	v.RewardRisk = rr.Float()
	if rr.LT(g.minRR) {
		v.Reason = fmt.Sprintf("reward/risk %.2f below %.2f", v.RewardRisk, g.minRR.Float())
		return v
	}
	v.OK = true
	v.Reason = fmt.Sprintf("reward/risk %.2f", v.RewardRisk)
	return v
}
