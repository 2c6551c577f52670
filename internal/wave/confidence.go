package wave

import (
	"fmt"
	"math"

	"WaveSentinel/internal/model"
)

const (
	FactorFibonacci      = "fibonacci"
	FactorTimeProportion = "time_proportion"
	FactorAlternation    = "alternation"
	FactorChannel        = "channel"
	FactorCompleteness   = "completeness"
)

// neutralScore is used for a factor that cannot be measured on a count yet.
const neutralScore = 0.5

// Weights are the factor weights of one scenario type.
type Weights struct {
	Fibonacci      float64 `yaml:"fibonacci"`
	TimeProportion float64 `yaml:"time_proportion"`
	Alternation    float64 `yaml:"alternation"`
	Channel        float64 `yaml:"channel"`
	Completeness   float64 `yaml:"completeness"`
}

func (w Weights) Sum() float64 {
	return w.Fibonacci + w.TimeProportion + w.Alternation + w.Channel + w.Completeness
}

// ConfidenceModel scores counts. Each weight set must sum to Total and a
// score at or above HighThreshold marks the scenario high confidence.
type ConfidenceModel struct {
	Impulse       Weights
	Corrective    Weights
	Total         float64
	HighThreshold float64
}

// DefaultConfidenceModel returns the standard 0.40/0.20/0.20/0.10/0.10 impulse
// weighting with a 0.6 high-confidence threshold.
func DefaultConfidenceModel() ConfidenceModel {
	return ConfidenceModel{
		Impulse:       Weights{Fibonacci: 0.40, TimeProportion: 0.20, Alternation: 0.20, Channel: 0.10, Completeness: 0.10},
		Corrective:    Weights{Fibonacci: 0.45, TimeProportion: 0.25, Alternation: 0.10, Channel: 0.10, Completeness: 0.10},
		Total:         1.0,
		HighThreshold: 0.6,
	}
}

func (m ConfidenceModel) Validate() error {
	if m.Total <= 0 {
		return fmt.Errorf("confidence total must be positive, got %.4f", m.Total)
	}
	for name, w := range map[string]Weights{"impulse": m.Impulse, "corrective": m.Corrective} {
		if w.Fibonacci < 0 || w.TimeProportion < 0 || w.Alternation < 0 || w.Channel < 0 || w.Completeness < 0 {
			return fmt.Errorf("%s weights must not be negative", name)
		}
		if math.Abs(w.Sum()-m.Total) > 1e-6 {
			return fmt.Errorf("%s weights sum to %.4f, want %.4f", name, w.Sum(), m.Total)
		}
	}
	if m.HighThreshold < 0 || m.HighThreshold > 1 {
		return fmt.Errorf("high confidence threshold %.4f outside [0, 1]", m.HighThreshold)
	}
	return nil
}

func (m ConfidenceModel) weights(t ScenarioType) Weights {
	if t == Corrective {
		return m.Corrective
	}
	return m.Impulse
}

// Score returns the normalized confidence of c in [0, 1] with its factors.
func (m ConfidenceModel) Score(c count) (float64, []model.FactorScore) {
	w := m.weights(c.typ)
	raw := []struct {
		name   string
		weight float64
		score  float64
	}{
		{FactorFibonacci, w.Fibonacci, fibonacciScore(c)},
		{FactorTimeProportion, w.TimeProportion, timeProportionScore(c)},
		{FactorAlternation, w.Alternation, alternationScore(c)},
		{FactorChannel, w.Channel, channelScore(c)},
		{FactorCompleteness, w.Completeness, completenessScore(c)},
	}

	factors := make([]model.FactorScore, 0, len(raw))
	var total float64
	for _, f := range raw {
		weighted := f.weight * f.score
		total += weighted
		factors = append(factors, model.FactorScore{
			Name:     f.name,
			RawScore: f.score,
			Weight:   f.weight,
			Weighted: weighted,
		})
	}
	return clamp01(total / m.Total), factors
}

// ratioFit scores how close r is to the nearest of the ideal ratios.
func ratioFit(r float64, ideals ...float64) float64 {
	best := 0.0
	for _, t := range ideals {
		s := 1 - math.Min(1, math.Abs(r-t)/t)
		if s > best {
			best = s
		}
	}
	return best
}

func fibonacciScore(c count) float64 {
	k := c.waves()
	var scores []float64
	add := func(num, den float64, ideals ...float64) {
		if den > 0 {
			scores = append(scores, ratioFit(num/den, ideals...))
		}
	}
	if c.typ == Corrective {
		if k >= 2 {
			add(c.leg(2), c.leg(1), 0.5, 0.618, 0.382)
		}
		if k >= 3 {
			add(c.leg(3), c.leg(1), 1.0, 1.618, 0.618)
		}
		return mean(scores)
	}
	if k >= 2 {
		add(c.leg(2), c.leg(1), 0.5, 0.618)
	}
	if k >= 3 {
		add(c.leg(3), c.leg(1), 1.618, 2.618, 1.0)
	}
	if k >= 4 {
		add(c.leg(4), c.leg(3), 0.382, 0.236, 0.5)
	}
	if k >= 5 {
		add(c.leg(5), c.leg(1), 1.0, 0.618, 1.618)
	}
	return mean(scores)
}

// timeProportionScore rewards consecutive waves whose durations stay within
// [0.382, 2.618] of each other.
func timeProportionScore(c count) float64 {
	const lo, hi = 0.382, 2.618
	var scores []float64
	for j := 2; j <= c.waves(); j++ {
		prev, cur := c.span(j-1), c.span(j)
		if prev <= 0 || cur <= 0 {
			continue
		}
		r := float64(cur) / float64(prev)
		switch {
		case r < lo:
			scores = append(scores, r/lo)
		case r > hi:
			scores = append(scores, hi/r)
		default:
			scores = append(scores, 1)
		}
	}
	return mean(scores)
}

// alternationScore compares waves 2 and 4 in depth and duration.
func alternationScore(c count) float64 {
	if c.typ != Impulse || c.waves() < 4 || c.leg(1) == 0 || c.leg(3) == 0 {
		return neutralScore
	}
	depth2 := c.leg(2) / c.leg(1)
	depth4 := c.leg(4) / c.leg(3)
	return clamp01(0.5*relDiff(depth2, depth4) + 0.5*relDiff(float64(c.span(2)), float64(c.span(4))))
}

// channelScore measures how well the latest pivot respects the channel drawn
// from the 0-2 (or 0-B) base line through the opposite pivot.
func channelScore(c count) float64 {
	k := c.waves()
	if k < 3 {
		return neutralScore
	}
	if c.pts[2].Index == c.pts[0].Index {
		return neutralScore
	}
	slope := (c.price(2) - c.price(0)) / float64(c.pts[2].Index-c.pts[0].Index)
	at := func(anchor, j int) float64 {
		return c.price(anchor) + slope*float64(c.pts[j].Index-c.pts[anchor].Index)
	}

	if c.typ == Corrective || k == 3 {
		// Wave 3 (or C) should push through the parallel drawn at pivot 1.
		proj := at(1, 3)
		gap := float64(c.dir) * (c.price(3) - proj)
		if gap >= 0 || c.leg(1) == 0 {
			return 1
		}
		return clamp01(1 - math.Abs(gap)/c.leg(1))
	}
	// Wave 4 should end near the 0-2 base line.
	base := at(0, 4)
	if c.leg(3) == 0 {
		return neutralScore
	}
	return clamp01(1 - math.Abs(c.price(4)-base)/c.leg(3))
}

func completenessScore(c count) float64 {
	if c.typ == Corrective {
		return float64(c.waves()) / 3
	}
	return float64(c.waves()) / 5
}

func relDiff(a, b float64) float64 {
	m := math.Max(math.Abs(a), math.Abs(b))
	if m == 0 {
		return 0
	}
	return math.Abs(a-b) / m
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return neutralScore
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
