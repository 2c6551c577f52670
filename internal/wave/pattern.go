package wave

import (
	"fmt"
	"math"
	"strings"
)

// PatternSet restricts the scenario types the analyzer generates.
type PatternSet struct {
	Impulse    bool
	Corrective bool
}

// ParsePatternSet builds a set from names such as "impulse" and "corrective".
// An empty list selects impulses only.
func ParsePatternSet(names []string) (PatternSet, error) {
	if len(names) == 0 {
		return PatternSet{Impulse: true}, nil
	}
	var ps PatternSet
	for _, n := range names {
		t, err := ParseScenarioType(n)
		if err != nil {
			return PatternSet{}, err
		}
		switch t {
		case Impulse:
			ps.Impulse = true
		case Corrective:
			ps.Corrective = true
		}
	}
	return ps, nil
}

func (ps PatternSet) Empty() bool { return !ps.Impulse && !ps.Corrective }

func (ps PatternSet) String() string {
	var parts []string
	if ps.Impulse {
		parts = append(parts, "impulse")
	}
	if ps.Corrective {
		parts = append(parts, "corrective")
	}
	return strings.Join(parts, ",")
}

// count is a rule-valid wave count before scoring. pts[0] is the pattern
// origin and len(pts)-1 waves are confirmed.
type count struct {
	typ ScenarioType
	dir Direction
	pts []Swing
}

func (c count) waves() int { return len(c.pts) - 1 }

// v returns the price of pivot j signed by direction so every rule reads as
// if the pattern were bullish.
func (c count) v(j int) float64 { return float64(c.dir) * c.pts[j].Price }

func (c count) price(j int) float64 { return c.pts[j].Price }

// leg returns the absolute length of wave j (pivot j-1 to pivot j).
func (c count) leg(j int) float64 { return math.Abs(c.pts[j].Price - c.pts[j-1].Price) }

// span returns the bar duration of wave j.
func (c count) span(j int) int { return c.pts[j].Index - c.pts[j-1].Index }

func directionOf(origin Swing) Direction {
	if origin.Kind == SwingHigh {
		return Down
	}
	return Up
}

// impulseCounts tries every origin among the last six swings and keeps the
// counts that satisfy the impulse rules for the waves confirmed so far.
func impulseCounts(swings []Swing) []count {
	var out []count
	m := len(swings)
	for s := max(0, m-6); s <= m-2; s++ {
		c := count{typ: Impulse, dir: directionOf(swings[s]), pts: swings[s:]}
		if validImpulse(c) {
			out = append(out, c)
		}
	}
	return out
}

func validImpulse(c count) bool {
	k := c.waves()
	if k < 1 || k > 5 {
		return false
	}
	if c.v(1) <= c.v(0) {
		return false
	}
	// Wave 2 never retraces beyond the origin of wave 1.
	if k >= 2 && !(c.v(2) > c.v(0) && c.v(2) < c.v(1)) {
		return false
	}
	if k >= 3 && c.v(3) <= c.v(1) {
		return false
	}
	// Wave 4 never enters the price territory of wave 1.
	if k >= 4 && !(c.v(4) > c.v(1) && c.v(4) < c.v(3)) {
		return false
	}
	if k == 5 {
		if c.v(5) <= c.v(4) {
			return false
		}
		// Wave 3 is never the shortest.
		if c.leg(3) < c.leg(1) && c.leg(3) < c.leg(5) {
			return false
		}
	}
	return true
}

// correctiveCounts tries every origin among the last four swings for a
// zig-zag A-B-C.
func correctiveCounts(swings []Swing) []count {
	var out []count
	m := len(swings)
	for s := max(0, m-4); s <= m-2; s++ {
		c := count{typ: Corrective, dir: directionOf(swings[s]), pts: swings[s:]}
		if validZigzag(c) {
			out = append(out, c)
		}
	}
	return out
}

func validZigzag(c count) bool {
	k := c.waves()
	if k < 1 || k > 3 {
		return false
	}
	if c.v(1) <= c.v(0) {
		return false
	}
	if k >= 2 && !(c.v(2) > c.v(0) && c.v(2) < c.v(1)) {
		return false
	}
	if k == 3 && c.v(3) <= c.v(1) {
		return false
	}
	return true
}

// levels holds the phase in progress, the invalidation price and the
// Fibonacci targets of a count. Targets[0] is the primary target.
type levels struct {
	phase             Phase
	invalidation      float64
	targets           []float64
	expectsCompletion bool
}

func (c count) levels(lastClose float64) levels {
	d := float64(c.dir)
	k := c.waves()
	var lv levels
	if c.typ == Corrective {
		lenA := c.leg(1)
		switch k {
		case 1:
			lv.phase = WaveB
			lv.invalidation = c.price(0)
			lv.targets = project(c.price(1), -d*lenA, 0.618, 0.5, 0.786)
		case 2:
			lv.phase = WaveC
			lv.invalidation = c.price(2)
			lv.targets = project(c.price(2), d*lenA, 1.0, 1.618, 0.618)
			lv.expectsCompletion = d*(lastClose-lv.targets[0]) >= 0
		default:
			whole := math.Abs(c.price(3) - c.price(0))
			lv.phase = WaveC
			lv.invalidation = c.price(2)
			lv.targets = project(c.price(3), -d*whole, 0.618, 0.5, 0.786)
			lv.expectsCompletion = true
		}
		return lv
	}

	len1 := c.leg(1)
	switch k {
	case 1:
		lv.phase = Wave2
		lv.invalidation = c.price(0)
		lv.targets = project(c.price(1), -d*len1, 0.618, 0.5, 0.786)
	case 2:
		lv.phase = Wave3
		lv.invalidation = c.price(2)
		lv.targets = project(c.price(2), d*len1, 1.618, 1.0, 2.618)
	case 3:
		len3 := c.leg(3)
		lv.phase = Wave4
		lv.invalidation = c.price(1)
		lv.targets = project(c.price(3), -d*len3, 0.382, 0.236, 0.5)
	case 4:
		lv.phase = Wave5
		lv.invalidation = c.price(4)
		lv.targets = []float64{
			c.price(4) + d*len1,
			c.price(4) + d*0.618*math.Abs(c.price(3)-c.price(0)),
			c.price(4) + d*1.618*len1,
		}
		lv.expectsCompletion = d*(lastClose-lv.targets[0]) >= 0
	default:
		whole := math.Abs(c.price(5) - c.price(0))
		lv.phase = Wave5
		lv.invalidation = c.price(4)
		lv.targets = project(c.price(5), -d*whole, 0.382, 0.5, 0.618)
		lv.expectsCompletion = true
	}
	return lv
}

// project returns from + move*ratio for each ratio.
func project(from, move float64, ratios ...float64) []float64 {
	out := make([]float64, len(ratios))
	for i, r := range ratios {
		out[i] = from + move*r
	}
	return out
}

func (c count) String() string {
	return fmt.Sprintf("%s %s from #%d (%d waves)", c.typ, c.dir, c.pts[0].Index, c.waves())
}
