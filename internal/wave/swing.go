package wave

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"WaveSentinel/internal/calculator"
	"WaveSentinel/internal/model"
)

// SwingKind tells a swing high from a swing low.
type SwingKind int

const (
	SwingLow SwingKind = iota
	SwingHigh
)

func (k SwingKind) String() string {
	if k == SwingHigh {
		return "HIGH"
	}
	return "LOW"
}

// Swing is a confirmed price pivot.
type Swing struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
}

// Detector finds swing pivots in a bar prefix.
type Detector interface {
	Detect(bars []model.OHLCV) ([]Swing, error)
}

// AdaptiveZigZag confirms a pivot once price reverses from the running extreme
// by a threshold derived from ATR: clamp(ATRMultiplier*ATR/close, Min, Max).
type AdaptiveZigZag struct {
	ATRPeriod     int
	ATRMultiplier float64
	MinThreshold  float64
	MaxThreshold  float64
}

// Validate checks the threshold band.
func (z AdaptiveZigZag) Validate() error {
	if z.ATRPeriod <= 0 {
		return errors.New("zigzag: atr period must be positive")
	}
	if z.MinThreshold <= 0 || z.MaxThreshold < z.MinThreshold {
		return fmt.Errorf("zigzag: invalid threshold band [%.4f, %.4f]", z.MinThreshold, z.MaxThreshold)
	}
	if z.ATRMultiplier <= 0 {
		return errors.New("zigzag: atr multiplier must be positive")
	}
	return nil
}

func (z AdaptiveZigZag) threshold(atr []float64, bars []model.OHLCV, i int) float64 {
	if atr[i] <= 0 || bars[i].Close <= 0 {
		return z.MinThreshold
	}
	th := z.ATRMultiplier * atr[i] / bars[i].Close
	if th < z.MinThreshold {
		return z.MinThreshold
	}
	if th > z.MaxThreshold {
		return z.MaxThreshold
	}
	return th
}

func (z AdaptiveZigZag) Detect(bars []model.OHLCV) ([]Swing, error) {
	if err := z.Validate(); err != nil {
		return nil, err
	}
	if len(bars) < 2 {
		return nil, nil
	}
	atr, err := calculator.ATR(bars, z.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("zigzag atr: %w", err)
	}

	var swings []Swing
	emit := func(idx int, price float64, kind SwingKind) {
		swings = append(swings, Swing{Index: idx, Time: bars[idx].Time, Price: price, Kind: kind})
	}

	dir := 0
	hiIdx, hiPrice := 0, bars[0].High
	loIdx, loPrice := 0, bars[0].Low
	for i := 1; i < len(bars); i++ {
		th := z.threshold(atr, bars, i)
		b := bars[i]
		switch dir {
		case 0:
			if b.High > hiPrice {
				hiIdx, hiPrice = i, b.High
			}
			if b.Low < loPrice {
				loIdx, loPrice = i, b.Low
			}
			if hiPrice < loPrice*(1+th) {
				continue
			}
			if loIdx < hiIdx {
				emit(loIdx, loPrice, SwingLow)
				dir = 1
			} else {
				emit(hiIdx, hiPrice, SwingHigh)
				dir = -1
			}
		case 1:
			if b.High > hiPrice {
				hiIdx, hiPrice = i, b.High
			} else if b.Low <= hiPrice*(1-th) {
				emit(hiIdx, hiPrice, SwingHigh)
				dir = -1
				loIdx, loPrice = i, b.Low
			}
		case -1:
			if b.Low < loPrice {
				loIdx, loPrice = i, b.Low
			} else if b.High >= loPrice*(1+th) {
				emit(loIdx, loPrice, SwingLow)
				dir = 1
				hiIdx, hiPrice = i, b.High
			}
		}
	}
	return swings, nil
}

// Fractal marks bar i as a swing high (low) when its high (low) is strictly
// beyond every other bar of the centered Window. The last Window/2 bars can
// never be confirmed.
type Fractal struct {
	Window int
}

// Validate requires an odd window of at least three bars.
func (f Fractal) Validate() error {
	if f.Window < 3 || f.Window%2 == 0 {
		return fmt.Errorf("fractal: window must be odd and >= 3, got %d", f.Window)
	}
	return nil
}

func (f Fractal) Detect(bars []model.OHLCV) ([]Swing, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	side := f.Window / 2
	var swings []Swing
	for i := side; i+side < len(bars); i++ {
		leftHigh, leftLow, err := calculator.WindowRange(bars, i-side, i)
		if err != nil {
			return nil, err
		}
		rightHigh, rightLow, err := calculator.WindowRange(bars, i+1, i+side+1)
		if err != nil {
			return nil, err
		}
		if bars[i].High > leftHigh && bars[i].High > rightHigh {
			swings = append(swings, Swing{Index: i, Time: bars[i].Time, Price: bars[i].High, Kind: SwingHigh})
		}
		if bars[i].Low < leftLow && bars[i].Low < rightLow {
			swings = append(swings, Swing{Index: i, Time: bars[i].Time, Price: bars[i].Low, Kind: SwingLow})
		}
	}
	return swings, nil
}

// CompositeMode selects how a Composite combines its detectors.
type CompositeMode int

const (
	// ModeAll keeps the first detector's swings confirmed by every other detector.
	ModeAll CompositeMode = iota
	// ModeAny keeps the union of all detectors.
	ModeAny
)

// ParseCompositeMode converts "all" or "any".
func ParseCompositeMode(s string) (CompositeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "and", "":
		return ModeAll, nil
	case "any", "or":
		return ModeAny, nil
	default:
		return ModeAll, fmt.Errorf("unknown composite mode %q", s)
	}
}

// Composite combines detectors. Two swings match when they are of the same
// kind and at most Tolerance bars apart.
type Composite struct {
	Detectors []Detector
	Mode      CompositeMode
	Tolerance int
}

func (c Composite) Detect(bars []model.OHLCV) ([]Swing, error) {
	if len(c.Detectors) == 0 {
		return nil, errors.New("composite: no detectors")
	}
	sets := make([][]Swing, len(c.Detectors))
	for i, d := range c.Detectors {
		swings, err := d.Detect(bars)
		if err != nil {
			return nil, err
		}
		sets[i] = swings
	}

	var out []Swing
	switch c.Mode {
	case ModeAny:
		for _, set := range sets {
			out = append(out, set...)
		}
	default:
		for _, s := range sets[0] {
			confirmed := true
			for _, other := range sets[1:] {
				if !hasMatch(other, s, c.Tolerance) {
					confirmed = false
					break
				}
			}
			if confirmed {
				out = append(out, s)
			}
		}
	}
	return normalizeSwings(out), nil
}

func hasMatch(swings []Swing, s Swing, tolerance int) bool {
	for _, o := range swings {
		if o.Kind != s.Kind {
			continue
		}
		d := o.Index - s.Index
		if d < 0 {
			d = -d
		}
		if d <= tolerance {
			return true
		}
	}
	return false
}

// normalizeSwings orders swings by index and merges runs of the same kind
// into their most extreme member so highs and lows alternate.
func normalizeSwings(swings []Swing) []Swing {
	if len(swings) == 0 {
		return nil
	}
	sorted := make([]Swing, len(swings))
	copy(sorted, swings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := []Swing{sorted[0]}
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Kind != last.Kind {
			out = append(out, s)
			continue
		}
		if (s.Kind == SwingHigh && s.Price > last.Price) || (s.Kind == SwingLow && s.Price < last.Price) {
			*last = s
		}
	}
	return out
}
