package wave

import (
	"fmt"
	"math"
	"strings"
)

// Compression keeps swings of one wave degree by folding away legs smaller
// than MinAmplitude (relative move) or shorter than MinBars.
type Compression struct {
	Name         string
	MinAmplitude float64
	MinBars      int
}

var compressionProfiles = map[string]Compression{
	"minor":        {Name: "minor"},
	"intermediate": {Name: "intermediate", MinAmplitude: 0.02, MinBars: 3},
	"primary":      {Name: "primary", MinAmplitude: 0.05, MinBars: 5},
}

// ParseCompression returns the named profile: minor, intermediate or primary.
func ParseCompression(name string) (Compression, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "primary"
	}
	p, ok := compressionProfiles[key]
	if !ok {
		return Compression{}, fmt.Errorf("unknown compression profile %q", name)
	}
	return p, nil
}

func (c Compression) Validate() error {
	if c.MinAmplitude < 0 || math.IsNaN(c.MinAmplitude) {
		return fmt.Errorf("compression %s: negative amplitude", c.Name)
	}
	if c.MinBars < 0 {
		return fmt.Errorf("compression %s: negative bar span", c.Name)
	}
	return nil
}

func (c Compression) small(a, b Swing) bool {
	if a.Price <= 0 {
		return false
	}
	amp := math.Abs(b.Price-a.Price) / a.Price
	return amp < c.MinAmplitude || b.Index-a.Index < c.MinBars
}

// Apply returns the compressed swings. The input must alternate highs and lows
// and is left untouched.
func (c Compression) Apply(swings []Swing) []Swing {
	out := make([]Swing, len(swings))
	copy(out, swings)
	if c.MinAmplitude == 0 && c.MinBars == 0 {
		return out
	}

	for len(out) >= 2 {
		// Smallest offending leg first.
		leg := -1
		best := math.Inf(1)
		for j := 0; j+1 < len(out); j++ {
			if !c.small(out[j], out[j+1]) {
				continue
			}
			if amp := math.Abs(out[j+1].Price - out[j].Price); amp < best {
				best, leg = amp, j
			}
		}
		if leg < 0 {
			break
		}
		out = foldLeg(out, leg)
	}
	return out
}

// foldLeg removes leg j (out[j] -> out[j+1]). Interior legs drop a pair of
// swings so that highs and lows keep alternating and the surviving pivots are
// the extremes of the folded stretch. Edge legs drop a single swing.
func foldLeg(out []Swing, j int) []Swing {
	last := len(out) - 1
	switch {
	case j == 0:
		return append(out[:0:0], out[1:]...)
	case j+1 == last:
		return append(out[:0:0], out[:last]...)
	}

	// out[j-1] and out[j+1] share a kind, as do out[j] and out[j+2].
	drop := [2]int{j, j + 1}
	if moreExtreme(out[j+1], out[j-1]) {
		drop = [2]int{j - 1, j}
	} else if moreExtreme(out[j], out[j+2]) {
		drop = [2]int{j + 1, j + 2}
	}
	res := make([]Swing, 0, len(out)-2)
	for i, s := range out {
		if i == drop[0] || i == drop[1] {
			continue
		}
		res = append(res, s)
	}
	return res
}

func moreExtreme(a, b Swing) bool {
	if a.Kind == SwingHigh {
		return a.Price > b.Price
	}
	return a.Price < b.Price
}
