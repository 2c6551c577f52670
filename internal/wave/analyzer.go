package wave

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"WaveSentinel/internal/model"

	"github.com/google/uuid"
)

// DetectorConfig configures the composite swing detector.
type DetectorConfig struct {
	ZigZag    AdaptiveZigZag
	Fractal   Fractal
	Mode      CompositeMode
	Tolerance int
}

// Config is the immutable configuration of the reference analyzer.
type Config struct {
	Detector    DetectorConfig
	Compression Compression
	Patterns    PatternSet
	Confidence  ConfidenceModel

	// ConsensusBand is the confidence distance from the base scenario within
	// which alternatives take part in the consensus vote.
	ConsensusBand  float64
	ConsensusRatio float64
	MaxScenarios   int
	MinBars        int
}

// DefaultConfig returns the analyzer configuration used by the strategy.
func DefaultConfig() Config {
	return Config{
		Detector: DetectorConfig{
			ZigZag:    AdaptiveZigZag{ATRPeriod: 14, ATRMultiplier: 3, MinThreshold: 0.03, MaxThreshold: 0.08},
			Fractal:   Fractal{Window: 5},
			Mode:      ModeAll,
			Tolerance: 2,
		},
		Compression:    compressionProfiles["primary"],
		Patterns:       PatternSet{Impulse: true},
		Confidence:     DefaultConfidenceModel(),
		ConsensusBand:  0.1,
		ConsensusRatio: 0.6,
		MaxScenarios:   5,
		MinBars:        30,
	}
}

// Fingerprint identifies the configuration. Cached results are only
// interchangeable between analyzers with the same fingerprint.
func (c Config) Fingerprint() string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%+v", c)))
	return id.String()[:8]
}

func (c Config) Validate() error {
	if err := c.Detector.ZigZag.Validate(); err != nil {
		return err
	}
	if err := c.Detector.Fractal.Validate(); err != nil {
		return err
	}
	if c.Detector.Tolerance < 0 {
		return errors.New("detector tolerance must not be negative")
	}
	if err := c.Compression.Validate(); err != nil {
		return err
	}
	if c.Patterns.Empty() {
		return errors.New("pattern set is empty")
	}
	if err := c.Confidence.Validate(); err != nil {
		return err
	}
	if c.ConsensusBand < 0 {
		return errors.New("consensus band must not be negative")
	}
	if c.ConsensusRatio <= 0 || c.ConsensusRatio > 1 {
		return fmt.Errorf("consensus ratio %.4f outside (0, 1]", c.ConsensusRatio)
	}
	if c.MaxScenarios <= 0 {
		return errors.New("max scenarios must be positive")
	}
	if c.MinBars < 2 {
		return errors.New("min bars must be at least 2")
	}
	return nil
}

// Reference is the built-in wave analyzer. It holds no mutable state and is
// safe for concurrent use.
type Reference struct {
	cfg      Config
	detector Detector
}

// New validates cfg and builds the analyzer.
func New(cfg Config) (*Reference, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wave config: %w", err)
	}
	return &Reference{
		cfg: cfg,
		detector: Composite{
			Detectors: []Detector{cfg.Detector.ZigZag, cfg.Detector.Fractal},
			Mode:      cfg.Detector.Mode,
			Tolerance: cfg.Detector.Tolerance,
		},
	}, nil
}

func (r *Reference) Config() Config { return r.cfg }

func (r *Reference) Analyze(bars []model.OHLCV) (*Result, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	res := &Result{BarCount: len(bars)}
	if len(bars) < r.cfg.MinBars {
		return res, nil
	}

	swings, err := r.detector.Detect(bars)
	if err != nil {
		return nil, fmt.Errorf("detect swings: %w", err)
	}
	swings = r.cfg.Compression.Apply(swings)
	if len(swings) < 2 {
		return res, nil
	}

	var counts []count
	if r.cfg.Patterns.Impulse {
		counts = append(counts, impulseCounts(swings)...)
	}
	if r.cfg.Patterns.Corrective {
		counts = append(counts, correctiveCounts(swings)...)
	}

	lastClose := bars[len(bars)-1].Close
	for _, c := range counts {
		res.Scenarios = append(res.Scenarios, r.scenario(c, lastClose))
	}
	rankScenarios(res.Scenarios)
	if len(res.Scenarios) > r.cfg.MaxScenarios {
		res.Scenarios = res.Scenarios[:r.cfg.MaxScenarios]
	}
	res.Summary = r.summarize(res.Scenarios)
	return res, nil
}

func (r *Reference) scenario(c count, lastClose float64) Scenario {
	score, factors := r.cfg.Confidence.Score(c)
	lv := c.levels(lastClose)
	pts := make([]Swing, len(c.pts))
	copy(pts, c.pts)
	return Scenario{
		Type:              c.typ,
		Direction:         c.dir,
		Phase:             lv.phase,
		Swings:            pts,
		Confidence:        score,
		Factors:           factors,
		HighConfidence:    score >= r.cfg.Confidence.HighThreshold,
		InvalidationPrice: lv.invalidation,
		PrimaryTarget:     lv.targets[0],
		Targets:           lv.targets,
		ExpectsCompletion: lv.expectsCompletion,
		Invalidated:       float64(c.dir)*(lastClose-lv.invalidation) < 0,
	}
}

// rankScenarios orders by confidence, then by number of confirmed swings,
// then by the more recent origin.
func rankScenarios(s []Scenario) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Confidence != s[j].Confidence {
			return s[i].Confidence > s[j].Confidence
		}
		if len(s[i].Swings) != len(s[j].Swings) {
			return len(s[i].Swings) > len(s[j].Swings)
		}
		return s[i].Swings[0].Index > s[j].Swings[0].Index
	})
}

func (r *Reference) summarize(s []Scenario) Summary {
	sum := Summary{ScenarioCount: len(s)}
	if len(s) == 0 {
		return sum
	}
	base := s[0]
	var voters, agree int
	for _, alt := range s {
		if base.Confidence-alt.Confidence > r.cfg.ConsensusBand {
			continue
		}
		voters++
		if alt.Type == base.Type && alt.Phase == base.Phase && alt.Direction == base.Direction {
			agree++
		}
	}
	sum.Agreement = float64(agree) / float64(voters)
	sum.StrongConsensus = sum.Agreement >= r.cfg.ConsensusRatio
	return sum
}

// ValidateBars rejects bars with non-finite or non-positive prices, a high
// below the low, or timestamps that do not increase.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return fmt.Errorf("bar %d: price %v: %w", i, p, ErrInvalidBar)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high %.4f below low %.4f: %w", i, b.High, b.Low, ErrInvalidBar)
		}
		if i > 0 && !b.Time.IsZero() && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d: time %s not after previous bar: %w", i, b.Time.Format("2006-01-02"), ErrInvalidBar)
		}
	}
	return nil
}
