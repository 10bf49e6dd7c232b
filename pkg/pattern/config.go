package pattern

import (
	"fmt"
	"math"
)

// NullModel selects the reference model for expected phi-ratio matches.
type NullModel string

const (
	// NullModelPermutation estimates the expectation by shuffling the
	// input sequence and recounting matches; deterministic via Seed.
	NullModelPermutation NullModel = "permutation"

	// NullModelWindow uses the analytic acceptance-window expectation:
	// the number of ratios times twice the tolerance.
	NullModelWindow NullModel = "window"
)

// Boundaries maps a score in [0,1] onto interpretation bands: scores
// below Low read LOW, scores at or above High read HIGH, MODERATE in
// between.
type Boundaries struct {
	Low  float64
	High float64
}

// DefaultBoundaries returns the standard interpretation bands.
func DefaultBoundaries() Boundaries {
	return Boundaries{Low: 0.33, High: 0.66}
}

func (b Boundaries) validate(op string) error {
	if b.Low <= 0 || b.High <= b.Low || b.High >= 1 {
		return &InvalidConfigurationError{Op: op, Field: "Boundaries", Reason: "must satisfy 0 < low < high < 1"}
	}
	return nil
}

// Interpret places score into its ordinal band.
func (b Boundaries) Interpret(score float64) Interpretation {
	switch {
	case score < b.Low:
		return InterpretationLow
	case score < b.High:
		return InterpretationModerate
	default:
		return InterpretationHigh
	}
}

// PhiConfig configures DetectPhiRatios.
type PhiConfig struct {
	// Tolerance is the acceptance distance around phi and 1/phi.
	Tolerance float64
	// EnrichmentThreshold is the minimum enrichment factor for a
	// significant verdict.
	EnrichmentThreshold float64
	// MinObserved is the minimum number of matched ratios for a
	// significant verdict, guarding short sequences against spurious
	// enrichment.
	MinObserved int
	// NullModel selects how the expected match count is estimated.
	NullModel NullModel
	// Trials is the number of shuffles for the permutation null model.
	Trials int
	// Seed seeds the permutation shuffles; fixed by default so repeated
	// runs agree bit for bit.
	Seed int64
}

// DefaultPhiConfig returns phi detection defaults.
func DefaultPhiConfig() PhiConfig {
	return PhiConfig{
		Tolerance:           0.05,
		EnrichmentThreshold: 2.0,
		MinObserved:         3,
		NullModel:           NullModelPermutation,
		Trials:              200,
		Seed:                1,
	}
}

// Validate checks the configuration ranges.
func (c PhiConfig) Validate() error {
	const op = "phi"
	if c.Tolerance <= 0 || c.Tolerance >= 0.5 {
		return &InvalidConfigurationError{Op: op, Field: "Tolerance", Reason: "must be in (0, 0.5)"}
	}
	if c.EnrichmentThreshold <= 1 {
		return &InvalidConfigurationError{Op: op, Field: "EnrichmentThreshold", Reason: "must exceed 1"}
	}
	if c.MinObserved < 1 {
		return &InvalidConfigurationError{Op: op, Field: "MinObserved", Reason: "must be at least 1"}
	}
	switch c.NullModel {
	case NullModelPermutation:
		if c.Trials < 1 {
			return &InvalidConfigurationError{Op: op, Field: "Trials", Reason: "must be at least 1"}
		}
	case NullModelWindow:
	default:
		return &InvalidConfigurationError{Op: op, Field: "NullModel", Reason: fmt.Sprintf("unknown model %q", c.NullModel)}
	}
	return nil
}

// FibonacciConfig configures DetectFibonacci.
type FibonacciConfig struct {
	// Tolerance is the maximum relative distance to the nearest
	// Fibonacci term for an element to match.
	Tolerance float64
	// SignificanceThreshold is the minimum match fraction for a
	// significant verdict.
	SignificanceThreshold float64
	// ScaleCandidates is how many leading Fibonacci terms are tried as
	// anchors for the smallest positive element.
	ScaleCandidates int
	// Boundaries places the match fraction into interpretation bands.
	Boundaries Boundaries
}

// DefaultFibonacciConfig returns Fibonacci detection defaults.
func DefaultFibonacciConfig() FibonacciConfig {
	return FibonacciConfig{
		Tolerance:             0.15,
		SignificanceThreshold: 0.6,
		ScaleCandidates:       6,
		Boundaries:            DefaultBoundaries(),
	}
}

// Validate checks the configuration ranges.
func (c FibonacciConfig) Validate() error {
	const op = "fibonacci"
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return &InvalidConfigurationError{Op: op, Field: "Tolerance", Reason: "must be in (0, 1)"}
	}
	if c.SignificanceThreshold <= 0 || c.SignificanceThreshold > 1 {
		return &InvalidConfigurationError{Op: op, Field: "SignificanceThreshold", Reason: "must be in (0, 1]"}
	}
	if c.ScaleCandidates < 1 || c.ScaleCandidates > len(fibonacciTerms) {
		return &InvalidConfigurationError{Op: op, Field: "ScaleCandidates", Reason: fmt.Sprintf("must be in [1, %d]", len(fibonacciTerms))}
	}
	return c.Boundaries.validate(op)
}

// Weights blends the coherence sub-scores. Each weight must be
// non-negative and together they must sum to 1.
type Weights struct {
	Smoothness  float64
	Periodicity float64
	Phi         float64
	Fibonacci   float64
}

// DefaultWeights returns the standard coherence blend.
func DefaultWeights() Weights {
	return Weights{Smoothness: 0.3, Periodicity: 0.3, Phi: 0.2, Fibonacci: 0.2}
}

const weightSumTolerance = 1e-9

func (w Weights) validate(op string) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"Smoothness", w.Smoothness},
		{"Periodicity", w.Periodicity},
		{"Phi", w.Phi},
		{"Fibonacci", w.Fibonacci},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &InvalidConfigurationError{Op: op, Field: "Weights." + f.name, Reason: "must be non-negative"}
		}
	}

	sum := w.Smoothness + w.Periodicity + w.Phi + w.Fibonacci
	if math.Abs(sum-1) > weightSumTolerance {
		return &InvalidConfigurationError{Op: op, Field: "Weights", Reason: fmt.Sprintf("must sum to 1, got %v", sum)}
	}

	return nil
}

// CoherenceConfig configures ScoreCoherence.
type CoherenceConfig struct {
	Weights Weights
	// SmoothingPeriod is the moving-average window of the smoothness
	// sub-score; clamped to the sequence length.
	SmoothingPeriod int
	// MaxLag bounds the autocorrelation search for the periodicity
	// sub-score; zero means half the sequence length.
	MaxLag int
	// Boundaries places the blended score into interpretation bands.
	Boundaries Boundaries
	// Phi and Fibonacci configure the embedded sub-detectors.
	Phi       PhiConfig
	Fibonacci FibonacciConfig
}

// DefaultCoherenceConfig returns coherence scoring defaults.
func DefaultCoherenceConfig() CoherenceConfig {
	return CoherenceConfig{
		Weights:         DefaultWeights(),
		SmoothingPeriod: 5,
		Boundaries:      DefaultBoundaries(),
		Phi:             DefaultPhiConfig(),
		Fibonacci:       DefaultFibonacciConfig(),
	}
}

// Validate checks the configuration ranges, including the embedded
// sub-detector configurations.
func (c CoherenceConfig) Validate() error {
	const op = "coherence"
	if err := c.Weights.validate(op); err != nil {
		return err
	}
	if c.SmoothingPeriod < 2 {
		return &InvalidConfigurationError{Op: op, Field: "SmoothingPeriod", Reason: "must be at least 2"}
	}
	if c.MaxLag < 0 {
		return &InvalidConfigurationError{Op: op, Field: "MaxLag", Reason: "must be non-negative"}
	}
	if err := c.Boundaries.validate(op); err != nil {
		return err
	}
	if err := c.Phi.Validate(); err != nil {
		return err
	}
	return c.Fibonacci.Validate()
}

// CouplingConfig configures DetectFieldCoupling and DetectCrossCoupling.
type CouplingConfig struct {
	// Tolerance is the acceptance distance around phi and 1/phi for
	// ratios of successive peak frequencies.
	Tolerance float64
	// SignificanceThreshold is the minimum score for a significant
	// verdict: the phi-pair fraction for a single sequence, the peak
	// correlation magnitude for paired sequences.
	SignificanceThreshold float64
	// PeakProminence is the minimum spectral-peak prominence as a
	// fraction of the strongest non-DC power.
	PeakProminence float64
	// MaxLag bounds the cross-correlation search; zero means a quarter
	// of the sequence length.
	MaxLag int
	// ExpectedFrequencies lists frequencies in cycles per sample whose
	// presence among spectral peaks is reported as resonances.
	ExpectedFrequencies []float64
	// ResonanceTolerance is the relative distance for an expected
	// frequency to match a peak.
	ResonanceTolerance float64
	// Boundaries places the score into interpretation bands.
	Boundaries Boundaries
}

// DefaultCouplingConfig returns coupling detection defaults.
func DefaultCouplingConfig() CouplingConfig {
	return CouplingConfig{
		Tolerance:             0.1,
		SignificanceThreshold: 0.5,
		PeakProminence:        0.1,
		ResonanceTolerance:    0.1,
		Boundaries:            DefaultBoundaries(),
	}
}

// Validate checks the configuration ranges.
func (c CouplingConfig) Validate() error {
	const op = "coupling"
	if c.Tolerance <= 0 || c.Tolerance >= 0.5 {
		return &InvalidConfigurationError{Op: op, Field: "Tolerance", Reason: "must be in (0, 0.5)"}
	}
	if c.SignificanceThreshold <= 0 || c.SignificanceThreshold > 1 {
		return &InvalidConfigurationError{Op: op, Field: "SignificanceThreshold", Reason: "must be in (0, 1]"}
	}
	if c.PeakProminence <= 0 || c.PeakProminence > 1 {
		return &InvalidConfigurationError{Op: op, Field: "PeakProminence", Reason: "must be in (0, 1]"}
	}
	if c.MaxLag < 0 {
		return &InvalidConfigurationError{Op: op, Field: "MaxLag", Reason: "must be non-negative"}
	}
	if c.ResonanceTolerance <= 0 || c.ResonanceTolerance >= 1 {
		return &InvalidConfigurationError{Op: op, Field: "ResonanceTolerance", Reason: "must be in (0, 1)"}
	}
	for _, f := range c.ExpectedFrequencies {
		if f <= 0 {
			return &InvalidConfigurationError{Op: op, Field: "ExpectedFrequencies", Reason: "frequencies must be positive"}
		}
	}
	return c.Boundaries.validate(op)
}
