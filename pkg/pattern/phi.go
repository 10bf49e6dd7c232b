package pattern

import (
	"math"
	"math/rand"
)

// DetectPhiRatios tests whether consecutive ratios of seq cluster near
// the golden ratio or its reciprocal more often than the configured
// null model predicts. Score is the enrichment factor
// observed/expected.
func DetectPhiRatios(seq []float64, cfg PhiConfig) (Result, error) {
	const op = "phi"

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(seq) < MinSequenceLength {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinSequenceLength, Got: len(seq)}
	}

	rs := ratios(seq)
	if len(rs) == 0 {
		return Result{}, &DegenerateInputError{Op: op, Reason: "no finite consecutive ratios"}
	}

	observed := countPhiMatches(rs, cfg.Tolerance)

	var expected float64
	switch cfg.NullModel {
	case NullModelWindow:
		expected = float64(len(rs)) * 2 * cfg.Tolerance
	default:
		expected = permutationExpectation(seq, cfg)
	}

	enrichment := float64(observed) / expected

	return Result{
		Kind:           KindPhiRatio,
		Score:          enrichment,
		Significant:    enrichment >= cfg.EnrichmentThreshold && observed >= cfg.MinObserved,
		Interpretation: interpretEnrichment(enrichment, cfg.EnrichmentThreshold),
		Stats: Stats{
			SampleSize: len(seq),
			Observed:   observed,
			Expected:   expected,
			Tolerance:  cfg.Tolerance,
			Threshold:  cfg.EnrichmentThreshold,
			Components: []Component{
				{Name: "ratios", Value: float64(len(rs))},
				{Name: "quality", Value: math.Exp(-meanPhiDeviation(rs))},
			},
		},
	}, nil
}

// interpretEnrichment bands an enrichment factor: below 1 means fewer
// matches than chance, above the significance threshold means HIGH.
func interpretEnrichment(enrichment, threshold float64) Interpretation {
	switch {
	case enrichment < 1:
		return InterpretationLow
	case enrichment < threshold:
		return InterpretationModerate
	default:
		return InterpretationHigh
	}
}

func countPhiMatches(rs []float64, tol float64) int {
	n := 0
	for _, r := range rs {
		if nearPhi(r, tol) {
			n++
		}
	}
	return n
}

// meanPhiDeviation averages the distance of each ratio to the closer of
// phi and 1/phi; 1 when there are no ratios. Feeds the quality
// component exp(-deviation), which peaks at 1 for pure phi decay.
func meanPhiDeviation(rs []float64) float64 {
	if len(rs) == 0 {
		return 1
	}

	sum := 0.0
	for _, r := range rs {
		sum += phiDeviation(r)
	}

	return sum / float64(len(rs))
}

// permutationExpectation estimates the expected match count by
// reshuffling the sequence Trials times and recounting matches on each
// shuffle. Shuffling preserves the value distribution while destroying
// adjacency, which is exactly what the detectors measure. Add-one
// smoothing keeps the expectation positive so the enrichment factor
// stays defined for pattern-free inputs.
func permutationExpectation(seq []float64, cfg PhiConfig) float64 {
	rng := rand.New(rand.NewSource(cfg.Seed))

	shuffled := make([]float64, len(seq))
	copy(shuffled, seq)

	total := 0
	for t := 0; t < cfg.Trials; t++ {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		total += countPhiMatches(ratios(shuffled), cfg.Tolerance)
	}

	return (float64(total) + 1) / (float64(cfg.Trials) + 1)
}
