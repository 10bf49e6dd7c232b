// Package pattern detects geometric structure in numeric sequences:
// golden-ratio proportions between consecutive elements, Fibonacci-like
// progressions, overall geometric coherence and field-coupling
// signatures. Every detector is a pure function of an input sequence
// and an explicit configuration, returning an immutable Result that
// carries the statistics behind the verdict.
package pattern

import "math"

const (
	// MinSequenceLength is the shortest sequence the ratio-based
	// detectors accept: two consecutive ratios need three points.
	MinSequenceLength = 3

	// nearZero is the magnitude below which a denominator counts as
	// zero and the ratio is skipped.
	nearZero = 1e-10

	phi    = math.Phi
	invPhi = 1 / math.Phi
)

// ratios derives the ordered set of consecutive ratios seq[i+1]/seq[i].
// Pairs whose denominator is near zero are skipped and non-finite
// ratios are dropped, so the result may be shorter than len(seq)-1.
func ratios(seq []float64) []float64 {
	if len(seq) < 2 {
		return nil
	}

	rs := make([]float64, 0, len(seq)-1)
	for i := 0; i+1 < len(seq); i++ {
		if math.Abs(seq[i]) <= nearZero {
			continue
		}
		r := seq[i+1] / seq[i]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		rs = append(rs, r)
	}

	return rs
}

// nearPhi reports whether r lies within tol of the golden ratio or its
// reciprocal.
func nearPhi(r, tol float64) bool {
	return math.Abs(r-phi) < tol || math.Abs(r-invPhi) < tol
}

// phiDeviation is the distance from r to the closer of the golden
// ratio and its reciprocal.
func phiDeviation(r float64) float64 {
	return math.Min(math.Abs(r-phi), math.Abs(r-invPhi))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
