package pattern

import "math"

// fibonacciTerms is the reference progression inputs are matched
// against after scaling.
var fibonacciTerms = []float64{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144}

// DetectFibonacci measures how closely seq tracks a scaled Fibonacci
// progression. Matching is scale-invariant: candidate scales anchor the
// smallest positive element to each of the leading Fibonacci terms, the
// candidate with the highest match fraction wins, and ties go to the
// smaller total absolute deviation. Score is the match fraction.
func DetectFibonacci(seq []float64, cfg FibonacciConfig) (Result, error) {
	const op = "fibonacci"

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(seq) < MinSequenceLength {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinSequenceLength, Got: len(seq)}
	}

	anchor, ok := smallestPositive(seq)
	if !ok {
		return Result{}, &DegenerateInputError{Op: op, Reason: "no positive elements to scale against"}
	}

	best := fibFit{sumDev: math.Inf(1)}
	for k := 0; k < cfg.ScaleCandidates; k++ {
		fit := fitFibonacci(seq, anchor/fibonacciTerms[k], cfg.Tolerance)
		if fit.better(best) {
			best = fit
		}
	}

	return Result{
		Kind:           KindFibonacci,
		Score:          best.fraction,
		Significant:    best.fraction >= cfg.SignificanceThreshold,
		Interpretation: cfg.Boundaries.Interpret(best.fraction),
		Stats: Stats{
			SampleSize: len(seq),
			Observed:   best.matched,
			Tolerance:  cfg.Tolerance,
			Threshold:  cfg.SignificanceThreshold,
			Components: []Component{
				{Name: "scale", Value: best.scale},
				{Name: "total_deviation", Value: best.sumDev},
			},
		},
	}, nil
}

// fibFit scores one candidate scale.
type fibFit struct {
	scale    float64
	matched  int
	fraction float64
	sumDev   float64
}

// better reports whether f beats g: higher match fraction first, then
// smaller total absolute deviation.
func (f fibFit) better(g fibFit) bool {
	if f.fraction != g.fraction {
		return f.fraction > g.fraction
	}
	return f.sumDev < g.sumDev
}

// fitFibonacci divides each element by the candidate scale and compares
// it with its nearest Fibonacci term. Elements within the relative
// tolerance count as matches; every element contributes its absolute
// deviation to the tie-break sum.
func fitFibonacci(seq []float64, scale, tol float64) fibFit {
	fit := fibFit{scale: scale}

	for _, v := range seq {
		norm := v / scale
		term, relDev := nearestFibonacciTerm(norm)
		fit.sumDev += math.Abs(norm - term)
		if relDev <= tol {
			fit.matched++
		}
	}

	fit.fraction = float64(fit.matched) / float64(len(seq))
	return fit
}

// nearestFibonacciTerm returns the reference term with the smallest
// relative distance to v, and that distance.
func nearestFibonacciTerm(v float64) (term, relDev float64) {
	term = fibonacciTerms[0]
	relDev = math.Abs(v-term) / term

	for _, f := range fibonacciTerms[1:] {
		if d := math.Abs(v-f) / f; d < relDev {
			term, relDev = f, d
		}
	}

	return term, relDev
}

// smallestPositive returns the smallest strictly positive element of
// seq and whether one exists.
func smallestPositive(seq []float64) (float64, bool) {
	found := false
	min := 0.0

	for _, v := range seq {
		if v > 0 && (!found || v < min) {
			min = v
			found = true
		}
	}

	return min, found
}
