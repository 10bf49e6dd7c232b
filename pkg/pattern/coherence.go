package pattern

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"

	"github.com/kavikulu/shadowmine/pkg/stats"
)

// ScoreCoherence blends smoothness, periodicity, phi enrichment and
// Fibonacci likeness into one organization score in [0, 1]. The blend
// weights are explicit configuration, never hidden constants.
func ScoreCoherence(seq []float64, cfg CoherenceConfig) (Result, error) {
	const op = "coherence"

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(seq) < MinSequenceLength {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinSequenceLength, Got: len(seq)}
	}
	if len(ratios(seq)) == 0 {
		return Result{}, &DegenerateInputError{Op: op, Reason: "no finite consecutive ratios"}
	}

	smooth := smoothnessScore(seq, cfg.SmoothingPeriod)
	periodic := periodicityScore(seq, cfg.MaxLag)

	phiRes, err := DetectPhiRatios(seq, cfg.Phi)
	if err != nil {
		return Result{}, err
	}
	phiScore := clamp01((phiRes.Score - 1) / (cfg.Phi.EnrichmentThreshold - 1))

	fibScore := 0.0
	fibRes, err := DetectFibonacci(seq, cfg.Fibonacci)
	var degenerate *DegenerateInputError
	switch {
	case err == nil:
		fibScore = fibRes.Score
	case errors.As(err, &degenerate):
		// nothing positive to scale against; the component contributes zero
	default:
		return Result{}, err
	}

	w := cfg.Weights
	score := w.Smoothness*smooth + w.Periodicity*periodic + w.Phi*phiScore + w.Fibonacci*fibScore

	return Result{
		Kind:           KindCoherence,
		Score:          score,
		Significant:    score >= cfg.Boundaries.High,
		Interpretation: cfg.Boundaries.Interpret(score),
		Stats: Stats{
			SampleSize: len(seq),
			Threshold:  cfg.Boundaries.High,
			Components: []Component{
				{Name: "smoothness", Weight: w.Smoothness, Value: smooth},
				{Name: "periodicity", Weight: w.Periodicity, Value: periodic},
				{Name: "phi", Weight: w.Phi, Value: phiScore},
				{Name: "fibonacci", Weight: w.Fibonacci, Value: fibScore},
			},
		},
	}, nil
}

// smoothnessScore measures variance reduction after moving-average
// smoothing: organized sequences leave little residual variance, noise
// leaves most of it. A constant sequence is perfectly smooth.
func smoothnessScore(seq []float64, period int) float64 {
	total, err := stats.Describe(seq)
	if err != nil {
		return 0
	}
	if total.Variance == 0 {
		return 1
	}

	if period > len(seq) {
		period = len(seq)
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(seq)))

	// each smoothed value is compared against the center of its window,
	// so periodic signals are not penalized for phase lag
	half := (period - 1) / 2
	residuals := make([]float64, len(smoothed))
	for i, s := range smoothed {
		residuals[i] = seq[i+half] - s
	}
	if len(residuals) < 2 {
		return 1
	}

	res, err := stats.Describe(residuals)
	if err != nil {
		return 1
	}

	return clamp01(1 - res.Variance/total.Variance)
}

// periodicityScore is the strongest absolute autocorrelation over
// non-trivial lags. Constant input has no oscillation to reward.
func periodicityScore(seq []float64, maxLag int) float64 {
	if maxLag <= 0 {
		maxLag = len(seq) / 2
	}
	if maxLag < 1 {
		maxLag = 1
	}

	acf, err := stats.AutoCorrelation(seq, maxLag)
	if err != nil {
		return 0
	}

	peak := 0.0
	for _, r := range acf[1:] {
		if a := math.Abs(r); a > peak {
			peak = a
		}
	}

	return clamp01(peak)
}
