package pattern

import (
	"fmt"
	"math"

	"github.com/kavikulu/shadowmine/pkg/stats"
)

// MinCouplingLength is the shortest sequence the coupling detectors
// accept; spectra and lagged correlations need more room than ratios.
const MinCouplingLength = 8

// flatSpectrumRatio separates real oscillating power from the rounding
// noise the transform leaves behind on constant input, which sits some
// thirty orders of magnitude below the DC power.
const flatSpectrumRatio = 1e-24

// DetectFieldCoupling looks for resonance structure in a single
// sequence: spectral peaks whose successive frequencies relate by the
// golden ratio. Score is the fraction of successive peak pairs whose
// frequency ratio falls within tolerance of phi or 1/phi.
func DetectFieldCoupling(seq []float64, cfg CouplingConfig) (Result, error) {
	const op = "field_coupling"

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(seq) < MinCouplingLength {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinCouplingLength, Got: len(seq)}
	}

	bands, err := stats.PowerSpectrum(seq)
	if err != nil {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinCouplingLength, Got: len(seq)}
	}

	// the DC bin carries the mean, not oscillation; prominence is
	// measured against the strongest oscillating component
	maxPower := 0.0
	for _, b := range bands[1:] {
		if b.Power > maxPower {
			maxPower = b.Power
		}
	}
	if maxPower <= bands[0].Power*flatSpectrumRatio {
		return Result{}, &DegenerateInputError{Op: op, Reason: "flat spectrum, no oscillating component"}
	}

	peaks := stats.Peaks(bands, cfg.PeakProminence*maxPower)

	phiPairs := 0
	for i := 0; i+1 < len(peaks); i++ {
		if nearPhi(peaks[i+1].Frequency/peaks[i].Frequency, cfg.Tolerance) {
			phiPairs++
		}
	}

	score := 0.0
	if len(peaks) >= 2 {
		score = float64(phiPairs) / float64(len(peaks)-1)
	}

	return Result{
		Kind:           KindFieldCoupling,
		Score:          score,
		Significant:    len(peaks) >= 2 && score >= cfg.SignificanceThreshold,
		Interpretation: cfg.Boundaries.Interpret(score),
		Stats: Stats{
			SampleSize: len(seq),
			Observed:   phiPairs,
			Tolerance:  cfg.Tolerance,
			Threshold:  cfg.SignificanceThreshold,
			Components: []Component{
				{Name: "peaks", Value: float64(len(peaks))},
				{Name: "resonances", Value: float64(countResonances(peaks, cfg))},
			},
		},
	}, nil
}

// countResonances counts the expected frequencies that land on a
// spectral peak within the relative resonance tolerance. Each expected
// frequency is counted at most once.
func countResonances(peaks []stats.Band, cfg CouplingConfig) int {
	n := 0
	for _, expected := range cfg.ExpectedFrequencies {
		for _, p := range peaks {
			if math.Abs(p.Frequency-expected)/expected < cfg.ResonanceTolerance {
				n++
				break
			}
		}
	}
	return n
}

// DetectCrossCoupling measures lagged coupling between two equal-length
// sequences as the strongest normalized cross-correlation over
// non-trivial lags in either direction. Score is the peak magnitude;
// significance additionally requires clearing the white-noise bound for
// the sample size.
func DetectCrossCoupling(a, b []float64, cfg CouplingConfig) (Result, error) {
	const op = "cross_coupling"

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(a) != len(b) {
		return Result{}, &DegenerateInputError{Op: op, Reason: fmt.Sprintf("sequence lengths differ: %d vs %d", len(a), len(b))}
	}
	if len(a) < MinCouplingLength {
		return Result{}, &InsufficientDataError{Op: op, Needed: MinCouplingLength, Got: len(a)}
	}

	for _, seq := range [][]float64{a, b} {
		m, err := stats.Describe(seq)
		if err != nil || m.Variance == 0 {
			return Result{}, &DegenerateInputError{Op: op, Reason: "zero variance input"}
		}
	}

	maxLag := cfg.MaxLag
	if maxLag <= 0 {
		maxLag = len(a) / 4
	}
	if maxLag > len(a)-3 {
		maxLag = len(a) - 3
	}
	if maxLag < 1 {
		maxLag = 1
	}

	// negative lag means b leads a
	peak, peakLag := 0.0, 0
	for lag := 1; lag <= maxLag; lag++ {
		if r, err := stats.CrossCorrelationAtLag(a, b, lag); err == nil && math.Abs(r) > math.Abs(peak) {
			peak, peakLag = r, lag
		}
		if r, err := stats.CrossCorrelationAtLag(b, a, lag); err == nil && math.Abs(r) > math.Abs(peak) {
			peak, peakLag = r, -lag
		}
	}

	bound := stats.WhiteNoiseBound(len(a))
	threshold := math.Max(cfg.SignificanceThreshold, bound)
	score := math.Abs(peak)

	return Result{
		Kind:           KindCrossCoupling,
		Score:          score,
		Significant:    score >= threshold,
		Interpretation: cfg.Boundaries.Interpret(score),
		Stats: Stats{
			SampleSize: len(a),
			Threshold:  threshold,
			Components: []Component{
				{Name: "peak_lag", Value: float64(peakLag)},
				{Name: "peak_correlation", Value: peak},
				{Name: "white_noise_bound", Value: bound},
				{Name: "max_lag", Value: float64(maxLag)},
			},
		},
	}, nil
}
