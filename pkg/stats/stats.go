// Package stats provides statistical utilities for sequence analysis:
// descriptive moments, autocorrelation, lagged cross-correlation and
// power-spectrum peak finding.
package stats

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroVariance is returned when a computation needs variation in the
// input and the input has none.
var ErrZeroVariance = errors.New("zero variance in input")

// Moments holds descriptive statistics of a sample.
type Moments struct {
	N        int
	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64
}

// Describe computes descriptive moments for the given sample.
func Describe(values []float64) (Moments, error) {
	if len(values) == 0 {
		return Moments{}, errors.New("empty sample")
	}

	m := Moments{
		N:    len(values),
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}

	// sample variance needs at least two points
	if len(values) > 1 {
		m.Variance = stat.Variance(values, nil)
		m.StdDev = math.Sqrt(m.Variance)
	}

	return m, nil
}

// AutoCorrelation computes the autocorrelation function of values at
// lags 0..maxLag. The lag-0 coefficient is always 1. maxLag is clamped
// to len(values)-1. Constant input returns ErrZeroVariance.
func AutoCorrelation(values []float64, maxLag int) ([]float64, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("not enough data points for autocorrelation: need 2, got %d", len(values))
	}
	if maxLag < 1 {
		return nil, fmt.Errorf("maxLag must be positive, got %d", maxLag)
	}
	if maxLag > len(values)-1 {
		maxLag = len(values) - 1
	}

	n := len(values)
	mean := stat.Mean(values, nil)

	c0 := 0.0
	for _, v := range values {
		d := v - mean
		c0 += d * d
	}
	c0 /= float64(n)
	if c0 == 0 {
		return nil, ErrZeroVariance
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		c := 0.0
		for i := 0; i+lag < n; i++ {
			c += (values[i] - mean) * (values[i+lag] - mean)
		}
		c /= float64(n)
		acf[lag] = c / c0
	}

	return acf, nil
}

// CrossCorrelationAtLag computes the Pearson correlation between x and
// y with y delayed by lag samples: pairs (x[i], y[i+lag]). Both slices
// must have equal length and the overlap must keep at least three
// pairs. A zero-variance window returns ErrZeroVariance.
func CrossCorrelationAtLag(x, y []float64, lag int) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("sequence lengths differ: %d vs %d", len(x), len(y))
	}
	if lag < 0 {
		return 0, fmt.Errorf("lag must be non-negative, got %d", lag)
	}
	overlap := len(x) - lag
	if overlap < 3 {
		return 0, fmt.Errorf("not enough overlap at lag %d: need 3 pairs, got %d", lag, overlap)
	}

	r := stat.Correlation(x[:overlap], y[lag:], nil)
	if math.IsNaN(r) {
		return 0, ErrZeroVariance
	}

	return r, nil
}

// WhiteNoiseBound returns the 95% confidence bound for correlation
// coefficients of uncorrelated noise of the given sample size. Peaks
// below this bound are indistinguishable from chance.
func WhiteNoiseBound(n int) float64 {
	if n < 1 {
		return 1
	}
	return 1.96 / math.Sqrt(float64(n))
}
