package pattern

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFibonacci_PureSequence(t *testing.T) {
	res, err := DetectFibonacci([]float64{1, 1, 2, 3, 5, 8, 13, 21}, DefaultFibonacciConfig())
	require.NoError(t, err)

	assert.Equal(t, KindFibonacci, res.Kind)
	assert.Equal(t, 1.0, res.Score, "every element is a Fibonacci term")
	assert.True(t, res.Significant)
	assert.Equal(t, InterpretationHigh, res.Interpretation)
	assert.Equal(t, 8, res.Stats.Observed)
}

func TestDetectFibonacci_ScaleInvariance(t *testing.T) {
	base := []float64{2, 2.1, 4.2, 5.9, 10.4, 16.1}

	ref, err := DetectFibonacci(base, DefaultFibonacciConfig())
	require.NoError(t, err)
	require.Greater(t, ref.Score, 0.0)

	for _, scale := range []float64{0.001, 0.5, 3, 1000} {
		scaled := make([]float64, len(base))
		for i, v := range base {
			scaled[i] = v * scale
		}

		res, err := DetectFibonacci(scaled, DefaultFibonacciConfig())
		require.NoError(t, err)

		assert.InDelta(t, ref.Score, res.Score, 1e-9, "scale %v", scale)
		assert.Equal(t, ref.Significant, res.Significant, "scale %v", scale)
	}
}

func TestDetectFibonacci_ReportsBestScale(t *testing.T) {
	// elements are 3x the start of the Fibonacci progression
	res, err := DetectFibonacci([]float64{3, 6, 9}, DefaultFibonacciConfig())
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 3.0, componentValue(t, res, "scale"))
	assert.Zero(t, componentValue(t, res, "total_deviation"))
}

func TestDetectFibonacci_TooShort(t *testing.T) {
	_, err := DetectFibonacci([]float64{1, 2}, DefaultFibonacciConfig())

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, MinSequenceLength, insufficient.Needed)
}

func TestDetectFibonacci_NoPositiveElements(t *testing.T) {
	_, err := DetectFibonacci([]float64{-1, -2, -3}, DefaultFibonacciConfig())

	var degenerate *DegenerateInputError
	require.True(t, errors.As(err, &degenerate))
}

func TestDetectFibonacci_Idempotent(t *testing.T) {
	seq := []float64{2, 2.1, 4.2, 5.9, 10.4, 16.1}
	cfg := DefaultFibonacciConfig()

	first, err := DetectFibonacci(seq, cfg)
	require.NoError(t, err)
	second, err := DetectFibonacci(seq, cfg)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestDetectFibonacci_InvalidConfig(t *testing.T) {
	cfg := DefaultFibonacciConfig()
	cfg.ScaleCandidates = 99

	_, err := DetectFibonacci([]float64{1, 2, 3}, cfg)

	var invalid *InvalidConfigurationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "ScaleCandidates", invalid.Field)
}
