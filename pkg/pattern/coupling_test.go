package pattern

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTones mixes sine waves at the given bin frequencies over n samples.
func twoTones(n, binA, binB int) []float64 {
	seq := make([]float64, n)
	for i := range seq {
		t := float64(i)
		seq[i] = math.Sin(2*math.Pi*float64(binA)*t/float64(n)) +
			math.Sin(2*math.Pi*float64(binB)*t/float64(n))
	}
	return seq
}

func TestDetectFieldCoupling_PhiSpacedTones(t *testing.T) {
	// bins 8 and 13 of 64 samples: frequency ratio 13/8 = 1.625, within
	// tolerance of phi
	res, err := DetectFieldCoupling(twoTones(64, 8, 13), DefaultCouplingConfig())
	require.NoError(t, err)

	assert.Equal(t, KindFieldCoupling, res.Kind)
	assert.InDelta(t, 1.0, res.Score, 1e-12, "the only peak pair is phi-spaced")
	assert.True(t, res.Significant)
	assert.Equal(t, InterpretationHigh, res.Interpretation)
	assert.Equal(t, 2.0, componentValue(t, res, "peaks"))
	assert.Equal(t, 1, res.Stats.Observed)
}

func TestDetectFieldCoupling_HarmonicTones(t *testing.T) {
	// an octave apart: ratio 2.0 is nowhere near phi
	res, err := DetectFieldCoupling(twoTones(64, 8, 16), DefaultCouplingConfig())
	require.NoError(t, err)

	assert.Zero(t, res.Score)
	assert.False(t, res.Significant)
	assert.Equal(t, InterpretationLow, res.Interpretation)
	assert.Equal(t, 2.0, componentValue(t, res, "peaks"))
}

func TestDetectFieldCoupling_Resonances(t *testing.T) {
	cfg := DefaultCouplingConfig()
	cfg.ExpectedFrequencies = []float64{0.125, 0.33}

	res, err := DetectFieldCoupling(twoTones(64, 8, 13), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1.0, componentValue(t, res, "resonances"), "only the 8/64 tone is expected")
}

func TestDetectFieldCoupling_Constant(t *testing.T) {
	seq := make([]float64, 16)
	for i := range seq {
		seq[i] = 3
	}

	_, err := DetectFieldCoupling(seq, DefaultCouplingConfig())

	var degenerate *DegenerateInputError
	require.True(t, errors.As(err, &degenerate), "a constant has no oscillating component")
}

func TestDetectFieldCoupling_TooShort(t *testing.T) {
	_, err := DetectFieldCoupling([]float64{1, 2, 3, 4, 5, 6, 7}, DefaultCouplingConfig())

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, MinCouplingLength, insufficient.Needed)
}

// laggedWalk returns a seeded random walk and a copy of it delayed by
// the given number of samples.
func laggedWalk(n, delay int, seed int64) (a, b []float64) {
	rng := rand.New(rand.NewSource(seed))

	a = make([]float64, n)
	v := 0.0
	for i := range a {
		v += rng.Float64()
		a[i] = v
	}

	b = make([]float64, n)
	for i := delay; i < n; i++ {
		b[i] = a[i-delay]
	}
	return a, b
}

func TestDetectCrossCoupling_DelayedCopy(t *testing.T) {
	a, b := laggedWalk(32, 2, 7)

	res, err := DetectCrossCoupling(a, b, DefaultCouplingConfig())
	require.NoError(t, err)

	assert.Equal(t, KindCrossCoupling, res.Kind)
	assert.InDelta(t, 1.0, res.Score, 1e-9, "the delayed copy correlates perfectly at its lag")
	assert.True(t, res.Significant)
	assert.Equal(t, 2.0, componentValue(t, res, "peak_lag"))
}

func TestDetectCrossCoupling_IndependentNoise(t *testing.T) {
	n := 100
	rngA := rand.New(rand.NewSource(3))
	rngB := rand.New(rand.NewSource(4))

	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rngA.Float64()
		b[i] = rngB.Float64()
	}

	res, err := DetectCrossCoupling(a, b, DefaultCouplingConfig())
	require.NoError(t, err)

	assert.False(t, res.Significant, "independent noise should not couple")
	assert.Less(t, res.Score, 0.5)
}

func TestDetectCrossCoupling_LengthMismatch(t *testing.T) {
	a, _ := laggedWalk(32, 2, 7)

	_, err := DetectCrossCoupling(a, a[:16], DefaultCouplingConfig())

	var degenerate *DegenerateInputError
	require.True(t, errors.As(err, &degenerate))
}

func TestDetectCrossCoupling_ZeroVariance(t *testing.T) {
	a, _ := laggedWalk(16, 2, 7)
	flat := make([]float64, 16)

	_, err := DetectCrossCoupling(a, flat, DefaultCouplingConfig())

	var degenerate *DegenerateInputError
	require.True(t, errors.As(err, &degenerate))
}

func TestDetectCrossCoupling_TooShort(t *testing.T) {
	short := []float64{1, 2, 3, 4, 5, 6, 7}

	_, err := DetectCrossCoupling(short, short, DefaultCouplingConfig())

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
}

func TestDetectCrossCoupling_Idempotent(t *testing.T) {
	a, b := laggedWalk(40, 3, 11)
	cfg := DefaultCouplingConfig()

	first, err := DetectCrossCoupling(a, b, cfg)
	require.NoError(t, err)
	second, err := DetectCrossCoupling(a, b, cfg)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestCouplingConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CouplingConfig)
		field  string
	}{
		{"tolerance too wide", func(c *CouplingConfig) { c.Tolerance = 0.5 }, "Tolerance"},
		{"threshold above one", func(c *CouplingConfig) { c.SignificanceThreshold = 1.5 }, "SignificanceThreshold"},
		{"zero prominence", func(c *CouplingConfig) { c.PeakProminence = 0 }, "PeakProminence"},
		{"negative max lag", func(c *CouplingConfig) { c.MaxLag = -1 }, "MaxLag"},
		{"negative expected frequency", func(c *CouplingConfig) { c.ExpectedFrequencies = []float64{-0.1} }, "ExpectedFrequencies"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCouplingConfig()
			tc.mutate(&cfg)

			_, err := DetectFieldCoupling(twoTones(64, 8, 13), cfg)

			var invalid *InvalidConfigurationError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}
