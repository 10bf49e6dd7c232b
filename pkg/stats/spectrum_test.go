package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerSpectrumPureTone(t *testing.T) {
	// cosine with period 8 over 32 samples concentrates power at 0.125
	seq := make([]float64, 32)
	for i := range seq {
		seq[i] = math.Cos(2 * math.Pi * float64(i) / 8)
	}

	bands, err := PowerSpectrum(seq)
	require.NoError(t, err)
	require.Len(t, bands, 17)

	best := bands[1]
	for _, b := range bands[1:] {
		if b.Power > best.Power {
			best = b
		}
	}

	assert.InDelta(t, 0.125, best.Frequency, 1e-12)
	assert.Greater(t, best.Power, 0.0)
}

func TestPowerSpectrumTooShort(t *testing.T) {
	_, err := PowerSpectrum([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestPeaksProminenceFilter(t *testing.T) {
	bands := []Band{
		{Frequency: 0.0, Power: 0},
		{Frequency: 0.1, Power: 1},
		{Frequency: 0.2, Power: 0},
		{Frequency: 0.3, Power: 5},
		{Frequency: 0.4, Power: 0},
		{Frequency: 0.5, Power: 3},
		{Frequency: 0.6, Power: 0},
	}

	peaks := Peaks(bands, 2)
	require.Len(t, peaks, 2, "the minor bump should fall below the prominence floor")

	assert.Equal(t, 0.3, peaks[0].Frequency)
	assert.Equal(t, 0.5, peaks[1].Frequency)
}

func TestPeaksExcludesEndpoints(t *testing.T) {
	bands := []Band{
		{Frequency: 0.0, Power: 5},
		{Frequency: 0.1, Power: 1},
		{Frequency: 0.2, Power: 0},
	}

	assert.Empty(t, Peaks(bands, 0.1), "edge bins are never peaks")
}

func TestPeaksShoulderedPeak(t *testing.T) {
	// the lower peak sits on the flank of the higher one; its prominence
	// is measured from the valley between them
	bands := []Band{
		{Frequency: 0.0, Power: 0},
		{Frequency: 0.1, Power: 10},
		{Frequency: 0.2, Power: 6},
		{Frequency: 0.3, Power: 8},
		{Frequency: 0.4, Power: 0},
	}

	peaks := Peaks(bands, 3)
	require.Len(t, peaks, 1, "shouldered peak has prominence 2 and is filtered")
	assert.Equal(t, 0.1, peaks[0].Frequency)
}
