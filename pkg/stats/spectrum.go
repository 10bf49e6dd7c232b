package stats

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Band is a single bin of a one-sided power spectrum.
type Band struct {
	// Frequency in cycles per sample, in [0, 0.5]. Index 0 is the DC bin.
	Frequency float64
	Power     float64
}

// PowerSpectrum computes the one-sided power spectrum of values. The
// result has len(values)/2+1 bands in ascending frequency order.
func PowerSpectrum(values []float64) ([]Band, error) {
	if len(values) < 4 {
		return nil, fmt.Errorf("not enough data points for spectrum: need 4, got %d", len(values))
	}

	fft := fourier.NewFFT(len(values))
	coeffs := fft.Coefficients(nil, values)

	bands := make([]Band, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		bands[i] = Band{Frequency: fft.Freq(i), Power: a * a}
	}

	return bands, nil
}

// Peaks returns the interior local maxima of the spectrum whose
// prominence is at least minProminence, in ascending frequency order.
// The first and last bins can never be peaks, so the DC bin is always
// excluded.
func Peaks(bands []Band, minProminence float64) []Band {
	var peaks []Band
	for i := 1; i < len(bands)-1; i++ {
		if bands[i].Power <= bands[i-1].Power || bands[i].Power <= bands[i+1].Power {
			continue
		}
		if prominence(bands, i) >= minProminence {
			peaks = append(peaks, bands[i])
		}
	}
	return peaks
}

// prominence measures how far the peak at index i rises above its
// surroundings: on each side, walk until a higher bin or the spectrum
// edge and record the lowest bin passed; the peak's base is the higher
// of the two minima.
func prominence(bands []Band, i int) float64 {
	height := bands[i].Power

	leftBase := height
	for j := i - 1; j >= 0 && bands[j].Power <= height; j-- {
		if bands[j].Power < leftBase {
			leftBase = bands[j].Power
		}
	}

	rightBase := height
	for j := i + 1; j < len(bands) && bands[j].Power <= height; j++ {
		if bands[j].Power < rightBase {
			rightBase = bands[j].Power
		}
	}

	base := leftBase
	if rightBase > base {
		base = rightBase
	}

	return height - base
}
