// Package synth generates synthetic sequences with known geometric
// structure, for demos and tests.
package synth

import (
	"math"
	"math/rand"
)

// PhiDecay returns n terms of a geometric series starting at start,
// each term 1/phi times the previous, so every successive ratio equals
// the golden ratio conjugate.
func PhiDecay(start float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	seq := make([]float64, n)
	v := start
	for i := range seq {
		seq[i] = v
		v /= math.Phi
	}
	return seq
}

// Fibonacci returns the first n Fibonacci terms multiplied by scale.
func Fibonacci(scale float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	seq := make([]float64, n)
	a, b := 1.0, 1.0
	for i := range seq {
		seq[i] = scale * a
		a, b = b, a+b
	}
	return seq
}

// Noise returns n uniform draws in [min, max) from a seeded generator.
func Noise(min, max float64, n int, seed int64) []float64 {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = min + rng.Float64()*(max-min)
	}
	return seq
}

// WithNoise returns a copy of seq where each element is perturbed by
// gaussian noise with standard deviation level times the element
// magnitude. Level zero returns an unmodified copy.
func WithNoise(seq []float64, level float64, seed int64) []float64 {
	out := make([]float64, len(seq))
	copy(out, seq)
	if level <= 0 {
		return out
	}

	rng := rand.New(rand.NewSource(seed))
	for i, v := range out {
		out[i] = v + rng.NormFloat64()*level*math.Abs(v)
	}
	return out
}

// Tones returns n samples of a sum of unit-amplitude sine waves at the
// given frequencies, expressed in cycles per sample.
func Tones(n int, freqs ...float64) []float64 {
	if n <= 0 {
		return nil
	}

	seq := make([]float64, n)
	for i := range seq {
		t := float64(i)
		for _, f := range freqs {
			seq[i] += math.Sin(2 * math.Pi * f * t)
		}
	}
	return seq
}
