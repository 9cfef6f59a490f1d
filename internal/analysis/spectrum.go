package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// AmplitudeSpectrum holds frequencies in Hz and matching single-sided
// amplitudes.
type AmplitudeSpectrum struct {
	Frequencies []float64
	Amplitudes  []float64
}

// Spectrum returns the single-sided amplitude spectrum of values sampled
// every dt seconds. The mean is kept in bin 0; for even n the Nyquist bin
// has no mirror image and is not doubled either.
func Spectrum(values []float64, dt float64) *AmplitudeSpectrum {
	n := len(values)
	if n < 2 || dt <= 0 {
		return &AmplitudeSpectrum{}
	}

	coeffs := fft.FFTReal(values)

	half := n/2 + 1
	out := &AmplitudeSpectrum{
		Frequencies: make([]float64, half),
		Amplitudes:  make([]float64, half),
	}
	for i := 0; i < half; i++ {
		out.Frequencies[i] = float64(i) / (float64(n) * dt)
		mag := cmplx.Abs(coeffs[i])
		if i == 0 || 2*i == n {
			out.Amplitudes[i] = mag / float64(n)
		} else {
			out.Amplitudes[i] = 2.0 * mag / float64(n)
		}
	}
	return out
}

// DominantFrequency is the frequency of the largest non-DC bin.
func (s *AmplitudeSpectrum) DominantFrequency() float64 {
	if len(s.Amplitudes) < 2 {
		return 0
	}
	return s.Frequencies[1+floats.MaxIdx(s.Amplitudes[1:])]
}

// amplitudeNear returns the largest amplitude within one bin-width of f, so
// leakage into a neighbouring bin is still picked up.
func (s *AmplitudeSpectrum) amplitudeNear(f float64) float64 {
	if len(s.Frequencies) < 2 {
		return 0
	}
	df := s.Frequencies[1] - s.Frequencies[0]
	best := 0.0
	for i, fi := range s.Frequencies {
		if math.Abs(fi-f) <= df {
			best = math.Max(best, s.Amplitudes[i])
		}
	}
	return best
}

// HarmonicRatio is sqrt(sum of squared harmonic amplitudes 2f0..maxHarmonic*f0)
// divided by the amplitude at f0. A linear response gives 0.
func (s *AmplitudeSpectrum) HarmonicRatio(f0 float64, maxHarmonic int) float64 {
	fund := s.amplitudeNear(f0)
	if fund == 0 {
		return 0
	}
	sum := 0.0
	for k := 2; k <= maxHarmonic; k++ {
		a := s.amplitudeNear(float64(k) * f0)
		sum += a * a
	}
	return math.Sqrt(sum) / fund
}

// HarmonicRatio is a convenience wrapper over Spectrum.
func HarmonicRatio(values []float64, dt, f0 float64, maxHarmonic int) float64 {
	return Spectrum(values, dt).HarmonicRatio(f0, maxHarmonic)
}
