package sweep

import "gonum.org/v1/gonum/floats"

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// DefaultStrokeRatios is 40 points over [1, 8].
func DefaultStrokeRatios() []float64 {
	return Linspace(1.0, 8.0, 40)
}

// DefaultTauValues is the reference set of return-time constants.
func DefaultTauValues() []float64 {
	return []float64{0.1, 0.5, 1.0, 2.0, 5.0}
}
