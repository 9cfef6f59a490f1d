// Package metrics reduces a finished cycle trace to scalar performance
// numbers.
//
// All integrals use the trapezoidal rule on the sample times, summed left to
// right, so a given trace always reduces to the same bits.
package metrics

import (
	"github.com/san-kum/jetsim/internal/surrogate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// SteadyFraction is the leading share of samples dropped before the loop
// area is taken, discarding the start-up transient.
const SteadyFraction = 0.8

// CycleMetrics are the scalar results of one run.
type CycleMetrics struct {
	LoopArea   float64 `json:"loop_area"`
	ImpulseRaw float64 `json:"impulse_raw"`
	Impulse    float64 `json:"impulse"`
	Efficiency float64 `json:"efficiency"`
	Gain       float64 `json:"gain"`
	PeakThrust float64 `json:"peak_thrust"`
}

// Input is the subset of a trace the extractor reads.
type Input struct {
	Time     []float64
	Pressure []float64
	Volume   []float64
	Thrust   []float64

	StrokeRatio float64
	TauR        float64
	Envelope    surrogate.Envelope
}

// Extract computes every cycle metric from in.
func Extract(in Input) CycleMetrics {
	start := int(SteadyFraction * float64(len(in.Time)))

	raw := Trapezoid(in.Time, in.Thrust)
	eff := in.Envelope.Efficiency(in.StrokeRatio)
	gain := in.Envelope.Gain(in.TauR)

	peak := 0.0
	if len(in.Thrust) > 0 {
		peak = floats.Max(in.Thrust)
	}

	return CycleMetrics{
		LoopArea:   LoopArea(in.Time, in.Pressure, in.Volume, start),
		ImpulseRaw: raw,
		Impulse:    raw * eff * gain,
		Efficiency: eff,
		Gain:       gain,
		PeakThrust: peak,
	}
}

// Trapezoid integrates f over x; fewer than two samples integrate to zero.
func Trapezoid(x, f []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return integrate.Trapezoidal(x, f)
}

// LoopArea integrates p * dV/dt over t from sample start onwards.
func LoopArea(t, p, v []float64, start int) float64 {
	if start < 0 {
		start = 0
	}
	if len(t)-start < 2 {
		return 0
	}
	ts, ps := t[start:], p[start:]
	dv := Gradient(v[start:], ts)

	integrand := make([]float64, len(ts))
	floats.MulTo(integrand, ps, dv)
	return integrate.Trapezoidal(ts, integrand)
}

// Gradient estimates dy/dx at every sample: second-order central differences
// inside, first-order one-sided differences at both ends. Non-uniform
// spacing is allowed.
func Gradient(y, x []float64) []float64 {
	n := len(y)
	g := make([]float64, n)
	if n < 2 {
		return g
	}

	g[0] = (y[1] - y[0]) / (x[1] - x[0])
	g[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])

	for i := 1; i < n-1; i++ {
		hd := x[i] - x[i-1]
		hs := x[i+1] - x[i]
		g[i] = (hd*hd*y[i+1] - hs*hs*y[i-1] + (hs*hs-hd*hd)*y[i]) / (hs * hd * (hd + hs))
	}
	return g
}
