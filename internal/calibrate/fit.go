// Package calibrate fits the surrogate coefficients sigma and k_H to
// measured impulse data with a box-constrained Levenberg-Marquardt solver.
package calibrate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/jetsim/internal/surrogate"
)

// Bounds is the feasible box for (sigma, k_H).
type Bounds struct {
	SigmaMin float64 `yaml:"sigma_min" json:"sigma_min"`
	SigmaMax float64 `yaml:"sigma_max" json:"sigma_max"`
	KHMin    float64 `yaml:"k_h_min" json:"k_h_min"`
	KHMax    float64 `yaml:"k_h_max" json:"k_h_max"`
}

func DefaultBounds() Bounds {
	return Bounds{SigmaMin: 0.2, SigmaMax: 5.0, KHMin: 0.0, KHMax: 2.0}
}

func (b Bounds) Validate() error {
	if !(b.SigmaMin <= b.SigmaMax) || !(b.KHMin <= b.KHMax) {
		return fmt.Errorf("%w: sigma [%g,%g], k_h [%g,%g]", ErrInvalidBounds, b.SigmaMin, b.SigmaMax, b.KHMin, b.KHMax)
	}
	if b.SigmaMin <= 0 {
		return fmt.Errorf("%w: sigma lower bound must be positive, got %g", ErrInvalidBounds, b.SigmaMin)
	}
	return nil
}

func (b Bounds) lower() [2]float64 { return [2]float64{b.SigmaMin, b.KHMin} }
func (b Bounds) upper() [2]float64 { return [2]float64{b.SigmaMax, b.KHMax} }

// Options controls the solver. Every limit is explicit; use
// DefaultOptions for the reference settings.
type Options struct {
	SOpt           float64
	Bounds         Bounds
	MaxIterations  int
	FTol           float64
	XTol           float64
	GTol           float64
	InitialDamping float64
	Logger         *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		SOpt:           surrogate.DefaultSOpt,
		Bounds:         DefaultBounds(),
		MaxIterations:  200,
		FTol:           1e-12,
		XTol:           1e-12,
		GTol:           1e-12,
		InitialDamping: 1e-3,
	}
}

func (o Options) Validate() error {
	if o.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidOptions, o.MaxIterations)
	}
	if o.FTol < 0 || o.XTol < 0 || o.GTol < 0 || o.InitialDamping <= 0 {
		return fmt.Errorf("%w: ftol=%g xtol=%g gtol=%g damping=%g", ErrInvalidOptions, o.FTol, o.XTol, o.GTol, o.InitialDamping)
	}
	return o.Bounds.Validate()
}

// DefaultInitialGuess is the starting (sigma, k_H).
var DefaultInitialGuess = [2]float64{surrogate.DefaultSigma, surrogate.DefaultKH}

// Benchmark is a set of measured (stroke ratio, tauR, impulse) triples held
// as three parallel sequences.
type Benchmark struct {
	StrokeRatios []float64 `json:"stroke_ratios"`
	TauValues    []float64 `json:"tau_values"`
	Impulses     []float64 `json:"impulses"`
}

func (b Benchmark) Len() int { return len(b.Impulses) }

func (b Benchmark) Validate() error {
	if len(b.StrokeRatios) != len(b.TauValues) || len(b.TauValues) != len(b.Impulses) {
		return fmt.Errorf("%w: %d stroke ratios, %d tau values, %d impulses",
			ErrLengthMismatch, len(b.StrokeRatios), len(b.TauValues), len(b.Impulses))
	}
	if len(b.Impulses) == 0 {
		return ErrEmptyBenchmark
	}
	return nil
}

// FitResult is the outcome of one calibration.
type FitResult struct {
	Sigma      float64 `json:"sigma"`
	KH         float64 `json:"k_h"`
	Cost       float64 `json:"cost"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Reason     string  `json:"reason"`
}

// Envelope returns the fitted surrogate with the given tau0 and the solver's
// optimum location.
func (r *FitResult) Envelope(tau0, sOpt float64) surrogate.Envelope {
	return surrogate.Envelope{SOpt: sOpt, Sigma: r.Sigma, Tau0: tau0, KH: r.KH}
}

// FitCoefficients minimises the sum of squared residuals
// surrogate(sigma, k_H) - impulse over the benchmark. On non-convergence
// the returned result has Converged == false and err wraps
// ErrNonConvergence; its coefficients are the last iterate, not a fit.
func FitCoefficients(bench Benchmark, tau0 float64, initial [2]float64, opts Options) (*FitResult, error) {
	if err := bench.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	prob := &problem{
		bench: bench,
		env:   surrogate.Envelope{SOpt: opts.SOpt, Tau0: tau0},
	}
	s := newSolver(prob, opts)
	return s.solve(initial)
}

// problem evaluates residuals and their Jacobian for a benchmark.
type problem struct {
	bench Benchmark
	env   surrogate.Envelope
}

// eval writes residuals into r and the n x 2 Jacobian, row-major, into jac.
// It returns the sum of squared residuals.
func (p *problem) eval(x [2]float64, r, jac []float64) float64 {
	env := p.env.WithCoefficients(x[0], x[1])
	cost := 0.0
	for i, s := range p.bench.StrokeRatios {
		tau := p.bench.TauValues[i]
		r[i] = env.Impulse(s, tau) - p.bench.Impulses[i]
		jac[2*i], jac[2*i+1] = env.Partials(s, tau)
		cost += r[i] * r[i]
	}
	return cost
}

func clip(x [2]float64, b Bounds) [2]float64 {
	lo, hi := b.lower(), b.upper()
	for i := range x {
		x[i] = math.Min(math.Max(x[i], lo[i]), hi[i])
	}
	return x
}
