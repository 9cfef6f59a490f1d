package calibrate

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	minDamping = 1e-15
	maxDamping = 1e16
	// diagFloor keeps the scaled damping term positive for a parameter the
	// data does not constrain.
	diagFloor = 1e-12
)

type solver struct {
	prob *problem
	opts Options

	n   int
	r   []float64
	jac []float64
}

func newSolver(p *problem, opts Options) *solver {
	n := p.bench.Len()
	return &solver{
		prob: p,
		opts: opts,
		n:    n,
		r:    make([]float64, n),
		jac:  make([]float64, 2*n),
	}
}

// normal returns J^T J and J^T r for the current Jacobian and residuals.
func (s *solver) normal() (*mat.Dense, *mat.VecDense) {
	j := mat.NewDense(s.n, 2, s.jac)
	rv := mat.NewVecDense(s.n, s.r)

	var jtj mat.Dense
	jtj.Mul(j.T(), j)

	var g mat.VecDense
	g.MulVec(j.T(), rv)
	return &jtj, &g
}

// freeSet lists the coefficients the next step may move. A coefficient held
// at a bound whose descent direction points out of the box is fixed.
func freeSet(x [2]float64, g *mat.VecDense, b Bounds) []int {
	lo, hi := b.lower(), b.upper()
	free := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		gi := g.AtVec(i)
		if (x[i] <= lo[i] && gi > 0) || (x[i] >= hi[i] && gi < 0) {
			continue
		}
		free = append(free, i)
	}
	return free
}

// projectedGradientNorm is the infinity norm of the gradient over the free
// coefficients.
func projectedGradientNorm(g *mat.VecDense, free []int) float64 {
	norm := 0.0
	for _, i := range free {
		norm = math.Max(norm, math.Abs(g.AtVec(i)))
	}
	return norm
}

// dampedStep solves (J^T J + lambda*D) delta = -J^T r restricted to the free
// coefficients. Fixed coefficients get a zero step.
func dampedStep(jtj *mat.Dense, g *mat.VecDense, free []int, lambda float64) ([2]float64, error) {
	var delta [2]float64
	k := len(free)
	if k == 0 {
		return delta, nil
	}

	m := mat.NewDense(k, k, nil)
	rhs := mat.NewVecDense(k, nil)
	for a, i := range free {
		rhs.SetVec(a, -g.AtVec(i))
		for c, j := range free {
			v := jtj.At(i, j)
			if a == c {
				v += lambda * math.Max(jtj.At(i, i), diagFloor)
			}
			m.Set(a, c, v)
		}
	}

	var d mat.VecDense
	if err := d.SolveVec(m, rhs); err != nil {
		return delta, err
	}
	for a, i := range free {
		delta[i] = d.AtVec(a)
	}
	return delta, nil
}

// stationary reports whether x is a constrained stationary point: either the
// projected gradient passes GTol, or the undamped Gauss-Newton step over the
// free coefficients predicts a relative cost reduction within FTol.
func (s *solver) stationary(jtj *mat.Dense, g *mat.VecDense, free []int, cost float64) bool {
	if projectedGradientNorm(g, free) <= s.opts.GTol {
		return true
	}
	gn, err := dampedStep(jtj, g, free, 0)
	if err != nil {
		return false
	}
	predicted := 0.0
	for _, i := range free {
		predicted -= g.AtVec(i) * gn[i]
	}
	return predicted <= s.opts.FTol*cost
}

func (s *solver) solve(initial [2]float64) (*FitResult, error) {
	b := s.opts.Bounds
	x := clip(initial, b)
	cost := s.prob.eval(x, s.r, s.jac)
	lambda := s.opts.InitialDamping

	rTrial := make([]float64, s.n)
	jTrial := make([]float64, 2*s.n)

	done := func(iter int, reason string) (*FitResult, error) {
		return &FitResult{Sigma: x[0], KH: x[1], Cost: cost, Iterations: iter, Converged: true, Reason: reason}, nil
	}

	for iter := 1; iter <= s.opts.MaxIterations; iter++ {
		if cost == 0 {
			return done(iter-1, "zero residual")
		}

		jtj, g := s.normal()
		free := freeSet(x, g, b)
		if projectedGradientNorm(g, free) <= s.opts.GTol {
			return done(iter-1, "gradient tolerance")
		}

		for {
			delta, err := dampedStep(jtj, g, free, lambda)
			if err != nil {
				lambda *= 10
				if lambda > maxDamping {
					return s.fail(x, cost, iter, "damped system singular")
				}
				continue
			}

			trial := clip([2]float64{x[0] + delta[0], x[1] + delta[1]}, b)
			step := math.Hypot(trial[0]-x[0], trial[1]-x[1])
			if step <= s.opts.XTol*(s.opts.XTol+math.Hypot(x[0], x[1])) {
				// A vanishing step only means convergence at a stationary
				// point; otherwise the damping is too strong to make progress.
				if s.stationary(jtj, g, free, cost) {
					return done(iter, "step tolerance")
				}
				lambda *= 10
				if lambda > maxDamping {
					return s.fail(x, cost, iter, "damping limit reached")
				}
				continue
			}

			trialCost := s.prob.eval(trial, rTrial, jTrial)
			if trialCost < cost {
				reduction := (cost - trialCost) / cost
				x, cost = trial, trialCost
				s.r, rTrial = rTrial, s.r
				s.jac, jTrial = jTrial, s.jac
				lambda = math.Max(lambda/10, minDamping)

				if s.opts.Logger != nil {
					s.opts.Logger.Debug("lm step accepted",
						"iter", iter, "sigma", x[0], "k_h", x[1], "cost", cost, "lambda", lambda, "free", len(free))
				}
				if reduction <= s.opts.FTol {
					return done(iter, "cost tolerance")
				}
				break
			}

			lambda *= 10
			if lambda > maxDamping {
				return s.fail(x, cost, iter, "damping limit reached")
			}
		}
	}

	return s.fail(x, cost, s.opts.MaxIterations, "iteration limit reached")
}

func (s *solver) fail(x [2]float64, cost float64, iter int, reason string) (*FitResult, error) {
	res := &FitResult{Sigma: x[0], KH: x[1], Cost: cost, Iterations: iter, Converged: false, Reason: reason}
	return res, &FitError{Iterations: iter, Cost: cost, Reason: reason}
}
