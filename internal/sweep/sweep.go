// Package sweep evaluates the closed-form impulse surrogate over a
// stroke-ratio by return-time-constant grid without running the integrator.
package sweep

import (
	"runtime"

	"github.com/san-kum/jetsim/internal/surrogate"
	"golang.org/x/sync/errgroup"
)

// Point is one grid evaluation.
type Point struct {
	StrokeRatio float64 `json:"stroke_ratio"`
	TauR        float64 `json:"tau_r"`
	Impulse     float64 `json:"impulse"`
}

// Table is a flat grid: the outer loop runs over TauValues and the inner
// loop over StrokeRatios, so Points[i*len(StrokeRatios)+j] pairs
// TauValues[i] with StrokeRatios[j].
type Table struct {
	StrokeRatios []float64 `json:"stroke_ratios"`
	TauValues    []float64 `json:"tau_values"`
	Points       []Point   `json:"points"`
}

// Run sweeps with the default envelope and the given coefficients.
func Run(strokeRatios, tauValues []float64, sigma, kH float64) *Table {
	return RunEnvelope(strokeRatios, tauValues, surrogate.DefaultEnvelope().WithCoefficients(sigma, kH))
}

// RunEnvelope sweeps with a fully specified envelope. The inputs are copied;
// the returned table shares no memory with the caller.
func RunEnvelope(strokeRatios, tauValues []float64, env surrogate.Envelope) *Table {
	s := append([]float64(nil), strokeRatios...)
	tau := append([]float64(nil), tauValues...)

	cols := len(s)
	points := make([]Point, len(tau)*cols)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range tau {
		row := points[i*cols : (i+1)*cols]
		tauR := tau[i]
		g.Go(func() error {
			for j, sr := range s {
				row[j] = Point{StrokeRatio: sr, TauR: tauR, Impulse: env.Impulse(sr, tauR)}
			}
			return nil
		})
	}
	// Rows never fail.
	_ = g.Wait()

	return &Table{StrokeRatios: s, TauValues: tau, Points: points}
}

// Shape is (rows, cols) = (len(TauValues), len(StrokeRatios)).
func (t *Table) Shape() (rows, cols int) {
	return len(t.TauValues), len(t.StrokeRatios)
}

// Row returns the points for TauValues[i], ordered by stroke ratio.
func (t *Table) Row(i int) []Point {
	_, cols := t.Shape()
	return t.Points[i*cols : (i+1)*cols]
}

// Impulses returns the surrogate values as a rows x cols matrix.
func (t *Table) Impulses() [][]float64 {
	rows, cols := t.Shape()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j, p := range t.Row(i) {
			out[i][j] = p.Impulse
		}
	}
	return out
}

// Best returns the point with the largest impulse; ok is false for an
// empty table.
func (t *Table) Best() (best Point, ok bool) {
	for i, p := range t.Points {
		if i == 0 || p.Impulse > best.Impulse {
			best = p
			ok = true
		}
	}
	return best, ok
}
