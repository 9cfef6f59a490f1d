package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/jetsim/internal/surrogate"
)

func grid(n int, dt float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
	}
	return t
}

func TestTrapezoidLinear(t *testing.T) {
	x := grid(11, 0.1)
	f := make([]float64, len(x))
	for i := range x {
		f[i] = 2 * x[i]
	}
	if got := Trapezoid(x, f); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestTrapezoidShort(t *testing.T) {
	if got := Trapezoid(nil, nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := Trapezoid([]float64{1}, []float64{5}); got != 0 {
		t.Errorf("expected 0 for single sample, got %v", got)
	}
}

func TestGradient(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
	}{
		{"uniform", grid(50, 0.01)},
		{"nonuniform", []float64{0, 0.01, 0.025, 0.03, 0.05, 0.06, 0.08}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := make([]float64, len(tt.x))
			for i, v := range tt.x {
				y[i] = 3*v*v + 2*v
			}
			g := Gradient(y, tt.x)
			// Second-order interior differences are exact for quadratics.
			for i := 1; i < len(g)-1; i++ {
				want := 6*tt.x[i] + 2
				if math.Abs(g[i]-want) > 1e-9 {
					t.Errorf("g[%d] = %v, want %v", i, g[i], want)
				}
			}
		})
	}
}

func TestLoopAreaEllipse(t *testing.T) {
	// p = sin(wt - phi), v = sin(wt): area over whole cycles is pi*sin(phi) per cycle.
	const (
		n   = 20001
		phi = 0.3
	)
	w := 2 * math.Pi
	ts := grid(n, 2.0/float64(n-1))
	p := make([]float64, n)
	v := make([]float64, n)
	for i, tt := range ts {
		p[i] = math.Sin(w*tt + phi)
		v[i] = math.Sin(w * tt)
	}

	got := LoopArea(ts, p, v, 0)
	want := 2 * math.Pi * math.Sin(phi)
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("loop area = %v, want %v", got, want)
	}
}

func TestLoopAreaStartBeyondEnd(t *testing.T) {
	ts := grid(10, 0.1)
	if got := LoopArea(ts, ts, ts, 9); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestExtract(t *testing.T) {
	ts := grid(1001, 0.001)
	thrust := make([]float64, len(ts))
	for i := range thrust {
		thrust[i] = 2.0
	}

	env := surrogate.DefaultEnvelope()
	m := Extract(Input{
		Time:        ts,
		Pressure:    make([]float64, len(ts)),
		Volume:      make([]float64, len(ts)),
		Thrust:      thrust,
		StrokeRatio: 5.0,
		TauR:        1.0,
		Envelope:    env,
	})

	if math.Abs(m.ImpulseRaw-2.0) > 1e-12 {
		t.Errorf("raw impulse = %v, want 2", m.ImpulseRaw)
	}
	want := m.ImpulseRaw * env.Efficiency(5.0) * env.Gain(1.0)
	if m.Impulse != want {
		t.Errorf("impulse = %v, want %v", m.Impulse, want)
	}
	if m.PeakThrust != 2.0 {
		t.Errorf("peak thrust = %v, want 2", m.PeakThrust)
	}
	if m.LoopArea != 0 {
		t.Errorf("loop area = %v, want 0", m.LoopArea)
	}
}
