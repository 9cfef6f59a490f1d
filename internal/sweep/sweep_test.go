package sweep

import (
	"math"
	"testing"

	"github.com/san-kum/jetsim/internal/surrogate"
)

func TestDefaultGrids(t *testing.T) {
	s := DefaultStrokeRatios()
	if len(s) != 40 {
		t.Fatalf("expected 40 stroke ratios, got %d", len(s))
	}
	if s[0] != 1.0 || s[39] != 8.0 {
		t.Errorf("expected endpoints 1 and 8, got %v and %v", s[0], s[39])
	}
	if len(DefaultTauValues()) != 5 {
		t.Errorf("expected 5 tau values")
	}
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		n    int
		want []float64
	}{
		{0, nil},
		{1, []float64{2}},
		{3, []float64{2, 3, 4}},
	}
	for _, tt := range tests {
		got := Linspace(2, 4, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("n=%d: got %v, want %v", tt.n, got, tt.want)
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-15 {
				t.Errorf("n=%d: got %v, want %v", tt.n, got, tt.want)
			}
		}
	}
}

func TestRunOrderingAndConsistency(t *testing.T) {
	s := DefaultStrokeRatios()
	tau := DefaultTauValues()
	table := Run(s, tau, 1.0, 0.6)

	rows, cols := table.Shape()
	if rows != len(tau) || cols != len(s) || len(table.Points) != rows*cols {
		t.Fatalf("unexpected shape %dx%d with %d points", rows, cols, len(table.Points))
	}

	env := surrogate.DefaultEnvelope().WithCoefficients(1.0, 0.6)
	k := 0
	for _, tr := range tau {
		for _, sr := range s {
			p := table.Points[k]
			if p.TauR != tr || p.StrokeRatio != sr {
				t.Fatalf("point %d = (%v,%v), want (%v,%v)", k, p.StrokeRatio, p.TauR, sr, tr)
			}
			if want := env.Efficiency(sr) * env.Gain(tr); p.Impulse != want {
				t.Errorf("point %d impulse = %v, want %v", k, p.Impulse, want)
			}
			k++
		}
	}
}

func TestRunCopiesInputs(t *testing.T) {
	s := []float64{3, 4, 5}
	tau := []float64{1}
	table := Run(s, tau, 1.0, 0.6)
	s[0] = 100
	if table.StrokeRatios[0] != 3 || table.Points[0].StrokeRatio != 3 {
		t.Error("table shares memory with caller input")
	}
}

func TestRowAndImpulses(t *testing.T) {
	table := Run([]float64{2, 4, 6}, []float64{0.1, 5}, 1.0, 0.6)
	row := table.Row(1)
	if len(row) != 3 || row[0].TauR != 5 {
		t.Fatalf("unexpected row %v", row)
	}
	grid := table.Impulses()
	if grid[1][1] != row[1].Impulse {
		t.Errorf("Impulses()[1][1] = %v, want %v", grid[1][1], row[1].Impulse)
	}
}

func TestBest(t *testing.T) {
	table := Run(DefaultStrokeRatios(), DefaultTauValues(), 1.0, 0.6)
	best, ok := table.Best()
	if !ok {
		t.Fatal("expected a best point")
	}
	if best.TauR != 5.0 {
		t.Errorf("expected best at the largest tauR, got %v", best.TauR)
	}
	if math.Abs(best.StrokeRatio-4.0) > 0.2 {
		t.Errorf("expected best near S=4, got %v", best.StrokeRatio)
	}

	if _, ok := Run(nil, nil, 1, 0.6).Best(); ok {
		t.Error("expected no best point for an empty table")
	}
}
