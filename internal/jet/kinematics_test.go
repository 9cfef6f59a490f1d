package jet

import (
	"math"
	"testing"
)

func TestDriveVelocityIsDerivative(t *testing.T) {
	d := NewDrive(4.0, 0.010, 150.0)
	const h = 1e-9

	for _, tt := range []float64{0, 1e-4, 1.3e-3, 3.33e-3, 6.1e-3} {
		xp, _ := d.At(tt + h)
		xm, _ := d.At(tt - h)
		_, v := d.At(tt)
		fd := (xp - xm) / (2 * h)
		if math.Abs(fd-v) > 1e-5*d.PeakVelocity() {
			t.Errorf("t=%v: xdot=%v, finite difference %v", tt, v, fd)
		}
	}
}

func TestDriveAmplitude(t *testing.T) {
	d := NewDrive(4.0, 0.010, 150.0)
	if math.Abs(d.Amplitude-0.02) > 1e-15 {
		t.Errorf("expected amplitude 0.02, got %v", d.Amplitude)
	}
	x, v := d.At(0)
	if x != 0 || math.Abs(v-d.PeakVelocity()) > 1e-12 {
		t.Errorf("At(0) = (%v, %v), want (0, %v)", x, v, d.PeakVelocity())
	}
}

func TestDriveFillMatchesAt(t *testing.T) {
	d := NewDrive(3.0, 0.02, 90.0)
	ts := TimeGrid(10000, 1e-5)
	x := make([]float64, len(ts))
	v := make([]float64, len(ts))
	d.Fill(ts, x, v)

	for i, tt := range ts {
		wx, wv := d.At(tt)
		if x[i] != wx || v[i] != wv {
			t.Fatalf("sample %d: got (%v,%v), want (%v,%v)", i, x[i], v[i], wx, wv)
		}
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 100, 5000, 65537} {
		hits := make([]int, n)
		ParallelFor(n, 1000, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}
