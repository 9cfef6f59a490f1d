package surrogate

import (
	"math"
	"testing"
)

func TestEfficiencyPeak(t *testing.T) {
	env := DefaultEnvelope()
	if got := env.Efficiency(4.0); got != 1.0 {
		t.Errorf("Efficiency(4.0) = %v, want 1", got)
	}
}

func TestEfficiencySymmetricAndDecreasing(t *testing.T) {
	env := DefaultEnvelope()

	prev := env.Efficiency(env.SOpt)
	for _, d := range []float64{0.1, 0.5, 1.0, 2.0, 3.5} {
		lo := env.Efficiency(env.SOpt - d)
		hi := env.Efficiency(env.SOpt + d)
		if math.Abs(lo-hi) > 1e-15 {
			t.Errorf("asymmetric at d=%v: %v vs %v", d, lo, hi)
		}
		if hi >= prev {
			t.Errorf("not decreasing at d=%v: %v >= %v", d, hi, prev)
		}
		if hi <= 0 || hi > 1 {
			t.Errorf("efficiency out of (0,1] at d=%v: %v", d, hi)
		}
		prev = hi
	}
}

func TestGainBounds(t *testing.T) {
	env := DefaultEnvelope()

	if got := env.Gain(0); got != 1.0 {
		t.Errorf("Gain(0) = %v, want 1", got)
	}

	prev := env.Gain(0)
	for _, tau := range []float64{0.01, 0.1, 0.5, 1, 2, 5, 50, 1e4} {
		g := env.Gain(tau)
		if g <= prev {
			t.Errorf("Gain not increasing at tau=%v: %v <= %v", tau, g, prev)
		}
		if g >= 1+env.KH {
			t.Errorf("Gain(%v) = %v reached bound %v", tau, g, 1+env.KH)
		}
		prev = g
	}
}

func TestImpulseMatchesProduct(t *testing.T) {
	env := DefaultEnvelope().WithCoefficients(1.3, 0.9)
	for _, s := range []float64{1, 2.5, 4, 7.25} {
		for _, tau := range []float64{0.1, 2} {
			want := env.Efficiency(s) * env.Gain(tau)
			if got := env.Impulse(s, tau); got != want {
				t.Errorf("Impulse(%v,%v) = %v, want %v", s, tau, got, want)
			}
		}
	}
}

func TestPartialsFiniteDifference(t *testing.T) {
	env := DefaultEnvelope().WithCoefficients(1.2, 0.5)
	const h = 1e-6

	tests := []struct{ s, tau float64 }{
		{2.0, 0.1},
		{4.0, 1.0},
		{6.5, 5.0},
	}
	for _, tt := range tests {
		dSigma, dKH := env.Partials(tt.s, tt.tau)

		up := env.WithCoefficients(env.Sigma+h, env.KH).Impulse(tt.s, tt.tau)
		dn := env.WithCoefficients(env.Sigma-h, env.KH).Impulse(tt.s, tt.tau)
		if fd := (up - dn) / (2 * h); math.Abs(fd-dSigma) > 1e-6 {
			t.Errorf("dSigma at %+v: analytic %v, fd %v", tt, dSigma, fd)
		}

		up = env.WithCoefficients(env.Sigma, env.KH+h).Impulse(tt.s, tt.tau)
		dn = env.WithCoefficients(env.Sigma, env.KH-h).Impulse(tt.s, tt.tau)
		if fd := (up - dn) / (2 * h); math.Abs(fd-dKH) > 1e-6 {
			t.Errorf("dKH at %+v: analytic %v, fd %v", tt, dKH, fd)
		}
	}
}
