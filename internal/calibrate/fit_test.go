package calibrate

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/san-kum/jetsim/internal/surrogate"
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func truthEnvelope(sigma, kH, tau0 float64) surrogate.Envelope {
	return surrogate.Envelope{SOpt: surrogate.DefaultSOpt, Sigma: sigma, Tau0: tau0, KH: kH}
}

func TestFitRecoversExactCoefficients(t *testing.T) {
	const (
		sigma = 1.2
		kH    = 0.5
		tau0  = 0.5
	)
	bench := Synthesize(nil, linspace(1, 8, 15), []float64{0.1, 0.5, 1, 2, 5}, truthEnvelope(sigma, kH, tau0), 0)

	res, err := FitCoefficients(bench, tau0, DefaultInitialGuess, DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got reason %q", res.Reason)
	}
	if math.Abs(res.Sigma-sigma) > 1e-6 {
		t.Errorf("sigma = %.10f, want %v", res.Sigma, sigma)
	}
	if math.Abs(res.KH-kH) > 1e-6 {
		t.Errorf("k_H = %.10f, want %v", res.KH, kH)
	}
	if res.Cost > 1e-12 {
		t.Errorf("expected near-zero cost, got %g", res.Cost)
	}
}

func TestFitNoisyData(t *testing.T) {
	rng := rand.New(rand.NewSource(417))
	bench := Synthesize(rng, linspace(1, 8, 40), []float64{0.1, 0.5, 1, 2, 5}, truthEnvelope(0.9, 0.8, 0.5), 1e-3)

	res, err := FitCoefficients(bench, 0.5, DefaultInitialGuess, DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(res.Sigma-0.9) > 0.01 || math.Abs(res.KH-0.8) > 0.01 {
		t.Errorf("fit (%v, %v) too far from (0.9, 0.8)", res.Sigma, res.KH)
	}
	if res.Cost <= 0 {
		t.Errorf("expected positive cost with noise, got %g", res.Cost)
	}
}

func TestFitRespectsBounds(t *testing.T) {
	bench := Synthesize(nil, linspace(1, 8, 20), []float64{0.5, 2, 5}, truthEnvelope(1.0, 3.0, 0.5), 0)

	res, err := FitCoefficients(bench, 0.5, [2]float64{10, -1}, DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	b := DefaultBounds()
	if res.Sigma < b.SigmaMin || res.Sigma > b.SigmaMax {
		t.Errorf("sigma %v outside bounds", res.Sigma)
	}
	if math.Abs(res.KH-b.KHMax) > 1e-6 {
		t.Errorf("expected k_H pinned at %v, got %v", b.KHMax, res.KH)
	}
}

func TestFitFreeCoefficientWhileSigmaPinned(t *testing.T) {
	// sigma's unconstrained optimum lies above the box, so it must stop at
	// the upper bound while k_H still reaches its own optimum.
	const tau0 = 0.5
	bench := Synthesize(nil, linspace(1, 8, 15), []float64{0.1, 0.5, 1, 2, 5}, truthEnvelope(7, 0.5, tau0), 0)

	res, err := FitCoefficients(bench, tau0, DefaultInitialGuess, DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got reason %q", res.Reason)
	}

	b := DefaultBounds()
	if res.Sigma != b.SigmaMax {
		t.Errorf("sigma = %v, want pinned at %v", res.Sigma, b.SigmaMax)
	}

	// With sigma fixed the impulse is linear in k_H: closed-form optimum.
	env := truthEnvelope(b.SigmaMax, 0, tau0)
	var num, den float64
	for i, s := range bench.StrokeRatios {
		eff := env.Efficiency(s)
		a := eff * env.Memory(bench.TauValues[i])
		num += a * (bench.Impulses[i] - eff)
		den += a * a
	}
	wantKH := num / den
	wantCost := 0.0
	for i, s := range bench.StrokeRatios {
		r := env.WithCoefficients(b.SigmaMax, wantKH).Impulse(s, bench.TauValues[i]) - bench.Impulses[i]
		wantCost += r * r
	}

	if math.Abs(res.KH-wantKH) > 1e-6 {
		t.Errorf("k_H = %.10f, want %.10f", res.KH, wantKH)
	}
	if res.Cost > wantCost*(1+1e-9) {
		t.Errorf("cost %.10g above bounded minimum %.10g", res.Cost, wantCost)
	}
}

func TestFitStalledStepIsNotConvergence(t *testing.T) {
	bench := Synthesize(nil, linspace(1, 8, 15), []float64{0.1, 0.5, 1, 2, 5}, truthEnvelope(7, 0.5, 0.5), 0)

	opts := DefaultOptions()
	opts.InitialDamping = 1e15
	opts.XTol = 1e-3
	res, err := FitCoefficients(bench, 0.5, [2]float64{5, 0}, opts)
	if err == nil || res.Converged {
		t.Fatalf("expected a stalled fit to be reported as non-converged, got %+v", res)
	}
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("expected ErrNonConvergence, got %v", err)
	}
}

func TestFitNonConvergence(t *testing.T) {
	bench := Synthesize(nil, linspace(1, 8, 15), []float64{0.1, 1, 5}, truthEnvelope(2.5, 1.5, 0.5), 0)

	opts := DefaultOptions()
	opts.MaxIterations = 1
	res, err := FitCoefficients(bench, 0.5, DefaultInitialGuess, opts)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence, got %v", err)
	}
	var fe *FitError
	if !errors.As(err, &fe) || fe.Iterations != 1 {
		t.Errorf("expected FitError after 1 iteration, got %v", err)
	}
	if res == nil || res.Converged {
		t.Error("expected a result flagged as not converged")
	}
}

func TestFitInputValidation(t *testing.T) {
	good := Synthesize(nil, []float64{3, 4}, []float64{1}, surrogate.DefaultEnvelope(), 0)

	tests := []struct {
		name  string
		bench Benchmark
		opts  func(*Options)
		want  error
	}{
		{"length mismatch", Benchmark{StrokeRatios: []float64{1, 2}, TauValues: []float64{1}, Impulses: []float64{1, 2}}, nil, ErrLengthMismatch},
		{"empty", Benchmark{}, nil, ErrEmptyBenchmark},
		{"inverted bounds", good, func(o *Options) { o.Bounds.KHMin = 3 }, ErrInvalidBounds},
		{"zero iterations", good, func(o *Options) { o.MaxIterations = 0 }, ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := FitCoefficients(tt.bench, 0.5, DefaultInitialGuess, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFitLogsIterations(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	bench := Synthesize(nil, linspace(1, 8, 10), []float64{0.5, 2}, truthEnvelope(1.4, 0.3, 0.5), 0)
	if _, err := FitCoefficients(bench, 0.5, DefaultInitialGuess, opts); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !strings.Contains(buf.String(), "lm step accepted") {
		t.Error("expected debug log lines for accepted steps")
	}
}

func TestSynthesizeLayout(t *testing.T) {
	b := Synthesize(nil, []float64{1, 2, 3}, []float64{0.1, 0.2}, surrogate.DefaultEnvelope(), 0)
	if b.Len() != 6 {
		t.Fatalf("expected 6 points, got %d", b.Len())
	}
	if b.TauValues[2] != 0.1 || b.TauValues[3] != 0.2 || b.StrokeRatios[3] != 1 {
		t.Errorf("unexpected ordering: %v / %v", b.StrokeRatios, b.TauValues)
	}
}
