package jet

import (
	"math/rand"

	"github.com/san-kum/jetsim/internal/metrics"
)

// SimulateCycle runs the full-fidelity model for p. The returned trace is
// owned by the caller and never touched again by this package.
func SimulateCycle(p Parameters) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var diags []Diagnostic
	tauR := p.TauR
	if tauR < TauFloor {
		diags = append(diags, Diagnostic{Kind: DiagSingularDivision, Field: "tau_r", Value: tauR, Floor: TauFloor})
		tauR = TauFloor
	}
	compliance := p.CavityCompliance
	if compliance < ComplianceFloor {
		diags = append(diags, Diagnostic{Kind: DiagSingularDivision, Field: "cavity_compliance", Value: compliance, Floor: ComplianceFloor})
		compliance = ComplianceFloor
	}

	tr := newTrace(TimeGrid(p.Samples(), p.Dt))

	drive := NewDrive(p.StrokeRatio, p.Diameter, p.Frequency)
	drive.Fill(tr.Time, tr.X, tr.Xdot)

	p.BoucWen.Integrate(tr.Xdot, tr.Z, p.Dt, tauR)

	cavity := NewCavity(compliance, p.Diameter, p.Density)
	cavity.Fill(tr)

	if p.PressureNoise > 0 {
		rng := rand.New(rand.NewSource(p.Seed))
		addNoise(rng, tr.Pressure, p.PressureNoise)
	}

	m := metrics.Extract(metrics.Input{
		Time:        tr.Time,
		Pressure:    tr.Pressure,
		Volume:      tr.Volume,
		Thrust:      tr.Thrust,
		StrokeRatio: p.StrokeRatio,
		TauR:        p.TauR,
		Envelope:    p.Envelope,
	})

	// Mean ejection velocity over the outstroke half-period.
	u0 := p.StrokeRatio * p.Diameter / (0.5 * p.Period())
	re := 0.0
	if p.Viscosity > 0 {
		re = p.Density * u0 * p.Diameter / p.Viscosity
	}

	return &Result{
		Trace:          tr,
		Metrics:        m,
		StrokeVelocity: u0,
		Reynolds:       re,
		Diagnostics:    diags,
	}, nil
}

// addNoise perturbs v in index order so a seed always maps to the same noise.
func addNoise(rng *rand.Rand, v []float64, std float64) {
	for i := range v {
		v[i] += rng.NormFloat64() * std
	}
}
