package jet

import (
	"fmt"
	"math"

	"github.com/san-kum/jetsim/internal/metrics"
	"github.com/san-kum/jetsim/internal/surrogate"
)

const (
	// TauFloor is the smallest return-time constant used as a divisor.
	TauFloor = 1e-9
	// ComplianceFloor is the smallest cavity compliance used as a divisor.
	ComplianceFloor = 1e-12
)

// Parameters is the full input of one simulation run.
type Parameters struct {
	Diameter         float64            `yaml:"diameter" json:"diameter" validate:"gt=0"`
	Frequency        float64            `yaml:"frequency" json:"frequency" validate:"gt=0"`
	StrokeRatio      float64            `yaml:"stroke_ratio" json:"stroke_ratio"`
	TauR             float64            `yaml:"tau_r" json:"tau_r"`
	CavityCompliance float64            `yaml:"cavity_compliance" json:"cavity_compliance"`
	Density          float64            `yaml:"density" json:"density" validate:"gte=0"`
	Viscosity        float64            `yaml:"viscosity" json:"viscosity" validate:"gte=0"`
	BoucWen          BoucWen            `yaml:"bouc_wen" json:"bouc_wen"`
	DurationCycles   float64            `yaml:"duration_cycles" json:"duration_cycles" validate:"gt=0"`
	Dt               float64            `yaml:"dt" json:"dt" validate:"gt=0"`
	Seed             int64              `yaml:"seed" json:"seed"`
	PressureNoise    float64            `yaml:"pressure_noise" json:"pressure_noise" validate:"gte=0"`
	Envelope         surrogate.Envelope `yaml:"envelope" json:"envelope"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Diameter:         0.010,
		Frequency:        150.0,
		StrokeRatio:      4.0,
		TauR:             2.0,
		CavityCompliance: 2.0e-8,
		Density:          1.2,
		Viscosity:        1.8e-5,
		BoucWen:          DefaultBoucWen(),
		DurationCycles:   10,
		Dt:               1e-5,
		Seed:             417,
		Envelope:         surrogate.DefaultEnvelope(),
	}
}

// Validate rejects parameters no run can start from.
func (p Parameters) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"diameter", p.Diameter},
		{"frequency", p.Frequency},
		{"dt", p.Dt},
		{"duration_cycles", p.DurationCycles},
	}
	for _, c := range checks {
		if !(c.value > 0) || math.IsInf(c.value, 0) {
			return &ParameterError{Field: c.field, Value: c.value}
		}
	}
	return nil
}

// ParamNames lists the keys accepted by SetParam.
func ParamNames() []string {
	return []string{
		"diameter", "frequency", "stroke_ratio", "tau_r", "cavity_compliance",
		"density", "viscosity", "a", "beta", "gamma", "n",
		"duration_cycles", "dt", "seed", "pressure_noise",
		"s_opt", "sigma", "tau0", "k_h",
	}
}

// Param reads one parameter by its YAML key.
func (p Parameters) Param(name string) (float64, error) {
	switch name {
	case "diameter":
		return p.Diameter, nil
	case "frequency":
		return p.Frequency, nil
	case "stroke_ratio":
		return p.StrokeRatio, nil
	case "tau_r":
		return p.TauR, nil
	case "cavity_compliance":
		return p.CavityCompliance, nil
	case "density":
		return p.Density, nil
	case "viscosity":
		return p.Viscosity, nil
	case "a":
		return p.BoucWen.A, nil
	case "beta":
		return p.BoucWen.Beta, nil
	case "gamma":
		return p.BoucWen.Gamma, nil
	case "n":
		return p.BoucWen.N, nil
	case "duration_cycles":
		return p.DurationCycles, nil
	case "dt":
		return p.Dt, nil
	case "seed":
		return float64(p.Seed), nil
	case "pressure_noise":
		return p.PressureNoise, nil
	case "s_opt":
		return p.Envelope.SOpt, nil
	case "sigma":
		return p.Envelope.Sigma, nil
	case "tau0":
		return p.Envelope.Tau0, nil
	case "k_h":
		return p.Envelope.KH, nil
	}
	return 0, fmt.Errorf("jet: unknown parameter %q", name)
}

// SetParam overrides one parameter by its YAML key.
func (p *Parameters) SetParam(name string, value float64) error {
	switch name {
	case "diameter":
		p.Diameter = value
	case "frequency":
		p.Frequency = value
	case "stroke_ratio":
		p.StrokeRatio = value
	case "tau_r":
		p.TauR = value
	case "cavity_compliance":
		p.CavityCompliance = value
	case "density":
		p.Density = value
	case "viscosity":
		p.Viscosity = value
	case "a":
		p.BoucWen.A = value
	case "beta":
		p.BoucWen.Beta = value
	case "gamma":
		p.BoucWen.Gamma = value
	case "n":
		p.BoucWen.N = value
	case "duration_cycles":
		p.DurationCycles = value
	case "dt":
		p.Dt = value
	case "seed":
		p.Seed = int64(value)
	case "pressure_noise":
		p.PressureNoise = value
	case "s_opt":
		p.Envelope.SOpt = value
	case "sigma":
		p.Envelope.Sigma = value
	case "tau0":
		p.Envelope.Tau0 = value
	case "k_h":
		p.Envelope.KH = value
	default:
		return fmt.Errorf("jet: unknown parameter %q", name)
	}
	return nil
}

// Period is one drive cycle in seconds.
func (p Parameters) Period() float64 { return 1.0 / p.Frequency }

// Duration is the simulated time span in seconds.
func (p Parameters) Duration() float64 { return p.DurationCycles * p.Period() }

// Samples is the trace length: ceil(Duration/Dt).
func (p Parameters) Samples() int {
	return int(math.Ceil(p.Duration() / p.Dt))
}

// Trace holds every channel of a run, one slice per channel, all of equal
// length and indexed by sample.
type Trace struct {
	Time         []float64 `json:"time"`
	X            []float64 `json:"x"`
	Xdot         []float64 `json:"xdot"`
	Z            []float64 `json:"z"`
	Pressure     []float64 `json:"pressure"`
	Volume       []float64 `json:"volume"`
	ExitVelocity []float64 `json:"exit_velocity"`
	Thrust       []float64 `json:"thrust"`
}

func newTrace(t []float64) *Trace {
	n := len(t)
	return &Trace{
		Time:         t,
		X:            make([]float64, n),
		Xdot:         make([]float64, n),
		Z:            make([]float64, n),
		Pressure:     make([]float64, n),
		Volume:       make([]float64, n),
		ExitVelocity: make([]float64, n),
		Thrust:       make([]float64, n),
	}
}

func (tr *Trace) Len() int { return len(tr.Time) }

// Sample is one row of a trace.
type Sample struct {
	Time, X, Xdot, Z, Pressure, Volume, ExitVelocity, Thrust float64
}

func (tr *Trace) At(i int) Sample {
	return Sample{
		Time:         tr.Time[i],
		X:            tr.X[i],
		Xdot:         tr.Xdot[i],
		Z:            tr.Z[i],
		Pressure:     tr.Pressure[i],
		Volume:       tr.Volume[i],
		ExitVelocity: tr.ExitVelocity[i],
		Thrust:       tr.Thrust[i],
	}
}

// Channel returns a channel by name, or nil for an unknown name.
func (tr *Trace) Channel(name string) []float64 {
	switch name {
	case "time", "t":
		return tr.Time
	case "x", "displacement":
		return tr.X
	case "xdot", "velocity":
		return tr.Xdot
	case "z", "hysteresis":
		return tr.Z
	case "p", "pressure":
		return tr.Pressure
	case "dv", "volume":
		return tr.Volume
	case "u", "exit_velocity":
		return tr.ExitVelocity
	case "thrust":
		return tr.Thrust
	}
	return nil
}

// ChannelNames lists the canonical channel names in column order.
func ChannelNames() []string {
	return []string{"time", "x", "xdot", "z", "pressure", "volume", "exit_velocity", "thrust"}
}

// Result is the output of [SimulateCycle].
type Result struct {
	Trace          *Trace
	Metrics        metrics.CycleMetrics
	StrokeVelocity float64
	Reynolds       float64
	Diagnostics    []Diagnostic
}
