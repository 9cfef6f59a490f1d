// Package surrogate holds the closed-form jet formation envelope and the
// hysteresis continuity gain.
//
// Both the full-fidelity cycle metrics and the fast sweep/calibration paths
// evaluate the effective impulse through [Envelope], so the surrogate and
// the integrated model share one definition:
//
//	impulse(S, tauR) = Efficiency(S) * Gain(tauR)
//	Efficiency(S)    = exp(-0.5 * ((S - SOpt) / Sigma)^2)
//	Gain(tauR)       = 1 + KH * tauR / (tauR + Tau0)
package surrogate

import "math"

const (
	DefaultSOpt  = 4.0
	DefaultSigma = 1.0
	DefaultTau0  = 0.5
	DefaultKH    = 0.6
)

// Envelope parameterises the formation efficiency curve and the continuity gain.
type Envelope struct {
	SOpt  float64 `yaml:"s_opt" json:"s_opt"`
	Sigma float64 `yaml:"sigma" json:"sigma" validate:"gt=0"`
	Tau0  float64 `yaml:"tau0" json:"tau0" validate:"gte=0"`
	KH    float64 `yaml:"k_h" json:"k_h" validate:"gte=0"`
}

func DefaultEnvelope() Envelope {
	return Envelope{
		SOpt:  DefaultSOpt,
		Sigma: DefaultSigma,
		Tau0:  DefaultTau0,
		KH:    DefaultKH,
	}
}

// WithCoefficients returns a copy with the two fitted coefficients replaced.
func (e Envelope) WithCoefficients(sigma, kH float64) Envelope {
	e.Sigma = sigma
	e.KH = kH
	return e
}

// Efficiency is the Gaussian formation envelope in stroke ratio. It is 1 at
// SOpt and decays symmetrically on either side.
func (e Envelope) Efficiency(s float64) float64 {
	d := (s - e.SOpt) / e.Sigma
	return math.Exp(-0.5 * d * d)
}

// Memory is the saturating fraction tauR/(tauR+Tau0) in [0, 1).
func (e Envelope) Memory(tauR float64) float64 {
	den := tauR + e.Tau0
	if den == 0 {
		return 0
	}
	return tauR / den
}

// Gain is the continuity gain 1 + KH*Memory(tauR). It equals 1 at tauR = 0
// and approaches 1+KH as tauR grows.
func (e Envelope) Gain(tauR float64) float64 {
	return 1.0 + e.KH*e.Memory(tauR)
}

// Impulse is the normalised surrogate impulse Efficiency(s)*Gain(tauR).
func (e Envelope) Impulse(s, tauR float64) float64 {
	return e.Efficiency(s) * e.Gain(tauR)
}

// Partials returns d(Impulse)/d(Sigma) and d(Impulse)/d(KH) at (s, tauR).
func (e Envelope) Partials(s, tauR float64) (dSigma, dKH float64) {
	eff := e.Efficiency(s)
	h := e.Memory(tauR)
	d := s - e.SOpt
	dSigma = eff * (d * d / (e.Sigma * e.Sigma * e.Sigma)) * (1.0 + e.KH*h)
	dKH = eff * h
	return dSigma, dKH
}
