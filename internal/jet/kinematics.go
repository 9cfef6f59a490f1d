package jet

import "math"

// Drive is the sinusoidal diaphragm motion x(t) = Amplitude*sin(Omega*t).
type Drive struct {
	Amplitude float64
	Omega     float64
}

// NewDrive sizes the drive from the stroke length S*D; the diaphragm swings
// half the stroke either side of rest.
func NewDrive(strokeRatio, diameter, frequency float64) Drive {
	return Drive{
		Amplitude: strokeRatio * diameter / 2.0,
		Omega:     2 * math.Pi * frequency,
	}
}

// At returns displacement and its analytic time derivative at t.
func (d Drive) At(t float64) (x, xdot float64) {
	s, c := math.Sincos(d.Omega * t)
	return d.Amplitude * s, d.Omega * d.Amplitude * c
}

// PeakVelocity is the largest diaphragm speed.
func (d Drive) PeakVelocity() float64 { return d.Omega * d.Amplitude }

// TimeGrid returns n samples t[i] = i*dt.
func TimeGrid(n int, dt float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
	}
	return t
}

// Fill evaluates the drive on t, writing into x and xdot.
func (d Drive) Fill(t, x, xdot []float64) {
	ParallelFor(len(t), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			x[i], xdot[i] = d.At(t[i])
		}
	})
}
