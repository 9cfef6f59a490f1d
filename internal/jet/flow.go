package jet

import "math"

const (
	// ContractionCoefficient scales orifice velocity to vena-contracta velocity.
	ContractionCoefficient = 0.8
	// HystereticWeight is the share of the cavity stiffness applied to z.
	HystereticWeight = 0.2
)

// Cavity maps drive and hysteretic state to pressure, volume and jet output.
type Cavity struct {
	Stiffness           float64
	HystereticStiffness float64
	Area                float64
	Density             float64
}

// NewCavity expects compliance already floored.
func NewCavity(compliance, diameter, density float64) Cavity {
	k1 := 1.0 / compliance
	return Cavity{
		Stiffness:           k1,
		HystereticStiffness: HystereticWeight * k1,
		Area:                math.Pi * (diameter / 2.0) * (diameter / 2.0),
		Density:             density,
	}
}

func (c Cavity) Pressure(x, z float64) float64 {
	return c.Stiffness*x + c.HystereticStiffness*z
}

func (c Cavity) Volume(x float64) float64 {
	return c.Area * x
}

// ExitVelocity is non-zero only on the outstroke (xdot > 0).
func (c Cavity) ExitVelocity(xdot float64) float64 {
	if xdot <= 0 {
		return 0
	}
	return ContractionCoefficient * xdot / c.Area
}

// Thrust is rho*A*u^2; u is already zero on the instroke.
func (c Cavity) Thrust(u float64) float64 {
	return c.Density * c.Area * u * u
}

// Fill derives the pressure, volume, exit velocity and thrust channels.
func (c Cavity) Fill(tr *Trace) {
	ParallelFor(tr.Len(), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			tr.Pressure[i] = c.Pressure(tr.X[i], tr.Z[i])
			tr.Volume[i] = c.Volume(tr.X[i])
			u := c.ExitVelocity(tr.Xdot[i])
			tr.ExitVelocity[i] = u
			tr.Thrust[i] = c.Thrust(u)
		}
	})
}
