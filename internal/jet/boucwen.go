package jet

import "math"

// BoucWen holds the shape coefficients of
//
//	dz/dt = A*xdot - Beta*|xdot|*|z|^(N-1)*z - Gamma*xdot*|z|^N
type BoucWen struct {
	A     float64 `yaml:"a" json:"a"`
	Beta  float64 `yaml:"beta" json:"beta"`
	Gamma float64 `yaml:"gamma" json:"gamma"`
	N     float64 `yaml:"n" json:"n" validate:"gte=1"`
}

func DefaultBoucWen() BoucWen {
	return BoucWen{A: 1.0, Beta: 0.6, Gamma: 0.2, N: 2}
}

// Rate is dz/dt for the given drive velocity and state.
func (bw BoucWen) Rate(xdot, z float64) float64 {
	absz := math.Abs(z)
	return bw.A*xdot - bw.Beta*math.Abs(xdot)*signedPow(z, bw.N) - bw.Gamma*xdot*math.Pow(absz, bw.N)
}

// signedPow is |z|^n * sign(z), the same as |z|^(n-1)*z but finite at z = 0
// for any n.
func signedPow(z, n float64) float64 {
	if z == 0 {
		return 0
	}
	return math.Copysign(math.Pow(math.Abs(z), n), z)
}

// Integrate advances z along xdot with an explicit first-order step of h
// scaled by 1/tauR. z must be as long as xdot; z[0] is taken as the initial
// state. Each step depends on the previous one, so this loop stays serial.
func (bw BoucWen) Integrate(xdot, z []float64, h, tauR float64) {
	if len(z) == 0 {
		return
	}
	scale := h / tauR
	for i := 1; i < len(z); i++ {
		z[i] = z[i-1] + bw.Rate(xdot[i-1], z[i-1])*scale
	}
}
