// Package special provides the special functions used to turn skill
// differences into probabilities.
package special

import "math"

// Abramowitz and Stegun 7.1.26 coefficients.
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

// Erf approximates the Gauss error function with a maximum absolute error of
// about 1.5e-7. Odd symmetry is handled by evaluating on |x| and restoring
// the sign.
func Erf(x float64) float64 {
	// The coefficients sum to 1-1e-9; pin the origin so Phi(0) is exactly 0.5.
	if x == 0 {
		return 0
	}
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)

	t := 1.0 / (1.0 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	return sign * (1.0 - poly*math.Exp(-x*x))
}

// Phi is the standard normal cumulative distribution function.
func Phi(t float64) float64 {
	return 0.5 * (1 + Erf(t/math.Sqrt2))
}
