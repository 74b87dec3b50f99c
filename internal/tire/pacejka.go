// Package tire implements the slip-based tire force model: a Pacejka-family
// magic-formula curve for lateral and longitudinal force, a friction circle
// for combined slip, and the temperature grip window. Every function is
// pure; per-wheel state lives on the vehicle and is passed in.
package tire

import "math"

// Coefficients parameterise the magic-formula curve
// F = D*sin(C*atan(B*s - E*(B*s - atan(B*s)))).
type Coefficients struct {
	B float64 // stiffness
	C float64 // shape
	D float64 // peak
	E float64 // curvature
}

// DefaultCoefficients is tuned for a road tire with slip angles expressed
// in radians. The stiffness folds in the radian/degree bridge so small
// angles produce realistic cornering stiffness.
func DefaultCoefficients() Coefficients {
	return Coefficients{B: 10.0, C: 1.9, D: 1.0, E: 0.97}
}

// curve evaluates the normalised magic formula at slip s. Output is in
// [-D, D] and has the sign of s.
func (c Coefficients) curve(s float64) float64 {
	bs := c.B * s
	return c.D * math.Sin(c.C*math.Atan(bs-c.E*(bs-math.Atan(bs))))
}

// LateralForce returns the lateral tire force in newtons for a slip angle
// in radians, a vertical load in newtons and a combined grip multiplier
// (surface grip x temperature grip x damage factor). The force opposes the
// slip direction: positive slip angle yields a negative (restoring) force.
func LateralForce(slipAngle, load, grip float64, c Coefficients) float64 {
	if load <= 0 {
		return 0
	}
	return -c.curve(slipAngle) * load * grip
}

// LongitudinalForce returns the longitudinal tire force in newtons for a
// dimensionless slip ratio, using the same curve shape as LateralForce.
// Positive slip ratio (wheel spinning faster than ground) drives forward.
func LongitudinalForce(slipRatio, load, grip float64, c Coefficients) float64 {
	if load <= 0 {
		return 0
	}
	return c.curve(slipRatio) * load * grip
}

// FrictionCircle limits the combined force vector so that
// sqrt(fx^2+fy^2) <= mu*load. When the bound is exceeded both components
// are scaled down uniformly, preserving the force direction.
func FrictionCircle(fx, fy, mu, load float64) (float64, float64) {
	if load <= 0 {
		return 0, 0
	}
	limit := mu * load
	mag := math.Hypot(fx, fy)
	if mag <= limit || mag == 0 {
		return fx, fy
	}
	scale := limit / mag
	return fx * scale, fy * scale
}
