// Package vmath provides the small fixed-size vector, quaternion and matrix
// types used throughout the simulation core.
package vmath

import "math"

// Epsilon guards divisions by near-zero speeds and lengths.
const Epsilon = 1e-9

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to the range [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Sign returns -1, 0 or +1 depending on the sign of v.
func Sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// WrapAngle normalises an angle in radians to the range [-pi, pi].
func WrapAngle(a float64) float64 {
	wrapped := math.Mod(a+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// Smooth advances current toward target with a first-order filter.
// rate is the filter gain in 1/s; the step is clamped so a large dt can
// never overshoot the target.
func Smooth(current, target, rate, dt float64) float64 {
	t := Clamp01(rate * dt)
	return current + (target-current)*t
}

// MoveToward advances current toward target by at most maxDelta.
func MoveToward(current, target, maxDelta float64) float64 {
	d := target - current
	if math.Abs(d) <= maxDelta {
		return target
	}
	return current + Sign(d)*maxDelta
}
