package vmath

import "math"

// Quat is a rotation quaternion. The zero value is not a valid rotation;
// use IdentityQuat or one of the constructors.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle builds a quaternion rotating by angle radians around the
// given axis. The axis does not need to be normalised.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalized()
	sin, cos := math.Sincos(angle / 2)
	return Quat{
		W: cos,
		X: axis.X * sin,
		Y: axis.Y * sin,
		Z: axis.Z * sin,
	}
}

// QuatFromYaw builds a rotation of yaw radians around the world Z axis.
func QuatFromYaw(yaw float64) Quat {
	sin, cos := math.Sincos(yaw / 2)
	return Quat{W: cos, Z: sin}
}

// Mul returns the Hamilton product q * o.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Length returns the quaternion norm.
func (q Quat) Length() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit norm. A degenerate quaternion
// normalises to the identity.
func (q Quat) Normalized() Quat {
	l := q.Length()
	if l < Epsilon {
		return IdentityQuat()
	}
	inv := 1 / l
	return Quat{W: q.W * inv, X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2*u x (u x v + w*v), u = (x,y,z)
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Add(v.Scale(q.W))
	return v.Add(u.Cross(t).Scale(2))
}

// Integrated advances the orientation by an angular velocity omega (rad/s)
// over dt seconds using q' = q + 0.5*(omega_hat * q)*dt, then renormalises.
func (q Quat) Integrated(omega Vec3, dt float64) Quat {
	dq := Quat{W: 0, X: omega.X, Y: omega.Y, Z: omega.Z}.Mul(q)
	half := 0.5 * dt
	return Quat{
		W: q.W + dq.W*half,
		X: q.X + dq.X*half,
		Y: q.Y + dq.Y*half,
		Z: q.Z + dq.Z*half,
	}.Normalized()
}

// Yaw extracts the rotation around the world Z axis in [-pi, pi].
func (q Quat) Yaw() float64 {
	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return math.Atan2(siny, cosy)
}
