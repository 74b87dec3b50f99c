package vmath

import "math"

// Vec3 is a 3D vector. The simulation uses X forward-right plane axes and Z
// up for world space; chassis-local axes are documented at their call sites.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the magnitude of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSq returns the squared magnitude of v.
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns v scaled to unit length, or the zero vector when v is
// shorter than Epsilon.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// ClampLength returns v with its magnitude limited to max.
func (v Vec3) ClampLength(max float64) Vec3 {
	if max <= 0 {
		return v
	}
	lsq := v.LengthSq()
	if lsq <= max*max {
		return v
	}
	return v.Scale(max / math.Sqrt(lsq))
}

// XY projects v onto the ground plane.
func (v Vec3) XY() Vec2 {
	return Vec2{v.X, v.Y}
}
