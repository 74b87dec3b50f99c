// Package physics implements the fixed-step rigid-body world: force and
// velocity integration, a spatial-hash broad phase, primitive narrow-phase
// tests, a sequential-impulse solver with Baumgarte positional correction,
// raycasts and sleeping.
package physics

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// ShapeKind discriminates the collider shape union.
type ShapeKind int

// Collider shapes. Narrow-phase dispatches on the pair; capsules and
// cylinders collide through their bounding spheres.
const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCapsule
	ShapeCylinder
)

// Shape is a tagged union of collider primitives. Radius applies to
// spheres, capsules and cylinders; HalfExtents to boxes; Height to
// capsules and cylinders.
type Shape struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents vmath.Vec3
	Height      float64
}

// Sphere returns a sphere shape.
func Sphere(radius float64) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Box returns a box shape from half extents.
func Box(hx, hy, hz float64) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: vmath.Vec3{X: hx, Y: hy, Z: hz}}
}

// Capsule returns a capsule shape (radius, cylindrical height).
func Capsule(radius, height float64) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, Height: height}
}

// Cylinder returns a cylinder shape.
func Cylinder(radius, height float64) Shape {
	return Shape{Kind: ShapeCylinder, Radius: radius, Height: height}
}

// BoundingRadius returns the radius of the sphere enclosing the shape,
// used by the broad phase.
func (s Shape) BoundingRadius() float64 {
	switch s.Kind {
	case ShapeSphere:
		return s.Radius
	case ShapeBox:
		return s.HalfExtents.Length()
	case ShapeCapsule, ShapeCylinder:
		return math.Hypot(s.Radius, s.Height/2)
	default:
		return s.Radius
	}
}

// inertia returns the local inertia tensor for the shape at the given
// mass. A zero mass yields the zero tensor (treated as infinite).
func (s Shape) inertia(mass float64) vmath.Mat3 {
	if mass <= 0 {
		return vmath.Mat3{}
	}
	switch s.Kind {
	case ShapeSphere:
		i := 0.4 * mass * s.Radius * s.Radius
		return vmath.DiagonalMat3(i, i, i)
	case ShapeBox:
		h := s.HalfExtents
		x2, y2, z2 := 4*h.X*h.X, 4*h.Y*h.Y, 4*h.Z*h.Z
		m := mass / 12
		return vmath.DiagonalMat3(m*(y2+z2), m*(x2+z2), m*(x2+y2))
	case ShapeCapsule, ShapeCylinder:
		// Solid cylinder approximation, axis along Z.
		r2 := s.Radius * s.Radius
		h2 := s.Height * s.Height
		side := mass * (3*r2 + h2) / 12
		return vmath.DiagonalMat3(side, side, mass*r2/2)
	default:
		return vmath.Mat3{}
	}
}
