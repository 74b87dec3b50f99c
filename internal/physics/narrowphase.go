package physics

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// Manifold is one contact between two bodies. Normal points from A to B.
type Manifold struct {
	A, B        *Body
	Point       vmath.Vec3
	Normal      vmath.Vec3
	Penetration float64

	Restitution float64
	Friction    float64

	// NormalImpulse accumulates over solver iterations so the contact
	// can be clamped to stay repulsive.
	NormalImpulse float64
}

// collide dispatches on the shape pair. Capsules and cylinders are
// treated as their bounding spheres, which is adequate for cones, barrels
// and similar track furniture.
func collide(a, b *Body) (Manifold, bool) {
	ka, kb := effectiveKind(a.Shape), effectiveKind(b.Shape)
	switch {
	case ka == ShapeSphere && kb == ShapeSphere:
		return sphereSphere(a, b)
	case ka == ShapeSphere && kb == ShapeBox:
		m, ok := sphereBox(b, a)
		if ok {
			m.A, m.B = a, b
			m.Normal = m.Normal.Scale(-1)
		}
		return m, ok
	case ka == ShapeBox && kb == ShapeSphere:
		return sphereBox(a, b)
	case ka == ShapeBox && kb == ShapeBox:
		return boxBox(a, b)
	default:
		return Manifold{}, false
	}
}

func effectiveKind(s Shape) ShapeKind {
	if s.Kind == ShapeCapsule || s.Kind == ShapeCylinder {
		return ShapeSphere
	}
	return s.Kind
}

func boundingSphereRadius(s Shape) float64 {
	if s.Kind == ShapeCapsule || s.Kind == ShapeCylinder {
		return s.BoundingRadius()
	}
	return s.Radius
}

func fillMaterial(m *Manifold) {
	// Mixed material: max restitution keeps bouncy pairs bouncy, friction
	// combines geometrically.
	m.Restitution = math.Max(m.A.Restitution, m.B.Restitution)
	m.Friction = math.Sqrt(m.A.Friction * m.B.Friction)
}

func sphereSphere(a, b *Body) (Manifold, bool) {
	ra := boundingSphereRadius(a.Shape)
	rb := boundingSphereRadius(b.Shape)
	d := b.Position.Sub(a.Position)
	distSq := d.LengthSq()
	rsum := ra + rb
	if distSq >= rsum*rsum {
		return Manifold{}, false
	}
	dist := math.Sqrt(distSq)
	normal := vmath.Vec3{X: 1}
	if dist > vmath.Epsilon {
		normal = d.Scale(1 / dist)
	}
	m := Manifold{
		A:           a,
		B:           b,
		Normal:      normal,
		Penetration: rsum - dist,
		Point:       a.Position.Add(normal.Scale(ra - (rsum-dist)/2)),
	}
	fillMaterial(&m)
	return m, true
}

// sphereBox tests the sphere s against the oriented box b. The returned
// normal points from the box toward the sphere.
func sphereBox(b, s *Body) (Manifold, bool) {
	r := boundingSphereRadius(s.Shape)
	h := b.Shape.HalfExtents

	// Sphere centre in the box's local frame.
	local := b.Orientation.Conjugate().Rotate(s.Position.Sub(b.Position))
	closest := vmath.Vec3{
		X: vmath.Clamp(local.X, -h.X, h.X),
		Y: vmath.Clamp(local.Y, -h.Y, h.Y),
		Z: vmath.Clamp(local.Z, -h.Z, h.Z),
	}

	delta := local.Sub(closest)
	distSq := delta.LengthSq()
	if distSq >= r*r {
		return Manifold{}, false
	}

	var normalLocal vmath.Vec3
	var penetration float64
	if distSq > vmath.Epsilon*vmath.Epsilon {
		// Centre outside the box: push along the closest-point axis.
		dist := math.Sqrt(distSq)
		normalLocal = delta.Scale(1 / dist)
		penetration = r - dist
	} else {
		// Centre inside the box: push out through the nearest face.
		dx := h.X - math.Abs(local.X)
		dy := h.Y - math.Abs(local.Y)
		dz := h.Z - math.Abs(local.Z)
		switch {
		case dx <= dy && dx <= dz:
			normalLocal = vmath.Vec3{X: vmath.Sign(local.X)}
			penetration = dx + r
		case dy <= dz:
			normalLocal = vmath.Vec3{Y: vmath.Sign(local.Y)}
			penetration = dy + r
		default:
			normalLocal = vmath.Vec3{Z: vmath.Sign(local.Z)}
			penetration = dz + r
		}
	}

	normal := b.Orientation.Rotate(normalLocal)
	m := Manifold{
		A:           b,
		B:           s,
		Normal:      normal,
		Penetration: penetration,
		Point:       b.Position.Add(b.Orientation.Rotate(closest)),
	}
	fillMaterial(&m)
	return m, true
}

// boxBox runs a separating-axis test over the six face normals of the two
// oriented boxes. Edge-edge axes are skipped; for mostly-upright chassis
// and wall boxes the face axes dominate.
func boxBox(a, b *Body) (Manifold, bool) {
	ra := vmath.Mat3FromQuat(a.Orientation)
	rb := vmath.Mat3FromQuat(b.Orientation)
	axes := [6]vmath.Vec3{
		{X: ra[0], Y: ra[3], Z: ra[6]},
		{X: ra[1], Y: ra[4], Z: ra[7]},
		{X: ra[2], Y: ra[5], Z: ra[8]},
		{X: rb[0], Y: rb[3], Z: rb[6]},
		{X: rb[1], Y: rb[4], Z: rb[7]},
		{X: rb[2], Y: rb[5], Z: rb[8]},
	}

	d := b.Position.Sub(a.Position)
	best := math.MaxFloat64
	var bestAxis vmath.Vec3

	for _, axis := range axes {
		pa := projectBox(a.Shape.HalfExtents, ra, axis)
		pb := projectBox(b.Shape.HalfExtents, rb, axis)
		dist := math.Abs(d.Dot(axis))
		overlap := pa + pb - dist
		if overlap <= 0 {
			return Manifold{}, false
		}
		if overlap < best {
			best = overlap
			bestAxis = axis
			if d.Dot(axis) < 0 {
				bestAxis = axis.Scale(-1)
			}
		}
	}

	// Contact point: deepest point of B against the separating face of A,
	// approximated by the support point of B along -normal.
	point := supportPoint(b, bestAxis.Scale(-1))

	m := Manifold{
		A:           a,
		B:           b,
		Normal:      bestAxis,
		Penetration: best,
		Point:       point,
	}
	fillMaterial(&m)
	return m, true
}

// projectBox returns the half-length of the box's projection onto axis.
func projectBox(h vmath.Vec3, r vmath.Mat3, axis vmath.Vec3) float64 {
	cols := [3]vmath.Vec3{
		{X: r[0], Y: r[3], Z: r[6]},
		{X: r[1], Y: r[4], Z: r[7]},
		{X: r[2], Y: r[5], Z: r[8]},
	}
	return h.X*math.Abs(cols[0].Dot(axis)) +
		h.Y*math.Abs(cols[1].Dot(axis)) +
		h.Z*math.Abs(cols[2].Dot(axis))
}

// supportPoint returns the box vertex furthest along dir in world space.
func supportPoint(b *Body, dir vmath.Vec3) vmath.Vec3 {
	local := b.Orientation.Conjugate().Rotate(dir)
	h := b.Shape.HalfExtents
	v := vmath.Vec3{
		X: h.X * vmath.Sign(local.X),
		Y: h.Y * vmath.Sign(local.Y),
		Z: h.Z * vmath.Sign(local.Z),
	}
	return b.Position.Add(b.Orientation.Rotate(v))
}
