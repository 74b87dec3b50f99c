package physics

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// RayHit describes the closest intersection found by a raycast.
type RayHit struct {
	Body     *Body
	Point    vmath.Vec3
	Normal   vmath.Vec3
	Distance float64
}

// Raycast finds the closest body hit by the ray from origin along dir
// within maxDist. The filter, when non-nil, skips bodies it rejects.
// Used for wall-distance lookups and ground checks.
func (w *World) Raycast(origin, dir vmath.Vec3, maxDist float64, filter func(*Body) bool) (RayHit, bool) {
	dir = dir.Normalized()
	if dir.LengthSq() < vmath.Epsilon {
		return RayHit{}, false
	}

	best := RayHit{Distance: maxDist}
	found := false
	for _, b := range w.bodies {
		if filter != nil && !filter(b) {
			continue
		}
		var t float64
		var n vmath.Vec3
		var ok bool
		switch effectiveKind(b.Shape) {
		case ShapeSphere:
			t, n, ok = raySphere(origin, dir, b.Position, boundingSphereRadius(b.Shape))
		case ShapeBox:
			t, n, ok = rayBox(origin, dir, b)
		}
		if ok && t >= 0 && t < best.Distance {
			best = RayHit{
				Body:     b,
				Point:    origin.Add(dir.Scale(t)),
				Normal:   n,
				Distance: t,
			}
			found = true
		}
	}
	return best, found
}

func raySphere(origin, dir, centre vmath.Vec3, radius float64) (float64, vmath.Vec3, bool) {
	oc := origin.Sub(centre)
	b := oc.Dot(dir)
	c := oc.LengthSq() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, vmath.Vec3{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, vmath.Vec3{}, false
	}
	hit := origin.Add(dir.Scale(t))
	return t, hit.Sub(centre).Normalized(), true
}

// rayBox runs the slab test in the box's local frame.
func rayBox(origin, dir vmath.Vec3, b *Body) (float64, vmath.Vec3, bool) {
	inv := b.Orientation.Conjugate()
	o := inv.Rotate(origin.Sub(b.Position))
	d := inv.Rotate(dir)
	h := b.Shape.HalfExtents

	tMin, tMax := math.Inf(-1), math.Inf(1)
	var axisMin int

	for i, pair := range [3][3]float64{
		{o.X, d.X, h.X},
		{o.Y, d.Y, h.Y},
		{o.Z, d.Z, h.Z},
	} {
		oi, di, hi := pair[0], pair[1], pair[2]
		if math.Abs(di) < vmath.Epsilon {
			if oi < -hi || oi > hi {
				return 0, vmath.Vec3{}, false
			}
			continue
		}
		t1 := (-hi - oi) / di
		t2 := (hi - oi) / di
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
			axisMin = i
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, vmath.Vec3{}, false
		}
	}
	if tMin < 0 {
		return 0, vmath.Vec3{}, false
	}

	var nLocal vmath.Vec3
	switch axisMin {
	case 0:
		nLocal = vmath.Vec3{X: -vmath.Sign(d.X)}
	case 1:
		nLocal = vmath.Vec3{Y: -vmath.Sign(d.Y)}
	default:
		nLocal = vmath.Vec3{Z: -vmath.Sign(d.Z)}
	}
	return tMin, b.Orientation.Rotate(nLocal), true
}
