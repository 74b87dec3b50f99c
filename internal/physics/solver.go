package physics

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// Positional correction tuning. Penetration below the slop is tolerated;
// the rest is resolved by a fraction each substep to avoid jitter.
const (
	penetrationSlop   = 0.01
	correctionPercent = 0.8
	restitutionCutoff = 1.0 // m/s of approach speed below which e is zeroed
)

// relativeVelocityAt returns the velocity of B relative to A at the
// contact point, including the angular contribution.
func relativeVelocityAt(m *Manifold) vmath.Vec3 {
	rA := m.Point.Sub(m.A.Position)
	rB := m.Point.Sub(m.B.Position)
	vA := m.A.Velocity.Add(m.A.AngularVelocity.Cross(rA))
	vB := m.B.Velocity.Add(m.B.AngularVelocity.Cross(rB))
	return vB.Sub(vA)
}

// effectiveMass returns 1 / (invMassA + invMassB + angular terms) along
// the given direction at the contact point.
func effectiveMass(m *Manifold, dir vmath.Vec3) float64 {
	rA := m.Point.Sub(m.A.Position)
	rB := m.Point.Sub(m.B.Position)
	angA := m.A.InvInertiaWorld().MulVec(rA.Cross(dir)).Cross(rA)
	angB := m.B.InvInertiaWorld().MulVec(rB.Cross(dir)).Cross(rB)
	denom := m.A.InvMass + m.B.InvMass + angA.Add(angB).Dot(dir)
	if denom < vmath.Epsilon {
		return 0
	}
	return 1 / denom
}

// solveVelocity applies one sequential-impulse iteration to the contact:
// a normal impulse removing approach velocity with restitution, then a
// tangential friction impulse clamped to the Coulomb cone.
func solveVelocity(m *Manifold) {
	rA := m.Point.Sub(m.A.Position)
	rB := m.Point.Sub(m.B.Position)

	rel := relativeVelocityAt(m)
	vn := rel.Dot(m.Normal)
	if vn > 0 {
		return // separating
	}

	e := m.Restitution
	if -vn < restitutionCutoff {
		e = 0 // resting contact, no bounce
	}

	mass := effectiveMass(m, m.Normal)
	j := -(1 + e) * vn * mass

	// Accumulate and clamp so the total normal impulse stays repulsive.
	old := m.NormalImpulse
	m.NormalImpulse = math.Max(old+j, 0)
	j = m.NormalImpulse - old

	impulse := m.Normal.Scale(j)
	m.A.applyContactImpulse(impulse.Scale(-1), rA)
	m.B.applyContactImpulse(impulse, rB)

	// Friction along the tangent of the remaining relative velocity.
	rel = relativeVelocityAt(m)
	tangent := rel.Sub(m.Normal.Scale(rel.Dot(m.Normal)))
	tLen := tangent.Length()
	if tLen < vmath.Epsilon {
		return
	}
	tangent = tangent.Scale(1 / tLen)

	jt := -rel.Dot(tangent) * effectiveMass(m, tangent)
	maxFriction := m.Friction * m.NormalImpulse
	jt = vmath.Clamp(jt, -maxFriction, maxFriction)

	fImpulse := tangent.Scale(jt)
	m.A.applyContactImpulse(fImpulse.Scale(-1), rA)
	m.B.applyContactImpulse(fImpulse, rB)
}

// applyContactImpulse is ApplyImpulseAt without the wake side effect; the
// solver manages sleep state itself.
func (b *Body) applyContactImpulse(impulse, r vmath.Vec3) {
	if b.Static() {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld().MulVec(r.Cross(impulse)))
}

// correctPositions pushes overlapping bodies apart by a fraction of the
// penetration beyond the slop, split by inverse mass.
func correctPositions(m *Manifold) {
	depth := m.Penetration - penetrationSlop
	if depth <= 0 {
		return
	}
	totalInv := m.A.InvMass + m.B.InvMass
	if totalInv < vmath.Epsilon {
		return
	}
	correction := m.Normal.Scale(depth * correctionPercent / totalInv)
	m.A.Position = m.A.Position.Sub(correction.Scale(m.A.InvMass))
	m.B.Position = m.B.Position.Add(correction.Scale(m.B.InvMass))
}
