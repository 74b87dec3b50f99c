package physics

import "github.com/apexdrift/simcore/pkg/vmath"

// Collision filter groups.
const (
	GroupVehicle uint32 = 1 << iota
	GroupObstacle
	GroupWall
	GroupAll = ^uint32(0)
)

// Body is a rigid body owned by the World. A zero mass makes the body
// static: it never moves and has infinite inertia.
type Body struct {
	ID    int
	Shape Shape

	Position        vmath.Vec3
	Orientation     vmath.Quat
	Velocity        vmath.Vec3
	AngularVelocity vmath.Vec3

	Mass    float64
	InvMass float64

	Restitution float64
	Friction    float64

	// LinearDamping and AngularDamping decay velocity by (1 - lambda*dt)
	// each substep. Zero disables damping.
	LinearDamping  float64
	AngularDamping float64

	Group uint32
	Mask  uint32

	// LockPitchRoll constrains rotation to the world Z axis, which is how
	// the 2D variant of the simulation is obtained from the 3D core.
	LockPitchRoll bool

	Sleeping   bool
	sleepTimer float64

	force  vmath.Vec3
	torque vmath.Vec3

	invInertiaLocal vmath.Mat3
}

// NewBody creates a dynamic body (or a static one when mass is zero).
func NewBody(shape Shape, mass float64) *Body {
	b := &Body{
		Shape:       shape,
		Orientation: vmath.IdentityQuat(),
		Mass:        mass,
		Restitution: 0.3,
		Friction:    0.6,
		Group:       GroupObstacle,
		Mask:        GroupAll,
	}
	if mass > 0 {
		b.InvMass = 1 / mass
		b.invInertiaLocal = shape.inertia(mass).Inverted()
	}
	return b
}

// SetInertia overrides the shape-derived inertia tensor (local frame).
func (b *Body) SetInertia(inertia vmath.Mat3) {
	b.invInertiaLocal = inertia.Inverted()
}

// Static reports whether the body has infinite mass.
func (b *Body) Static() bool {
	return b.InvMass == 0
}

// InvInertiaWorld returns the world-frame inverse inertia tensor,
// R * I_local^-1 * R^T, with the X and Y rows and columns zeroed when
// pitch and roll are locked.
func (b *Body) InvInertiaWorld() vmath.Mat3 {
	r := vmath.Mat3FromQuat(b.Orientation)
	inv := r.Mul(b.invInertiaLocal).Mul(r.Transposed())
	if b.LockPitchRoll {
		inv[0], inv[1], inv[2] = 0, 0, 0
		inv[3], inv[4], inv[5] = 0, 0, 0
		inv[6], inv[7] = 0, 0
	}
	return inv
}

// ApplyForce accumulates a force at the centre of mass and wakes the body.
func (b *Body) ApplyForce(f vmath.Vec3) {
	if b.Static() {
		return
	}
	b.force = b.force.Add(f)
	b.Wake()
}

// ApplyForceAt accumulates a force applied at a world point, adding the
// induced torque r x F.
func (b *Body) ApplyForceAt(f, point vmath.Vec3) {
	if b.Static() {
		return
	}
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(point.Sub(b.Position).Cross(f))
	b.Wake()
}

// ApplyTorque accumulates a torque and wakes the body.
func (b *Body) ApplyTorque(t vmath.Vec3) {
	if b.Static() {
		return
	}
	b.torque = b.torque.Add(t)
	b.Wake()
}

// ApplyImpulse changes velocity immediately and wakes the body.
func (b *Body) ApplyImpulse(impulse vmath.Vec3) {
	if b.Static() {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	b.Wake()
}

// ApplyImpulseAt changes linear and angular velocity from an impulse at a
// world point.
func (b *Body) ApplyImpulseAt(impulse, point vmath.Vec3) {
	if b.Static() {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	r := point.Sub(b.Position)
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld().MulVec(r.Cross(impulse)))
	b.Wake()
}

// Wake clears the sleep state.
func (b *Body) Wake() {
	b.Sleeping = false
	b.sleepTimer = 0
}
