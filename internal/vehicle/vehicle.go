package vehicle

import (
	"fmt"

	"github.com/apexdrift/simcore/internal/powertrain"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// engineDamageRate is the fraction of a frontal damage increment that also
// accumulates as engine damage.
const engineDamageRate = 0.5

// DeformPoint is a renderer-facing control point on the body shell, moved
// inward by impacts. The core only tracks offsets; mesh work is external.
type DeformPoint struct {
	Local  vmath.Vec3 // rest position in the body frame
	Offset vmath.Vec3 // accumulated inward displacement
}

// Vehicle is the simulation-owned vehicle aggregate: rigid-body state,
// wheels, powertrain and damage. The physics world integrates it through
// its body; the update loop writes wheels and forces each substep.
type Vehicle struct {
	cfg Config

	Position        vmath.Vec3
	Orientation     vmath.Quat
	Velocity        vmath.Vec3
	AngularVelocity vmath.Vec3

	Engine  *powertrain.Engine
	Gearbox *powertrain.Gearbox
	Wheels  [WheelCount]Wheel

	Damage core.DamageZones
	Deform []DeformPoint

	resetPosition    vmath.Vec3
	resetOrientation vmath.Quat
}

// New builds a vehicle at the given reset transform. It returns an error
// when the configuration violates any construction invariant.
func New(cfg Config, position vmath.Vec3, yaw float64) (*Vehicle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle config: %w", err)
	}
	v := &Vehicle{
		cfg:              cfg,
		Position:         position,
		Orientation:      vmath.QuatFromYaw(yaw),
		Engine:           powertrain.NewEngine(cfg.Engine),
		Gearbox:          powertrain.NewGearbox(cfg.Gearbox),
		Wheels:           newWheels(cfg),
		Deform:           defaultDeformPoints(cfg),
		resetPosition:    position,
		resetOrientation: vmath.QuatFromYaw(yaw),
	}
	return v, nil
}

// Config returns the immutable vehicle configuration.
func (v *Vehicle) Config() Config {
	return v.cfg
}

// Forward returns the chassis forward axis in world space.
func (v *Vehicle) Forward() vmath.Vec3 {
	return v.Orientation.Rotate(vmath.Vec3{Y: 1})
}

// Right returns the chassis right axis in world space.
func (v *Vehicle) Right() vmath.Vec3 {
	return v.Orientation.Rotate(vmath.Vec3{X: 1})
}

// Speed returns the magnitude of the linear velocity in m/s.
func (v *Vehicle) Speed() float64 {
	return v.Velocity.Length()
}

// Inertia returns the local-frame inertia tensor of the chassis modelled
// as a solid box of the vehicle's dimensions.
func (v *Vehicle) Inertia() vmath.Mat3 {
	w := v.cfg.TrackWidth
	l := v.cfg.Wheelbase
	h := v.cfg.CGHeight * 2
	m := v.cfg.Mass / 12
	return vmath.DiagonalMat3(
		m*(l*l+h*h),
		m*(w*w+h*h),
		m*(w*w+l*l),
	)
}

// ApplyDamage adds a damage increment to a zone, clamping every zone to
// [0, 1]. Frontal impacts also accumulate engine damage at half rate.
// Total is recomputed as the mean of the four body zones.
func (v *Vehicle) ApplyDamage(zone core.Zone, increment float64) {
	if increment < 0 {
		increment = 0
	}
	switch zone {
	case core.ZoneFront:
		v.Damage.Front = vmath.Clamp01(v.Damage.Front + increment)
		v.Damage.Engine = vmath.Clamp01(v.Damage.Engine + increment*engineDamageRate)
		v.Engine.Damage = v.Damage.Engine
	case core.ZoneRear:
		v.Damage.Rear = vmath.Clamp01(v.Damage.Rear + increment)
	case core.ZoneLeft:
		v.Damage.Left = vmath.Clamp01(v.Damage.Left + increment)
	case core.ZoneRight:
		v.Damage.Right = vmath.Clamp01(v.Damage.Right + increment)
	case core.ZoneEngine:
		v.Damage.Engine = vmath.Clamp01(v.Damage.Engine + increment)
		v.Engine.Damage = v.Damage.Engine
	}
	v.Damage.Total = (v.Damage.Front + v.Damage.Rear + v.Damage.Left + v.Damage.Right) / 4
}

// ZoneForLocalPoint maps a contact point in the body frame to a damage
// zone: front/rear when the longitudinal offset dominates, otherwise the
// struck side.
func (v *Vehicle) ZoneForLocalPoint(local vmath.Vec3) core.Zone {
	absX, absY := local.X, local.Y
	if absX < 0 {
		absX = -absX
	}
	if absY < 0 {
		absY = -absY
	}
	if absY > v.cfg.Wheelbase/4 && absY >= absX {
		if local.Y > 0 {
			return core.ZoneFront
		}
		return core.ZoneRear
	}
	if local.X > 0 {
		return core.ZoneRight
	}
	return core.ZoneLeft
}

// ApplyDeformation pushes deformation points near the impact inward along
// the impact normal, proportional to the impact magnitude.
func (v *Vehicle) ApplyDeformation(localPoint, localNormal vmath.Vec3, magnitude float64) {
	const radius = 0.8 // m of shell affected around the impact
	depth := vmath.Clamp(magnitude/50000, 0, 0.25)
	for i := range v.Deform {
		d := v.Deform[i].Local.Sub(localPoint).Length()
		if d > radius {
			continue
		}
		falloff := 1 - d/radius
		v.Deform[i].Offset = v.Deform[i].Offset.Add(localNormal.Scale(-depth * falloff))
	}
}

// SetSpawn moves the vehicle to a new rest pose and makes that pose the
// reset target.
func (v *Vehicle) SetSpawn(position vmath.Vec3, yaw float64) {
	v.resetPosition = position
	v.resetOrientation = vmath.QuatFromYaw(yaw)
	v.Position = position
	v.Orientation = v.resetOrientation
}

// Reset moves the vehicle back to its reset transform, zeroing velocities,
// damage, deformation and wheel state. Configuration is preserved; the
// engine returns to idle and the gearbox to first gear.
func (v *Vehicle) Reset() {
	v.Position = v.resetPosition
	v.Orientation = v.resetOrientation
	v.Velocity = vmath.Vec3{}
	v.AngularVelocity = vmath.Vec3{}
	v.Damage = core.DamageZones{}
	v.Engine.Reset()
	v.Engine.Damage = 0
	v.Gearbox.Reset()
	v.Gearbox.Damage = 0
	for i := range v.Wheels {
		v.Wheels[i].reset()
	}
	for i := range v.Deform {
		v.Deform[i].Offset = vmath.Vec3{}
	}
}

// defaultDeformPoints rings the body outline with control points.
func defaultDeformPoints(cfg Config) []DeformPoint {
	hw := cfg.TrackWidth/2 + 0.1
	front := cfg.CGToFront + 0.5
	rear := -(cfg.CGToRear + 0.5)
	pts := []vmath.Vec3{
		{X: -hw, Y: front}, {X: 0, Y: front}, {X: hw, Y: front},
		{X: -hw, Y: front / 2}, {X: hw, Y: front / 2},
		{X: -hw, Y: 0}, {X: hw, Y: 0},
		{X: -hw, Y: rear / 2}, {X: hw, Y: rear / 2},
		{X: -hw, Y: rear}, {X: 0, Y: rear}, {X: hw, Y: rear},
	}
	deform := make([]DeformPoint, len(pts))
	for i, p := range pts {
		deform[i] = DeformPoint{Local: p}
	}
	return deform
}
