package core

import "github.com/apexdrift/simcore/pkg/vmath"

// Zone identifies a damage zone on the vehicle body.
type Zone string

// Damage zones. Engine is accumulated alongside Front on frontal impacts.
const (
	ZoneFront  Zone = "front"
	ZoneRear   Zone = "rear"
	ZoneLeft   Zone = "left"
	ZoneRight  Zone = "right"
	ZoneEngine Zone = "engine"
)

// CollisionEvent is delivered to registered sinks for every resolved
// vehicle contact whose impact magnitude crossed the damage threshold.
type CollisionEvent struct {
	BodyID          int
	OtherID         int
	Zone            Zone
	DamageIncrement float64
	ImpactMagnitude float64
	Point           vmath.Vec3
	Normal          vmath.Vec3
	WhileDrifting   bool
}
