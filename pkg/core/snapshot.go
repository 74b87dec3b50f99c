package core

import "github.com/apexdrift/simcore/pkg/vmath"

// WheelSnapshot is the per-wheel read-only view exposed after each step.
type WheelSnapshot struct {
	Grip        float64 `json:"grip"`
	Temperature float64 `json:"temperature"`
	SlipAngle   float64 `json:"slipAngle"`
	SlipRatio   float64 `json:"slipRatio"`
	Load        float64 `json:"load"`
	Rotation    float64 `json:"rotation"`
	SteerAngle  float64 `json:"steerAngle"`
	Damage      float64 `json:"damage"`
}

// DamageZones holds per-zone damage, each in [0, 1]. Total is always the
// mean of the four body zones.
type DamageZones struct {
	Front  float64 `json:"front"`
	Rear   float64 `json:"rear"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Engine float64 `json:"engine"`
	Total  float64 `json:"total"`
}

// DriftSnapshot is the drift controller's external view.
type DriftSnapshot struct {
	IsDrifting      bool    `json:"isDrifting"`
	AngleDegrees    float64 `json:"angleDegrees"`
	CounterSteering bool    `json:"counterSteering"`
	CurrentScore    float64 `json:"currentScore"`
	BankedScore     float64 `json:"bankedScore"`
	Combo           float64 `json:"combo"`
	Best            float64 `json:"best"`
}

// Snapshot is the per-frame read-only view of the whole vehicle, assembled
// after World.Step returns. Consumers never see intermediate substep state.
type Snapshot struct {
	Time            float64          `json:"time"` // simulation seconds
	Position        vmath.Vec3       `json:"position"`
	Orientation     vmath.Quat       `json:"orientation"`
	Velocity        vmath.Vec3       `json:"velocity"`
	AngularVelocity vmath.Vec3       `json:"angularVelocity"`
	SpeedMS         float64          `json:"speedMs"`
	SpeedKMH        float64          `json:"speedKmh"`
	RPM             float64          `json:"rpm"`
	Gear            int              `json:"gear"`
	GearName        string           `json:"gearName"`
	Wheels          [4]WheelSnapshot `json:"wheels"`
	Damage          DamageZones      `json:"damage"`
	Drift           DriftSnapshot    `json:"drift"`
	GForce          vmath.Vec3       `json:"gForce"`
	GForceMax       float64          `json:"gForceMax"`
}
