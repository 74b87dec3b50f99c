package vehicle

import (
	"github.com/apexdrift/simcore/internal/tire"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// Wheel indices into Vehicle.Wheels.
const (
	WheelFL = iota
	WheelFR
	WheelRL
	WheelRR
	WheelCount
)

// ResetTemperature is the wheel temperature after a vehicle reset.
const ResetTemperature = 50.0

// Wheel is the per-wheel state updated once per substep by the vehicle
// update loop. The tire package reads it; nothing else writes it.
type Wheel struct {
	LocalPos vmath.Vec3 // offset from the chassis centre, x right, y forward
	IsFront  bool
	IsLeft   bool

	AngularVelocity float64 // rad/s
	SlipAngle       float64 // rad
	SlipRatio       float64
	Load            float64 // N, never negative; zero means lifted
	Grip            float64 // combined multiplier used for the last force pass
	Temperature     float64 // degC
	Damage          float64 // 0..1
	Rotation        float64 // accumulated rad, for visuals
	SteerAngle      float64 // rad
}

// Lifted reports whether the wheel carries no load and therefore produces
// no force.
func (w *Wheel) Lifted() bool {
	return w.Load <= 0
}

// reset re-zeroes the dynamic state, keeping the geometric identity.
func (w *Wheel) reset() {
	w.AngularVelocity = 0
	w.SlipAngle = 0
	w.SlipRatio = 0
	w.Load = 0
	w.Grip = 1
	w.Temperature = ResetTemperature
	w.Damage = 0
	w.Rotation = 0
	w.SteerAngle = 0
}

// newWheels lays out the four wheels from the chassis dimensions.
func newWheels(cfg Config) [WheelCount]Wheel {
	half := cfg.TrackWidth / 2
	wheels := [WheelCount]Wheel{
		WheelFL: {LocalPos: vmath.Vec3{X: -half, Y: cfg.CGToFront}, IsFront: true, IsLeft: true},
		WheelFR: {LocalPos: vmath.Vec3{X: half, Y: cfg.CGToFront}, IsFront: true},
		WheelRL: {LocalPos: vmath.Vec3{X: -half, Y: -cfg.CGToRear}, IsLeft: true},
		WheelRR: {LocalPos: vmath.Vec3{X: half, Y: -cfg.CGToRear}},
	}
	for i := range wheels {
		wheels[i].Grip = 1
		wheels[i].Temperature = ResetTemperature
	}
	return wheels
}

// UpdateThermal advances the wheel temperature from its current slip state.
func (w *Wheel) UpdateThermal(dt float64, p tire.ThermalParams) {
	combined := w.SlipAngle
	if combined < 0 {
		combined = -combined
	}
	ratio := w.SlipRatio
	if ratio < 0 {
		ratio = -ratio
	}
	w.Temperature = tire.UpdateTemperature(w.Temperature, combined+ratio, dt, p)
}
