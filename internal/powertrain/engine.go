// Package powertrain models the engine torque curve, the gearbox with its
// shift state machine, and the differential torque split between wheels.
package powertrain

import "github.com/apexdrift/simcore/pkg/vmath"

// EngineConfig parameterises the torque curve and rev range.
type EngineConfig struct {
	IdleRPM          float64
	PeakTorqueRPM    float64
	MaxRPM           float64
	MaxTorque        float64 // N*m at the peak of the curve
	OptimalShiftUp   float64 // auto-upshift threshold RPM
	OptimalShiftDown float64 // auto-downshift threshold RPM
	DamageTorqueLoss float64 // fraction of torque lost at full engine damage
}

// DefaultEngineConfig is a 6500-RPM road engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		IdleRPM:          800,
		PeakTorqueRPM:    3900,
		MaxRPM:           7000,
		MaxTorque:        400,
		OptimalShiftUp:   6500,
		OptimalShiftDown: 2000,
		DamageTorqueLoss: 0.5,
	}
}

// Engine holds the mutable engine state. RPM is always within
// [IdleRPM, MaxRPM]; the rev limiter clamps at the top.
type Engine struct {
	cfg    EngineConfig
	RPM    float64
	Damage float64 // 0..1
}

// NewEngine creates an engine idling at IdleRPM.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg, RPM: cfg.IdleRPM}
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// torqueFraction evaluates the normalised torque curve at an RPM fraction
// of MaxRPM: a linear ramp to 0.6 below 20%, a rise to the 1.0 peak at
// 60%, a fall to 0.85 at 90%, and a sharp drop to zero at redline.
func torqueFraction(frac float64) float64 {
	switch {
	case frac <= 0:
		return 0
	case frac < 0.2:
		return 0.6 * frac / 0.2
	case frac < 0.6:
		return 0.6 + 0.4*(frac-0.2)/0.4
	case frac < 0.9:
		return 1.0 - 0.15*(frac-0.6)/0.3
	case frac < 1.0:
		return 0.85 * (1.0 - frac) / 0.1
	default:
		return 0
	}
}

// TorqueAt returns the engine output torque in N*m for the given throttle,
// scaled down by accumulated engine damage.
func (e *Engine) TorqueAt(throttle float64) float64 {
	throttle = vmath.Clamp01(throttle)
	frac := e.RPM / e.cfg.MaxRPM
	damageFactor := 1 - e.cfg.DamageTorqueLoss*vmath.Clamp01(e.Damage)
	return torqueFraction(frac) * e.cfg.MaxTorque * throttle * damageFactor
}

// SyncToWheels derives engine RPM from the driven-wheel angular speed
// (rad/s) through the total transmission ratio. The rev limiter clamps the
// result to [IdleRPM, MaxRPM].
func (e *Engine) SyncToWheels(wheelAngVel, totalRatio float64) {
	rpm := wheelAngVel * totalRatio * 60 / (2 * 3.141592653589793)
	if rpm < 0 {
		rpm = -rpm
	}
	e.RPM = vmath.Clamp(rpm, e.cfg.IdleRPM, e.cfg.MaxRPM)
}

// SyncNeutral sets RPM for neutral: idle plus a throttle-proportional rev.
func (e *Engine) SyncNeutral(throttle float64) {
	e.RPM = vmath.Clamp(
		e.cfg.IdleRPM+vmath.Clamp01(throttle)*2000,
		e.cfg.IdleRPM, e.cfg.MaxRPM,
	)
}

// Reset returns the engine to idle with no damage change.
func (e *Engine) Reset() {
	e.RPM = e.cfg.IdleRPM
}
