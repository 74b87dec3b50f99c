package sim

import (
	"math"

	"github.com/apexdrift/simcore/internal/drift"
	"github.com/apexdrift/simcore/internal/physics"
	"github.com/apexdrift/simcore/internal/tire"
	"github.com/apexdrift/simcore/internal/vehicle"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// Force pipeline tuning.
const (
	gravity    = 9.81
	airDensity = 1.225 // kg/m^3

	steerSmoothRate    = 6.0  // 1/s first-order filter gains
	throttleSmoothRate = 8.0
	brakeSmoothRate    = 10.0

	brakeStrength      = 1.3   // peak braking force as a multiple of weight
	brakeFrontShare    = 0.6   // front/rear brake split
	rollResistCoeff    = 0.015
	engineBrakeCoeff   = 0.035 // opposing force fraction of weight when coasting
	coastThrottle      = 0.1   // below this throttle engine braking applies
	handbrakeLatFactor = 0.3   // rear lateral force multiplier under handbrake
	wheelDamageGripK   = 0.5   // grip lost at full wheel damage
	slipSpinSpeed      = 8.0   // m/s of surface speed added by a spinning wheel
)

// substep is the C9 pipeline, invoked by the world before each fixed
// substep: smooth controls, powertrain, per-wheel tire forces, body-level
// resistances, drift update.
func (s *Simulation) substep(dt float64) {
	b := s.body
	v := s.Vehicle
	cfg := v.Config()
	s.syncVehicle()

	// Realized acceleration of the previous substep drives weight transfer
	// and the G-force readout.
	forward := v.Forward()
	right := v.Right()
	accel := b.Velocity.Sub(s.prevVelocity).Scale(1 / dt)
	s.aLong = accel.Dot(forward)
	s.aLat = accel.Dot(right)
	s.gForce = vmath.Vec3{X: s.aLat / gravity, Y: s.aLong / gravity}
	if g := s.gForce.Length(); g > s.gForceMax {
		s.gForceMax = g
	}
	s.prevVelocity = b.Velocity

	// Control smoothing.
	in := s.input.Controls
	s.controls.Steering = vmath.Smooth(s.controls.Steering, in.Steering, steerSmoothRate, dt)
	s.controls.Throttle = vmath.Smooth(s.controls.Throttle, in.Throttle, throttleSmoothRate, dt)
	s.controls.Brake = vmath.Smooth(s.controls.Brake, in.Brake, brakeSmoothRate, dt)
	s.controls.Handbrake = in.Handbrake

	speed := b.Velocity.Length()
	vLong := b.Velocity.Dot(forward)
	vLat := b.Velocity.Dot(right)

	// Steering authority shrinks with speed.
	speedFactor := math.Max(0.3, 1-speed/50)
	steerAngle := s.controls.Steering * cfg.MaxSteerAngle * speedFactor

	// Surface under the chassis centre.
	s.surface = s.surfaces.At(b.Position.X, b.Position.Y)

	// Wheel loads: static + transfer + downforce by the static split.
	loads := vehicle.DistributeLoad(cfg, s.aLong, s.aLat)
	downforce := 0.5 * airDensity * cfg.DownforceCoeff * cfg.FrontalArea * speed * speed
	frontShare := cfg.CGToRear / cfg.Wheelbase
	loads[vehicle.WheelFL] += downforce * frontShare / 2
	loads[vehicle.WheelFR] += downforce * frontShare / 2
	loads[vehicle.WheelRL] += downforce * (1 - frontShare) / 2
	loads[vehicle.WheelRR] += downforce * (1 - frontShare) / 2

	s.updatePowertrain(dt)

	// Axle torques through the drivetrain and differentials.
	engineTorque := v.Engine.TorqueAt(s.controls.Throttle)
	axleTorque := v.Gearbox.OutputTorque(engineTorque)
	frontSplit, rearSplit := cfg.Drivetrain.AxleSplit()
	onThrottle := s.controls.Throttle > coastThrottle
	fl, fr := cfg.Differential.Split(axleTorque*frontSplit,
		v.Wheels[vehicle.WheelFL].AngularVelocity,
		v.Wheels[vehicle.WheelFR].AngularVelocity, onThrottle)
	rl, rr := cfg.Differential.Split(axleTorque*rearSplit,
		v.Wheels[vehicle.WheelRL].AngularVelocity,
		v.Wheels[vehicle.WheelRR].AngularVelocity, onThrottle)
	wheelTorques := [vehicle.WheelCount]float64{fl, fr, rl, rr}

	totalBrake := s.controls.Brake * cfg.Mass * gravity * brakeStrength

	for i := range v.Wheels {
		s.updateWheel(&v.Wheels[i], wheelParams{
			dt:          dt,
			steerAngle:  steerAngle,
			driveTorque: wheelTorques[i],
			brakeForce:  s.wheelBrakeForce(v.Wheels[i].IsFront, totalBrake),
			load:        loads[i],
		})
	}

	s.applyBodyForces(forward, vLong, speed)
	s.updateDrift(vLong, vLat, dt)
}

// wheelBrakeForce splits the total braking force front/rear, half per
// wheel of the axle.
func (s *Simulation) wheelBrakeForce(isFront bool, total float64) float64 {
	if isFront {
		return total * brakeFrontShare / 2
	}
	return total * (1 - brakeFrontShare) / 2
}

// updatePowertrain syncs engine RPM with the driven wheels, runs the
// auto-shifter and advances the shift state machine.
func (s *Simulation) updatePowertrain(dt float64) {
	v := s.Vehicle
	gb := v.Gearbox

	if gb.Gear == 0 {
		v.Engine.SyncNeutral(s.controls.Throttle)
	} else {
		v.Engine.SyncToWheels(s.drivenWheelSpeed(), math.Abs(gb.TotalRatio()))
	}

	if gb.AutoShift(v.Engine) {
		s.opts.Metrics.Shift()
		s.log.Debug("auto shift", "gear", gb.Gear, "rpm", v.Engine.RPM)
	}
	gb.Update(dt)
}

// drivenWheelSpeed averages the angular speed of the driven wheels.
func (s *Simulation) drivenWheelSpeed() float64 {
	front, rear := s.Vehicle.Config().Drivetrain.AxleSplit()
	sum, n := 0.0, 0.0
	for i := range s.Vehicle.Wheels {
		w := &s.Vehicle.Wheels[i]
		if (w.IsFront && front > 0) || (!w.IsFront && rear > 0) {
			sum += math.Abs(w.AngularVelocity)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

type wheelParams struct {
	dt          float64
	steerAngle  float64
	driveTorque float64
	brakeForce  float64
	load        float64
}

// updateWheel runs one wheel through the tire model and applies the
// resulting force to the body at the contact patch.
func (s *Simulation) updateWheel(w *vehicle.Wheel, p wheelParams) {
	b := s.body
	cfg := s.Vehicle.Config()

	w.Load = p.load
	w.SteerAngle = 0
	if w.IsFront {
		w.SteerAngle = p.steerAngle
	}

	// Wheel axes in world space: the chassis frame yawed by the steer
	// angle for steered wheels.
	wheelQuat := b.Orientation
	if w.SteerAngle != 0 {
		wheelQuat = b.Orientation.Mul(vmath.QuatFromYaw(w.SteerAngle))
	}
	wheelFwd := wheelQuat.Rotate(vmath.Vec3{Y: 1})
	wheelRight := wheelQuat.Rotate(vmath.Vec3{X: 1})

	// Contact patch velocity includes the yaw contribution.
	patch := b.Position.Add(b.Orientation.Rotate(w.LocalPos))
	patchVel := b.Velocity.Add(b.AngularVelocity.Cross(patch.Sub(b.Position)))
	wvLong := patchVel.Dot(wheelFwd)
	wvLat := patchVel.Dot(wheelRight)

	// The lateral force must oppose the patch's lateral velocity in both
	// directions of travel, so the denominator uses |v_long|.
	w.SlipAngle = math.Atan2(wvLat, math.Abs(wvLong)+vmath.Epsilon)

	grip := s.surface.Grip * tire.GripAtTemperature(w.Temperature) * (1 - wheelDamageGripK*w.Damage)
	w.Grip = grip

	lateral := tire.LateralForce(w.SlipAngle, w.Load, grip, cfg.Tire)

	handbraked := s.controls.Handbrake && !w.IsFront
	if handbraked {
		lateral *= handbrakeLatFactor
	}

	drive := p.driveTorque / cfg.WheelRadius
	longitudinal := drive
	if p.brakeForce > 0 && math.Abs(wvLong) > vmath.Epsilon {
		longitudinal -= vmath.Sign(wvLong) * p.brakeForce
	}

	s.updateWheelSpin(w, wvLong, drive, p.brakeForce, grip, handbraked, p.dt)

	fx, fy := tire.FrictionCircle(longitudinal, lateral, grip, w.Load)

	force := wheelFwd.Scale(fx).Add(wheelRight.Scale(fy))
	b.ApplyForceAt(force, patch)

	w.UpdateThermal(p.dt, cfg.Thermal)
}

// updateWheelSpin maintains the kinematic wheel speed and slip ratio:
// rolling by default, locked under hard braking or handbrake, spinning
// when drive force exceeds the grip capacity.
func (s *Simulation) updateWheelSpin(w *vehicle.Wheel, wvLong, drive, brakeForce, grip float64, handbraked bool, dt float64) {
	cfg := s.Vehicle.Config()
	r := cfg.WheelRadius
	capacity := grip * w.Load

	switch {
	case handbraked:
		w.AngularVelocity = 0
		w.SlipRatio = 1
	case brakeForce > capacity && math.Abs(wvLong) > vmath.Epsilon:
		// Locked wheel: contact patch slides at road speed.
		w.AngularVelocity = 0
		w.SlipRatio = -vmath.Sign(wvLong)
	case math.Abs(drive) > capacity:
		excess := vmath.Clamp((math.Abs(drive)-capacity)/(capacity+1), 0, 1)
		w.AngularVelocity = wvLong/r + vmath.Sign(drive)*excess*slipSpinSpeed/r
		w.SlipRatio = vmath.Clamp(
			(w.AngularVelocity*r-wvLong)/math.Max(math.Abs(wvLong), 1), -1, 1)
	default:
		w.AngularVelocity = wvLong / r
		w.SlipRatio = 0
	}
	w.Rotation += w.AngularVelocity * dt
}

// applyBodyForces adds aerodynamic drag, rolling resistance and engine
// braking at the centre of mass.
func (s *Simulation) applyBodyForces(forward vmath.Vec3, vLong, speed float64) {
	b := s.body
	cfg := s.Vehicle.Config()

	if speed > vmath.Epsilon {
		drag := 0.5 * airDensity * cfg.DragCoeff * cfg.FrontalArea * speed
		b.ApplyForce(b.Velocity.Scale(-drag))

		rolling := rollResistCoeff * cfg.Mass * gravity
		b.ApplyForce(b.Velocity.Scale(-rolling / speed))
	}

	// Engine braking when coasting forward in gear.
	if s.controls.Throttle < coastThrottle && vLong > vmath.Epsilon && s.Vehicle.Gearbox.Gear >= 1 {
		fade := 1 - s.controls.Throttle/coastThrottle
		b.ApplyForce(forward.Scale(-engineBrakeCoeff * cfg.Mass * gravity * fade))
	}
}

// updateDrift advances the drift state machine and scoring.
func (s *Simulation) updateDrift(vLong, vLat, dt float64) {
	torque := s.Drift.Update(vLong, vLat, s.controls.Steering, s.controls.Throttle,
		s.controls.Handbrake, dt)
	if torque != 0 {
		s.body.ApplyTorque(vmath.Vec3{Z: torque})
	}

	if s.Drift.IsDrifting() {
		s.wallDistance = s.nearestWallDistance()
	} else {
		s.wallDistance = -1
	}

	s.Scorer.Update(s.Drift.IsDrifting(), drift.Frame{
		SlipAngle:    s.Drift.SlipAngle,
		Speed:        math.Hypot(vLong, vLat),
		Duration:     s.Drift.Duration,
		WallDistance: s.wallDistance,
		CounterSteer: s.Drift.CounterSteering,
	}, dt)
}

// nearestWallDistance casts rays out both sides of the chassis, used by
// the wall-proximity score bonus. Returns -1 when nothing is in range.
func (s *Simulation) nearestWallDistance() float64 {
	cfg := s.Vehicle.Config()
	maxRange := s.opts.Score.WallRange + cfg.TrackWidth
	right := s.Vehicle.Right()

	best := -1.0
	for _, dir := range []vmath.Vec3{right, right.Scale(-1)} {
		hit, ok := s.World.Raycast(s.body.Position, dir, maxRange, func(b *physics.Body) bool {
			return b.Group == physics.GroupWall
		})
		if !ok {
			continue
		}
		d := hit.Distance - cfg.TrackWidth/2
		if d < 0 {
			d = 0
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
