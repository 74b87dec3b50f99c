// Package sim binds the subsystems into the vehicle update loop: control
// smoothing, powertrain, per-wheel tire forces, drift tracking and damage
// mapping, all driven from the physics world's fixed substep.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/apexdrift/simcore/internal/drift"
	"github.com/apexdrift/simcore/internal/events"
	"github.com/apexdrift/simcore/internal/metrics"
	"github.com/apexdrift/simcore/internal/physics"
	"github.com/apexdrift/simcore/internal/vehicle"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// DamageConfig maps impact magnitude (normal impulse, N*s) to damage
// increments.
type DamageConfig struct {
	ForceThreshold float64 // impacts below this leave no damage
	ForceScale     float64 // increment = (magnitude - threshold) / scale
}

// DefaultDamageConfig tolerates parking taps and writes off a car after a
// handful of full-speed wall hits.
func DefaultDamageConfig() DamageConfig {
	return DamageConfig{ForceThreshold: 4000, ForceScale: 40000}
}

// Options configures a Simulation. Events, Metrics and Surfaces are
// optional; a zero Options is completed by DefaultOptions.
type Options struct {
	Vehicle vehicle.Config
	Drift   drift.Config
	Score   drift.ScoreConfig
	Damage  DamageConfig

	FixedDT     float64
	Iterations  int
	MaxSubsteps int

	Logger   *slog.Logger
	Events   *events.Dispatcher
	Metrics  *metrics.Recorder
	Surfaces *SurfaceMap
}

// DefaultOptions returns the default vehicle on default asphalt.
func DefaultOptions() Options {
	return Options{
		Vehicle:     vehicle.DefaultConfig(),
		Drift:       drift.DefaultConfig(),
		Score:       drift.DefaultScoreConfig(),
		Damage:      DefaultDamageConfig(),
		FixedDT:     physics.DefaultFixedDT,
		Iterations:  physics.DefaultIterations,
		MaxSubsteps: physics.DefaultMaxSubsteps,
	}
}

// Simulation owns one vehicle in one physics world. A single
// Step(deltaTime) call per outer frame advances everything; consumers read
// state through Snapshot after Step returns.
type Simulation struct {
	opts Options
	log  *slog.Logger

	Vehicle *vehicle.Vehicle
	World   *physics.World
	Drift   *drift.Controller
	Scorer  *drift.Scorer

	body     *physics.Body
	surfaces *SurfaceMap

	input    core.FrameInput
	controls core.Controls // smoothed

	prevVelocity vmath.Vec3
	aLong, aLat  float64
	gForce       vmath.Vec3
	gForceMax    float64
	wallDistance float64
	surface      core.Surface
}

// New builds the simulation: a world with the configured stepping, the
// vehicle body (pitch and roll locked, the planar variant of the core) and
// the drift controller with its event wiring.
func New(opts Options) (*Simulation, error) {
	if opts.FixedDT <= 0 {
		opts.FixedDT = physics.DefaultFixedDT
	}
	if opts.Iterations <= 0 {
		opts.Iterations = physics.DefaultIterations
	}
	if opts.MaxSubsteps <= 0 {
		opts.MaxSubsteps = physics.DefaultMaxSubsteps
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Surfaces == nil {
		opts.Surfaces = NewSurfaceMap(DefaultAsphalt())
	}

	veh, err := vehicle.New(opts.Vehicle, vmath.Vec3{}, 0)
	if err != nil {
		return nil, fmt.Errorf("building vehicle: %w", err)
	}

	w := physics.NewWorld()
	w.FixedDT = opts.FixedDT
	w.Iterations = opts.Iterations
	w.MaxSubsteps = opts.MaxSubsteps

	cfg := opts.Vehicle
	shape := physics.Box(cfg.TrackWidth/2, cfg.Wheelbase/2, cfg.CGHeight)
	body := physics.NewBody(shape, cfg.Mass)
	body.SetInertia(veh.Inertia())
	body.Group = physics.GroupVehicle
	body.LockPitchRoll = true
	body.Restitution = 0.25
	body.Friction = 0.7
	w.AddBody(body)

	s := &Simulation{
		opts:         opts,
		log:          opts.Logger,
		Vehicle:      veh,
		World:        w,
		Drift:        drift.NewController(opts.Drift),
		Scorer:       drift.NewScorer(opts.Score),
		body:         body,
		surfaces:     opts.Surfaces,
		wallDistance: -1,
		surface:      opts.Surfaces.At(0, 0),
	}

	w.PreSubstep = s.substep
	w.OnContact = s.onContact
	s.wireEvents()
	return s, nil
}

func (s *Simulation) wireEvents() {
	s.Drift.OnStart = func(direction int) {
		s.log.Debug("drift started", "direction", direction, "time", s.World.Time())
		s.emit(events.DriftStart, direction)
	}
	s.Drift.OnEnd = func(duration float64) {
		s.log.Debug("drift ended", "duration", duration, "time", s.World.Time())
		s.emit(events.DriftEnd, duration)
	}
	s.Drift.OnSpinout = func() {
		s.log.Debug("spinout", "time", s.World.Time())
		s.emit(events.Spinout, nil)
	}
	s.Scorer.OnBank = func(amount float64) {
		s.emit(events.DriftBank, amount)
	}
}

func (s *Simulation) emit(name string, payload any) {
	if s.opts.Events == nil {
		return
	}
	s.opts.Events.Emit(events.Event{
		Name:    name,
		SimTime: s.World.Time(),
		Payload: payload,
	})
}

// Body returns the vehicle's physics body.
func (s *Simulation) Body() *physics.Body {
	return s.body
}

// AddWall adds a static box obstacle. Out-of-bounds geometry and track
// walls are both expressed this way.
func (s *Simulation) AddWall(centre vmath.Vec3, hx, hy, hz float64, yaw float64) *physics.Body {
	wall := physics.NewBody(physics.Box(hx, hy, hz), 0)
	wall.Position = centre
	wall.Orientation = vmath.QuatFromYaw(yaw)
	wall.Group = physics.GroupWall
	wall.Restitution = 0.2
	return s.World.AddBody(wall)
}

// SetSpawn moves the vehicle to a track's starting pose. Reset returns
// the vehicle there afterwards.
func (s *Simulation) SetSpawn(position vmath.Vec3, yaw float64) {
	s.Vehicle.SetSpawn(position, yaw)
	s.body.Position = position
	s.body.Orientation = vmath.QuatFromYaw(yaw)
	s.body.Wake()
	s.syncVehicle()
}

// Free obstacles have no tire model; damping stands in for ground
// friction so a knocked cone slows down and sleeps.
const obstacleDamping = 0.3

// AddObstacle adds a dynamic obstacle (cone, barrel) to the world.
func (s *Simulation) AddObstacle(shape physics.Shape, mass float64, position vmath.Vec3) *physics.Body {
	b := physics.NewBody(shape, mass)
	b.Position = position
	b.LockPitchRoll = true
	b.Group = physics.GroupObstacle
	b.LinearDamping = obstacleDamping
	b.AngularDamping = obstacleDamping
	return s.World.AddBody(b)
}

// ObstaclesNear returns the bodies within r of the ground-plane point
// (x, y), excluding the vehicle itself.
func (s *Simulation) ObstaclesNear(x, y, r float64) []*physics.Body {
	var near []*physics.Body
	for _, b := range s.World.QueryArea(vmath.Vec3{X: x, Y: y}, r) {
		if b != s.body {
			near = append(near, b)
		}
	}
	return near
}

// Apply hands over the driver input for the coming frame. Analog controls
// are smoothed inside the substep; edge triggers act immediately.
func (s *Simulation) Apply(input core.FrameInput) {
	s.input = input
	s.input.Controls = input.Controls.Clamped()

	if input.Reset {
		s.reset()
		return
	}
	if input.ShiftUp && s.Vehicle.Gearbox.ShiftUp() {
		s.opts.Metrics.Shift()
		s.emit(events.GearShift, s.Vehicle.Gearbox.Gear+1)
	}
	if input.ShiftDown && s.Vehicle.Gearbox.ShiftDown() {
		s.opts.Metrics.Shift()
		s.emit(events.GearShift, s.Vehicle.Gearbox.Gear-1)
	}
}

// Step advances the simulation by one outer frame. Frames with deltaTime
// out of (0, 0.1] are dropped.
func (s *Simulation) Step(deltaTime float64) {
	if deltaTime <= 0 || deltaTime > 0.1 {
		s.opts.Metrics.DroppedFrame()
		return
	}
	start := time.Now()

	before := s.World.Time()
	s.World.Step(deltaTime)
	executed := int(math.Round((s.World.Time() - before) / s.World.FixedDT))
	if executed > 0 {
		s.opts.Metrics.Substeps(executed)
	}

	s.syncVehicle()
	s.opts.Metrics.StepDuration(time.Since(start).Seconds())
}

// syncVehicle mirrors the body state onto the vehicle aggregate.
func (s *Simulation) syncVehicle() {
	v := s.Vehicle
	v.Position = s.body.Position
	v.Orientation = s.body.Orientation
	v.Velocity = s.body.Velocity
	v.AngularVelocity = s.body.AngularVelocity
}

func (s *Simulation) reset() {
	s.Vehicle.Reset()
	s.body.Position = s.Vehicle.Position
	s.body.Orientation = s.Vehicle.Orientation
	s.body.Velocity = vmath.Vec3{}
	s.body.AngularVelocity = vmath.Vec3{}
	s.body.Wake()
	s.Drift.Reset()
	s.Scorer.Reset()
	s.controls = core.Controls{}
	s.input = core.FrameInput{}
	s.prevVelocity = vmath.Vec3{}
	s.gForce = vmath.Vec3{}
	s.gForceMax = 0
	s.aLong, s.aLat = 0, 0
	s.log.Info("vehicle reset", "time", s.World.Time())
	s.emit(events.Reset, nil)
}

// onContact maps resolved contacts involving the vehicle to damage,
// deformation, scoring loss and collision events.
func (s *Simulation) onContact(m *physics.Manifold) {
	s.opts.Metrics.Contact()

	var other *physics.Body
	var intoVehicle vmath.Vec3 // world normal pointing into the chassis
	switch {
	case m.A == s.body:
		other = m.B
		intoVehicle = m.Normal.Scale(-1)
	case m.B == s.body:
		other = m.A
		intoVehicle = m.Normal
	default:
		return
	}

	// Every resolved vehicle contact is reported; only impacts past the
	// threshold damage the car.
	magnitude := m.NormalImpulse
	increment := 0.0
	if magnitude > s.opts.Damage.ForceThreshold {
		increment = math.Min(1, (magnitude-s.opts.Damage.ForceThreshold)/s.opts.Damage.ForceScale)
	}

	inv := s.body.Orientation.Conjugate()
	localPoint := inv.Rotate(m.Point.Sub(s.body.Position))
	localNormal := inv.Rotate(intoVehicle)
	zone := s.Vehicle.ZoneForLocalPoint(localPoint)

	if increment > 0 {
		s.Vehicle.ApplyDamage(zone, increment)
		s.Vehicle.ApplyDeformation(localPoint, localNormal.Scale(-1), magnitude)
	}

	drifting := s.Drift.IsDrifting()
	if drifting {
		s.Scorer.OnCollision()
	}

	event := core.CollisionEvent{
		BodyID:          s.body.ID,
		OtherID:         other.ID,
		Zone:            zone,
		DamageIncrement: increment,
		ImpactMagnitude: magnitude,
		Point:           m.Point,
		Normal:          m.Normal,
		WhileDrifting:   drifting,
	}
	s.log.Debug("collision",
		"zone", zone, "impulse", magnitude, "increment", increment,
		"other", other.ID, "drifting", drifting)
	s.emit(events.Collision, event)
}

// Snapshot assembles the per-frame read-only view.
func (s *Simulation) Snapshot() core.Snapshot {
	v := s.Vehicle
	speed := v.Speed()

	var wheels [vehicle.WheelCount]core.WheelSnapshot
	for i := range v.Wheels {
		w := &v.Wheels[i]
		wheels[i] = core.WheelSnapshot{
			Grip:        w.Grip,
			Temperature: w.Temperature,
			SlipAngle:   w.SlipAngle,
			SlipRatio:   w.SlipRatio,
			Load:        w.Load,
			Rotation:    w.Rotation,
			SteerAngle:  w.SteerAngle,
			Damage:      w.Damage,
		}
	}

	return core.Snapshot{
		Time:            s.World.Time(),
		Position:        v.Position,
		Orientation:     v.Orientation,
		Velocity:        v.Velocity,
		AngularVelocity: v.AngularVelocity,
		SpeedMS:         speed,
		SpeedKMH:        speed * 3.6,
		RPM:             v.Engine.RPM,
		Gear:            v.Gearbox.Gear,
		GearName:        v.Gearbox.GearName(),
		Wheels:          wheels,
		Damage:          v.Damage,
		Drift: core.DriftSnapshot{
			IsDrifting:      s.Drift.IsDrifting(),
			AngleDegrees:    s.Drift.SlipAngle * 180 / math.Pi,
			CounterSteering: s.Drift.CounterSteering,
			CurrentScore:    s.Scorer.Current,
			BankedScore:     s.Scorer.Banked,
			Combo:           s.Scorer.Combo,
			Best:            s.Scorer.Best,
		},
		GForce:    s.gForce,
		GForceMax: s.gForceMax,
	}
}

// Observation feeds the metrics gauges.
func (s *Simulation) Observation() metrics.Observation {
	asleep := int64(0)
	for _, b := range s.World.Bodies() {
		if b.Sleeping {
			asleep++
		}
	}
	return metrics.Observation{
		SpeedKMH:      s.Vehicle.Speed() * 3.6,
		RPM:           s.Vehicle.Engine.RPM,
		DriftAngleDeg: s.Drift.SlipAngle * 180 / math.Pi,
		DriftScore:    s.Scorer.Current,
		BodiesAsleep:  asleep,
	}
}
