package physics

import (
	"math"

	"github.com/apexdrift/simcore/internal/queue"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// World stepping defaults.
const (
	DefaultFixedDT     = 1.0 / 120
	DefaultMaxSubsteps = 8
	DefaultIterations  = 10
	maxFrameDT         = 0.1

	sleepLinearThreshold  = 0.05 // m/s
	sleepAngularThreshold = 0.05 // rad/s
	sleepTime             = 0.5  // seconds below thresholds before sleeping
)

// World owns the rigid bodies and advances them on a fixed timestep.
// Render-rate frame times are fed to Step, which accumulates them and runs
// whole substeps; the remainder carries over to the next frame.
type World struct {
	Gravity    vmath.Vec3
	FixedDT    float64
	Iterations int
	// MaxSubsteps bounds the work of one Step call; time beyond the bound
	// is dropped rather than spiraling.
	MaxSubsteps int

	TimeScale float64
	Paused    bool

	// PreSubstep runs before each fixed substep, with the substep dt
	// already scaled. Vehicle force application hooks in here.
	PreSubstep func(dt float64)

	// OnContact fires once per resolved contact per substep.
	OnContact func(m *Manifold)

	bodies      []*Body
	nextID      int
	hash        *spatialHash
	accumulator float64
	time        float64

	pendingAdd    *queue.Queue[*Body]
	pendingRemove *queue.Queue[int]

	manifolds []Manifold
}

// NewWorld creates a world with the default 120 Hz substep and no gravity
// along the ground plane (Z is up, gravity is handled per-vehicle by the
// load model, so the default world gravity is zero).
func NewWorld() *World {
	return &World{
		FixedDT:       DefaultFixedDT,
		Iterations:    DefaultIterations,
		MaxSubsteps:   DefaultMaxSubsteps,
		TimeScale:     1,
		hash:          newSpatialHash(8),
		pendingAdd:    queue.New[*Body](),
		pendingRemove: queue.New[int](),
	}
}

// Time returns the accumulated simulation time in seconds.
func (w *World) Time() float64 {
	return w.time
}

// Bodies returns the live body slice, in insertion order. Callers must
// not mutate the slice itself.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// AddBody registers a body and assigns its ID. Safe to call from
// callbacks; topology changes are deferred to the next substep boundary.
func (w *World) AddBody(b *Body) *Body {
	b.ID = w.nextID
	w.nextID++
	w.pendingAdd.Push(b)
	return b
}

// RemoveBody schedules a body for removal by ID.
func (w *World) RemoveBody(id int) {
	w.pendingRemove.Push(id)
}

// Body returns the live body with the given ID, or nil.
func (w *World) Body(id int) *Body {
	for _, b := range w.bodies {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// QueryArea returns the bodies whose bounding spheres intersect the
// sphere at centre with radius r, in ID order. The broad-phase grid is
// rebuilt first, so pending topology changes are reflected.
func (w *World) QueryArea(centre vmath.Vec3, r float64) []*Body {
	w.applyTopologyChanges()
	w.hash.clear()
	for _, b := range w.bodies {
		w.hash.insert(b)
	}
	return w.hash.query(centre, r)
}

func (w *World) applyTopologyChanges() {
	for _, b := range w.pendingAdd.GetAndEmpty() {
		w.bodies = append(w.bodies, b)
	}
	for _, id := range w.pendingRemove.GetAndEmpty() {
		for i, b := range w.bodies {
			if b.ID == id {
				w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
				break
			}
		}
	}
}

// Step advances the world by a frame time. Non-positive or absurdly large
// frame times are dropped. The frame time is scaled by TimeScale,
// accumulated, and consumed in fixed substeps.
func (w *World) Step(frameDT float64) {
	if w.Paused || frameDT <= 0 || frameDT > maxFrameDT {
		return
	}
	w.accumulator += frameDT * w.TimeScale

	substeps := 0
	for w.accumulator >= w.FixedDT && substeps < w.MaxSubsteps {
		w.substep(w.FixedDT)
		w.accumulator -= w.FixedDT
		substeps++
	}
	// Drop time the substep budget could not absorb.
	if w.accumulator >= w.FixedDT {
		w.accumulator = math.Mod(w.accumulator, w.FixedDT)
	}
}

func (w *World) substep(dt float64) {
	w.applyTopologyChanges()

	if w.PreSubstep != nil {
		w.PreSubstep(dt)
	}

	// Integrate forces into velocities.
	for _, b := range w.bodies {
		if b.Static() || b.Sleeping {
			continue
		}
		accel := b.force.Scale(b.InvMass).Add(w.Gravity)
		b.Velocity = b.Velocity.Add(accel.Scale(dt))
		b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld().MulVec(b.torque).Scale(dt))
		b.Velocity = b.Velocity.Scale(math.Max(0, 1-b.LinearDamping*dt))
		b.AngularVelocity = b.AngularVelocity.Scale(math.Max(0, 1-b.AngularDamping*dt))
		if b.LockPitchRoll {
			b.AngularVelocity.X = 0
			b.AngularVelocity.Y = 0
		}
	}

	// Broad phase.
	w.hash.clear()
	for _, b := range w.bodies {
		w.hash.insert(b)
	}

	// Narrow phase.
	w.manifolds = w.manifolds[:0]
	for _, pair := range w.hash.candidatePairs() {
		a, b := w.Body(pair.A), w.Body(pair.B)
		if a == nil || b == nil {
			continue
		}
		if m, ok := collide(a, b); ok {
			// A moving body wakes whatever it touches. Resting on a
			// static body does not reset the sleep timer.
			if a.Sleeping && !b.Static() && !b.Sleeping {
				a.Wake()
			}
			if b.Sleeping && !a.Static() && !a.Sleeping {
				b.Wake()
			}
			if a.Sleeping || b.Sleeping {
				continue
			}
			w.manifolds = append(w.manifolds, m)
		}
	}

	// Velocity solve.
	for i := 0; i < w.Iterations; i++ {
		for j := range w.manifolds {
			solveVelocity(&w.manifolds[j])
		}
	}

	// Integrate velocities into positions and orientations.
	for _, b := range w.bodies {
		if b.Static() || b.Sleeping {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.Orientation = b.Orientation.Integrated(b.AngularVelocity, dt)
	}

	// Positional correction.
	for j := range w.manifolds {
		correctPositions(&w.manifolds[j])
	}

	// Sleeping.
	for _, b := range w.bodies {
		if b.Static() || b.Sleeping {
			continue
		}
		if b.Velocity.Length() < sleepLinearThreshold &&
			b.AngularVelocity.Length() < sleepAngularThreshold {
			b.sleepTimer += dt
			if b.sleepTimer >= sleepTime {
				b.Sleeping = true
				b.Velocity = vmath.Vec3{}
				b.AngularVelocity = vmath.Vec3{}
			}
		} else {
			b.sleepTimer = 0
		}
	}

	// Clear accumulators and notify.
	for _, b := range w.bodies {
		b.force = vmath.Vec3{}
		b.torque = vmath.Vec3{}
	}
	if w.OnContact != nil {
		for j := range w.manifolds {
			w.OnContact(&w.manifolds[j])
		}
	}

	w.time += dt
}
