// Package drift tracks the vehicle slip angle, runs the drift state
// machine with counter-steer detection and stability, and scores drifts
// through registered callbacks.
package drift

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// Config holds the drift detection thresholds.
type Config struct {
	AngleThreshold    float64 // rad of slip to start a drift
	SpeedThreshold    float64 // m/s minimum speed to start
	MaxDriftAngle     float64 // rad beyond which the car spins out
	CounterSteerGain  float64 // stability gained per second of counter-steer
	StabilityDecay    float64 // stability lost per second without it
	CorrectiveTorque  float64 // N*m of yaw assist per unit stability while counter-steering
	SmoothingWindow   int     // samples in the slip-angle moving average
	HandbrakeThrottle float64 // throttle needed for a handbrake drift start
	SpinoutCooldown   float64 // seconds before a new drift can start after a spinout
}

// DefaultConfig uses thresholds tuned for a 30-degree sustained drift.
func DefaultConfig() Config {
	return Config{
		AngleThreshold:    0.26, // ~15 deg
		SpeedThreshold:    8.0,
		MaxDriftAngle:     1.4, // ~80 deg
		CounterSteerGain:  0.8,
		StabilityDecay:    0.5,
		CorrectiveTorque:  900,
		SmoothingWindow:   6,
		HandbrakeThrottle: 0.5,
		SpinoutCooldown:   1.0,
	}
}

// Stability accumulator bounds.
const (
	stabilityMin = 0.3
	stabilityMax = 1.2
)

// exitAngleFraction of AngleThreshold is the low-angle exit band. The
// start transition re-arms only once the angle settles inside the same
// band, so an ended drift cannot restart on the next substep.
const exitAngleFraction = 0.3

// Controller is the drift state machine. Direction is 0 while not
// drifting, otherwise -1 (left) or +1 (right).
type Controller struct {
	cfg Config

	Direction       int
	SlipAngle       float64 // smoothed, rad, in [-pi, pi]
	CounterSteering bool
	Stability       float64
	Duration        float64 // seconds of continuous drift

	window []float64

	armed          bool    // start transition enabled
	cooldown       float64 // seconds left of the post-spinout lockout
	handbrakeEntry bool    // drift started by handbrake, angle still building

	// Callbacks fired synchronously from Update. They must not block.
	OnStart   func(direction int)
	OnEnd     func(duration float64)
	OnSpinout func()
}

// NewController creates a controller in the not-drifting state.
func NewController(cfg Config) *Controller {
	if cfg.SmoothingWindow < 1 {
		cfg.SmoothingWindow = 1
	}
	return &Controller{
		cfg:       cfg,
		Stability: 1,
		armed:     true,
		window:    make([]float64, 0, cfg.SmoothingWindow),
	}
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// IsDrifting reports whether a drift is in progress.
func (c *Controller) IsDrifting() bool {
	return c.Direction != 0
}

// smooth pushes a raw slip angle into the moving window and returns the
// average.
func (c *Controller) smooth(beta float64) float64 {
	if len(c.window) == cap(c.window) {
		copy(c.window, c.window[1:])
		c.window[len(c.window)-1] = beta
	} else {
		c.window = append(c.window, beta)
	}
	sum := 0.0
	for _, b := range c.window {
		sum += b
	}
	return sum / float64(len(c.window))
}

// Update advances the state machine by one substep and returns the
// corrective yaw torque to apply to the body (zero unless counter-steering
// mid-drift).
//
// vLong and vLat are the chassis-frame velocity components; steering is the
// smoothed control in [-1, 1].
func (c *Controller) Update(vLong, vLat, steering, throttle float64, handbrake bool, dt float64) float64 {
	speed := math.Hypot(vLong, vLat)

	beta := 0.0
	if speed > vmath.Epsilon {
		beta = vmath.WrapAngle(math.Atan2(vLat, vLong))
	}
	c.SlipAngle = c.smooth(beta)
	absBeta := math.Abs(c.SlipAngle)

	if !c.IsDrifting() {
		c.cooldown = math.Max(0, c.cooldown-dt)
		if !c.armed && absBeta < c.cfg.AngleThreshold*exitAngleFraction {
			c.armed = true
		}
		byAngle := absBeta > c.cfg.AngleThreshold && absBeta < c.cfg.MaxDriftAngle
		byHandbrake := handbrake && throttle > c.cfg.HandbrakeThrottle
		if c.armed && c.cooldown == 0 && speed > c.cfg.SpeedThreshold && (byAngle || byHandbrake) {
			c.Direction = 1
			if c.SlipAngle < 0 {
				c.Direction = -1
			}
			c.Duration = 0
			c.Stability = 1
			c.handbrakeEntry = !byAngle
			if c.OnStart != nil {
				c.OnStart(c.Direction)
			}
		}
		return 0
	}

	c.Duration += dt

	// Spinout ends the drift immediately and starts the cooldown.
	if absBeta > c.cfg.MaxDriftAngle {
		if c.OnSpinout != nil {
			c.OnSpinout()
		}
		c.cooldown = c.cfg.SpinoutCooldown
		c.endDrift()
		return 0
	}

	// A handbrake drift holds through the low-angle band while the angle
	// builds. Passing the threshold or releasing the handbrake ends the
	// grace period.
	if absBeta > c.cfg.AngleThreshold || !handbrake {
		c.handbrakeEntry = false
	}
	if speed < c.cfg.SpeedThreshold/2 ||
		(absBeta < c.cfg.AngleThreshold*exitAngleFraction && !c.handbrakeEntry) {
		c.endDrift()
		return 0
	}

	// Counter-steer: steering sign opposing the drift direction.
	c.CounterSteering = steering*float64(c.Direction) < -0.05
	if c.CounterSteering {
		c.Stability = vmath.Clamp(c.Stability+c.cfg.CounterSteerGain*dt, stabilityMin, stabilityMax)
		return -float64(c.Direction) * c.cfg.CorrectiveTorque * c.Stability
	}
	c.Stability = vmath.Clamp(c.Stability-c.cfg.StabilityDecay*dt, stabilityMin, stabilityMax)
	return 0
}

func (c *Controller) endDrift() {
	if c.OnEnd != nil {
		c.OnEnd(c.Duration)
	}
	c.Direction = 0
	c.CounterSteering = false
	c.Duration = 0
	c.armed = false
	c.handbrakeEntry = false
}

// Reset returns the controller to the not-drifting state without firing
// callbacks.
func (c *Controller) Reset() {
	c.Direction = 0
	c.CounterSteering = false
	c.Stability = 1
	c.Duration = 0
	c.SlipAngle = 0
	c.armed = true
	c.cooldown = 0
	c.handbrakeEntry = false
	c.window = c.window[:0]
}
