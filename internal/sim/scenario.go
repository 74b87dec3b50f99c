package sim

import (
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

// Scenario is a canned, input-scripted run: world setup plus a driver
// script over time. The headless CLI and the end-to-end tests share them.
type Scenario struct {
	Name        string
	Description string
	Duration    float64 // seconds

	// Setup prepares the world (walls, obstacles, starting speed).
	Setup func(*Simulation)
	// Input returns the driver input for simulation time t.
	Input func(t float64) core.FrameInput
}

// BuiltinScenarios returns the standard validation runs.
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "idle",
			Description: "stationary vehicle, all inputs zero",
			Duration:    5,
			Input: func(t float64) core.FrameInput {
				return core.FrameInput{}
			},
		},
		{
			Name:        "accel",
			Description: "full-throttle straight-line acceleration",
			Duration:    5,
			Input: func(t float64) core.FrameInput {
				return core.FrameInput{Controls: core.Controls{Throttle: 1}}
			},
		},
		{
			Name:        "brake",
			Description: "accelerate, then full brake to a stop",
			Duration:    8,
			Input: func(t float64) core.FrameInput {
				if t < 5 {
					return core.FrameInput{Controls: core.Controls{Throttle: 1}}
				}
				return core.FrameInput{Controls: core.Controls{Brake: 1}}
			},
		},
		{
			Name:        "skidpad",
			Description: "constant steering and part throttle",
			Duration:    10,
			Input: func(t float64) core.FrameInput {
				return core.FrameInput{Controls: core.Controls{Steering: 0.5, Throttle: 0.3}}
			},
		},
		{
			Name:        "drift",
			Description: "speed up, handbrake entry, counter-steer exit",
			Duration:    10,
			Input: func(t float64) core.FrameInput {
				switch {
				case t < 4:
					return core.FrameInput{Controls: core.Controls{Throttle: 1}}
				case t < 6:
					return core.FrameInput{Controls: core.Controls{
						Steering: 0.7, Throttle: 0.8, Handbrake: true,
					}}
				case t < 8:
					return core.FrameInput{Controls: core.Controls{
						Steering: -0.5, Throttle: 0.6,
					}}
				default:
					return core.FrameInput{}
				}
			},
		},
		{
			Name:        "wall",
			Description: "full throttle into a wall ahead",
			Duration:    6,
			Setup: func(s *Simulation) {
				s.AddWall(vmath.Vec3{Y: 80}, 10, 0.5, 2, 0)
			},
			Input: func(t float64) core.FrameInput {
				return core.FrameInput{Controls: core.Controls{Throttle: 1}}
			},
		},
	}
}

// FindScenario returns the named builtin scenario.
func FindScenario(name string) (Scenario, bool) {
	for _, sc := range BuiltinScenarios() {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// Run executes the scenario at the given outer frame rate and returns the
// final snapshot.
func (sc Scenario) Run(s *Simulation, frameRate float64) core.Snapshot {
	if sc.Setup != nil {
		sc.Setup(s)
	}
	frameDT := 1 / frameRate
	for t := 0.0; t < sc.Duration; t += frameDT {
		s.Apply(sc.Input(t))
		s.Step(frameDT)
	}
	return s.Snapshot()
}
