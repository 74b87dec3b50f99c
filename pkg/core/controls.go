// Package core holds the plain value types exchanged across the simulation
// boundary: driver inputs, state snapshots, surfaces and collision events.
// It depends only on vmath so external collaborators (renderer, audio, HUD)
// can import it without pulling in the simulation itself.
package core

// Controls are the analog driver inputs for one frame. The simulation
// smooths them internally; callers may hand over raw device values.
type Controls struct {
	Steering  float64 // -1 (full left) .. +1 (full right)
	Throttle  float64 // 0 .. 1
	Brake     float64 // 0 .. 1
	Handbrake bool
}

// Clamped returns the controls with every axis limited to its legal range.
func (c Controls) Clamped() Controls {
	c.Steering = clamp(c.Steering, -1, 1)
	c.Throttle = clamp(c.Throttle, 0, 1)
	c.Brake = clamp(c.Brake, 0, 1)
	return c
}

// FrameInput is everything the driver can express in one outer frame:
// analog controls plus edge-triggered requests.
type FrameInput struct {
	Controls
	ShiftUp   bool
	ShiftDown bool
	Reset     bool
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
