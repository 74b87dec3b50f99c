package core

// Surface describes the ground under a point of the world.
type Surface struct {
	// Grip is the friction coefficient multiplier, clamped to [0, 2].
	Grip float64
	// Tag names the surface kind ("asphalt", "dirt", "ice", ...).
	Tag string
	// Particle is an optional hint for the external particle system.
	Particle string
}
