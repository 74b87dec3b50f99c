package powertrain

import (
	"fmt"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// Gear numbering: GearReverse, GearNeutral, then forward gears 1..N.
const (
	GearReverse = -1
	GearNeutral = 0
)

// GearboxConfig holds the transmission ratios and shift timing.
type GearboxConfig struct {
	Ratios            []float64 // forward gear ratios, first gear onward
	ReverseRatio      float64
	FinalDrive        float64
	Efficiency        float64
	ShiftTime         float64 // seconds for a full shift
	ClutchTime        float64 // seconds for the clutch to travel 0..1
	AutoShift         bool
	AutoShiftCooldown float64 // seconds between automatic shifts
	DamageTorqueLoss  float64 // fraction of torque lost at full damage
}

// DefaultGearboxConfig is a 6-speed close-ratio box.
func DefaultGearboxConfig() GearboxConfig {
	return GearboxConfig{
		Ratios:            []float64{3.6, 2.19, 1.54, 1.21, 1.0, 0.77},
		ReverseRatio:      3.44,
		FinalDrive:        3.9,
		Efficiency:        0.9,
		ShiftTime:         0.3,
		ClutchTime:        0.15,
		AutoShift:         true,
		AutoShiftCooldown: 0.5,
		DamageTorqueLoss:  0.3,
	}
}

// Gearbox is the transmission with its shift state machine. It is either
// engaged in Gear, or shifting toward targetGear with ShiftProgress
// advancing from 0 to 1.
type Gearbox struct {
	cfg GearboxConfig

	Gear          int // GearReverse, GearNeutral or 1..len(Ratios)
	Clutch        float64
	Shifting      bool
	ShiftProgress float64
	Damage        float64

	targetGear   int
	clutchTarget float64
	cooldown     float64
}

// NewGearbox creates a gearbox engaged in first gear with the clutch out.
func NewGearbox(cfg GearboxConfig) *Gearbox {
	return &Gearbox{cfg: cfg, Gear: 1, Clutch: 1, clutchTarget: 1}
}

// Config returns the gearbox configuration.
func (g *Gearbox) Config() GearboxConfig {
	return g.cfg
}

// TopGear returns the highest forward gear number.
func (g *Gearbox) TopGear() int {
	return len(g.cfg.Ratios)
}

// Ratio returns the current gear ratio (negative in reverse, zero in
// neutral).
func (g *Gearbox) Ratio() float64 {
	switch {
	case g.Gear == GearNeutral:
		return 0
	case g.Gear == GearReverse:
		return -g.cfg.ReverseRatio
	default:
		return g.cfg.Ratios[g.Gear-1]
	}
}

// TotalRatio returns gear ratio times final drive.
func (g *Gearbox) TotalRatio() float64 {
	return g.Ratio() * g.cfg.FinalDrive
}

// OutputTorque converts engine torque to torque at the driven axle,
// applying the clutch, drivetrain efficiency, gearbox damage and the
// in-progress shift fade.
func (g *Gearbox) OutputTorque(engineTorque float64) float64 {
	out := engineTorque * g.TotalRatio() * g.Clutch * g.cfg.Efficiency
	out *= 1 - g.cfg.DamageTorqueLoss*vmath.Clamp01(g.Damage)
	if g.Shifting {
		out *= 1 - g.ShiftProgress
	}
	return out
}

// GearName returns the display name of the current gear.
func (g *Gearbox) GearName() string {
	switch g.Gear {
	case GearReverse:
		return "R"
	case GearNeutral:
		return "N"
	default:
		return fmt.Sprintf("%d", g.Gear)
	}
}

// ShiftUp requests the next gear up. Returns false (a no-op) when already
// shifting or already in top gear.
func (g *Gearbox) ShiftUp() bool {
	if g.Shifting || g.Gear >= g.TopGear() {
		return false
	}
	g.beginShift(g.Gear + 1)
	return true
}

// ShiftDown requests the next gear down. The chain top..1 -> N -> R is
// allowed; below reverse is a no-op, as is a request mid-shift.
func (g *Gearbox) ShiftDown() bool {
	if g.Shifting || g.Gear <= GearReverse {
		return false
	}
	g.beginShift(g.Gear - 1)
	return true
}

func (g *Gearbox) beginShift(target int) {
	g.Shifting = true
	g.ShiftProgress = 0
	g.targetGear = target
	g.clutchTarget = 0
}

// Update advances the clutch travel and any in-progress shift by dt
// seconds. On shift completion the gear changes atomically and the clutch
// target returns to fully engaged.
func (g *Gearbox) Update(dt float64) {
	if g.cooldown > 0 {
		g.cooldown -= dt
	}

	if g.Shifting {
		g.ShiftProgress += dt / g.cfg.ShiftTime
		if g.ShiftProgress >= 1 {
			g.Gear = g.targetGear
			g.Shifting = false
			g.ShiftProgress = 0
			g.clutchTarget = 1
		}
	}

	rate := 1.0
	if g.cfg.ClutchTime > 0 {
		rate = 1 / g.cfg.ClutchTime
	}
	g.Clutch = vmath.MoveToward(g.Clutch, g.clutchTarget, rate*dt)
}

// AutoShift performs automatic up/down shifts based on engine RPM. An
// upshift fires at the optimal-up threshold; a downshift fires at the
// optimal-down threshold only when the predicted RPM in the lower gear
// stays clear of the upshift point. Both honour the cooldown.
func (g *Gearbox) AutoShift(e *Engine) bool {
	if !g.cfg.AutoShift || g.Shifting || g.cooldown > 0 || g.Gear < 1 {
		return false
	}

	if e.RPM >= e.cfg.OptimalShiftUp && g.Gear < g.TopGear() {
		if g.ShiftUp() {
			g.cooldown = g.cfg.AutoShiftCooldown
			return true
		}
	}

	if e.RPM <= e.cfg.OptimalShiftDown && g.Gear > 1 {
		predicted := e.RPM * g.cfg.Ratios[g.Gear-2] / g.cfg.Ratios[g.Gear-1]
		if predicted <= e.cfg.OptimalShiftUp*0.95 && g.ShiftDown() {
			g.cooldown = g.cfg.AutoShiftCooldown
			return true
		}
	}
	return false
}

// Reset re-engages first gear and clears any shift in progress. Damage is
// preserved; callers reset it explicitly on a vehicle reset.
func (g *Gearbox) Reset() {
	g.Gear = 1
	g.Clutch = 1
	g.clutchTarget = 1
	g.Shifting = false
	g.ShiftProgress = 0
	g.cooldown = 0
}
