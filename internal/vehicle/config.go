// Package vehicle holds the vehicle aggregate: chassis configuration and
// validation, per-wheel state, weight transfer and damage accumulation.
package vehicle

import (
	"errors"
	"fmt"

	"github.com/apexdrift/simcore/internal/powertrain"
	"github.com/apexdrift/simcore/internal/tire"
)

// Configuration errors surfaced at construction.
var (
	ErrNonPositiveMass    = errors.New("vehicle mass must be positive")
	ErrBadDimensions      = errors.New("wheelbase, track width and CG height must be positive")
	ErrCGOutsideWheelbase = errors.New("CG offsets must be positive and sum to the wheelbase")
	ErrZeroFinalDrive     = errors.New("final drive ratio must be non-zero")
	ErrNonMonotonicGears  = errors.New("gear ratios must be positive and strictly decreasing")
	ErrBadEngineRange     = errors.New("engine RPM range must satisfy 0 < idle < peak < max")
	ErrBadShiftTime       = errors.New("shift time must be positive")
)

// Config is the complete static description of a vehicle. It never changes
// after construction; Reset preserves it.
type Config struct {
	Mass               float64 // kg
	Wheelbase          float64 // m
	TrackWidth         float64 // m
	CGHeight           float64 // m
	CGToFront          float64 // m, CG to front axle
	CGToRear           float64 // m, CG to rear axle
	FrontalArea        float64 // m^2
	DragCoeff          float64
	DownforceCoeff     float64
	WheelRadius        float64 // m
	MaxSteerAngle      float64 // rad
	RollStiffnessFront float64 // fraction of lateral transfer taken by the front axle

	Engine       powertrain.EngineConfig
	Gearbox      powertrain.GearboxConfig
	Differential powertrain.DifferentialConfig
	Drivetrain   powertrain.DrivetrainConfig
	Tire         tire.Coefficients
	Thermal      tire.ThermalParams
}

// DefaultConfig is a mid-size rear-drive sports sedan.
func DefaultConfig() Config {
	return Config{
		Mass:               1500,
		Wheelbase:          2.6,
		TrackWidth:         1.6,
		CGHeight:           0.45,
		CGToFront:          1.17, // 55% static front weight
		CGToRear:           1.43,
		FrontalArea:        2.2,
		DragCoeff:          0.32,
		DownforceCoeff:     0.1,
		WheelRadius:        0.33,
		MaxSteerAngle:      0.6,
		RollStiffnessFront: 0.55,
		Engine:             powertrain.DefaultEngineConfig(),
		Gearbox:            powertrain.DefaultGearboxConfig(),
		Differential:       powertrain.DefaultDifferentialConfig(),
		Drivetrain:         powertrain.DefaultDrivetrainConfig(),
		Tire:               tire.DefaultCoefficients(),
		Thermal:            tire.DefaultThermalParams(),
	}
}

// Validate checks the configuration invariants and returns the first
// violation found. A vehicle refuses to build from an invalid config.
func (c Config) Validate() error {
	if c.Mass <= 0 {
		return fmt.Errorf("%w: got %.1f", ErrNonPositiveMass, c.Mass)
	}
	if c.Wheelbase <= 0 || c.TrackWidth <= 0 || c.CGHeight <= 0 {
		return ErrBadDimensions
	}
	if c.CGToFront <= 0 || c.CGToRear <= 0 ||
		!approxEqual(c.CGToFront+c.CGToRear, c.Wheelbase, 1e-6) {
		return fmt.Errorf("%w: front %.3f + rear %.3f vs wheelbase %.3f",
			ErrCGOutsideWheelbase, c.CGToFront, c.CGToRear, c.Wheelbase)
	}
	if c.Gearbox.FinalDrive == 0 {
		return ErrZeroFinalDrive
	}
	if len(c.Gearbox.Ratios) == 0 {
		return fmt.Errorf("%w: no forward gears", ErrNonMonotonicGears)
	}
	for i, r := range c.Gearbox.Ratios {
		if r <= 0 {
			return fmt.Errorf("%w: gear %d ratio %.3f", ErrNonMonotonicGears, i+1, r)
		}
		if i > 0 && r >= c.Gearbox.Ratios[i-1] {
			return fmt.Errorf("%w: gear %d ratio %.3f >= gear %d ratio %.3f",
				ErrNonMonotonicGears, i+1, r, i, c.Gearbox.Ratios[i-1])
		}
	}
	if c.Gearbox.ShiftTime <= 0 {
		return ErrBadShiftTime
	}
	e := c.Engine
	if !(0 < e.IdleRPM && e.IdleRPM < e.PeakTorqueRPM && e.PeakTorqueRPM < e.MaxRPM) {
		return fmt.Errorf("%w: idle %.0f peak %.0f max %.0f",
			ErrBadEngineRange, e.IdleRPM, e.PeakTorqueRPM, e.MaxRPM)
	}
	return nil
}

func approxEqual(a, b, eps float64) bool {
	d := a - b
	return d > -eps && d < eps
}
