package powertrain

import "math"

// DiffMode selects the differential behaviour.
type DiffMode string

// Differential modes.
const (
	DiffOpen        DiffMode = "open"
	DiffLimitedSlip DiffMode = "lsd"
	DiffLocked      DiffMode = "locked"
)

// Layout selects which axles receive drive torque.
type Layout string

// Drivetrain layouts.
const (
	LayoutRWD Layout = "rwd"
	LayoutFWD Layout = "fwd"
	LayoutAWD Layout = "awd"
)

// DifferentialConfig tunes the torque bias between left and right wheels
// of a driven axle.
type DifferentialConfig struct {
	Mode           DiffMode
	Preload        float64 // N*m of bias always present in LSD mode
	LockCoeffAccel float64 // bias per rad/s speed difference on throttle
	LockCoeffDecel float64 // bias per rad/s speed difference off throttle
}

// DefaultDifferentialConfig is a mild one-way LSD.
func DefaultDifferentialConfig() DifferentialConfig {
	return DifferentialConfig{
		Mode:           DiffLimitedSlip,
		Preload:        50,
		LockCoeffAccel: 0.012,
		LockCoeffDecel: 0.006,
	}
}

// DrivetrainConfig selects driven axles and the AWD split.
type DrivetrainConfig struct {
	Layout    Layout
	FrontBias float64 // AWD only: fraction of torque sent to the front axle
}

// DefaultDrivetrainConfig is rear-wheel drive.
func DefaultDrivetrainConfig() DrivetrainConfig {
	return DrivetrainConfig{Layout: LayoutRWD, FrontBias: 0.4}
}

// Split divides an axle torque between the left and right wheel given
// their angular speeds. Open mode splits 50/50; limited-slip biases torque
// toward the slower wheel proportionally to the speed difference, capped
// at 40% of the axle torque; locked mode splits equally and relies on the
// caller to constrain wheel speeds.
func (c DifferentialConfig) Split(axleTorque, omegaLeft, omegaRight float64, onThrottle bool) (left, right float64) {
	half := axleTorque / 2
	switch c.Mode {
	case DiffLimitedSlip:
		lock := c.LockCoeffAccel
		if !onThrottle {
			lock = c.LockCoeffDecel
		}
		diff := omegaLeft - omegaRight
		bias := c.Preload + lock*math.Abs(diff)*100
		if cap := 0.4 * math.Abs(axleTorque); bias > cap {
			bias = cap
		}
		if diff > 0 {
			// Left is faster: move torque to the right wheel.
			return half - bias, half + bias
		}
		return half + bias, half - bias
	default: // open and locked both split torque equally
		return half, half
	}
}

// AxleSplit returns the fractions of drive torque delivered to the front
// and rear axles for the layout.
func (c DrivetrainConfig) AxleSplit() (front, rear float64) {
	switch c.Layout {
	case LayoutFWD:
		return 1, 0
	case LayoutAWD:
		return c.FrontBias, 1 - c.FrontBias
	default:
		return 0, 1
	}
}
