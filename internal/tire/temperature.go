package tire

import "github.com/apexdrift/simcore/pkg/vmath"

// Temperature model bounds and band edges in degrees Celsius.
const (
	TempMin        = 0.0
	TempMax        = 200.0
	TempCold       = 50.0
	TempOptimalLow = 80.0
	TempOptimalHi  = 100.0
	TempFade       = 150.0
	TempAmbient    = 20.0

	// ColdGrip is the grip multiplier of a stone-cold tire.
	ColdGrip = 0.7
)

// ThermalParams control how wheel temperature evolves with slip.
type ThermalParams struct {
	HeatRate float64 // degC gained per unit combined slip per second
	CoolRate float64 // 1/s relaxation toward ambient
	Ambient  float64
}

// DefaultThermalParams returns heating/cooling rates that bring a tire into
// the optimal band after a few seconds of sustained sliding.
func DefaultThermalParams() ThermalParams {
	return ThermalParams{HeatRate: 18.0, CoolRate: 0.12, Ambient: TempAmbient}
}

// GripAtTemperature maps a tire temperature to a grip multiplier:
// 1.0 inside and just below the optimal band, a linear ramp from ColdGrip
// below TempCold, and a linear fade toward zero above the band.
func GripAtTemperature(t float64) float64 {
	switch {
	case t <= TempCold:
		frac := vmath.Clamp01(t / TempCold)
		return ColdGrip + (1-ColdGrip)*frac
	case t <= TempOptimalHi:
		return 1.0
	default:
		return vmath.Clamp01(1 - (t-TempOptimalHi)/(TempFade-TempOptimalHi))
	}
}

// UpdateTemperature advances a wheel temperature by one substep.
// combinedSlip is |slip angle| + |slip ratio|; heating is proportional to
// it, cooling relaxes toward ambient, and the result is clamped to the
// physical bounds.
func UpdateTemperature(t, combinedSlip, dt float64, p ThermalParams) float64 {
	if combinedSlip < 0 {
		combinedSlip = -combinedSlip
	}
	t += (p.HeatRate*combinedSlip - p.CoolRate*(t-p.Ambient)) * dt
	return vmath.Clamp(t, TempMin, TempMax)
}
