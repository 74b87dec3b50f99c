package tire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLateralForceOpposesSlip(t *testing.T) {
	c := DefaultCoefficients()
	pos := LateralForce(0.1, 4000, 1.0, c)
	neg := LateralForce(-0.1, 4000, 1.0, c)
	assert.Negative(t, pos, "positive slip must produce restoring (negative) force")
	assert.Positive(t, neg)
	assert.InDelta(t, -pos, neg, 1e-9, "curve must be odd")
}

func TestLateralForceScalesWithLoadAndGrip(t *testing.T) {
	c := DefaultCoefficients()
	base := LateralForce(0.08, 3000, 1.0, c)
	doubleLoad := LateralForce(0.08, 6000, 1.0, c)
	halfGrip := LateralForce(0.08, 3000, 0.5, c)
	assert.InDelta(t, 2*base, doubleLoad, 1e-9)
	assert.InDelta(t, base/2, halfGrip, 1e-9)
}

func TestLiftedWheelProducesNoForce(t *testing.T) {
	c := DefaultCoefficients()
	assert.Zero(t, LateralForce(0.3, 0, 1.0, c))
	assert.Zero(t, LongitudinalForce(0.5, 0, 1.0, c))
	fx, fy := FrictionCircle(1000, 1000, 1.0, 0)
	assert.Zero(t, fx)
	assert.Zero(t, fy)
}

func TestCurvePeaksAndFallsOff(t *testing.T) {
	c := DefaultCoefficients()
	// Force magnitude should rise to a peak somewhere before 45 degrees and
	// never exceed D * load.
	load := 4000.0
	peak := 0.0
	for a := 0.0; a < math.Pi/2; a += 0.005 {
		f := math.Abs(LateralForce(a, load, 1.0, c))
		require.LessOrEqual(t, f, c.D*load*(1+1e-9))
		if f > peak {
			peak = f
		}
	}
	assert.Greater(t, peak, 0.9*c.D*load, "peak should approach D")
	// Past the peak the curve falls off.
	assert.Less(t,
		math.Abs(LateralForce(1.2, load, 1.0, c)),
		peak,
	)
}

func TestFrictionCircleProperty(t *testing.T) {
	mu, load := 1.0, 4500.0
	for _, tc := range []struct{ fx, fy float64 }{
		{0, 0},
		{1000, 0},
		{0, -8000},
		{4000, 4000},
		{-9000, 2500},
	} {
		fx, fy := FrictionCircle(tc.fx, tc.fy, mu, load)
		require.LessOrEqual(t, math.Hypot(fx, fy), mu*load*(1+1e-3))
	}
}

func TestFrictionCirclePreservesDirection(t *testing.T) {
	fx, fy := FrictionCircle(3000, 4000, 1.0, 2500)
	assert.InDelta(t, 3.0/4.0, fx/fy, 1e-9)
	assert.InDelta(t, 2500.0, math.Hypot(fx, fy), 1e-9)
}

func TestGripAtTemperature(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		expected float64
	}{
		{"frozen", 0, 0.7},
		{"half cold ramp", 25, 0.85},
		{"edge of cold ramp", 50, 1.0},
		{"optimal low", 80, 1.0},
		{"optimal high", 100, 1.0},
		{"fading", 125, 0.5},
		{"cooked", 150, 0.0},
		{"beyond fade", 180, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, GripAtTemperature(tt.temp), 1e-9)
		})
	}
}

func TestUpdateTemperature(t *testing.T) {
	p := DefaultThermalParams()

	// Sliding heats the tire.
	warm := UpdateTemperature(50, 1.0, 1.0, p)
	assert.Greater(t, warm, 50.0)

	// No slip cools toward ambient.
	cooled := UpdateTemperature(90, 0, 1.0, p)
	assert.Less(t, cooled, 90.0)
	assert.Greater(t, cooled, p.Ambient)

	// Bounds hold under extreme inputs.
	assert.LessOrEqual(t, UpdateTemperature(TempMax, 1000, 10, p), TempMax)
	assert.GreaterOrEqual(t, UpdateTemperature(TempMin, 0, 1000, p), TempMin)
}
