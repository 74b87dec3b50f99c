package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/vmath"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid default", func(c *Config) {}, nil},
		{"negative mass", func(c *Config) { c.Mass = -1 }, ErrNonPositiveMass},
		{"zero wheelbase", func(c *Config) { c.Wheelbase = 0 }, ErrBadDimensions},
		{"cg outside wheelbase", func(c *Config) { c.CGToFront = 5 }, ErrCGOutsideWheelbase},
		{"zero final drive", func(c *Config) { c.Gearbox.FinalDrive = 0 }, ErrZeroFinalDrive},
		{"no gears", func(c *Config) { c.Gearbox.Ratios = nil }, ErrNonMonotonicGears},
		{"non-monotonic gears", func(c *Config) {
			c.Gearbox.Ratios = []float64{3.6, 3.7, 1.5}
		}, ErrNonMonotonicGears},
		{"negative gear ratio", func(c *Config) {
			c.Gearbox.Ratios = []float64{3.6, -1}
		}, ErrNonMonotonicGears},
		{"idle above peak", func(c *Config) { c.Engine.IdleRPM = 5000 }, ErrBadEngineRange},
		{"zero shift time", func(c *Config) { c.Gearbox.ShiftTime = 0 }, ErrBadShiftTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mass = 0
	_, err := New(cfg, vmath.Vec3{}, 0)
	require.ErrorIs(t, err, ErrNonPositiveMass)
}

func TestStaticLoadsSumToWeight(t *testing.T) {
	cfg := DefaultConfig()
	loads := DistributeLoad(cfg, 0, 0)
	assert.InEpsilon(t, cfg.Mass*gravity, loads.Sum(), 0.01)

	// Static front share follows the CG offsets.
	frontShare := (loads[WheelFL] + loads[WheelFR]) / loads.Sum()
	assert.InDelta(t, cfg.CGToRear/cfg.Wheelbase, frontShare, 1e-9)
}

func TestBrakingShiftsLoadForward(t *testing.T) {
	cfg := DefaultConfig()
	loads := DistributeLoad(cfg, -8, 0)
	assert.Greater(t, loads[WheelFL]+loads[WheelFR], loads[WheelRL]+loads[WheelRR])
}

func TestLateralTransferUsesRollStiffness(t *testing.T) {
	cfg := DefaultConfig()
	loads := DistributeLoad(cfg, 0, 5)

	// Rightward acceleration loads the left side.
	assert.Greater(t, loads[WheelFL], loads[WheelFR])
	assert.Greater(t, loads[WheelRL], loads[WheelRR])

	frontDelta := loads[WheelFL] - loads[WheelFR]
	rearDelta := loads[WheelRL] - loads[WheelRR]
	assert.InDelta(t,
		cfg.RollStiffnessFront/(1-cfg.RollStiffnessFront),
		frontDelta/rearDelta, 1e-9)
}

func TestLoadsNeverNegative(t *testing.T) {
	cfg := DefaultConfig()
	loads := DistributeLoad(cfg, 50, -80)
	for i, l := range loads {
		require.GreaterOrEqual(t, l, 0.0, "wheel %d", i)
	}
}

func TestRolloverThreshold(t *testing.T) {
	cfg := DefaultConfig()
	expected := gravity * cfg.TrackWidth / (2 * cfg.CGHeight)
	assert.InDelta(t, expected, RolloverThreshold(cfg), 1e-9)

	// At the threshold the inner wheels are unloaded.
	loads := DistributeLoad(cfg, 0, RolloverThreshold(cfg))
	assert.InDelta(t, 0, loads[WheelFR]+loads[WheelRR], 1e-6)
}

func TestApplyDamageZonesAndTotal(t *testing.T) {
	v, err := New(DefaultConfig(), vmath.Vec3{}, 0)
	require.NoError(t, err)

	v.ApplyDamage(core.ZoneFront, 0.4)
	assert.InDelta(t, 0.4, v.Damage.Front, 1e-9)
	assert.InDelta(t, 0.2, v.Damage.Engine, 1e-9, "engine takes half of frontal damage")
	assert.InDelta(t, 0.1, v.Damage.Total, 1e-9, "total is the mean of four body zones")

	v.ApplyDamage(core.ZoneLeft, 2.0)
	assert.Equal(t, 1.0, v.Damage.Left, "zones clamp to 1")
	assert.InDelta(t, (0.4+1.0)/4, v.Damage.Total, 1e-9)
}

func TestZoneForLocalPoint(t *testing.T) {
	v, err := New(DefaultConfig(), vmath.Vec3{}, 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		point    vmath.Vec3
		expected core.Zone
	}{
		{"nose", vmath.Vec3{Y: 2}, core.ZoneFront},
		{"tail", vmath.Vec3{Y: -2}, core.ZoneRear},
		{"right door", vmath.Vec3{X: 0.9, Y: 0.1}, core.ZoneRight},
		{"left door", vmath.Vec3{X: -0.9, Y: -0.1}, core.ZoneLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.ZoneForLocalPoint(tt.point))
		})
	}
}

func TestResetPreservesConfigClearsState(t *testing.T) {
	v, err := New(DefaultConfig(), vmath.Vec3{X: 5, Y: 10}, 1.0)
	require.NoError(t, err)

	v.Velocity = vmath.Vec3{Y: 30}
	v.Position = vmath.Vec3{X: 100}
	v.ApplyDamage(core.ZoneFront, 0.8)
	v.Engine.RPM = 6000
	v.Gearbox.Gear = 4
	v.Wheels[WheelRL].Temperature = 120
	v.ApplyDeformation(vmath.Vec3{Y: 1.6}, vmath.Vec3{Y: 1}, 40000)

	v.Reset()

	assert.Equal(t, vmath.Vec3{X: 5, Y: 10}, v.Position)
	assert.Equal(t, vmath.Vec3{}, v.Velocity)
	assert.Equal(t, core.DamageZones{}, v.Damage)
	assert.Equal(t, v.Config().Engine.IdleRPM, v.Engine.RPM)
	assert.Equal(t, 1, v.Gearbox.Gear)
	assert.Equal(t, ResetTemperature, v.Wheels[WheelRL].Temperature)
	for _, d := range v.Deform {
		assert.Equal(t, vmath.Vec3{}, d.Offset)
	}
}

func TestWheelLayout(t *testing.T) {
	v, err := New(DefaultConfig(), vmath.Vec3{}, 0)
	require.NoError(t, err)

	assert.True(t, v.Wheels[WheelFL].IsFront)
	assert.True(t, v.Wheels[WheelFL].IsLeft)
	assert.False(t, v.Wheels[WheelRR].IsFront)
	assert.Negative(t, v.Wheels[WheelRL].LocalPos.Y)
	assert.Positive(t, v.Wheels[WheelFR].LocalPos.X)
}
