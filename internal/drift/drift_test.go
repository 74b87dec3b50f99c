package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 120

// drive feeds the controller a constant chassis velocity for n substeps.
func drive(c *Controller, vLong, vLat, steering, throttle float64, handbrake bool, n int) float64 {
	var torque float64
	for range n {
		torque = c.Update(vLong, vLat, steering, throttle, handbrake, dt)
	}
	return torque
}

func TestDriftStartsOnSlipAngle(t *testing.T) {
	c := NewController(DefaultConfig())
	started := 0
	c.OnStart = func(direction int) { started = direction }

	// 20 m/s forward with strong lateral slip: beta ~ atan(8/20) ~ 0.38 rad.
	drive(c, 20, 8, 0, 0.5, false, 30)

	require.True(t, c.IsDrifting())
	assert.Equal(t, 1, started, "positive lateral velocity drifts right")
	assert.InDelta(t, math.Atan2(8, 20), c.SlipAngle, 1e-6)
}

func TestDriftStartsOnHandbrake(t *testing.T) {
	c := NewController(DefaultConfig())
	// Below the angle threshold but handbrake + throttle.
	drive(c, 20, 1, 0, 0.9, true, 30)
	assert.True(t, c.IsDrifting())
}

func TestNoDriftBelowSpeedThreshold(t *testing.T) {
	c := NewController(DefaultConfig())
	drive(c, 3, 2, 0, 1, true, 60)
	assert.False(t, c.IsDrifting())
}

func TestDriftEndsWhenAngleDecays(t *testing.T) {
	c := NewController(DefaultConfig())
	ended := false
	c.OnEnd = func(duration float64) { ended = duration > 0 }

	drive(c, 20, 8, 0, 0.5, false, 30)
	require.True(t, c.IsDrifting())

	// Straighten out: slip angle falls under 30% of the threshold.
	drive(c, 20, 0, 0, 0.5, false, 60)
	assert.False(t, c.IsDrifting())
	assert.True(t, ended)
}

func TestSpinoutFiresCallback(t *testing.T) {
	c := NewController(DefaultConfig())
	spun := false
	c.OnSpinout = func() { spun = true }

	drive(c, 20, 8, 0, 0.5, false, 30)
	require.True(t, c.IsDrifting())

	// Velocity mostly sideways: beta beyond MaxDriftAngle.
	drive(c, 2, 25, 0, 0.5, false, 30)
	assert.True(t, spun)
	assert.False(t, c.IsDrifting())
}

func TestHandbrakeEntryHoldsThroughLowAngle(t *testing.T) {
	c := NewController(DefaultConfig())
	starts, ends := 0, 0
	c.OnStart = func(int) { starts++ }
	c.OnEnd = func(float64) { ends++ }

	// Handbrake launch: the slip angle is still tiny while beta builds.
	drive(c, 20, 1, 0.7, 0.8, true, 180)

	require.True(t, c.IsDrifting())
	assert.Equal(t, 1, starts, "one start for one handbrake entry")
	assert.Zero(t, ends)
	assert.InDelta(t, 1.5, c.Duration, 0.02, "duration accrues across the whole entry")
}

func TestHandbrakeReleaseEndsUndevelopedDrift(t *testing.T) {
	c := NewController(DefaultConfig())
	drive(c, 20, 1, 0, 0.9, true, 30)
	require.True(t, c.IsDrifting())

	// Released before the angle built: no drift, and no restart either.
	drive(c, 20, 1, 0, 0.9, false, 30)
	assert.False(t, c.IsDrifting())
}

func TestSpinoutCooldownBlocksImmediateRestart(t *testing.T) {
	c := NewController(DefaultConfig())
	starts, spins := 0, 0
	c.OnStart = func(int) { starts++ }
	c.OnSpinout = func() { spins++ }

	drive(c, 20, 8, 0, 0.5, false, 30)
	require.Equal(t, 1, starts)

	// Mostly sideways, past the spinout angle, and staying there.
	drive(c, 2, 25, 0, 0.5, false, 240)
	assert.Equal(t, 1, spins, "one spinout for one drift")
	assert.Equal(t, 1, starts, "no restart while the car is still sideways")
	assert.False(t, c.IsDrifting())

	// Gathered up: the angle settles, the cooldown expires, and only then
	// can a fresh drift start.
	drive(c, 20, 0.5, 0, 0.5, false, 150)
	require.False(t, c.IsDrifting())
	drive(c, 20, 8, 0, 0.5, false, 30)
	assert.Equal(t, 2, starts)
}

func TestCounterSteerStabilityAndTorque(t *testing.T) {
	c := NewController(DefaultConfig())
	drive(c, 20, 8, 0, 0.5, false, 30)
	require.True(t, c.IsDrifting())
	require.Equal(t, 1, c.Direction)

	// Steering against the drift direction sets the flag and yields a
	// corrective torque opposing the drift.
	torque := drive(c, 20, 8, -0.5, 0.5, false, 30)
	assert.True(t, c.CounterSteering)
	assert.Negative(t, torque)
	assert.Greater(t, c.Stability, 1.0)

	// Without counter-steer the accumulator decays toward its floor.
	drive(c, 20, 8, 0, 0.5, false, 240)
	assert.False(t, c.CounterSteering)
	assert.LessOrEqual(t, c.Stability, 1.0)
	assert.GreaterOrEqual(t, c.Stability, stabilityMin)
}

func TestSlipAngleAlwaysNormalised(t *testing.T) {
	c := NewController(DefaultConfig())
	for _, v := range [][2]float64{{-20, 0.1}, {-20, -0.1}, {5, 30}, {0.1, -30}} {
		drive(c, v[0], v[1], 0, 0, false, 10)
		require.GreaterOrEqual(t, c.SlipAngle, -math.Pi)
		require.LessOrEqual(t, c.SlipAngle, math.Pi)
	}
}

func TestScoreGrowsWhileDrifting(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	f := Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1}

	prev := 0.0
	for i := range 120 {
		f.Duration = float64(i) * dt
		s.Update(true, f, dt)
		require.Greater(t, s.Current, prev, "score must strictly increase while drifting")
		prev = s.Current
	}
	assert.Zero(t, s.Banked)
}

func TestScoreBanksAfterDelay(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	banked := 0.0
	s.OnBank = func(amount float64) { banked = amount }

	s.Update(true, Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1, Duration: 1}, 1.0)
	earned := s.Current
	require.Positive(t, earned)

	// Drift over: nothing banks until the delay elapses.
	s.Update(false, Frame{}, 0.5)
	assert.Zero(t, s.Banked)
	s.Update(false, Frame{}, 0.5)
	assert.InDelta(t, earned, s.Banked, 1e-9)
	assert.InDelta(t, earned, banked, 1e-9)
	assert.Zero(t, s.Current)
	assert.Equal(t, s.Banked, s.Best)
}

func TestCollisionForfeitsAndResetsCombo(t *testing.T) {
	cfg := DefaultScoreConfig()
	s := NewScorer(cfg)

	s.Update(true, Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1, Duration: 5}, 1.0)
	require.Greater(t, s.Combo, 1.0)
	before := s.Current

	s.OnCollision()
	assert.InDelta(t, before*(1-cfg.CollisionLoss), s.Current, 1e-9)
	assert.Equal(t, 1.0, s.Combo)
}

func TestBonusesStack(t *testing.T) {
	cfg := DefaultScoreConfig()
	s := NewScorer(cfg)

	plain := Frame{SlipAngle: 0.5, Speed: 10, WallDistance: -1}
	stacked := Frame{
		SlipAngle:    cfg.PerfectAngle,
		Speed:        cfg.HighSpeed + 5,
		WallDistance: 0.5,
		CounterSteer: true,
	}
	assert.Equal(t, 1.0, s.bonusMultiplier(plain))
	assert.Greater(t, s.bonusMultiplier(stacked),
		cfg.CounterSteerBonus*cfg.PerfectBonus*cfg.HighSpeedBonus,
		"wall bonus multiplies on top of the other three")
	assert.LessOrEqual(t, s.bonusMultiplier(stacked),
		cfg.WallProximityCap*cfg.CounterSteerBonus*cfg.PerfectBonus*cfg.HighSpeedBonus)
}

func TestComboGrowsStepwise(t *testing.T) {
	cfg := DefaultScoreConfig()
	s := NewScorer(cfg)

	s.Update(true, Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1, Duration: 0.1}, dt)
	assert.Equal(t, 1.0, s.Combo)

	s.Update(true, Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1, Duration: 2.1}, dt)
	assert.Equal(t, 2.0, s.Combo)

	s.Update(true, Frame{SlipAngle: 0.5, Speed: 20, WallDistance: -1, Duration: 100}, dt)
	assert.Equal(t, cfg.ComboMax, s.Combo, "combo is capped")
}
