package drift

import (
	"math"

	"github.com/apexdrift/simcore/pkg/vmath"
)

// ScoreConfig tunes the drift scoring formula and its bonuses.
type ScoreConfig struct {
	AngleFactor      float64 // points per radian of slip per second
	SpeedFactor      float64 // points per m/s per second
	DurationFactor   float64 // duration bonus growth per second
	MaxDurationBonus float64
	BankDelay        float64 // seconds after drift end before banking
	CollisionLoss    float64 // fraction of current score lost on impact
	ComboInterval    float64 // seconds of drift per combo step
	ComboMax         float64

	WallProximityCap  float64 // maximum wall bonus multiplier
	WallRange         float64 // m within which walls grant a bonus
	CounterSteerBonus float64
	PerfectAngle      float64 // rad, centre of the perfect-angle band
	PerfectAngleBand  float64 // rad, half-width of the band
	PerfectBonus      float64
	HighSpeed         float64 // m/s above which the speed bonus applies
	HighSpeedBonus    float64
}

// DefaultScoreConfig mirrors arcade drift scoring: stacking multiplicative
// bonuses on a base of angle times speed.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		AngleFactor:      120,
		SpeedFactor:      2.0,
		DurationFactor:   0.25,
		MaxDurationBonus: 2.0,
		BankDelay:        0.8,
		CollisionLoss:    0.5,
		ComboInterval:    2.0,
		ComboMax:         8.0,

		WallProximityCap:  1.5,
		WallRange:         3.0,
		CounterSteerBonus: 1.2,
		PerfectAngle:      math.Pi / 6, // ~30 deg
		PerfectAngleBand:  math.Pi / 36,
		PerfectBonus:      1.3,
		HighSpeed:         16.7, // ~60 km/h
		HighSpeedBonus:    1.15,
	}
}

// Scorer accumulates drift points. Current score grows while drifting and
// is banked a short delay after the drift ends; a collision mid-drift
// forfeits a configured fraction and resets the combo.
type Scorer struct {
	cfg ScoreConfig

	Current float64
	Banked  float64
	Best    float64
	Combo   float64

	banking   bool
	bankTimer float64

	// OnBank fires when a finished drift's score is added to the bank.
	OnBank func(amount float64)
}

// NewScorer creates a scorer with an empty bank and combo 1.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg, Combo: 1}
}

// Frame holds the per-frame inputs to the scoring formula.
type Frame struct {
	SlipAngle    float64 // rad, smoothed
	Speed        float64 // m/s
	Duration     float64 // seconds of continuous drift
	WallDistance float64 // m to nearest wall; <0 when unknown
	CounterSteer bool
}

// bonusMultiplier stacks the wall, counter-steer, perfect-angle and
// high-speed bonuses multiplicatively.
func (s *Scorer) bonusMultiplier(f Frame) float64 {
	bonus := 1.0
	if f.WallDistance >= 0 && f.WallDistance < s.cfg.WallRange {
		wall := 1 + (s.cfg.WallRange-f.WallDistance)/s.cfg.WallRange*(s.cfg.WallProximityCap-1)
		bonus *= vmath.Clamp(wall, 1, s.cfg.WallProximityCap)
	}
	if f.CounterSteer {
		bonus *= s.cfg.CounterSteerBonus
	}
	if d := math.Abs(math.Abs(f.SlipAngle) - s.cfg.PerfectAngle); d < s.cfg.PerfectAngleBand {
		bonus *= s.cfg.PerfectBonus
	}
	if f.Speed > s.cfg.HighSpeed {
		bonus *= s.cfg.HighSpeedBonus
	}
	return bonus
}

// Update advances scoring by one substep. drifting reflects the
// controller state after its own update.
func (s *Scorer) Update(drifting bool, f Frame, dt float64) {
	if drifting {
		s.banking = false
		s.bankTimer = 0

		// Combo grows step-wise with sustained drift time.
		steps := math.Floor(f.Duration / s.cfg.ComboInterval)
		s.Combo = vmath.Clamp(1+steps, 1, s.cfg.ComboMax)

		durBonus := 1 + math.Min(f.Duration*s.cfg.DurationFactor, s.cfg.MaxDurationBonus)
		base := math.Abs(f.SlipAngle)*s.cfg.AngleFactor + f.Speed*s.cfg.SpeedFactor
		s.Current += base * durBonus * s.bonusMultiplier(f) * s.Combo * dt
		return
	}

	if s.Current > 0 && !s.banking {
		s.banking = true
		s.bankTimer = s.cfg.BankDelay
	}
	if s.banking {
		s.bankTimer -= dt
		if s.bankTimer <= 0 {
			s.bank()
		}
	}
}

// OnCollision forfeits a fraction of the unbanked score and resets the
// combo. Called when the vehicle hits something mid-drift.
func (s *Scorer) OnCollision() {
	s.Current *= 1 - s.cfg.CollisionLoss
	s.Combo = 1
}

func (s *Scorer) bank() {
	amount := s.Current
	s.Banked += amount
	if s.Banked > s.Best {
		s.Best = s.Banked
	}
	s.Current = 0
	s.Combo = 1
	s.banking = false
	if s.OnBank != nil && amount > 0 {
		s.OnBank(amount)
	}
}

// Reset clears all scores except the best.
func (s *Scorer) Reset() {
	s.Current = 0
	s.Banked = 0
	s.Combo = 1
	s.banking = false
	s.bankTimer = 0
}
