package vehicle

const gravity = 9.81

// Loads holds the vertical load on each wheel in newtons, indexed by the
// Wheel* constants. Loads are clamped to zero; a lifted wheel produces no
// grip.
type Loads [WheelCount]float64

// Sum returns the total vertical load.
func (l Loads) Sum() float64 {
	return l[WheelFL] + l[WheelFR] + l[WheelRL] + l[WheelRR]
}

// DistributeLoad computes instantaneous wheel loads from the static
// distribution plus longitudinal and lateral weight transfer.
//
// aLong is the chassis-forward acceleration (positive accelerating), aLat
// the chassis-right acceleration. Longitudinal transfer m*a*h/L moves load
// rearward under acceleration; lateral transfer m*a*h/T moves load to the
// outside wheels, split between axles by the roll stiffness distribution.
func DistributeLoad(cfg Config, aLong, aLat float64) Loads {
	weight := cfg.Mass * gravity
	staticFront := weight * cfg.CGToRear / cfg.Wheelbase
	staticRear := weight * cfg.CGToFront / cfg.Wheelbase

	longTransfer := cfg.Mass * aLong * cfg.CGHeight / cfg.Wheelbase
	front := staticFront - longTransfer
	rear := staticRear + longTransfer

	latTransfer := cfg.Mass * aLat * cfg.CGHeight / cfg.TrackWidth
	frontLat := latTransfer * cfg.RollStiffnessFront
	rearLat := latTransfer * (1 - cfg.RollStiffnessFront)

	// Positive aLat (rightward) loads the left side.
	loads := Loads{
		WheelFL: front/2 + frontLat,
		WheelFR: front/2 - frontLat,
		WheelRL: rear/2 + rearLat,
		WheelRR: rear/2 - rearLat,
	}
	for i := range loads {
		if loads[i] < 0 {
			loads[i] = 0
		}
	}
	return loads
}

// RolloverThreshold returns the lateral acceleration at which the inner
// wheel loads reach zero: g * T / (2*h).
func RolloverThreshold(cfg Config) float64 {
	return gravity * cfg.TrackWidth / (2 * cfg.CGHeight)
}

// MaxBrakingDecel returns the deceleration at which the rear axle load
// reaches zero. Setting rear load W*CGToFront/L - m*a*h/L to zero gives
// a = g * CGToFront / h.
func MaxBrakingDecel(cfg Config) float64 {
	return gravity * cfg.CGToFront / cfg.CGHeight
}

// MaxAccel returns the acceleration at which the front axle load reaches
// zero: a = g * CGToRear / h.
func MaxAccel(cfg Config) float64 {
	return gravity * cfg.CGToRear / cfg.CGHeight
}
