package physics

// Physics and table constants. Velocities are expressed in table units per
// reference tick; Step scales every rate by dt*TickRate.
const (
	TickRate           = 60.0
	AdjustmentScale    = 2.3
	BallRadius         = 2300.0 // 1000 * AdjustmentScale
	PocketRadius       = 2250.0
	BallMass           = 1.0
	Friction           = 1.5
	MinVelocity        = 2.0
	CushionRestitution = 0.6
	BallRestitution    = 0.94
	MaxIterations      = 20
	MaxSpin            = 50.0
	SpinDamping        = 0.2

	// Table geometry base unit: n = 600 * AdjustmentScale
	N = 1380.0
)
