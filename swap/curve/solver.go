package curve

// SolverConfig holds the root-finding parameters of the pillar bootstrap.
type SolverConfig struct {
	// Tolerance is the PV tolerance for Newton-Raphson convergence.
	Tolerance float64

	// MaxIterations is the maximum Newton iterations per pillar.
	MaxIterations int

	// Damping limits Newton step size to prevent overshooting.
	// Delta is clamped to Damping * currentGuess.
	Damping float64

	// MinDiscountFactor is the floor for discount factors to prevent
	// numerical instability (division by near-zero).
	MinDiscountFactor float64

	// DerivativeThreshold is the minimum derivative magnitude.
	// Below this, Newton iteration stops to avoid division by near-zero.
	DerivativeThreshold float64

	// AcceptTolerance is the largest residual PV accepted when iteration stops
	// before reaching Tolerance.
	AcceptTolerance float64
}

// DefaultSolverConfig provides production-ready default values.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Tolerance:           1e-14,
		MaxIterations:       100,
		Damping:             0.5,
		MinDiscountFactor:   1e-9,
		DerivativeThreshold: 1e-15,
		AcceptTolerance:     1e-10,
	}
}

// withDefaults fills unset fields from DefaultSolverConfig.
func (c SolverConfig) withDefaults() SolverConfig {
	d := DefaultSolverConfig()
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Damping <= 0 {
		c.Damping = d.Damping
	}
	if c.MinDiscountFactor <= 0 {
		c.MinDiscountFactor = d.MinDiscountFactor
	}
	if c.DerivativeThreshold <= 0 {
		c.DerivativeThreshold = d.DerivativeThreshold
	}
	if c.AcceptTolerance < c.Tolerance {
		c.AcceptTolerance = d.AcceptTolerance
		if c.AcceptTolerance < c.Tolerance {
			c.AcceptTolerance = c.Tolerance
		}
	}
	return c
}
