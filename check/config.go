package check

import (
	"time"

	"github.com/meenmo/calibcheck/swap/curve"
)

// Resources locates the input files of a run.
type Resources struct {
	Groups       string
	Settings     string
	Calibrations string
	Quotes       string
}

// Performance sizes the timing harness.
type Performance struct {
	Tests int
	Reps  int
}

// Config is everything one calibration check needs. Treat it as a value; it is
// never mutated after loading.
type Config struct {
	ValuationDate       time.Time
	CurveGroup          string
	TolerancePV         float64
	Threads             int
	Timeout             time.Duration
	StrictMultiCurrency bool
	Resources           Resources
	Performance         Performance
	Solver              curve.SolverConfig
}

// DefaultDataDir holds the bundled example curves and quotes, relative to the working directory.
const DefaultDataDir = "data/example-calibration"

// DefaultConfig reproduces the EUR three-curve check on the bundled data.
func DefaultConfig() Config {
	return Config{
		ValuationDate:       time.Date(2015, 11, 20, 0, 0, 0, 0, time.UTC),
		CurveGroup:          "EUR-DSCONOIS-EURIBOR3MBS-EURIBOR6MIRS",
		TolerancePV:         1e-8,
		Threads:             1,
		StrictMultiCurrency: true,
		Resources:           ResourcesIn(DefaultDataDir),
		Performance:         Performance{Tests: 10, Reps: 3},
		Solver:              curve.DefaultSolverConfig(),
	}
}

// ResourcesIn lays out the four input files under dir the way the bundled data is.
func ResourcesIn(dir string) Resources {
	return Resources{
		Groups:       dir + "/curves/groups-eur.csv",
		Settings:     dir + "/curves/settings-eur.csv",
		Calibrations: dir + "/curves/calibrations-eur.csv",
		Quotes:       dir + "/quotes/quotes-eur.csv",
	}
}
