// Package config loads the calibcheck run configuration: built-in defaults, then an
// optional YAML file, then CALIBCHECK_* environment variables, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/calibcheck/check"
	"github.com/meenmo/calibcheck/logging"
	"github.com/meenmo/calibcheck/swap/curve"
	"github.com/meenmo/calibcheck/utils"
)

// EnvPrefix prefixes every environment override, e.g. CALIBCHECK_THREADS.
const EnvPrefix = "CALIBCHECK"

// Date is a calendar date written as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	return d.Decode(node.Value)
}

// Decode implements envconfig.Decoder.
func (d *Date) Decode(value string) error {
	t, err := utils.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.Format(utils.DateLayout), nil
}

type Resources struct {
	Groups       string `yaml:"groups" envconfig:"GROUPS" validate:"required"`
	Settings     string `yaml:"settings" envconfig:"SETTINGS" validate:"required"`
	Calibrations string `yaml:"calibrations" envconfig:"CALIBRATIONS" validate:"required"`
	Quotes       string `yaml:"quotes" envconfig:"QUOTES" validate:"required"`
}

type Performance struct {
	Tests int `yaml:"tests" envconfig:"TESTS" validate:"min=1"`
	Reps  int `yaml:"reps" envconfig:"REPS" validate:"min=1"`
}

type Solver struct {
	Tolerance           float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	MaxIterations       int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"min=1"`
	Damping             float64 `yaml:"damping" envconfig:"DAMPING" validate:"gt=0,lte=1"`
	MinDiscountFactor   float64 `yaml:"min_discount_factor" envconfig:"MIN_DISCOUNT_FACTOR" validate:"gt=0"`
	DerivativeThreshold float64 `yaml:"derivative_threshold" envconfig:"DERIVATIVE_THRESHOLD" validate:"gt=0"`
	AcceptTolerance     float64 `yaml:"accept_tolerance" envconfig:"ACCEPT_TOLERANCE" validate:"gtefield=Tolerance"`
}

// Config mirrors the YAML file layout.
type Config struct {
	ValuationDate       Date           `yaml:"valuation_date" envconfig:"VALUATION_DATE"`
	CurveGroup          string         `yaml:"curve_group" envconfig:"CURVE_GROUP" validate:"required"`
	TolerancePV         float64        `yaml:"tolerance_pv" envconfig:"TOLERANCE_PV" validate:"gt=0"`
	Threads             int            `yaml:"threads" envconfig:"THREADS" validate:"min=1,max=256"`
	Timeout             time.Duration  `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	StrictMultiCurrency bool           `yaml:"strict_multi_currency" envconfig:"STRICT_MULTI_CURRENCY"`
	Resources           Resources      `yaml:"resources" envconfig:"RESOURCES"`
	Performance         Performance    `yaml:"performance" envconfig:"PERFORMANCE"`
	Solver              Solver         `yaml:"solver" envconfig:"SOLVER"`
	Logging             logging.Config `yaml:"logging" envconfig:"LOGGING"`
}

// Default is the configuration used when no file or override is given.
func Default() Config {
	c := check.DefaultConfig()
	s := c.Solver
	return Config{
		ValuationDate:       Date{c.ValuationDate},
		CurveGroup:          c.CurveGroup,
		TolerancePV:         c.TolerancePV,
		Threads:             c.Threads,
		Timeout:             c.Timeout,
		StrictMultiCurrency: c.StrictMultiCurrency,
		Resources: Resources{
			Groups:       c.Resources.Groups,
			Settings:     c.Resources.Settings,
			Calibrations: c.Resources.Calibrations,
			Quotes:       c.Resources.Quotes,
		},
		Performance: Performance{Tests: c.Performance.Tests, Reps: c.Performance.Reps},
		Solver: Solver{
			Tolerance:           s.Tolerance,
			MaxIterations:       s.MaxIterations,
			Damping:             s.Damping,
			MinDiscountFactor:   s.MinDiscountFactor,
			DerivativeThreshold: s.DerivativeThreshold,
			AcceptTolerance:     s.AcceptTolerance,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path (skipped when empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if c.ValuationDate.IsZero() {
		return errors.New("config: valuation_date is required")
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Check converts the file layout to the run configuration.
func (c Config) Check() check.Config {
	return check.Config{
		ValuationDate:       c.ValuationDate.Time,
		CurveGroup:          c.CurveGroup,
		TolerancePV:         c.TolerancePV,
		Threads:             c.Threads,
		Timeout:             c.Timeout,
		StrictMultiCurrency: c.StrictMultiCurrency,
		Resources: check.Resources{
			Groups:       c.Resources.Groups,
			Settings:     c.Resources.Settings,
			Calibrations: c.Resources.Calibrations,
			Quotes:       c.Resources.Quotes,
		},
		Performance: check.Performance{Tests: c.Performance.Tests, Reps: c.Performance.Reps},
		Solver: curve.SolverConfig{
			Tolerance:           c.Solver.Tolerance,
			MaxIterations:       c.Solver.MaxIterations,
			Damping:             c.Solver.Damping,
			MinDiscountFactor:   c.Solver.MinDiscountFactor,
			DerivativeThreshold: c.Solver.DerivativeThreshold,
			AcceptTolerance:     c.Solver.AcceptTolerance,
		},
	}
}
