package curve

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/calibcheck/utils"
)

// ValueType is the quantity stored at each curve pillar.
type ValueType string

const (
	ValueDiscountFactor ValueType = "DiscountFactor"
	ValueZeroRate       ValueType = "ZeroRate"
)

// Interpolator names the interpolation between pillars.
type Interpolator string

const (
	// LogLinear is linear in log discount factor (piecewise flat forwards).
	LogLinear Interpolator = "LogLinear"
	// Linear is linear in continuously compounded zero rate.
	Linear Interpolator = "Linear"
)

// Extrapolator names the behaviour outside the pillar range.
type Extrapolator string

const (
	// Flat keeps the boundary zero rate.
	Flat Extrapolator = "Flat"
	// FlatForward keeps the boundary instantaneous forward rate.
	FlatForward Extrapolator = "FlatForward"
)

// Settings describe how a curve stores and interpolates its pillars.
type Settings struct {
	ValueType         ValueType
	DayCount          string
	Interpolator      Interpolator
	LeftExtrapolator  Extrapolator
	RightExtrapolator Extrapolator
}

// DefaultSettings is a log-linear discount factor curve on an ACT/365F axis.
func DefaultSettings() Settings {
	return Settings{
		ValueType:         ValueDiscountFactor,
		DayCount:          utils.Act365F,
		Interpolator:      LogLinear,
		LeftExtrapolator:  Flat,
		RightExtrapolator: FlatForward,
	}
}

// ParseValueType accepts "DF", "DiscountFactor", "Zero" and "ZeroRate".
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DF", "DISCOUNTFACTOR", "DISCOUNT FACTOR":
		return ValueDiscountFactor, nil
	case "ZERO", "ZERORATE", "ZERO RATE":
		return ValueZeroRate, nil
	default:
		return "", fmt.Errorf("unknown value type %q", s)
	}
}

// ParseInterpolator accepts "LogLinear" and "Linear".
func ParseInterpolator(s string) (Interpolator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOGLINEAR":
		return LogLinear, nil
	case "LINEAR":
		return Linear, nil
	default:
		return "", fmt.Errorf("unknown interpolator %q", s)
	}
}

// ParseExtrapolator accepts "Flat", "FlatForward" and "Exponential".
func ParseExtrapolator(s string) (Extrapolator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FLAT":
		return Flat, nil
	case "FLATFORWARD", "EXPONENTIAL":
		return FlatForward, nil
	default:
		return "", fmt.Errorf("unknown extrapolator %q", s)
	}
}

// Validate checks the value type and interpolator are compatible.
func (s Settings) Validate() error {
	if _, err := utils.NormalizeDayCount(s.DayCount); err != nil {
		return err
	}
	switch {
	case s.ValueType == ValueDiscountFactor && s.Interpolator == LogLinear:
	case s.ValueType == ValueZeroRate && s.Interpolator == Linear:
	default:
		return fmt.Errorf("unsupported interpolation %s on %s", s.Interpolator, s.ValueType)
	}
	if s.LeftExtrapolator != Flat {
		return fmt.Errorf("unsupported left extrapolator %q", s.LeftExtrapolator)
	}
	if s.RightExtrapolator != Flat && s.RightExtrapolator != FlatForward {
		return fmt.Errorf("unsupported right extrapolator %q", s.RightExtrapolator)
	}
	return nil
}

// Curve is a discount curve defined by discount factors at pillar dates after the valuation date.
// DF(valuation) is 1 by construction.
type Curve struct {
	name      string
	valuation time.Time
	settings  Settings
	dayCount  string
	dates     []time.Time
	times     []float64
	dfs       []float64
}

func newEmptyCurve(name string, valuation time.Time, settings Settings) (*Curve, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("curve %s: %w", name, err)
	}
	dc, _ := utils.NormalizeDayCount(settings.DayCount)
	return &Curve{name: name, valuation: valuation, settings: settings, dayCount: dc}, nil
}

// NewCurveFromDFs creates a curve from explicitly provided discount factors.
// Every date must fall strictly after the valuation date.
func NewCurveFromDFs(name string, valuation time.Time, settings Settings, dfs map[time.Time]float64) (*Curve, error) {
	c, err := newEmptyCurve(name, valuation, settings)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(dfs))
	for d := range dfs {
		dates = append(dates, d)
	}
	utils.SortDates(dates)
	for _, d := range dates {
		if err := c.appendPillar(d, dfs[d]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Curve) appendPillar(d time.Time, df float64) error {
	t := c.yearFraction(d)
	if t <= 0 {
		return fmt.Errorf("curve %s: pillar %s not after valuation date %s", c.name, d.Format(utils.DateLayout), c.valuation.Format(utils.DateLayout))
	}
	if n := len(c.times); n > 0 && t <= c.times[n-1] {
		return fmt.Errorf("curve %s: pillar %s not after previous pillar", c.name, d.Format(utils.DateLayout))
	}
	if df <= 0 || math.IsNaN(df) {
		return fmt.Errorf("curve %s: invalid discount factor %g at %s", c.name, df, d.Format(utils.DateLayout))
	}
	c.dates = append(c.dates, d)
	c.times = append(c.times, t)
	c.dfs = append(c.dfs, df)
	return nil
}

// setLast overwrites the discount factor of the last pillar while solving.
func (c *Curve) setLast(df float64) {
	c.dfs[len(c.dfs)-1] = df
}

func (c *Curve) yearFraction(t time.Time) float64 {
	return utils.YearFraction(c.valuation, t, c.dayCount)
}

// Name returns the curve name.
func (c *Curve) Name() string { return c.name }

// ValuationDate returns the date at which DF is 1.
func (c *Curve) ValuationDate() time.Time { return c.valuation }

// Settings returns the interpolation settings.
func (c *Curve) Settings() Settings { return c.settings }

// Pillars returns a copy of the pillar dates.
func (c *Curve) Pillars() []time.Time {
	return append([]time.Time(nil), c.dates...)
}

// PillarDFs returns all discount factors keyed by pillar date.
func (c *Curve) PillarDFs() map[time.Time]float64 {
	result := make(map[time.Time]float64, len(c.dates))
	for i, d := range c.dates {
		result[d] = c.dfs[i]
	}
	return result
}

// DF returns the discount factor for date t.
func (c *Curve) DF(t time.Time) float64 {
	return math.Exp(c.logDF(c.yearFraction(t)))
}

// ZeroRateAt returns the continuously compounded zero rate (decimal) on the curve's time axis.
func (c *Curve) ZeroRateAt(t time.Time) float64 {
	x := c.yearFraction(t)
	if x <= 0 {
		if len(c.times) == 0 {
			return 0
		}
		return -math.Log(c.dfs[0]) / c.times[0]
	}
	return -c.logDF(x) / x
}

func (c *Curve) logDF(x float64) float64 {
	n := len(c.times)
	if n == 0 || x == 0 {
		return 0
	}
	if x > c.times[n-1] {
		return c.extrapolateRight(x)
	}
	switch c.settings.Interpolator {
	case Linear:
		return -c.linearZero(x) * x
	default:
		return c.logLinear(x)
	}
}

func (c *Curve) logLinear(x float64) float64 {
	if x < 0 {
		return math.Log(c.dfs[0]) / c.times[0] * x
	}
	lo, hi := bracket(c.times, x)
	var t1, y1 float64
	if lo >= 0 {
		t1, y1 = c.times[lo], math.Log(c.dfs[lo])
	}
	t2, y2 := c.times[hi], math.Log(c.dfs[hi])
	return y1 + (y2-y1)*(x-t1)/(t2-t1)
}

func (c *Curve) zero(i int) float64 {
	return -math.Log(c.dfs[i]) / c.times[i]
}

func (c *Curve) linearZero(x float64) float64 {
	if x <= c.times[0] {
		return c.zero(0)
	}
	lo, hi := bracket(c.times, x)
	z1, z2 := c.zero(lo), c.zero(hi)
	return z1 + (z2-z1)*(x-c.times[lo])/(c.times[hi]-c.times[lo])
}

func (c *Curve) extrapolateRight(x float64) float64 {
	n := len(c.times)
	tn, yn := c.times[n-1], math.Log(c.dfs[n-1])
	if c.settings.RightExtrapolator == Flat {
		return yn / tn * x
	}
	var tp, yp float64
	if n > 1 {
		tp, yp = c.times[n-2], math.Log(c.dfs[n-2])
	}
	return yn + (yn-yp)/(tn-tp)*(x-tn)
}
