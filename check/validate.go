package check

import (
	"fmt"
	"io"
	"math"
	"strings"

	"go.uber.org/multierr"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/swap"
)

// DefaultTolerance is the largest absolute PV a calibration trade may have.
const DefaultTolerance = 1e-8

// ValidateOptions control the PV check.
type ValidateOptions struct {
	Tolerance float64
	// StrictMultiCurrency asserts every currency of a multi-currency PV against
	// Tolerance. When false such PVs are only reported.
	StrictMultiCurrency bool
}

// DefaultValidateOptions checks every amount against DefaultTolerance.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{Tolerance: DefaultTolerance, StrictMultiCurrency: true}
}

// Line is the outcome for one trade.
type Line struct {
	Row      int
	Kind     swap.Kind
	Computed bool
	Multi    bool
	Value    string
}

func (l Line) String() string {
	s := fmt.Sprintf("  |--> PV for %s computed: %t", l.Kind, l.Computed)
	switch {
	case !l.Computed:
		return s
	case l.Multi:
		return s + " with values: " + l.Value
	default:
		return s + " with value: " + l.Value
	}
}

// Report is the outcome of a validation.
type Report struct {
	Lines      []Line
	violations error
	failures   error
}

// Passed is true when every trade was computed and is within tolerance.
func (r Report) Passed() bool { return r.violations == nil && r.failures == nil }

// Violations lists the *ToleranceViolationError values.
func (r Report) Violations() []error { return multierr.Errors(r.violations) }

// Failures lists the *ComputationError values.
func (r Report) Failures() []error { return multierr.Errors(r.failures) }

// Err combines failures and violations, or is nil when the report passed.
func (r Report) Err() error { return multierr.Combine(r.failures, r.violations) }

// WriteTo prints one line per trade.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Validate pairs trades with their present value results by position.
// A result that is neither a currency.Amount nor a currency.MultiAmount aborts with
// *UnexpectedResultTypeError; every other problem is collected in the report.
func Validate(trades []swap.Trade, column []calc.Result, opts ValidateOptions) (Report, error) {
	if len(trades) != len(column) {
		return Report{}, fmt.Errorf("check: %d trades but %d results", len(trades), len(column))
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	var r Report
	for i, t := range trades {
		res := column[i]
		line := Line{Row: i, Kind: t.Kind(), Computed: res.IsSuccess()}
		if !res.IsSuccess() {
			r.failures = multierr.Append(r.failures, &ComputationError{Row: i, Kind: t.Kind(), Err: res.Err()})
			r.Lines = append(r.Lines, line)
			continue
		}

		switch pv := res.Value().(type) {
		case currency.Amount:
			line.Value = pv.String()
			if !within(pv.Value, opts.Tolerance) {
				r.violations = multierr.Append(r.violations, &ToleranceViolationError{Row: i, Kind: t.Kind(), Value: pv.String(), Tolerance: opts.Tolerance})
			}
		case currency.MultiAmount:
			line.Multi = true
			line.Value = pv.String()
			if opts.StrictMultiCurrency {
				for _, a := range pv.Amounts() {
					if !within(a.Value, opts.Tolerance) {
						r.violations = multierr.Append(r.violations, &ToleranceViolationError{Row: i, Kind: t.Kind(), Value: a.String(), Tolerance: opts.Tolerance})
					}
				}
			}
		default:
			return Report{}, &UnexpectedResultTypeError{Row: i, Kind: t.Kind(), Value: res.Value()}
		}
		r.Lines = append(r.Lines, line)
	}
	return r, nil
}

func within(v, tol float64) bool {
	return !math.IsNaN(v) && math.Abs(v) < tol
}
