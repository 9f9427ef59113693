package check

import (
	"fmt"
	"strings"

	"github.com/meenmo/calibcheck/swap"
)

// ConfigNotFoundError is returned when the requested curve group is not defined.
type ConfigNotFoundError struct {
	Requested string
	Available []string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("curve group %q not found (available: %s)", e.Requested, strings.Join(e.Available, ", "))
}

// UnexpectedResultTypeError is returned when a present value is neither a single- nor a
// multi-currency amount.
type UnexpectedResultTypeError struct {
	Row   int
	Kind  swap.Kind
	Value any
}

func (e *UnexpectedResultTypeError) Error() string {
	return fmt.Sprintf("row %d (%s): unexpected result type %T", e.Row, e.Kind, e.Value)
}

// ToleranceViolationError reports a calibration trade whose PV is not near zero.
type ToleranceViolationError struct {
	Row       int
	Kind      swap.Kind
	Value     string
	Tolerance float64
}

func (e *ToleranceViolationError) Error() string {
	return fmt.Sprintf("row %d (%s): PV %s exceeds tolerance %g", e.Row, e.Kind, e.Value, e.Tolerance)
}

// ComputationError reports a cell the engine could not compute.
type ComputationError struct {
	Row  int
	Kind swap.Kind
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("row %d (%s): computation failed: %v", e.Row, e.Kind, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
