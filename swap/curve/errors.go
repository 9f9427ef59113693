package curve

import (
	"errors"
	"fmt"

	"github.com/meenmo/calibcheck/marketdata"
)

var (
	// ErrMissingQuote is returned (wrapped) when a node's quote is absent.
	ErrMissingQuote = marketdata.ErrMissingQuote
	// ErrCircularDependency is returned when curves depend on each other.
	ErrCircularDependency = errors.New("circular curve dependency")
	// ErrDuplicatePillar is returned when two nodes of a curve share a pillar date.
	ErrDuplicatePillar = errors.New("duplicate pillar")
	// ErrMissingCurve is returned when no curve is bound to a currency or index.
	ErrMissingCurve = errors.New("no curve bound")
)

// CalibrationError reports a node whose pillar could not be solved.
type CalibrationError struct {
	Curve    string
	Node     string
	Residual float64
	Err      error
}

func (e *CalibrationError) Error() string {
	msg := fmt.Sprintf("calibration of curve %s failed at node %s", e.Curve, e.Node)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s: residual PV %g", msg, e.Residual)
}

func (e *CalibrationError) Unwrap() error { return e.Err }
