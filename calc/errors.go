package calc

import "errors"

var (
	// ErrRunnerClosed is returned when work is submitted after Close.
	ErrRunnerClosed = errors.New("calc: runner closed")
	ErrNoColumns    = errors.New("calc: no columns requested")
	ErrNilRules     = errors.New("calc: nil calculation rules")
	ErrNilTrade     = errors.New("calc: nil trade")

	ErrNoPricingRule      = errors.New("no pricing rule for trade")
	ErrUnsupportedMeasure = errors.New("measure not supported")
	ErrMissingMarketData  = errors.New("missing market data")
	ErrNoCurveGroup       = errors.New("no curve group mapped to trade")
	// ErrTaskPanic wraps a panic recovered from a calculation task.
	ErrTaskPanic = errors.New("calculation task panicked")
)
