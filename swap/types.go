package swap

import (
	"errors"
	"time"

	"github.com/meenmo/calibcheck/currency"
)

var (
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
	// ErrMissingFixing is returned when a past fixing is not available.
	ErrMissingFixing = errors.New("missing fixing")
	// ErrUnsupportedTrade is returned by PresentValue for unknown trade types.
	ErrUnsupportedTrade = errors.New("unsupported trade")
)

// Curve provides discount factors. Projection curves are read through the same interface
// to infer forward rates.
type Curve interface {
	DF(t time.Time) float64
}

// RatesProvider is the market a trade is priced against.
type RatesProvider interface {
	ValuationDate() time.Time
	DiscountCurve(ccy currency.Currency) (Curve, error)
	ProjectionCurve(index string) (Curve, error)
	// Fixing returns the historical fixing of index on date, if known.
	Fixing(index string, date time.Time) (float64, bool)
}

// Position describes whether a leg is paid or received.
type Position string

const (
	PositionReceive Position = "REC"
	PositionPay     Position = "PAY"
)

func (p Position) sign() float64 {
	if p == PositionPay {
		return -1
	}
	return 1
}

// SchedulePeriod is a cashflow period for a single leg.
//
// Dates are business-day adjusted per the provided leg convention.
type SchedulePeriod struct {
	StartDate   time.Time
	EndDate     time.Time
	PayDate     time.Time
	AccrualDays int
	FixingDate  time.Time
}
