package swap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/meenmo/calibcheck/calendar"
	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/swap/market"
	"github.com/meenmo/calibcheck/utils"
)

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// GenerateSchedule builds the payment schedule for a leg.
//
// Periods are generated from maturity backward, creating a front stub if needed.
// Unadjusted dates are rolled and each boundary is adjusted Modified Following.
func GenerateSchedule(effective, maturity time.Time, leg market.LegConvention, fixingLagDays int) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s", maturity.Format("2006-01-02"), effective.Format("2006-01-02"))
	}
	if leg.PayFrequency <= 0 {
		return nil, fmt.Errorf("GenerateSchedule: unsupported pay frequency %d", leg.PayFrequency)
	}
	return generateScheduleBackward(effective, maturity, leg, fixingLagDays), nil
}

// generateScheduleBackward generates periods rolling backward from maturity date,
// so intermediate dates align with maturity and the first period becomes a front stub.
func generateScheduleBackward(effective, maturity time.Time, leg market.LegConvention, fixingLagDays int) []SchedulePeriod {
	months := int(leg.PayFrequency)

	var unadjustedDates []time.Time
	for i := 0; ; i++ {
		current := utils.AddMonth(maturity, -months*i)
		if !current.After(effective) {
			break
		}
		unadjustedDates = append([]time.Time{current}, unadjustedDates...)
	}

	// A first rolled date within 7 days of effective would leave a tiny stub; merge it
	// into a long first period instead.
	if len(unadjustedDates) > 1 {
		daysDiff := int(utils.Days(effective, unadjustedDates[0]))
		if daysDiff > 0 && daysDiff <= 7 {
			unadjustedDates = unadjustedDates[1:]
		}
	}

	unadjustedDates = append([]time.Time{effective}, unadjustedDates...)

	periods := make([]SchedulePeriod, 0, len(unadjustedDates)-1)
	for i := 0; i < len(unadjustedDates)-1; i++ {
		accrualStart := calendar.Adjust(leg.Calendar, unadjustedDates[i])
		accrualEnd := calendar.Adjust(leg.Calendar, unadjustedDates[i+1])
		paymentDate := calendar.AddBusinessDays(leg.Calendar, accrualEnd, leg.PayLagDays)
		fixingDate := calendar.AddBusinessDays(leg.Calendar, accrualStart, -fixingLagDays)

		periods = append(periods, SchedulePeriod{
			StartDate:   accrualStart,
			EndDate:     accrualEnd,
			PayDate:     paymentDate,
			AccrualDays: int(utils.Days(accrualStart, accrualEnd)),
			FixingDate:  fixingDate,
		})
	}
	return periods
}

func forwardRate(projCurve Curve, start, end time.Time, dayCount string) float64 {
	dfStart := projCurve.DF(start)
	dfEnd := projCurve.DF(end)
	alpha := utils.YearFraction(start, end, dayCount)
	if alpha == 0 {
		return 0
	}
	return (dfStart/dfEnd - 1.0) / alpha
}

// iborRate returns the fixing if it is in the past (or published today), otherwise the
// forward implied by the projection curve over [start, end].
func iborRate(rp RatesProvider, index string, fixingDate, start, end time.Time, dayCount string) (float64, error) {
	valDate := rp.ValuationDate()
	if !fixingDate.After(valDate) {
		if r, ok := rp.Fixing(index, fixingDate); ok {
			return r, nil
		}
		if fixingDate.Before(valDate) {
			return 0, fmt.Errorf("%w: %s on %s", ErrMissingFixing, index, fixingDate.Format("2006-01-02"))
		}
	}
	proj, err := rp.ProjectionCurve(index)
	if err != nil {
		return 0, err
	}
	if isNilInterface(proj) {
		return 0, ErrNilCurve
	}
	return forwardRate(proj, start, end, dayCount), nil
}

// compoundedAccrual returns the overnight-compounded interest over [start, end] per unit notional.
// Days before the valuation date use published fixings; the rest is implied by the curve.
func compoundedAccrual(rp RatesProvider, idx market.Index, start, end time.Time) (float64, error) {
	valDate := rp.ValuationDate()
	factor := 1.0
	d := start
	for d.Before(valDate) && d.Before(end) {
		next := calendar.AddBusinessDays(idx.Calendar, d, 1)
		if next.After(end) {
			next = end
		}
		r, ok := rp.Fixing(idx.Name, d)
		if !ok {
			return 0, fmt.Errorf("%w: %s on %s", ErrMissingFixing, idx.Name, d.Format("2006-01-02"))
		}
		factor *= 1 + r*utils.YearFraction(d, next, idx.DayCount)
		d = next
	}
	if d.Before(end) {
		proj, err := rp.ProjectionCurve(idx.Name)
		if err != nil {
			return 0, err
		}
		if isNilInterface(proj) {
			return 0, ErrNilCurve
		}
		factor *= proj.DF(d) / proj.DF(end)
	}
	return factor - 1, nil
}

func discountCurve(rp RatesProvider, ccy currency.Currency) (Curve, error) {
	disc, err := rp.DiscountCurve(ccy)
	if err != nil {
		return nil, err
	}
	if isNilInterface(disc) {
		return nil, ErrNilCurve
	}
	return disc, nil
}

func legPV(leg Leg, rp RatesProvider, disc Curve) (float64, error) {
	valuationDate := rp.ValuationDate()
	sign := leg.Position.sign()

	var idx market.Index
	if leg.Type != market.LegFixed {
		var err error
		if idx, err = market.LookupIndex(leg.Index); err != nil {
			return 0, err
		}
	}

	totalPV := 0.0
	for _, p := range leg.Periods {
		if p.PayDate.Before(valuationDate) {
			continue
		}
		accrual := utils.YearFraction(p.StartDate, p.EndDate, leg.DayCount)

		var payment float64
		switch leg.Type {
		case market.LegFixed:
			payment = leg.Rate * accrual
		case market.LegIbor:
			rate, err := iborRate(rp, leg.Index, p.FixingDate, p.StartDate, p.EndDate, idx.DayCount)
			if err != nil {
				return 0, err
			}
			payment = (rate + leg.Rate) * accrual
		case market.LegOvernight:
			interest, err := compoundedAccrual(rp, idx, p.StartDate, p.EndDate)
			if err != nil {
				return 0, err
			}
			payment = interest + leg.Rate*accrual
		default:
			return 0, fmt.Errorf("unknown leg type %q", leg.Type)
		}
		totalPV += sign * leg.Notional * payment * disc.DF(p.PayDate)
	}
	return totalPV, nil
}
