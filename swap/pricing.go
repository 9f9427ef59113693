package swap

import (
	"fmt"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/utils"
)

// PresentValue prices a trade. Deposits and FRAs return a currency.Amount; swaps return a
// currency.MultiAmount with one entry per leg currency.
func PresentValue(trade Trade, rp RatesProvider) (any, error) {
	if isNilInterface(rp) {
		return nil, fmt.Errorf("PresentValue: nil rates provider")
	}
	switch t := trade.(type) {
	case TermDeposit:
		return t.PresentValue(rp)
	case *TermDeposit:
		return t.PresentValue(rp)
	case IborFixingDeposit:
		return t.PresentValue(rp)
	case *IborFixingDeposit:
		return t.PresentValue(rp)
	case FRA:
		return t.PresentValue(rp)
	case *FRA:
		return t.PresentValue(rp)
	case Swap:
		return t.PresentValue(rp)
	case *Swap:
		return t.PresentValue(rp)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedTrade, trade)
	}
}

// PresentValue of the deposit. The initial exchange is included only when it is not yet settled.
func (d TermDeposit) PresentValue(rp RatesProvider) (currency.Amount, error) {
	disc, err := discountCurve(rp, d.Ccy)
	if err != nil {
		return currency.Amount{}, fmt.Errorf("TermDeposit: %w", err)
	}
	valDate := rp.ValuationDate()
	pv := 0.0
	if !d.StartDate.Before(valDate) {
		pv -= d.Notional * disc.DF(d.StartDate)
	}
	if !d.EndDate.Before(valDate) {
		accrual := utils.YearFraction(d.StartDate, d.EndDate, d.DayCount)
		pv += d.Notional * (1 + d.Rate*accrual) * disc.DF(d.EndDate)
	}
	return currency.Of(d.Ccy, pv), nil
}

// PresentValue of the fixing deposit: Notional * accrual * (Rate - fixing), paid at EndDate.
func (d IborFixingDeposit) PresentValue(rp RatesProvider) (currency.Amount, error) {
	ccy := d.Index.Currency
	disc, err := discountCurve(rp, ccy)
	if err != nil {
		return currency.Amount{}, fmt.Errorf("IborFixingDeposit: %w", err)
	}
	if d.EndDate.Before(rp.ValuationDate()) {
		return currency.Of(ccy, 0), nil
	}
	fwd, err := iborRate(rp, d.Index.Name, d.FixingDate, d.StartDate, d.EndDate, d.Index.DayCount)
	if err != nil {
		return currency.Amount{}, fmt.Errorf("IborFixingDeposit: %w", err)
	}
	accrual := utils.YearFraction(d.StartDate, d.EndDate, d.Index.DayCount)
	return currency.Of(ccy, d.Notional*accrual*(d.Rate-fwd)*disc.DF(d.EndDate)), nil
}

// PresentValue of the FRA, discounting the settlement amount from EndDate to PaymentDate at
// the floating rate.
func (f FRA) PresentValue(rp RatesProvider) (currency.Amount, error) {
	ccy := f.Index.Currency
	disc, err := discountCurve(rp, ccy)
	if err != nil {
		return currency.Amount{}, fmt.Errorf("FRA: %w", err)
	}
	if f.PaymentDate.Before(rp.ValuationDate()) {
		return currency.Of(ccy, 0), nil
	}
	fwd, err := iborRate(rp, f.Index.Name, f.FixingDate, f.StartDate, f.EndDate, f.Index.DayCount)
	if err != nil {
		return currency.Amount{}, fmt.Errorf("FRA: %w", err)
	}
	accrual := utils.YearFraction(f.StartDate, f.EndDate, f.Index.DayCount)
	settlement := f.Notional * accrual * (fwd - f.Rate) / (1 + accrual*fwd)
	return currency.Of(ccy, settlement*disc.DF(f.PaymentDate)), nil
}

// PresentValue sums the discounted leg values per currency.
func (s Swap) PresentValue(rp RatesProvider) (currency.MultiAmount, error) {
	if len(s.Legs) == 0 {
		return currency.MultiAmount{}, fmt.Errorf("Swap: no legs")
	}
	total := currency.MultiOf()
	for i, leg := range s.Legs {
		disc, err := discountCurve(rp, leg.Ccy)
		if err != nil {
			return currency.MultiAmount{}, fmt.Errorf("Swap: leg %d: %w", i+1, err)
		}
		pv, err := legPV(leg, rp, disc)
		if err != nil {
			return currency.MultiAmount{}, fmt.Errorf("Swap: leg %d: %w", i+1, err)
		}
		total = total.Plus(currency.Of(leg.Ccy, pv))
	}
	return total, nil
}
