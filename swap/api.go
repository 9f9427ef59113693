package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/calibcheck/calendar"
	"github.com/meenmo/calibcheck/swap/market"
)

// SpotEffectiveMaturity computes spot (trade + spotLagBD), effective and unadjusted maturity dates
// from a trade date.
//
// Conventions:
// - spot = tradeDate + spotLagBD business days on cal
// - effective = spot + forward tenor, adjusted Modified Following
// - maturity = effective + swap tenor, left unadjusted for backward schedule generation
func SpotEffectiveMaturity(tradeDate time.Time, cal calendar.CalendarID, spotLagBD int, forward, tenor market.Tenor) (spot, effective, maturity time.Time) {
	spot = calendar.AddBusinessDays(cal, tradeDate, spotLagBD)
	effective = spot
	if !forward.IsZero() {
		effective = calendar.Adjust(cal, forward.AddTo(spot))
	}
	maturity = tenor.AddTo(effective)
	return spot, effective, maturity
}

// NewTermDeposit creates a deposit starting at spot and running for tenor.
func NewTermDeposit(tradeDate time.Time, conv market.DepositConvention, tenor market.Tenor, rate, notional float64) (TermDeposit, error) {
	if tenor.IsZero() {
		return TermDeposit{}, fmt.Errorf("NewTermDeposit: zero tenor")
	}
	start := calendar.AddBusinessDays(conv.Calendar, tradeDate, conv.SpotLagDays)
	end := calendar.Adjust(conv.Calendar, tenor.AddTo(start))
	return TermDeposit{
		Ccy:       conv.Currency,
		StartDate: start,
		EndDate:   end,
		Rate:      rate,
		DayCount:  conv.DayCount,
		Notional:  notional,
	}, nil
}

// NewIborFixingDeposit creates the synthetic deposit over the index period fixing on fixingDate.
func NewIborFixingDeposit(fixingDate time.Time, idx market.Index, rate, notional float64) (IborFixingDeposit, error) {
	if idx.Overnight {
		return IborFixingDeposit{}, fmt.Errorf("NewIborFixingDeposit: %s is not an IBOR index", idx.Name)
	}
	start := calendar.AddBusinessDays(idx.Calendar, fixingDate, idx.FixingLagDays)
	end := calendar.Adjust(idx.Calendar, idx.Tenor.AddTo(start))
	return IborFixingDeposit{
		Index:      idx,
		FixingDate: fixingDate,
		StartDate:  start,
		EndDate:    end,
		Rate:       rate,
		Notional:   notional,
	}, nil
}

// NewFRA creates an "AxB" FRA: accrual from spot+A to spot+B, settled at the start date.
func NewFRA(tradeDate time.Time, idx market.Index, toStart, toEnd market.Tenor, rate, notional float64) (FRA, error) {
	if idx.Overnight {
		return FRA{}, fmt.Errorf("NewFRA: %s is not an IBOR index", idx.Name)
	}
	if toEnd.Months <= toStart.Months {
		return FRA{}, fmt.Errorf("NewFRA: end %s not after start %s", toEnd, toStart)
	}
	spot := calendar.AddBusinessDays(idx.Calendar, tradeDate, idx.FixingLagDays)
	start := calendar.Adjust(idx.Calendar, toStart.AddTo(spot))
	end := calendar.Adjust(idx.Calendar, toEnd.AddTo(spot))
	return FRA{
		Index:       idx,
		FixingDate:  calendar.AddBusinessDays(idx.Calendar, start, -idx.FixingLagDays),
		StartDate:   start,
		EndDate:     end,
		PaymentDate: start,
		Rate:        rate,
		Notional:    notional,
	}, nil
}

// SwapParams defines the inputs of a two-leg swap built from a convention.
type SwapParams struct {
	TradeDate    time.Time
	Convention   market.SwapConvention
	ForwardTenor market.Tenor
	Tenor        market.Tenor
	// Rate is the fixed coupon, or the spread of the first leg for basis swaps.
	Rate     float64
	Notional float64
	// Position of the first leg; the second leg takes the opposite side.
	Position Position
}

// NewSwap builds the swap described by params.
func NewSwap(params SwapParams) (Swap, error) {
	conv := params.Convention
	if params.Tenor.IsZero() {
		return Swap{}, fmt.Errorf("NewSwap: %s: zero tenor", conv.Name)
	}
	if params.Notional == 0 {
		return Swap{}, fmt.Errorf("NewSwap: %s: Notional is required", conv.Name)
	}
	pos := params.Position
	if pos == "" {
		pos = PositionPay
	}
	other := PositionReceive
	if pos == PositionReceive {
		other = PositionPay
	}

	_, effective, maturity := SpotEffectiveMaturity(params.TradeDate, conv.Calendar, conv.SpotLagDays, params.ForwardTenor, params.Tenor)

	leg1, err := buildLeg(conv.Leg1, conv, pos, params.Rate, params.Notional, effective, maturity)
	if err != nil {
		return Swap{}, fmt.Errorf("NewSwap: %s: leg 1: %w", conv.Name, err)
	}
	leg2, err := buildLeg(conv.Leg2, conv, other, 0, params.Notional, effective, maturity)
	if err != nil {
		return Swap{}, fmt.Errorf("NewSwap: %s: leg 2: %w", conv.Name, err)
	}
	return Swap{Legs: []Leg{leg1, leg2}}, nil
}

func buildLeg(lc market.LegConvention, conv market.SwapConvention, pos Position, rate, notional float64, effective, maturity time.Time) (Leg, error) {
	fixingLag := 0
	if lc.LegType != market.LegFixed {
		idx, err := market.LookupIndex(lc.Index)
		if err != nil {
			return Leg{}, err
		}
		if (lc.LegType == market.LegOvernight) != idx.Overnight {
			return Leg{}, fmt.Errorf("index %s does not match leg type %s", idx.Name, lc.LegType)
		}
		fixingLag = idx.FixingLagDays
	}
	periods, err := GenerateSchedule(effective, maturity, lc, fixingLag)
	if err != nil {
		return Leg{}, err
	}
	return Leg{
		Type:      lc.LegType,
		Position:  pos,
		Ccy:       conv.Currency,
		Index:     lc.Index,
		Rate:      rate,
		DayCount:  lc.DayCount,
		Notional:  notional,
		Periods:   periods,
		FixingLag: fixingLag,
	}, nil
}
