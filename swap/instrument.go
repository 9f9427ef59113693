package swap

import (
	"time"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/swap/market"
	"github.com/meenmo/calibcheck/utils"
)

// Kind names a trade type in reports.
type Kind string

const (
	KindTermDeposit       Kind = "TermDepositTrade"
	KindIborFixingDeposit Kind = "IborFixingDepositTrade"
	KindFRA               Kind = "FraTrade"
	KindSwap              Kind = "SwapTrade"
)

// Trade is a concrete instrument that can be priced by PresentValue.
type Trade interface {
	Kind() Kind
	Currency() currency.Currency
	// Indices lists the floating indices the trade projects.
	Indices() []string
	// LatestDate is the last date the trade's value depends on.
	LatestDate() time.Time
}

// TermDeposit exchanges Notional at StartDate for Notional plus interest at EndDate.
type TermDeposit struct {
	Ccy       currency.Currency
	StartDate time.Time
	EndDate   time.Time
	Rate      float64
	DayCount  string
	Notional  float64
}

func (d TermDeposit) Kind() Kind { return KindTermDeposit }
func (d TermDeposit) Currency() currency.Currency { return d.Ccy }
func (d TermDeposit) Indices() []string { return nil }
func (d TermDeposit) LatestDate() time.Time { return d.EndDate }

// IborFixingDeposit is a synthetic deposit paying the difference between Rate and the index fixing.
type IborFixingDeposit struct {
	Index      market.Index
	FixingDate time.Time
	StartDate  time.Time
	EndDate    time.Time
	Rate       float64
	Notional   float64
}

func (d IborFixingDeposit) Kind() Kind { return KindIborFixingDeposit }
func (d IborFixingDeposit) Currency() currency.Currency { return d.Index.Currency }
func (d IborFixingDeposit) Indices() []string { return []string{d.Index.Name} }
func (d IborFixingDeposit) LatestDate() time.Time { return d.EndDate }

// FRA is a forward rate agreement settled at PaymentDate with ISDA discounting.
// A positive notional receives the floating rate.
type FRA struct {
	Index       market.Index
	FixingDate  time.Time
	StartDate   time.Time
	EndDate     time.Time
	PaymentDate time.Time
	Rate        float64
	Notional    float64
}

func (f FRA) Kind() Kind { return KindFRA }
func (f FRA) Currency() currency.Currency { return f.Index.Currency }
func (f FRA) Indices() []string { return []string{f.Index.Name} }
func (f FRA) LatestDate() time.Time { return utils.MaxDate(f.EndDate, f.PaymentDate) }

// Leg is one side of a swap. Rate is the fixed coupon for fixed legs and the spread otherwise.
type Leg struct {
	Type      market.LegType
	Position  Position
	Ccy       currency.Currency
	Index     string
	Rate      float64
	DayCount  string
	Notional  float64
	Periods   []SchedulePeriod
	FixingLag int
}

// Swap is a set of legs, each possibly in its own currency.
type Swap struct {
	Legs []Leg
}

func (s Swap) Kind() Kind { return KindSwap }

// Currency returns the currency of the first leg.
func (s Swap) Currency() currency.Currency {
	if len(s.Legs) == 0 {
		return ""
	}
	return s.Legs[0].Ccy
}

func (s Swap) Indices() []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range s.Legs {
		if l.Type == market.LegFixed || seen[l.Index] {
			continue
		}
		seen[l.Index] = true
		out = append(out, l.Index)
	}
	return out
}

func (s Swap) LatestDate() time.Time {
	var latest time.Time
	for _, l := range s.Legs {
		for _, p := range l.Periods {
			latest = utils.MaxDate(latest, p.EndDate, p.PayDate)
		}
	}
	return latest
}
