package market

import (
	"fmt"
	"strings"

	"github.com/meenmo/calibcheck/calendar"
	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/utils"
)

// LegType distinguishes fixed, IBOR and overnight legs.
type LegType string

const (
	LegFixed     LegType = "FIXED"
	LegIbor      LegType = "IBOR"
	LegOvernight LegType = "OVERNIGHT"
)

// Frequency enumerates payment frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// LegConvention captures standard swap leg settings.
type LegConvention struct {
	LegType      LegType
	Index        string
	DayCount     string
	PayFrequency Frequency
	PayLagDays   int
	Calendar     calendar.CalendarID
}

// SwapConvention is a two-leg swap template. Leg1 carries the quoted rate or spread.
type SwapConvention struct {
	Name        string
	Currency    currency.Currency
	SpotLagDays int
	Calendar    calendar.CalendarID
	Leg1        LegConvention
	Leg2        LegConvention
}

// DepositConvention describes a term deposit quoted from spot.
type DepositConvention struct {
	Name        string
	Currency    currency.Currency
	SpotLagDays int
	DayCount    string
	Calendar    calendar.CalendarID
}

var eurFixedAnnual = LegConvention{
	LegType: LegFixed, DayCount: utils.Thirty, PayFrequency: FreqAnnual, Calendar: calendar.TARGET,
}

var swapConventions = map[string]SwapConvention{
	"EUR-FIXED-1Y-EONIA-OIS": {
		Name: "EUR-FIXED-1Y-EONIA-OIS", Currency: currency.EUR, SpotLagDays: 2, Calendar: calendar.TARGET,
		Leg1: LegConvention{LegType: LegFixed, DayCount: utils.Act360, PayFrequency: FreqAnnual, PayLagDays: 1, Calendar: calendar.TARGET},
		Leg2: LegConvention{LegType: LegOvernight, Index: EONIA, DayCount: utils.Act360, PayFrequency: FreqAnnual, PayLagDays: 1, Calendar: calendar.TARGET},
	},
	"EUR-FIXED-1Y-EURIBOR-3M": {
		Name: "EUR-FIXED-1Y-EURIBOR-3M", Currency: currency.EUR, SpotLagDays: 2, Calendar: calendar.TARGET,
		Leg1: eurFixedAnnual,
		Leg2: LegConvention{LegType: LegIbor, Index: EURIBOR3M, DayCount: utils.Act360, PayFrequency: FreqQuarterly, Calendar: calendar.TARGET},
	},
	"EUR-FIXED-1Y-EURIBOR-6M": {
		Name: "EUR-FIXED-1Y-EURIBOR-6M", Currency: currency.EUR, SpotLagDays: 2, Calendar: calendar.TARGET,
		Leg1: eurFixedAnnual,
		Leg2: LegConvention{LegType: LegIbor, Index: EURIBOR6M, DayCount: utils.Act360, PayFrequency: FreqSemi, Calendar: calendar.TARGET},
	},
	"EUR-EURIBOR-3M-EURIBOR-6M": {
		Name: "EUR-EURIBOR-3M-EURIBOR-6M", Currency: currency.EUR, SpotLagDays: 2, Calendar: calendar.TARGET,
		Leg1: LegConvention{LegType: LegIbor, Index: EURIBOR3M, DayCount: utils.Act360, PayFrequency: FreqQuarterly, Calendar: calendar.TARGET},
		Leg2: LegConvention{LegType: LegIbor, Index: EURIBOR6M, DayCount: utils.Act360, PayFrequency: FreqSemi, Calendar: calendar.TARGET},
	},
}

var depositConventions = map[string]DepositConvention{
	"EUR-DEPOSIT-T2": {
		Name: "EUR-DEPOSIT-T2", Currency: currency.EUR, SpotLagDays: 2, DayCount: utils.Act360, Calendar: calendar.TARGET,
	},
	"EUR-DEPOSIT-T0": {
		Name: "EUR-DEPOSIT-T0", Currency: currency.EUR, DayCount: utils.Act360, Calendar: calendar.TARGET,
	},
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// LookupSwapConvention returns the named swap convention.
func LookupSwapConvention(name string) (SwapConvention, error) {
	c, ok := swapConventions[normalizeName(name)]
	if !ok {
		return SwapConvention{}, fmt.Errorf("unknown swap convention %q", name)
	}
	return c, nil
}

// LookupDepositConvention returns the named term deposit convention.
func LookupDepositConvention(name string) (DepositConvention, error) {
	c, ok := depositConventions[normalizeName(name)]
	if !ok {
		return DepositConvention{}, fmt.Errorf("unknown deposit convention %q", name)
	}
	return c, nil
}
