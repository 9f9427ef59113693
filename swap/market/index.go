package market

import (
	"fmt"
	"strings"

	"github.com/meenmo/calibcheck/calendar"
	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/utils"
)

// Index names of the supported floating benchmarks.
const (
	EONIA     = "EUR-EONIA"
	EURIBOR3M = "EUR-EURIBOR-3M"
	EURIBOR6M = "EUR-EURIBOR-6M"
)

// Index describes a floating rate benchmark.
type Index struct {
	Name      string
	Currency  currency.Currency
	Overnight bool
	Tenor     Tenor
	DayCount  string
	Calendar  calendar.CalendarID
	// FixingLagDays is the number of business days between fixing and the start of accrual.
	FixingLagDays int
}

var indices = map[string]Index{
	EONIA: {
		Name: EONIA, Currency: currency.EUR, Overnight: true,
		Tenor: Tenor{Days: 1}, DayCount: utils.Act360, Calendar: calendar.TARGET,
	},
	EURIBOR3M: {
		Name: EURIBOR3M, Currency: currency.EUR,
		Tenor: TenorOfMonths(3), DayCount: utils.Act360, Calendar: calendar.TARGET, FixingLagDays: 2,
	},
	EURIBOR6M: {
		Name: EURIBOR6M, Currency: currency.EUR,
		Tenor: TenorOfMonths(6), DayCount: utils.Act360, Calendar: calendar.TARGET, FixingLagDays: 2,
	},
}

// LookupIndex returns the index with the given name.
func LookupIndex(name string) (Index, error) {
	idx, ok := indices[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Index{}, fmt.Errorf("unknown index %q", name)
	}
	return idx, nil
}

// IsOvernight reports whether the named index is an overnight index used in OIS discounting/projection.
func IsOvernight(name string) bool {
	idx, err := LookupIndex(name)
	return err == nil && idx.Overnight
}
