package check

import (
	"fmt"
	"time"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

// Loader reads curve group definitions and quotes.
type Loader interface {
	CurveGroups(groups, settings, calibrations string) ([]curve.GroupDefinition, error)
	Quotes(valDate time.Time, path string) (map[marketdata.QuoteID]float64, error)
}

// ResolveGroup finds the named group or returns a *ConfigNotFoundError.
func ResolveGroup(defs []curve.GroupDefinition, name string) (curve.GroupDefinition, error) {
	def, ok := curve.FindGroup(defs, name)
	if !ok {
		return curve.GroupDefinition{}, &ConfigNotFoundError{Requested: name, Available: curve.Names(defs)}
	}
	return def, nil
}

// ExtractTrades synthesizes the trade of every calibration node in curve then node
// order. IBOR fixing deposits are skipped: they are not market trades.
func ExtractTrades(def curve.GroupDefinition, snap *marketdata.Snapshot) ([]swap.Trade, error) {
	trades := make([]swap.Trade, 0, def.NodeCount())
	for _, c := range def.Curves {
		for _, n := range c.Nodes {
			if n.Kind() == curve.KindIborFixingDeposit {
				continue
			}
			t, err := n.Trade(snap.ValuationDate(), snap)
			if err != nil {
				return nil, fmt.Errorf("curve %s node %s: %w", c.Name, n.Label(), err)
			}
			trades = append(trades, t)
		}
	}
	return trades, nil
}

// BuildRequest prices trades for present value against the curve group def, bound
// under name for every trade.
func BuildRequest(trades []swap.Trade, name string, def curve.GroupDefinition, pricing calc.PricingRules) calc.Request {
	return calc.Request{
		Trades:  trades,
		Columns: []calc.Column{{Measure: calc.PresentValue}},
		Rules: &calc.CalculationRules{
			Pricing:    pricing,
			MarketData: calc.MarketDataRules{calc.AnyTarget(calc.Mappings{CurveGroup: name})},
			Config:     calc.MarketDataConfig{}.WithCurveGroup(name, def),
		},
	}
}
