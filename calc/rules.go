package calc

import (
	"context"

	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

// PricingFunction computes one measure of a trade against calibrated rates.
type PricingFunction func(ctx context.Context, trade swap.Trade, measure Measure, rates swap.RatesProvider) (any, error)

// PricingRules maps trade kinds to pricing functions. The zero value has no rules.
// With returns a modified copy; the receiver is never changed.
type PricingRules struct {
	byKind map[swap.Kind]PricingFunction
}

// With binds kind to fn.
func (p PricingRules) With(kind swap.Kind, fn PricingFunction) PricingRules {
	next := make(map[swap.Kind]PricingFunction, len(p.byKind)+1)
	for k, v := range p.byKind {
		next[k] = v
	}
	next[kind] = fn
	return PricingRules{byKind: next}
}

// Function returns the pricing function for kind.
func (p PricingRules) Function(kind swap.Kind) (PricingFunction, bool) {
	fn, ok := p.byKind[kind]
	return fn, ok && fn != nil
}

// MarketDataConfig holds the curve group definitions available to a calculation.
type MarketDataConfig struct {
	groups map[string]curve.GroupDefinition
}

// WithCurveGroup binds name to def, replacing any previous binding.
func (c MarketDataConfig) WithCurveGroup(name string, def curve.GroupDefinition) MarketDataConfig {
	next := make(map[string]curve.GroupDefinition, len(c.groups)+1)
	for k, v := range c.groups {
		next[k] = v
	}
	next[name] = def
	return MarketDataConfig{groups: next}
}

// CurveGroup returns the definition bound to name.
func (c MarketDataConfig) CurveGroup(name string) (curve.GroupDefinition, bool) {
	def, ok := c.groups[name]
	return def, ok
}

// Mappings say which market data a trade is priced with.
type Mappings struct {
	CurveGroup string
}

// MarketDataRule selects Mappings for the trades it matches.
type MarketDataRule struct {
	Matches  func(swap.Trade) bool
	Mappings Mappings
}

// AnyTarget applies mappings to every trade.
func AnyTarget(m Mappings) MarketDataRule {
	return MarketDataRule{Matches: func(swap.Trade) bool { return true }, Mappings: m}
}

// KindTarget applies mappings to trades of the given kinds.
func KindTarget(m Mappings, kinds ...swap.Kind) MarketDataRule {
	set := make(map[swap.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return MarketDataRule{Matches: func(t swap.Trade) bool { return set[t.Kind()] }, Mappings: m}
}

// MarketDataRules are tried in order; the first match wins.
type MarketDataRules []MarketDataRule

// MappingsFor returns the mappings of the first rule matching trade.
func (r MarketDataRules) MappingsFor(trade swap.Trade) (Mappings, bool) {
	for _, rule := range r {
		if rule.Matches != nil && rule.Matches(trade) {
			return rule.Mappings, true
		}
	}
	return Mappings{}, false
}

// CalculationRules bundle everything the engine needs besides trades and quotes.
type CalculationRules struct {
	Pricing    PricingRules
	MarketData MarketDataRules
	Config     MarketDataConfig
}

// Request is a complete calculation: what to price, which measures and how.
type Request struct {
	Trades  []swap.Trade
	Columns []Column
	Rules   *CalculationRules
}
