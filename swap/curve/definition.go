package curve

import (
	"fmt"

	"github.com/meenmo/calibcheck/currency"
)

// Definition is a named curve with its settings and ordered calibration nodes.
type Definition struct {
	Name     string
	Settings Settings
	Nodes    []Node
}

// GroupEntry binds a curve to the currencies it discounts and the indices it projects.
type GroupEntry struct {
	CurveName          string
	DiscountCurrencies []currency.Currency
	Indices            []string
}

// GroupDefinition is a set of curves calibrated together.
type GroupDefinition struct {
	Name    string
	Entries []GroupEntry
	Curves  []Definition
}

// FindGroup returns the group with the given name and whether it exists.
func FindGroup(defs []GroupDefinition, name string) (GroupDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return GroupDefinition{}, false
}

// Names lists the group names in order.
func Names(defs []GroupDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

// Curve returns the definition of the named curve.
func (g GroupDefinition) Curve(name string) (Definition, bool) {
	for _, c := range g.Curves {
		if c.Name == name {
			return c, true
		}
	}
	return Definition{}, false
}

// NodeCount is the total number of nodes across all curves.
func (g GroupDefinition) NodeCount() int {
	n := 0
	for _, c := range g.Curves {
		n += len(c.Nodes)
	}
	return n
}

// Validate checks every entry has a definition with nodes and that no currency or index
// is bound twice.
func (g GroupDefinition) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("curve group has no name")
	}
	if len(g.Entries) == 0 {
		return fmt.Errorf("curve group %s: no curves", g.Name)
	}
	ccys := make(map[currency.Currency]string)
	indices := make(map[string]string)
	for _, e := range g.Entries {
		def, ok := g.Curve(e.CurveName)
		if !ok {
			return fmt.Errorf("curve group %s: no definition for curve %s", g.Name, e.CurveName)
		}
		if len(def.Nodes) == 0 {
			return fmt.Errorf("curve group %s: curve %s has no nodes", g.Name, e.CurveName)
		}
		for _, c := range e.DiscountCurrencies {
			if prev, dup := ccys[c]; dup && prev != e.CurveName {
				return fmt.Errorf("curve group %s: currency %s discounted by %s and %s", g.Name, c, prev, e.CurveName)
			}
			ccys[c] = e.CurveName
		}
		for _, idx := range e.Indices {
			if prev, dup := indices[idx]; dup && prev != e.CurveName {
				return fmt.Errorf("curve group %s: index %s projected by %s and %s", g.Name, idx, prev, e.CurveName)
			}
			indices[idx] = e.CurveName
		}
	}
	return nil
}
