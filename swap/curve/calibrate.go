package curve

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/utils"
)

// Calibrator bootstraps the curves of a group so that every node trade reprices to zero.
type Calibrator struct {
	cfg SolverConfig
}

// NewCalibrator creates a calibrator; unset solver fields take their defaults.
func NewCalibrator(cfg SolverConfig) *Calibrator {
	return &Calibrator{cfg: cfg.withDefaults()}
}

// Config returns the effective solver configuration.
func (c *Calibrator) Config() SolverConfig { return c.cfg }

type calibrationNode struct {
	label  string
	trade  swap.Trade
	pillar time.Time
}

// Calibrate builds every curve of group as of valDate.
//
// Curves are solved in dependency order: a curve depends on the curves discounting its
// node trades' currency and projecting their indices. Within a curve the nodes are sorted
// by the last date their trade depends on, and the discount factor at that date is solved
// so the trade's PV is zero. fixings may be nil.
func (c *Calibrator) Calibrate(ctx context.Context, group GroupDefinition, valDate time.Time, quotes marketdata.QuoteSource, fixings marketdata.Fixings) (*RatesProvider, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	p := newRatesProvider(valDate, group.Entries, fixings)

	nodes := make(map[string][]calibrationNode, len(group.Entries))
	for _, e := range group.Entries {
		def, _ := group.Curve(e.CurveName)
		built := make([]calibrationNode, 0, len(def.Nodes))
		for _, n := range def.Nodes {
			trade, err := n.Trade(valDate, quotes)
			if err != nil {
				return nil, fmt.Errorf("curve %s: %w", def.Name, err)
			}
			built = append(built, calibrationNode{label: n.Label(), trade: trade, pillar: trade.LatestDate()})
		}
		nodes[e.CurveName] = built
	}

	order, err := dependencyOrder(group, p, nodes)
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, _ := group.Curve(name)
		if err := c.calibrateCurve(def, nodes[name], p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func dependencyOrder(group GroupDefinition, p *RatesProvider, nodes map[string][]calibrationNode) ([]string, error) {
	deps := make(map[string]map[string]bool, len(group.Entries))
	for _, e := range group.Entries {
		set := make(map[string]bool)
		for _, n := range nodes[e.CurveName] {
			ccy := n.trade.Currency()
			name, ok := p.discount[ccy]
			if !ok {
				return nil, fmt.Errorf("curve %s: node %s: %w: discounting %s", e.CurveName, n.label, ErrMissingCurve, ccy)
			}
			set[name] = true
			for _, idx := range n.trade.Indices() {
				name, ok := p.forward[idx]
				if !ok {
					return nil, fmt.Errorf("curve %s: node %s: %w: forward %s", e.CurveName, n.label, ErrMissingCurve, idx)
				}
				set[name] = true
			}
		}
		delete(set, e.CurveName)
		deps[e.CurveName] = set
	}

	order := make([]string, 0, len(group.Entries))
	done := make(map[string]bool, len(group.Entries))
	for len(order) < len(group.Entries) {
		progressed := false
		for _, e := range group.Entries {
			if done[e.CurveName] || !ready(deps[e.CurveName], done) {
				continue
			}
			done[e.CurveName] = true
			order = append(order, e.CurveName)
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, e := range group.Entries {
				if !done[e.CurveName] {
					stuck = append(stuck, e.CurveName)
				}
			}
			return nil, fmt.Errorf("curve group %s: %w between %s", group.Name, ErrCircularDependency, strings.Join(stuck, ", "))
		}
	}
	return order, nil
}

func ready(deps, done map[string]bool) bool {
	for d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

func (c *Calibrator) calibrateCurve(def Definition, nodes []calibrationNode, p *RatesProvider) error {
	sorted := append([]calibrationNode(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].pillar.Before(sorted[j].pillar) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].pillar.Equal(sorted[i-1].pillar) {
			return fmt.Errorf("curve %s: %w: nodes %s and %s both end on %s", def.Name, ErrDuplicatePillar,
				sorted[i-1].label, sorted[i].label, sorted[i].pillar.Format(utils.DateLayout))
		}
	}

	crv, err := newEmptyCurve(def.Name, p.valuation, def.Settings)
	if err != nil {
		return err
	}
	p.curves[def.Name] = crv

	guess := 1.0
	for _, n := range sorted {
		if err := crv.appendPillar(n.pillar, guess); err != nil {
			return &CalibrationError{Curve: def.Name, Node: n.label, Err: err}
		}
		df, err := c.solvePillar(crv, n, p)
		if err != nil {
			return err
		}
		guess = df
	}
	return nil
}

// solvePillar finds the last pillar's discount factor using damped Newton-Raphson with a
// central-difference derivative.
func (c *Calibrator) solvePillar(crv *Curve, n calibrationNode, p *RatesProvider) (float64, error) {
	cfg := c.cfg
	eval := func(x float64) (float64, error) {
		crv.setLast(x)
		return scalarPV(n.trade, p)
	}
	fail := func(err error) (float64, error) {
		return 0, &CalibrationError{Curve: crv.name, Node: n.label, Err: err}
	}

	x := crv.dfs[len(crv.dfs)-1]
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		f, err := eval(x)
		if err != nil {
			return fail(err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			x = math.Max(0.9*x, cfg.MinDiscountFactor)
			continue
		}
		if math.Abs(f) <= cfg.Tolerance {
			crv.setLast(x)
			return x, nil
		}

		h := 1e-6 * x
		fUp, err := eval(x + h)
		if err != nil {
			return fail(err)
		}
		fDown, err := eval(x - h)
		if err != nil {
			return fail(err)
		}
		derivative := (fUp - fDown) / (2 * h)
		if math.Abs(derivative) < cfg.DerivativeThreshold {
			break
		}

		delta := f / derivative
		if math.Abs(delta) > cfg.Damping*x {
			delta = math.Copysign(cfg.Damping*x, delta)
		}
		x -= delta
		if x < cfg.MinDiscountFactor {
			x = cfg.MinDiscountFactor
		}
	}

	f, err := eval(x)
	if err != nil {
		return fail(err)
	}
	if math.IsNaN(f) || math.Abs(f) > cfg.AcceptTolerance {
		return 0, &CalibrationError{Curve: crv.name, Node: n.label, Residual: f}
	}
	return x, nil
}

// scalarPV collapses a PV to a number; multi-currency amounts are summed.
func scalarPV(trade swap.Trade, p *RatesProvider) (float64, error) {
	v, err := swap.PresentValue(trade, p)
	if err != nil {
		return 0, err
	}
	switch pv := v.(type) {
	case currency.Amount:
		return pv.Value, nil
	case currency.MultiAmount:
		total := 0.0
		for _, a := range pv.Amounts() {
			total += a.Value
		}
		return total, nil
	default:
		return 0, fmt.Errorf("unexpected PV type %T", v)
	}
}
