package calc

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
)

// Engine computes a results matrix for trades and columns.
type Engine interface {
	Calculate(ctx context.Context, trades []swap.Trade, columns []Column, rules *CalculationRules, snap *marketdata.Snapshot) (*Results, error)
}

// DefaultEngine calibrates each curve group a calculation needs once, then prices
// every cell, both as tasks on a shared Runner.
type DefaultEngine struct {
	runner  *Runner
	factory MarketDataFactory
	links   LinkResolver
	logger  *zap.Logger
}

// NewDefaultEngine creates an engine; links may be nil and logger may be nil.
func NewDefaultEngine(runner *Runner, factory MarketDataFactory, links LinkResolver, logger *zap.Logger) *DefaultEngine {
	if links == nil {
		links = NoLinks{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultEngine{runner: runner, factory: factory, links: links, logger: logger}
}

type groupRates struct {
	rates swap.RatesProvider
	err   error
}

// Calculate fills one cell per (trade, column). Per-cell problems are failed results;
// only structural problems return an error.
func (e *DefaultEngine) Calculate(ctx context.Context, trades []swap.Trade, columns []Column, rules *CalculationRules, snap *marketdata.Snapshot) (*Results, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if rules == nil {
		return nil, ErrNilRules
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMissingMarketData)
	}
	resolved := make([]swap.Trade, len(trades))
	for i, t := range trades {
		if t == nil {
			return nil, fmt.Errorf("%w at row %d", ErrNilTrade, i)
		}
		resolved[i] = t
	}

	groupOf := make([]string, len(trades))
	groups := make(map[string]*groupRates)
	var order []string
	for i, t := range resolved {
		m, ok := rules.MarketData.MappingsFor(t)
		if !ok || m.CurveGroup == "" {
			continue
		}
		groupOf[i] = m.CurveGroup
		if _, seen := groups[m.CurveGroup]; !seen {
			groups[m.CurveGroup] = &groupRates{}
			order = append(order, m.CurveGroup)
		}
	}

	calibrations := make([]Task, 0, len(order))
	for _, name := range order {
		slot := groups[name]
		def, ok := rules.Config.CurveGroup(name)
		if !ok {
			slot.err = fmt.Errorf("%w: curve group %s not configured", ErrMissingMarketData, name)
			continue
		}
		calibrations = append(calibrations, func(ctx context.Context) {
			defer func() {
				if p := recover(); p != nil {
					slot.rates, slot.err = nil, e.panicError(p)
				}
			}()
			slot.rates, slot.err = e.factory.RatesProvider(ctx, def, snap)
			if slot.err != nil {
				e.logger.Warn("curve group calibration failed", zap.String("group", name), zap.Error(slot.err))
			}
		})
	}
	if err := e.runner.Run(ctx, calibrations); err != nil {
		return nil, err
	}

	results := newResults(len(resolved), columns)
	cells := make([]Task, 0, len(resolved)*len(columns))
	for row, t := range resolved {
		for col, c := range columns {
			cells = append(cells, func(ctx context.Context) {
				results.set(row, col, e.cell(ctx, t, c, rules, groupOf[row], groups))
			})
		}
	}
	if err := e.runner.Run(ctx, cells); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *DefaultEngine) cell(ctx context.Context, trade swap.Trade, column Column, rules *CalculationRules, group string, groups map[string]*groupRates) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Failure(e.panicError(p))
		}
	}()

	if group == "" {
		return Failure(fmt.Errorf("%w: %s", ErrNoCurveGroup, trade.Kind()))
	}
	gr := groups[group]
	if gr.err != nil {
		return Failure(gr.err)
	}
	resolved, err := e.links.Resolve(trade)
	if err != nil {
		return Failure(err)
	}
	fn, ok := rules.Pricing.Function(resolved.Kind())
	if !ok {
		return Failure(fmt.Errorf("%w: %s", ErrNoPricingRule, resolved.Kind()))
	}
	v, err := fn(ctx, resolved, column.Measure, gr.rates)
	if err != nil {
		return Failure(err)
	}
	return Success(v)
}

func (e *DefaultEngine) panicError(p any) error {
	e.logger.Error("calculation task panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
	return fmt.Errorf("%w: %v", ErrTaskPanic, p)
}
