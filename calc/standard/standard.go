// Package standard wires the swap pricers and the curve calibrator into the calculation engine.
package standard

import (
	"context"
	"fmt"
	"time"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

// PricingRules binds every supported trade kind to its present value pricer.
func PricingRules() calc.PricingRules {
	var rules calc.PricingRules
	for _, k := range []swap.Kind{swap.KindTermDeposit, swap.KindIborFixingDeposit, swap.KindFRA, swap.KindSwap} {
		rules = rules.With(k, presentValue)
	}
	return rules
}

func presentValue(_ context.Context, trade swap.Trade, measure calc.Measure, rates swap.RatesProvider) (any, error) {
	if measure != calc.PresentValue {
		return nil, fmt.Errorf("%w: %s for %s", calc.ErrUnsupportedMeasure, measure, trade.Kind())
	}
	return swap.PresentValue(trade, rates)
}

// CurveGroupBuilder calibrates curve groups with a curve.Calibrator.
type CurveGroupBuilder struct {
	calibrator *curve.Calibrator
}

// NewCurveGroupBuilder creates a builder; zero solver fields take their defaults.
func NewCurveGroupBuilder(cfg curve.SolverConfig) *CurveGroupBuilder {
	return &CurveGroupBuilder{calibrator: curve.NewCalibrator(cfg)}
}

func (b *CurveGroupBuilder) Build(ctx context.Context, group curve.GroupDefinition, valDate time.Time, quotes marketdata.QuoteSource, fixings marketdata.Fixings) (swap.RatesProvider, error) {
	rp, err := b.calibrator.Calibrate(ctx, group, valDate, quotes, fixings)
	if err != nil {
		return nil, err
	}
	return rp, nil
}

// MarketDataFactory is the factory used by the standard engine: no time series,
// no observables, identity feed mapping and curve calibration with cfg.
func MarketDataFactory(cfg curve.SolverConfig) calc.MarketDataFactory {
	return calc.MarketDataFactory{
		TimeSeries:  calc.NoTimeSeries{},
		Observables: calc.NoObservables,
		FeedMapping: calc.IdentityFeedMapping,
		Curves:      NewCurveGroupBuilder(cfg),
	}
}
