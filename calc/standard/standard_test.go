package standard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/calibcheck/calc"
	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
	"github.com/meenmo/calibcheck/swap/market"
)

var valDate = time.Date(2015, 11, 20, 0, 0, 0, 0, time.UTC)

func oisGroup(t *testing.T) (curve.GroupDefinition, *marketdata.Snapshot) {
	t.Helper()
	b := marketdata.NewBuilder(valDate)
	def := curve.Definition{Name: "EUR-DSCONOIS", Settings: curve.DefaultSettings()}
	for _, n := range []struct {
		tenor string
		rate  float64
	}{{"1M", -0.0016}, {"6M", -0.0023}, {"1Y", -0.0027}, {"5Y", -0.001}} {
		id := marketdata.NewQuoteID("", "EUR-OIS-"+n.tenor)
		b.Add(id, n.rate)
		node, err := curve.NewNode(curve.KindOIS, "", id, "EUR-FIXED-1Y-EONIA-OIS", n.tenor)
		require.NoError(t, err)
		def.Nodes = append(def.Nodes, node)
	}
	return curve.GroupDefinition{
		Name:    "OIS",
		Entries: []curve.GroupEntry{{CurveName: def.Name, DiscountCurrencies: []currency.Currency{currency.EUR}, Indices: []string{market.EONIA}}},
		Curves:  []curve.Definition{def},
	}, b.Build()
}

func TestPricingRulesCoverEveryTradeKind(t *testing.T) {
	t.Parallel()

	rules := PricingRules()
	for _, k := range []swap.Kind{swap.KindTermDeposit, swap.KindIborFixingDeposit, swap.KindFRA, swap.KindSwap} {
		_, ok := rules.Function(k)
		assert.True(t, ok, k)
	}
}

func TestCurveGroupBuilderAndPricing(t *testing.T) {
	t.Parallel()

	group, snap := oisGroup(t)
	rates, err := MarketDataFactory(curve.SolverConfig{}).RatesProvider(context.Background(), group, snap)
	require.NoError(t, err)

	node := group.Curves[0].Nodes[3]
	trade, err := node.Trade(valDate, snap)
	require.NoError(t, err)

	fn, _ := PricingRules().Function(trade.Kind())
	v, err := fn(context.Background(), trade, calc.PresentValue, rates)
	require.NoError(t, err)
	pv, ok := v.(currency.MultiAmount)
	require.True(t, ok)
	assert.InDelta(t, 0, pv.Get(currency.EUR).Value, 1e-10)

	_, err = fn(context.Background(), trade, calc.Measure("ParRate"), rates)
	assert.ErrorIs(t, err, calc.ErrUnsupportedMeasure)
}

func TestCurveGroupBuilderReportsCalibrationErrors(t *testing.T) {
	t.Parallel()

	group, _ := oisGroup(t)
	rates, err := NewCurveGroupBuilder(curve.SolverConfig{}).Build(context.Background(), group, valDate, marketdata.NewSnapshot(valDate, nil), nil)
	assert.Nil(t, rates)
	assert.ErrorIs(t, err, curve.ErrMissingQuote)
}
