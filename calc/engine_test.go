package calc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

var valDate = time.Date(2015, 11, 20, 0, 0, 0, 0, time.UTC)

type fakeTrade struct {
	kind  swap.Kind
	value float64
}

func (f fakeTrade) Kind() swap.Kind { return f.kind }
func (f fakeTrade) Currency() currency.Currency { return currency.EUR }
func (f fakeTrade) Indices() []string { return nil }
func (f fakeTrade) LatestDate() time.Time { return valDate }

type fakeRates struct{ group string }

func (fakeRates) ValuationDate() time.Time { return valDate }
func (fakeRates) DiscountCurve(currency.Currency) (swap.Curve, error) { return nil, nil }
func (fakeRates) ProjectionCurve(string) (swap.Curve, error) { return nil, nil }
func (fakeRates) Fixing(string, time.Time) (float64, bool) { return 0, false }

type fakeBuilder struct {
	calls atomic.Int32
	fail  map[string]error
	block chan struct{}
}

func (b *fakeBuilder) Build(ctx context.Context, group curve.GroupDefinition, _ time.Time, quotes marketdata.QuoteSource, _ marketdata.Fixings) (swap.RatesProvider, error) {
	b.calls.Add(1)
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := b.fail[group.Name]; err != nil {
		return nil, err
	}
	if _, err := quotes.Quote(marketdata.NewQuoteID("", "REQUIRED")); err != nil {
		return nil, err
	}
	return fakeRates{group: group.Name}, nil
}

func echoPricer(_ context.Context, trade swap.Trade, measure Measure, rates swap.RatesProvider) (any, error) {
	if measure != PresentValue {
		return nil, ErrUnsupportedMeasure
	}
	return currency.Of(currency.EUR, trade.(fakeTrade).value), nil
}

func testRules(groups ...string) *CalculationRules {
	pricing := PricingRules{}.With(swap.KindFRA, echoPricer).With(swap.KindSwap, echoPricer)
	var cfg MarketDataConfig
	for _, g := range groups {
		cfg = cfg.WithCurveGroup(g, curve.GroupDefinition{Name: g})
	}
	return &CalculationRules{
		Pricing:    pricing,
		MarketData: MarketDataRules{AnyTarget(Mappings{CurveGroup: "G"})},
		Config:     cfg,
	}
}

func testSnapshot() *marketdata.Snapshot {
	return marketdata.NewSnapshot(valDate, map[marketdata.QuoteID]float64{marketdata.NewQuoteID("", "REQUIRED"): 1})
}

func newTestOrchestrator(b *fakeBuilder, opts ...Option) *Orchestrator {
	return NewOrchestrator(append([]Option{WithThreads(2), WithMarketDataFactory(MarketDataFactory{Curves: b})}, opts...)...)
}

func TestComputeKeepsRowsAligned(t *testing.T) {
	t.Parallel()

	b := &fakeBuilder{}
	orch := newTestOrchestrator(b)
	defer orch.Close()

	trades := make([]swap.Trade, 30)
	for i := range trades {
		kind := swap.KindFRA
		if i%2 == 1 {
			kind = swap.KindSwap
		}
		trades[i] = fakeTrade{kind: kind, value: float64(i)}
	}
	res, err := orch.Compute(context.Background(), trades, []Column{{Measure: PresentValue}}, testRules("G"), testSnapshot())
	require.NoError(t, err)

	require.Equal(t, len(trades), res.RowCount())
	require.Equal(t, 1, res.ColumnCount())
	for i := range trades {
		cell := res.Get(i, 0)
		require.True(t, cell.IsSuccess(), cell.Err())
		assert.Equal(t, currency.Of(currency.EUR, float64(i)), cell.Value())
	}
	assert.Equal(t, int32(1), b.calls.Load(), "one calibration per curve group")
}

type swapLink struct {
	from, to fakeTrade
	err      error
}

func (l swapLink) Resolve(trade swap.Trade) (swap.Trade, error) {
	if trade == l.from {
		if l.err != nil {
			return nil, l.err
		}
		return l.to, nil
	}
	return trade, nil
}

func TestComputeResolvesLinks(t *testing.T) {
	t.Parallel()

	ref := fakeTrade{kind: swap.KindFRA, value: 1}
	target := fakeTrade{kind: swap.KindSwap, value: 42}
	trades := []swap.Trade{fakeTrade{kind: swap.KindFRA, value: 0}, ref, fakeTrade{kind: swap.KindFRA, value: 2}}

	orch := newTestOrchestrator(&fakeBuilder{}, WithLinkResolver(swapLink{from: ref, to: target}))
	defer orch.Close()
	res, err := orch.Compute(context.Background(), trades, []Column{{Measure: PresentValue}}, testRules("G"), testSnapshot())
	require.NoError(t, err)

	for i, want := range []float64{0, 42, 2} {
		cell := res.Get(i, 0)
		require.True(t, cell.IsSuccess(), cell.Err())
		assert.Equal(t, currency.Of(currency.EUR, want), cell.Value(), "row %d", i)
	}

	broken := errors.New("dangling link")
	failing := newTestOrchestrator(&fakeBuilder{}, WithLinkResolver(swapLink{from: ref, err: broken}))
	defer failing.Close()
	res, err = failing.Compute(context.Background(), trades, []Column{{Measure: PresentValue}}, testRules("G"), testSnapshot())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Get(1, 0).Err(), broken)
	assert.True(t, res.Get(0, 0).IsSuccess())
}

func TestComputeIsRepeatable(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeBuilder{}, WithThreads(4))
	defer orch.Close()
	trades := []swap.Trade{fakeTrade{kind: swap.KindFRA, value: 1}, fakeTrade{kind: swap.KindSwap, value: 2}}
	cols := []Column{{Measure: PresentValue}, {Measure: "ParRate"}}

	a, err := orch.Compute(context.Background(), trades, cols, testRules("G"), testSnapshot())
	require.NoError(t, err)
	b, err := orch.Compute(context.Background(), trades, cols, testRules("G"), testSnapshot())
	require.NoError(t, err)

	values := func(r *Results) []string {
		var out []string
		for row := 0; row < r.RowCount(); row++ {
			for col := 0; col < r.ColumnCount(); col++ {
				c := r.Get(row, col)
				out = append(out, fmt.Sprint(c.Value(), c.Err()))
			}
		}
		return out
	}
	assert.Empty(t, cmp.Diff(values(a), values(b)))
	assert.ErrorIs(t, a.Get(0, 1).Err(), ErrUnsupportedMeasure)
}

func TestComputeCellFailures(t *testing.T) {
	t.Parallel()

	panicking := PricingRules{}.With(swap.KindFRA, func(context.Context, swap.Trade, Measure, swap.RatesProvider) (any, error) {
		panic("boom")
	})

	tests := []struct {
		name    string
		builder *fakeBuilder
		rules   func() *CalculationRules
		snap    *marketdata.Snapshot
		trade   swap.Trade
		want    error
	}{
		{"no pricing rule", &fakeBuilder{}, func() *CalculationRules { return testRules("G") }, testSnapshot(), fakeTrade{kind: swap.KindTermDeposit}, ErrNoPricingRule},
		{"group not configured", &fakeBuilder{}, func() *CalculationRules { return testRules() }, testSnapshot(), fakeTrade{kind: swap.KindFRA}, ErrMissingMarketData},
		{"no mapping", &fakeBuilder{}, func() *CalculationRules {
			r := testRules("G")
			r.MarketData = nil
			return r
		}, testSnapshot(), fakeTrade{kind: swap.KindFRA}, ErrNoCurveGroup},
		{"calibration failure", &fakeBuilder{fail: map[string]error{"G": curve.ErrDuplicatePillar}}, func() *CalculationRules { return testRules("G") }, testSnapshot(), fakeTrade{kind: swap.KindFRA}, curve.ErrDuplicatePillar},
		{"missing quote", &fakeBuilder{}, func() *CalculationRules { return testRules("G") }, marketdata.NewSnapshot(valDate, nil), fakeTrade{kind: swap.KindFRA}, marketdata.ErrMissingQuote},
		{"panic", &fakeBuilder{}, func() *CalculationRules {
			r := testRules("G")
			r.Pricing = panicking
			return r
		}, testSnapshot(), fakeTrade{kind: swap.KindFRA}, ErrTaskPanic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			orch := newTestOrchestrator(tt.builder)
			defer orch.Close()

			res, err := orch.Compute(context.Background(), []swap.Trade{tt.trade}, []Column{{Measure: PresentValue}}, tt.rules(), tt.snap)
			require.NoError(t, err)
			cell := res.Get(0, 0)
			assert.False(t, cell.IsSuccess())
			assert.True(t, errors.Is(cell.Err(), tt.want), "got %v", cell.Err())
		})
	}
}

func TestComputeStructuralErrors(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(&fakeBuilder{})
	cols := []Column{{Measure: PresentValue}}
	trades := []swap.Trade{fakeTrade{kind: swap.KindFRA}}

	_, err := orch.Compute(context.Background(), trades, nil, testRules("G"), testSnapshot())
	assert.ErrorIs(t, err, ErrNoColumns)
	_, err = orch.Compute(context.Background(), trades, cols, nil, testSnapshot())
	assert.ErrorIs(t, err, ErrNilRules)
	_, err = orch.Compute(context.Background(), []swap.Trade{nil}, cols, testRules("G"), testSnapshot())
	assert.ErrorIs(t, err, ErrNilTrade)

	res, err := orch.Compute(context.Background(), nil, cols, testRules("G"), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowCount())

	orch.Close()
	_, err = orch.Compute(context.Background(), trades, cols, testRules("G"), testSnapshot())
	assert.ErrorIs(t, err, ErrRunnerClosed)
}

func TestComputeTimeout(t *testing.T) {
	t.Parallel()

	b := &fakeBuilder{block: make(chan struct{})}
	orch := newTestOrchestrator(b, WithTimeout(10*time.Millisecond))
	defer orch.Close()

	_, err := orch.Compute(context.Background(), []swap.Trade{fakeTrade{kind: swap.KindFRA}}, []Column{{Measure: PresentValue}}, testRules("G"), testSnapshot())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCustomEngine(t *testing.T) {
	t.Parallel()

	var seen *Runner
	orch := NewOrchestrator(WithThreads(3), WithEngine(func(r *Runner) Engine {
		seen = r
		return engineFunc(func(context.Context, []swap.Trade, []Column, *CalculationRules, *marketdata.Snapshot) (*Results, error) {
			return NewResults(1, []Column{{Measure: PresentValue}}, []Result{Success("not an amount")})
		})
	}))
	defer orch.Close()

	require.NotNil(t, seen)
	assert.Equal(t, 3, orch.Threads())
	res, err := orch.ComputeRequest(context.Background(), Request{}, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "not an amount", res.Get(0, 0).Value())
}

type engineFunc func(context.Context, []swap.Trade, []Column, *CalculationRules, *marketdata.Snapshot) (*Results, error)

func (f engineFunc) Calculate(ctx context.Context, trades []swap.Trade, columns []Column, rules *CalculationRules, snap *marketdata.Snapshot) (*Results, error) {
	return f(ctx, trades, columns, rules, snap)
}

func TestRulesAreCopyOnWrite(t *testing.T) {
	t.Parallel()

	base := PricingRules{}.With(swap.KindFRA, echoPricer)
	extended := base.With(swap.KindSwap, echoPricer)
	_, ok := base.Function(swap.KindSwap)
	assert.False(t, ok)
	_, ok = extended.Function(swap.KindSwap)
	assert.True(t, ok)

	cfg := MarketDataConfig{}.WithCurveGroup("G", curve.GroupDefinition{Name: "first"})
	cfg2 := cfg.WithCurveGroup("G", curve.GroupDefinition{Name: "second"})
	g, _ := cfg.CurveGroup("G")
	assert.Equal(t, "first", g.Name)
	g, _ = cfg2.CurveGroup("G")
	assert.Equal(t, "second", g.Name, "last binding wins")

	rules := MarketDataRules{
		KindTarget(Mappings{CurveGroup: "SWAPS"}, swap.KindSwap),
		AnyTarget(Mappings{CurveGroup: "ALL"}),
	}
	m, ok := rules.MappingsFor(fakeTrade{kind: swap.KindSwap})
	require.True(t, ok)
	assert.Equal(t, "SWAPS", m.CurveGroup)
	m, _ = rules.MappingsFor(fakeTrade{kind: swap.KindFRA})
	assert.Equal(t, "ALL", m.CurveGroup)
}

func TestResults(t *testing.T) {
	t.Parallel()

	_, err := NewResults(2, []Column{{Measure: PresentValue}}, []Result{Success(1)})
	assert.Error(t, err)

	res, err := NewResults(2, []Column{{Measure: PresentValue}}, []Result{Success(1), Failure(nil)})
	require.NoError(t, err)
	assert.Len(t, res.Column(0), 2)
	assert.False(t, res.Get(1, 0).IsSuccess())
	assert.Error(t, res.Get(1, 0).Err())
	assert.Panics(t, func() { res.Get(2, 0) })
}
