package curve

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/market"
	"github.com/meenmo/calibcheck/utils"
)

var valDate = time.Date(2015, 11, 20, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLogLinearCurve(t *testing.T) {
	t.Parallel()

	d1, d2 := date(2016, 11, 20), date(2017, 11, 20)
	c, err := NewCurveFromDFs("TEST", valDate, DefaultSettings(), map[time.Time]float64{d1: 0.99, d2: 0.97})
	require.NoError(t, err)

	assert.Equal(t, 1.0, c.DF(valDate))
	assert.InDelta(t, 0.99, c.DF(d1), 1e-15)
	assert.InDelta(t, 0.97, c.DF(d2), 1e-15)

	// halfway in log space between the pillars
	mid := d1.AddDate(0, 0, int(utils.Days(d1, d2)/2))
	x := utils.YearFraction(valDate, mid, utils.Act365F)
	t1 := utils.YearFraction(valDate, d1, utils.Act365F)
	t2 := utils.YearFraction(valDate, d2, utils.Act365F)
	want := math.Exp(math.Log(0.99) + (math.Log(0.97)-math.Log(0.99))*(x-t1)/(t2-t1))
	assert.InDelta(t, want, c.DF(mid), 1e-15)

	// flat forward beyond the last pillar keeps the last segment's forward
	d3 := date(2018, 11, 20)
	t3 := utils.YearFraction(valDate, d3, utils.Act365F)
	fwd := math.Log(0.99/0.97) / (t2 - t1)
	assert.InDelta(t, 0.97*math.Exp(-fwd*(t3-t2)), c.DF(d3), 1e-15)
}

func TestLinearZeroCurveWithFlatExtrapolation(t *testing.T) {
	t.Parallel()

	s := Settings{ValueType: ValueZeroRate, DayCount: "Act/365F", Interpolator: Linear, LeftExtrapolator: Flat, RightExtrapolator: Flat}
	d1, d2 := date(2016, 11, 20), date(2020, 11, 20)
	t1 := utils.YearFraction(valDate, d1, utils.Act365F)
	t2 := utils.YearFraction(valDate, d2, utils.Act365F)
	c, err := NewCurveFromDFs("ZR", valDate, s, map[time.Time]float64{
		d1: math.Exp(-0.01 * t1),
		d2: math.Exp(-0.02 * t2),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.01, c.ZeroRateAt(date(2016, 5, 20)), 1e-12, "flat left")
	assert.InDelta(t, 0.02, c.ZeroRateAt(date(2030, 1, 1)), 1e-12, "flat right")
	mid := date(2018, 11, 20)
	xm := utils.YearFraction(valDate, mid, utils.Act365F)
	assert.InDelta(t, 0.01+0.01*(xm-t1)/(t2-t1), c.ZeroRateAt(mid), 1e-12)
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultSettings().Validate())
	bad := DefaultSettings()
	bad.Interpolator = Linear
	assert.Error(t, bad.Validate())
	bad = DefaultSettings()
	bad.DayCount = "BUS/252"
	assert.Error(t, bad.Validate())

	_, err := NewCurveFromDFs("X", valDate, DefaultSettings(), map[time.Time]float64{valDate: 1})
	assert.Error(t, err, "pillar on the valuation date")

	v, err := ParseValueType("Zero")
	require.NoError(t, err)
	assert.Equal(t, ValueZeroRate, v)
	e, err := ParseExtrapolator("Exponential")
	require.NoError(t, err)
	assert.Equal(t, FlatForward, e)
	_, err = ParseInterpolator("NaturalCubic")
	assert.Error(t, err)
}

type nodeSpec struct {
	kind   NodeKind
	ticker string
	conv   string
	period string
	quote  float64
}

func buildDefinition(t *testing.T, name string, settings Settings, quotes *marketdata.Builder, specs []nodeSpec) Definition {
	t.Helper()
	def := Definition{Name: name, Settings: settings}
	for _, s := range specs {
		id := marketdata.NewQuoteID("", s.ticker)
		quotes.Add(id, s.quote)
		n, err := NewNode(s.kind, "", id, s.conv, s.period)
		require.NoError(t, err, s.ticker)
		def.Nodes = append(def.Nodes, n)
	}
	return def
}

const (
	oisConv = "EUR-FIXED-1Y-EONIA-OIS"
	irsConv = "EUR-FIXED-1Y-EURIBOR-6M"
)

func twoCurveGroup(t *testing.T, settings Settings) (GroupDefinition, *marketdata.Snapshot) {
	t.Helper()
	quotes := marketdata.NewBuilder(valDate)
	ois := buildDefinition(t, "EUR-DSCONOIS", settings, quotes, []nodeSpec{
		{KindTermDeposit, "EUR-DEP-1W", "EUR-DEPOSIT-T2", "1W", -0.0025},
		{KindOIS, "EUR-OIS-1M", oisConv, "1M", -0.0023},
		{KindOIS, "EUR-OIS-6M", oisConv, "6M", -0.0028},
		{KindOIS, "EUR-OIS-1Y", oisConv, "1Y", -0.0031},
		{KindOIS, "EUR-OIS-18M", oisConv, "18M", -0.0031},
		{KindOIS, "EUR-OIS-5Y", oisConv, "5Y", 0.0004},
		{KindOIS, "EUR-OIS-10Y", oisConv, "10Y", 0.0052},
	})
	sixM := buildDefinition(t, "EUR-EURIBOR6MIRS", settings, quotes, []nodeSpec{
		{KindIborFixingDeposit, "EUR-EURIBOR-6M", market.EURIBOR6M, "6M", -0.0001},
		{KindFRA, "EUR-FRA6x12", market.EURIBOR6M, "6x12", -0.0002},
		{KindIRS, "EUR-IRS6M-2Y", irsConv, "2Y", 0.0001},
		{KindIRS, "EUR-IRS6M-5Y", irsConv, "5Y", 0.0031},
		{KindIRS, "EUR-IRS6M-10Y", irsConv, "10Y", 0.0090},
	})
	group := GroupDefinition{
		Name: "EUR-DSCONOIS-EURIBOR6MIRS",
		// forward curve listed first: calibration order must not depend on definition order
		Entries: []GroupEntry{
			{CurveName: "EUR-EURIBOR6MIRS", Indices: []string{market.EURIBOR6M}},
			{CurveName: "EUR-DSCONOIS", DiscountCurrencies: []currency.Currency{currency.EUR}, Indices: []string{market.EONIA}},
		},
		Curves: []Definition{sixM, ois},
	}
	return group, quotes.Build()
}

func assertRepricesToZero(t *testing.T, group GroupDefinition, snap *marketdata.Snapshot, rp *RatesProvider) {
	t.Helper()
	for _, def := range group.Curves {
		for _, n := range def.Nodes {
			trade, err := n.Trade(valDate, snap)
			require.NoError(t, err)
			pv, err := scalarPV(trade, rp)
			require.NoError(t, err, n.Label())
			assert.Less(t, math.Abs(pv), 1e-10, "%s/%s PV %g", def.Name, n.Label(), pv)
		}
	}
}

func TestCalibrateRepricesEveryNode(t *testing.T) {
	t.Parallel()

	for _, settings := range []Settings{
		DefaultSettings(),
		{ValueType: ValueZeroRate, DayCount: utils.Act365F, Interpolator: Linear, LeftExtrapolator: Flat, RightExtrapolator: Flat},
	} {
		group, snap := twoCurveGroup(t, settings)
		rp, err := NewCalibrator(SolverConfig{}).Calibrate(context.Background(), group, valDate, snap, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"EUR-DSCONOIS", "EUR-EURIBOR6MIRS"}, rp.CurveNames())
		ois, ok := rp.Curve("EUR-DSCONOIS")
		require.True(t, ok)
		assert.Len(t, ois.Pillars(), 7)
		// negative short rates: discount factors above one
		assert.Greater(t, ois.DF(date(2016, 11, 24)), 1.0)

		assertRepricesToZero(t, group, snap, rp)
	}
}

func TestCalibrateIsDeterministic(t *testing.T) {
	t.Parallel()

	group, snap := twoCurveGroup(t, DefaultSettings())
	cal := NewCalibrator(DefaultSolverConfig())
	a, err := cal.Calibrate(context.Background(), group, valDate, snap, nil)
	require.NoError(t, err)
	b, err := cal.Calibrate(context.Background(), group, valDate, snap, nil)
	require.NoError(t, err)

	ca, _ := a.Curve("EUR-EURIBOR6MIRS")
	cb, _ := b.Curve("EUR-EURIBOR6MIRS")
	assert.Equal(t, ca.PillarDFs(), cb.PillarDFs())
}

func TestCalibrateErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing quote", func(t *testing.T) {
		t.Parallel()
		group, _ := twoCurveGroup(t, DefaultSettings())
		empty := marketdata.NewSnapshot(valDate, nil)
		_, err := NewCalibrator(SolverConfig{}).Calibrate(context.Background(), group, valDate, empty, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingQuote))
	})

	t.Run("duplicate pillar", func(t *testing.T) {
		t.Parallel()
		quotes := marketdata.NewBuilder(valDate)
		def := buildDefinition(t, "EUR-DSCONOIS", DefaultSettings(), quotes, []nodeSpec{
			{KindOIS, "EUR-OIS-1Y", oisConv, "1Y", -0.003},
			{KindOIS, "EUR-OIS-12M", oisConv, "12M", -0.003},
		})
		group := GroupDefinition{
			Name:    "G",
			Entries: []GroupEntry{{CurveName: def.Name, DiscountCurrencies: []currency.Currency{currency.EUR}, Indices: []string{market.EONIA}}},
			Curves:  []Definition{def},
		}
		_, err := NewCalibrator(SolverConfig{}).Calibrate(context.Background(), group, valDate, quotes.Build(), nil)
		assert.ErrorIs(t, err, ErrDuplicatePillar)
	})

	t.Run("circular dependency", func(t *testing.T) {
		t.Parallel()
		quotes := marketdata.NewBuilder(valDate)
		disc := buildDefinition(t, "DSC", DefaultSettings(), quotes, []nodeSpec{{KindIRS, "IRS-2Y", irsConv, "2Y", 0.001}})
		fwd := buildDefinition(t, "FWD", DefaultSettings(), quotes, []nodeSpec{{KindIRS, "IRS-5Y", irsConv, "5Y", 0.003}})
		group := GroupDefinition{
			Name: "CYCLE",
			Entries: []GroupEntry{
				{CurveName: "DSC", DiscountCurrencies: []currency.Currency{currency.EUR}},
				{CurveName: "FWD", Indices: []string{market.EURIBOR6M}},
			},
			Curves: []Definition{disc, fwd},
		}
		// DSC nodes project 6M (FWD); FWD nodes discount on DSC.
		_, err := NewCalibrator(SolverConfig{}).Calibrate(context.Background(), group, valDate, quotes.Build(), nil)
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("unbound index", func(t *testing.T) {
		t.Parallel()
		group, snap := twoCurveGroup(t, DefaultSettings())
		group.Entries[0].Indices = nil
		_, err := NewCalibrator(SolverConfig{}).Calibrate(context.Background(), group, valDate, snap, nil)
		assert.ErrorIs(t, err, ErrMissingCurve)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		group, snap := twoCurveGroup(t, DefaultSettings())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewCalibrator(SolverConfig{}).Calibrate(ctx, group, valDate, snap, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("no convergence", func(t *testing.T) {
		t.Parallel()
		group, snap := twoCurveGroup(t, DefaultSettings())
		_, err := NewCalibrator(SolverConfig{MaxIterations: 1, Tolerance: 1e-30, AcceptTolerance: 1e-30}).
			Calibrate(context.Background(), group, valDate, snap, nil)
		var calErr *CalibrationError
		require.ErrorAs(t, err, &calErr)
		assert.NotEmpty(t, calErr.Node)
	})
}

func TestFindGroupAndValidate(t *testing.T) {
	t.Parallel()

	group, _ := twoCurveGroup(t, DefaultSettings())
	defs := []GroupDefinition{{Name: "OTHER"}, group}

	got, ok := FindGroup(defs, group.Name)
	require.True(t, ok)
	assert.Equal(t, 12, got.NodeCount())
	_, ok = FindGroup(defs, "MISSING")
	assert.False(t, ok)
	assert.Equal(t, []string{"OTHER", group.Name}, Names(defs))

	require.NoError(t, group.Validate())
	broken := group
	broken.Entries = append([]GroupEntry{{CurveName: "NOPE"}}, group.Entries...)
	assert.Error(t, broken.Validate())

	dup := group
	dup.Entries = []GroupEntry{
		{CurveName: "EUR-DSCONOIS", DiscountCurrencies: []currency.Currency{currency.EUR}},
		{CurveName: "EUR-EURIBOR6MIRS", DiscountCurrencies: []currency.Currency{currency.EUR}},
	}
	assert.Error(t, dup.Validate())
}

func TestNewNode(t *testing.T) {
	t.Parallel()

	id := marketdata.NewQuoteID("", "EUR-FRA3x6")
	n, err := NewNode(KindFRA, "", id, market.EURIBOR3M, "3x6")
	require.NoError(t, err)
	assert.Equal(t, "FRA-3x6", n.Label())
	assert.Equal(t, KindFRA, n.Kind())
	assert.Equal(t, id, n.QuoteID())

	trade, err := n.Trade(valDate, marketdata.NewSnapshot(valDate, map[marketdata.QuoteID]float64{id: -0.0001}))
	require.NoError(t, err)
	assert.Equal(t, swap.KindFRA, trade.Kind())

	_, err = NewNode(KindOIS, "", id, irsConv, "2Y")
	assert.Error(t, err, "IRS convention behind an OIS node")
	_, err = NewNode(KindFRA, "", id, market.EONIA, "3x6")
	assert.Error(t, err)
	_, err = NewNode(KindIborFixingDeposit, "", id, market.EURIBOR3M, "6M")
	assert.Error(t, err)
	_, err = ParseNodeKind("SWAPTION")
	assert.Error(t, err)
	k, err := ParseNodeKind("bs")
	require.NoError(t, err)
	assert.Equal(t, KindBasisSwap, k)
}
