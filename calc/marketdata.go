package calc

import (
	"context"
	"fmt"
	"time"

	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/curve"
)

// TimeSeriesProvider supplies historic index fixings.
type TimeSeriesProvider interface {
	Series(index string) (marketdata.FixingSeries, error)
}

// ObservableFunction resolves quotes the snapshot does not carry.
type ObservableFunction func(id marketdata.QuoteID) (float64, error)

// FeedIDMapping rewrites a quote identifier to the one used by the data feed.
type FeedIDMapping func(id marketdata.QuoteID) marketdata.QuoteID

// CurveGroupBuilder calibrates a curve group into a rates provider.
type CurveGroupBuilder interface {
	Build(ctx context.Context, group curve.GroupDefinition, valDate time.Time, quotes marketdata.QuoteSource, fixings marketdata.Fixings) (swap.RatesProvider, error)
}

// NoTimeSeries has no fixings for any index.
type NoTimeSeries struct{}

func (NoTimeSeries) Series(index string) (marketdata.FixingSeries, error) {
	return nil, fmt.Errorf("%w: no time series for %s", marketdata.ErrMissingFixing, index)
}

// NoObservables resolves nothing.
func NoObservables(id marketdata.QuoteID) (float64, error) {
	return 0, fmt.Errorf("%w: %s", marketdata.ErrMissingQuote, id)
}

// IdentityFeedMapping leaves identifiers unchanged.
func IdentityFeedMapping(id marketdata.QuoteID) marketdata.QuoteID { return id }

// MarketDataFactory turns a snapshot and a curve group definition into rates.
// Nil fields fall back to the no-op stubs; Curves is required.
type MarketDataFactory struct {
	TimeSeries  TimeSeriesProvider
	Observables ObservableFunction
	FeedMapping FeedIDMapping
	Curves      CurveGroupBuilder
}

func (f MarketDataFactory) withDefaults() MarketDataFactory {
	if f.TimeSeries == nil {
		f.TimeSeries = NoTimeSeries{}
	}
	if f.Observables == nil {
		f.Observables = NoObservables
	}
	if f.FeedMapping == nil {
		f.FeedMapping = IdentityFeedMapping
	}
	return f
}

// RatesProvider calibrates group against snap.
func (f MarketDataFactory) RatesProvider(ctx context.Context, group curve.GroupDefinition, snap *marketdata.Snapshot) (swap.RatesProvider, error) {
	if f.Curves == nil {
		return nil, fmt.Errorf("%w: no curve group builder", ErrMissingMarketData)
	}
	f = f.withDefaults()
	quotes := mappedQuotes{snap: snap, mapping: f.FeedMapping, fallback: f.Observables}
	return f.Curves.Build(ctx, group, snap.ValuationDate(), quotes, f.TimeSeries)
}

// mappedQuotes reads the snapshot through the feed mapping and falls back to observables.
type mappedQuotes struct {
	snap     *marketdata.Snapshot
	mapping  FeedIDMapping
	fallback ObservableFunction
}

func (q mappedQuotes) Quote(id marketdata.QuoteID) (float64, error) {
	feedID := q.mapping(id)
	if v, ok := q.snap.Lookup(feedID); ok {
		return v, nil
	}
	return q.fallback(feedID)
}

// LinkResolver replaces trade references with the trades they point to.
type LinkResolver interface {
	Resolve(trade swap.Trade) (swap.Trade, error)
}

// NoLinks returns every trade unchanged.
type NoLinks struct{}

func (NoLinks) Resolve(trade swap.Trade) (swap.Trade, error) { return trade, nil }
