package curve

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
)

// RatesProvider serves the calibrated curves of a group by currency and index.
// It is read-only once calibration returns.
type RatesProvider struct {
	valuation time.Time
	curves    map[string]*Curve
	discount  map[currency.Currency]string
	forward   map[string]string
	fixings   marketdata.Fixings
}

func newRatesProvider(valuation time.Time, entries []GroupEntry, fixings marketdata.Fixings) *RatesProvider {
	p := &RatesProvider{
		valuation: valuation,
		curves:    make(map[string]*Curve),
		discount:  make(map[currency.Currency]string),
		forward:   make(map[string]string),
		fixings:   fixings,
	}
	for _, e := range entries {
		for _, c := range e.DiscountCurrencies {
			p.discount[c] = e.CurveName
		}
		for _, idx := range e.Indices {
			p.forward[idx] = e.CurveName
		}
	}
	return p
}

func (p *RatesProvider) ValuationDate() time.Time { return p.valuation }

func (p *RatesProvider) lookup(name string) (swap.Curve, error) {
	c, ok := p.curves[name]
	if !ok {
		return nil, fmt.Errorf("%w: curve %s not calibrated", ErrMissingCurve, name)
	}
	return c, nil
}

func (p *RatesProvider) DiscountCurve(ccy currency.Currency) (swap.Curve, error) {
	name, ok := p.discount[ccy]
	if !ok {
		return nil, fmt.Errorf("%w: discounting %s", ErrMissingCurve, ccy)
	}
	return p.lookup(name)
}

func (p *RatesProvider) ProjectionCurve(index string) (swap.Curve, error) {
	name, ok := p.forward[index]
	if !ok {
		return nil, fmt.Errorf("%w: forward %s", ErrMissingCurve, index)
	}
	return p.lookup(name)
}

func (p *RatesProvider) Fixing(index string, date time.Time) (float64, bool) {
	if p.fixings == nil {
		return 0, false
	}
	series, err := p.fixings.Series(index)
	if err != nil {
		return 0, false
	}
	return series.RateOn(date)
}

// Curve returns a calibrated curve by name.
func (p *RatesProvider) Curve(name string) (*Curve, bool) {
	c, ok := p.curves[name]
	return c, ok
}

// CurveNames lists the calibrated curves in sorted order.
func (p *RatesProvider) CurveNames() []string {
	names := make([]string, 0, len(p.curves))
	for n := range p.curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
