package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingFixing is returned when no historical fixing exists for a date.
var ErrMissingFixing = errors.New("missing fixing")

// FixingSeries supplies historical index fixings.
type FixingSeries interface {
	RateOn(date time.Time) (float64, bool)
}

// MapFixingSeries is a static map-backed series keyed by YYYY-MM-DD.
type MapFixingSeries struct {
	rates map[string]float64
}

func NewMapFixingSeries(rates map[string]float64) *MapFixingSeries {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &MapFixingSeries{rates: cp}
}

func (m *MapFixingSeries) RateOn(date time.Time) (float64, bool) {
	val, ok := m.rates[date.Format("2006-01-02")]
	return val, ok
}

// Fixings resolves the series for an index name.
type Fixings interface {
	Series(index string) (FixingSeries, error)
}

// FixingsMap is a Fixings backed by a map of index name to series.
type FixingsMap map[string]FixingSeries

func (f FixingsMap) Series(index string) (FixingSeries, error) {
	s, ok := f[index]
	if !ok {
		return nil, fmt.Errorf("%w: no time series for %s", ErrMissingFixing, index)
	}
	return s, nil
}
