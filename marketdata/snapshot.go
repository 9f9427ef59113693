// Package marketdata holds the valuation-date-stamped quotes and fixings a
// calculation runs against.
package marketdata

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMissingQuote is returned when a quote is absent from a snapshot.
var ErrMissingQuote = errors.New("missing quote")

// QuoteSource resolves quote values.
type QuoteSource interface {
	Quote(id QuoteID) (float64, error)
}

// Snapshot is an immutable set of quotes for one valuation date.
type Snapshot struct {
	valuationDate time.Time
	quotes        map[QuoteID]float64
}

// NewSnapshot copies quotes into a new Snapshot.
func NewSnapshot(valuationDate time.Time, quotes map[QuoteID]float64) *Snapshot {
	return NewBuilder(valuationDate).AddAll(quotes).Build()
}

// ValuationDate returns the date the quotes are valid for.
func (s *Snapshot) ValuationDate() time.Time {
	return s.valuationDate
}

// Quote returns the value for id.
func (s *Snapshot) Quote(id QuoteID) (float64, error) {
	v, ok := s.quotes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingQuote, id)
	}
	return v, nil
}

// Lookup returns the value for id and whether it exists.
func (s *Snapshot) Lookup(id QuoteID) (float64, bool) {
	v, ok := s.quotes[id]
	return v, ok
}

// Len returns the number of quotes.
func (s *Snapshot) Len() int {
	return len(s.quotes)
}

// IDs returns the quote identifiers in sorted order.
func (s *Snapshot) IDs() []QuoteID {
	ids := make([]QuoteID, 0, len(s.quotes))
	for id := range s.quotes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Builder assembles a Snapshot. Adding an existing id overwrites the previous value.
type Builder struct {
	valuationDate time.Time
	quotes        map[QuoteID]float64
}

// NewBuilder starts a snapshot for valuationDate.
func NewBuilder(valuationDate time.Time) *Builder {
	return &Builder{valuationDate: valuationDate, quotes: make(map[QuoteID]float64)}
}

// Add sets a single quote.
func (b *Builder) Add(id QuoteID, value float64) *Builder {
	b.quotes[id] = value
	return b
}

// AddAll sets every quote in values.
func (b *Builder) AddAll(values map[QuoteID]float64) *Builder {
	for id, v := range values {
		b.quotes[id] = v
	}
	return b
}

// Build freezes the builder's content. The builder may keep being used.
func (b *Builder) Build() *Snapshot {
	quotes := make(map[QuoteID]float64, len(b.quotes))
	for id, v := range b.quotes {
		quotes[id] = v
	}
	return &Snapshot{valuationDate: b.valuationDate, quotes: quotes}
}
