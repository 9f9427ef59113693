package marketdata

import (
	"fmt"
	"strings"
)

// DefaultScheme is the symbology used when a quote identifier carries no scheme.
const DefaultScheme = "OG-Ticker"

// QuoteID identifies a market quote as Scheme~Value, e.g. "OG-Ticker~EUR-OIS-1M".
type QuoteID struct {
	Scheme string
	Value  string
}

// NewQuoteID creates a QuoteID, defaulting the scheme.
func NewQuoteID(scheme, value string) QuoteID {
	scheme = strings.TrimSpace(scheme)
	if scheme == "" {
		scheme = DefaultScheme
	}
	return QuoteID{Scheme: scheme, Value: strings.TrimSpace(value)}
}

// ParseQuoteID parses "Scheme~Value"; a bare value uses DefaultScheme.
func ParseQuoteID(s string) (QuoteID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return QuoteID{}, fmt.Errorf("marketdata: empty quote id")
	}
	scheme, value, ok := strings.Cut(s, "~")
	if !ok {
		return NewQuoteID("", s), nil
	}
	if value == "" {
		return QuoteID{}, fmt.Errorf("marketdata: quote id %q has no value", s)
	}
	return NewQuoteID(scheme, value), nil
}

func (q QuoteID) String() string {
	return q.Scheme + "~" + q.Value
}
