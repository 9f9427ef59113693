// Package currency holds ISO currency codes and the single- and multi-currency
// amounts produced by pricing.
package currency

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
)

// Parse validates a three-letter currency code.
func Parse(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", fmt.Errorf("currency: invalid code %q", code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency: invalid code %q", code)
		}
	}
	return Currency(c), nil
}

// Amount is an amount in a single currency.
type Amount struct {
	Currency Currency
	Value    float64
}

// Of creates an Amount.
func Of(ccy Currency, value float64) Amount {
	return Amount{Currency: ccy, Value: value}
}

// Plus adds another amount in the same currency.
func (a Amount) Plus(value float64) Amount {
	return Amount{Currency: a.Currency, Value: a.Value + value}
}

func (a Amount) String() string {
	return string(a.Currency) + " " + formatValue(a.Value)
}

// MultiAmount holds at most one amount per currency.
type MultiAmount struct {
	amounts map[Currency]float64
}

// MultiOf builds a MultiAmount, summing duplicates.
func MultiOf(amounts ...Amount) MultiAmount {
	m := MultiAmount{amounts: make(map[Currency]float64, len(amounts))}
	for _, a := range amounts {
		m.amounts[a.Currency] += a.Value
	}
	return m
}

// Plus returns a new MultiAmount with a added.
func (m MultiAmount) Plus(a Amount) MultiAmount {
	out := MultiAmount{amounts: make(map[Currency]float64, len(m.amounts)+1)}
	for c, v := range m.amounts {
		out.amounts[c] = v
	}
	out.amounts[a.Currency] += a.Value
	return out
}

// Amounts returns the amounts sorted by currency code.
func (m MultiAmount) Amounts() []Amount {
	out := make([]Amount, 0, len(m.amounts))
	for c, v := range m.amounts {
		out = append(out, Amount{Currency: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// Get returns the amount for ccy, or zero if absent.
func (m MultiAmount) Get(ccy Currency) Amount {
	return Amount{Currency: ccy, Value: m.amounts[ccy]}
}

// Size returns the number of currencies.
func (m MultiAmount) Size() int {
	return len(m.amounts)
}

func (m MultiAmount) String() string {
	parts := make([]string, 0, len(m.amounts))
	for _, a := range m.Amounts() {
		parts = append(parts, a.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatValue prints the exact decimal expansion of v so tiny residuals stay readable.
// NaN and infinities have no decimal form.
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}
