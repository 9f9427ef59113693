package curve

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap"
	"github.com/meenmo/calibcheck/swap/market"
)

// NodeKind is the instrument type of a calibration node.
type NodeKind string

const (
	KindTermDeposit       NodeKind = "DEP"
	KindIborFixingDeposit NodeKind = "FIX"
	KindFRA               NodeKind = "FRA"
	KindOIS               NodeKind = "OIS"
	KindIRS               NodeKind = "IRS"
	KindBasisSwap         NodeKind = "BS"
)

// ParseNodeKind accepts the calibration file type codes.
func ParseNodeKind(s string) (NodeKind, error) {
	k := NodeKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case KindTermDeposit, KindIborFixingDeposit, KindFRA, KindOIS, KindIRS, KindBasisSwap:
		return k, nil
	case "TERMDEPOSIT":
		return KindTermDeposit, nil
	default:
		return "", fmt.Errorf("unknown node type %q", s)
	}
}

// Node is the recipe for one calibration instrument.
type Node interface {
	Label() string
	Kind() NodeKind
	QuoteID() marketdata.QuoteID
	// Trade synthesizes the notional-1 instrument for valDate using the node's quote.
	Trade(valDate time.Time, quotes marketdata.QuoteSource) (swap.Trade, error)
}

type baseNode struct {
	label string
	quote marketdata.QuoteID
}

func (n baseNode) Label() string { return n.label }
func (n baseNode) QuoteID() marketdata.QuoteID { return n.quote }

func (n baseNode) rate(quotes marketdata.QuoteSource) (float64, error) {
	v, err := quotes.Quote(n.quote)
	if err != nil {
		return 0, fmt.Errorf("node %s: %w", n.label, err)
	}
	return v, nil
}

// TermDepositNode calibrates to a spot-starting deposit.
type TermDepositNode struct {
	baseNode
	Convention market.DepositConvention
	Tenor      market.Tenor
}

func (n TermDepositNode) Kind() NodeKind { return KindTermDeposit }

func (n TermDepositNode) Trade(valDate time.Time, quotes marketdata.QuoteSource) (swap.Trade, error) {
	r, err := n.rate(quotes)
	if err != nil {
		return nil, err
	}
	return swap.NewTermDeposit(valDate, n.Convention, n.Tenor, r, 1)
}

// IborFixingDepositNode pins the index fixing of the valuation date. It is not a market trade.
type IborFixingDepositNode struct {
	baseNode
	Index market.Index
}

func (n IborFixingDepositNode) Kind() NodeKind { return KindIborFixingDeposit }

func (n IborFixingDepositNode) Trade(valDate time.Time, quotes marketdata.QuoteSource) (swap.Trade, error) {
	r, err := n.rate(quotes)
	if err != nil {
		return nil, err
	}
	return swap.NewIborFixingDeposit(valDate, n.Index, r, 1)
}

// FRANode calibrates to an AxB forward rate agreement.
type FRANode struct {
	baseNode
	Index   market.Index
	ToStart market.Tenor
	ToEnd   market.Tenor
}

func (n FRANode) Kind() NodeKind { return KindFRA }

func (n FRANode) Trade(valDate time.Time, quotes marketdata.QuoteSource) (swap.Trade, error) {
	r, err := n.rate(quotes)
	if err != nil {
		return nil, err
	}
	return swap.NewFRA(valDate, n.Index, n.ToStart, n.ToEnd, r, 1)
}

// SwapNode calibrates to a spot-starting swap quoted as a fixed rate or basis spread.
type SwapNode struct {
	baseNode
	kind       NodeKind
	Convention market.SwapConvention
	Tenor      market.Tenor
}

func (n SwapNode) Kind() NodeKind { return n.kind }

func (n SwapNode) Trade(valDate time.Time, quotes marketdata.QuoteSource) (swap.Trade, error) {
	r, err := n.rate(quotes)
	if err != nil {
		return nil, err
	}
	return swap.NewSwap(swap.SwapParams{
		TradeDate:  valDate,
		Convention: n.Convention,
		Tenor:      n.Tenor,
		Rate:       r,
		Notional:   1,
		Position:   swap.PositionPay,
	})
}

// NewNode builds a node from its calibration file columns. convention names a deposit
// convention, an index or a swap convention depending on kind; period is a tenor, or "AxB"
// for FRAs. The label defaults to "<kind>-<period>".
func NewNode(kind NodeKind, label string, quote marketdata.QuoteID, convention, period string) (Node, error) {
	if strings.TrimSpace(label) == "" {
		label = string(kind) + "-" + strings.TrimSpace(period)
	}
	base := baseNode{label: label, quote: quote}

	switch kind {
	case KindTermDeposit:
		conv, err := market.LookupDepositConvention(convention)
		if err != nil {
			return nil, err
		}
		tenor, err := market.ParseTenor(period)
		if err != nil {
			return nil, err
		}
		return TermDepositNode{baseNode: base, Convention: conv, Tenor: tenor}, nil

	case KindIborFixingDeposit:
		idx, err := iborIndex(convention)
		if err != nil {
			return nil, err
		}
		if period != "" {
			tenor, err := market.ParseTenor(period)
			if err != nil {
				return nil, err
			}
			if tenor != idx.Tenor {
				return nil, fmt.Errorf("node %s: tenor %s does not match index %s", label, tenor, idx.Name)
			}
		}
		return IborFixingDepositNode{baseNode: base, Index: idx}, nil

	case KindFRA:
		idx, err := iborIndex(convention)
		if err != nil {
			return nil, err
		}
		start, end, err := market.ParseFRAPeriod(period)
		if err != nil {
			return nil, err
		}
		return FRANode{baseNode: base, Index: idx, ToStart: start, ToEnd: end}, nil

	case KindOIS, KindIRS, KindBasisSwap:
		conv, err := market.LookupSwapConvention(convention)
		if err != nil {
			return nil, err
		}
		if err := checkSwapKind(kind, conv); err != nil {
			return nil, fmt.Errorf("node %s: %w", label, err)
		}
		tenor, err := market.ParseTenor(period)
		if err != nil {
			return nil, err
		}
		return SwapNode{baseNode: base, kind: kind, Convention: conv, Tenor: tenor}, nil

	default:
		return nil, fmt.Errorf("unknown node type %q", kind)
	}
}

func iborIndex(name string) (market.Index, error) {
	idx, err := market.LookupIndex(name)
	if err != nil {
		return market.Index{}, err
	}
	if idx.Overnight {
		return market.Index{}, fmt.Errorf("%s is not an IBOR index", idx.Name)
	}
	return idx, nil
}

func checkSwapKind(kind NodeKind, conv market.SwapConvention) error {
	l1, l2 := conv.Leg1.LegType, conv.Leg2.LegType
	ok := false
	switch kind {
	case KindOIS:
		ok = l1 == market.LegFixed && l2 == market.LegOvernight
	case KindIRS:
		ok = l1 == market.LegFixed && l2 == market.LegIbor
	case KindBasisSwap:
		ok = l1 == market.LegIbor && l2 == market.LegIbor
	}
	if !ok {
		return fmt.Errorf("convention %s cannot back a %s node", conv.Name, kind)
	}
	return nil
}
