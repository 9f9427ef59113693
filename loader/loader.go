// Package loader reads curve group definitions and market quotes from CSV files
// laid out like the Strata example calibration resources. Quotes may also come
// from the first sheet of an .xlsx workbook.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meenmo/calibcheck/currency"
	"github.com/meenmo/calibcheck/marketdata"
	"github.com/meenmo/calibcheck/swap/curve"
	"github.com/meenmo/calibcheck/utils"
)

// Files loads configuration and quotes from the local filesystem.
type Files struct {
	Logger *zap.Logger
}

// New returns a file loader; logger may be nil.
func New(logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{Logger: logger}
}

func (f *Files) logger() *zap.Logger {
	if f == nil || f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

const (
	colGroupName  = "Group Name"
	colCurveType  = "Curve Type"
	colReference  = "Reference"
	colCurveName  = "Curve Name"
	colValueType  = "Value Type"
	colDayCount   = "Day Count"
	colInterp     = "Interpolator"
	colLeftExtrap = "Left Extrapolator"
	colRightExtr  = "Right Extrapolator"
	colLabel      = "Label"
	colSymbology  = "Symbology"
	colTicker     = "Ticker"
	colType       = "Type"
	colConvention = "Convention"
	colTime       = "Time"
	colValDate    = "Valuation Date"
	colValue      = "Value"
)

// CurveGroups reads the groups, settings and calibrations files and returns the
// groups in file order. Curves missing from the settings file use curve.DefaultSettings.
func (f *Files) CurveGroups(groups, settings, calibrations string) ([]curve.GroupDefinition, error) {
	entries, order, err := readGroups(groups)
	if err != nil {
		return nil, err
	}
	curveSettings, err := readSettings(settings)
	if err != nil {
		return nil, err
	}
	nodes, err := readCalibrations(calibrations)
	if err != nil {
		return nil, err
	}

	out := make([]curve.GroupDefinition, 0, len(order))
	for _, name := range order {
		g := curve.GroupDefinition{Name: name, Entries: entries[name]}
		for _, e := range g.Entries {
			s, ok := curveSettings[e.CurveName]
			if !ok {
				s = curve.DefaultSettings()
			}
			g.Curves = append(g.Curves, curve.Definition{Name: e.CurveName, Settings: s, Nodes: nodes[e.CurveName]})
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", groups, err)
		}
		out = append(out, g)
	}
	f.logger().Debug("curve groups loaded", zap.Strings("groups", order), zap.String("file", groups))
	return out, nil
}

func readGroups(path string) (map[string][]curve.GroupEntry, []string, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if err := t.require(colGroupName, colCurveType, colReference, colCurveName); err != nil {
		return nil, nil, err
	}

	entries := make(map[string][]curve.GroupEntry)
	var order []string
	for i := range t.rows {
		group, curveName := t.get(i, colGroupName), t.get(i, colCurveName)
		ref := t.get(i, colReference)
		if group == "" || curveName == "" || ref == "" {
			return nil, nil, t.lineError(i, fmt.Errorf("group, reference and curve name are required"))
		}
		if _, seen := entries[group]; !seen {
			order = append(order, group)
		}
		list := entries[group]
		k := -1
		for j := range list {
			if list[j].CurveName == curveName {
				k = j
			}
		}
		if k < 0 {
			list = append(list, curve.GroupEntry{CurveName: curveName})
			k = len(list) - 1
		}

		switch strings.ToLower(t.get(i, colCurveType)) {
		case "discount":
			ccy, err := currency.Parse(ref)
			if err != nil {
				return nil, nil, t.lineError(i, err)
			}
			list[k].DiscountCurrencies = append(list[k].DiscountCurrencies, ccy)
		case "forward":
			list[k].Indices = append(list[k].Indices, ref)
		default:
			return nil, nil, t.lineError(i, fmt.Errorf("unknown curve type %q", t.get(i, colCurveType)))
		}
		entries[group] = list
	}
	return entries, order, nil
}

func readSettings(path string) (map[string]curve.Settings, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colCurveName, colValueType, colDayCount, colInterp, colLeftExtrap, colRightExtr); err != nil {
		return nil, err
	}

	out := make(map[string]curve.Settings, len(t.rows))
	for i := range t.rows {
		var s curve.Settings
		var err error
		if s.ValueType, err = curve.ParseValueType(t.get(i, colValueType)); err != nil {
			return nil, t.lineError(i, err)
		}
		if s.DayCount, err = utils.NormalizeDayCount(t.get(i, colDayCount)); err != nil {
			return nil, t.lineError(i, err)
		}
		if s.Interpolator, err = curve.ParseInterpolator(t.get(i, colInterp)); err != nil {
			return nil, t.lineError(i, err)
		}
		if s.LeftExtrapolator, err = curve.ParseExtrapolator(t.get(i, colLeftExtrap)); err != nil {
			return nil, t.lineError(i, err)
		}
		if s.RightExtrapolator, err = curve.ParseExtrapolator(t.get(i, colRightExtr)); err != nil {
			return nil, t.lineError(i, err)
		}
		if err := s.Validate(); err != nil {
			return nil, t.lineError(i, err)
		}
		out[t.get(i, colCurveName)] = s
	}
	return out, nil
}

func readCalibrations(path string) (map[string][]curve.Node, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colCurveName, colLabel, colSymbology, colTicker, colType, colConvention, colTime); err != nil {
		return nil, err
	}

	out := make(map[string][]curve.Node)
	for i := range t.rows {
		kind, err := curve.ParseNodeKind(t.get(i, colType))
		if err != nil {
			return nil, t.lineError(i, err)
		}
		id := marketdata.NewQuoteID(t.get(i, colSymbology), t.get(i, colTicker))
		if id.Value == "" {
			return nil, t.lineError(i, fmt.Errorf("missing ticker"))
		}
		n, err := curve.NewNode(kind, t.get(i, colLabel), id, t.get(i, colConvention), t.get(i, colTime))
		if err != nil {
			return nil, t.lineError(i, err)
		}
		name := t.get(i, colCurveName)
		out[name] = append(out[name], n)
	}
	return out, nil
}

// Quotes reads the quotes dated valDate from a CSV or .xlsx file. Rows for other
// dates are skipped; a repeated identifier keeps its last value.
func (f *Files) Quotes(valDate time.Time, path string) (map[marketdata.QuoteID]float64, error) {
	var t *table
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = readXLSX(path)
	default:
		t, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if err := t.require(colValDate, colSymbology, colTicker, colValue); err != nil {
		return nil, err
	}

	out := make(map[marketdata.QuoteID]float64)
	skipped := 0
	for i := range t.rows {
		d, err := utils.ParseDate(t.get(i, colValDate))
		if err != nil {
			return nil, t.lineError(i, err)
		}
		if !d.Equal(valDate) {
			skipped++
			continue
		}
		v, err := decimal.NewFromString(t.get(i, colValue))
		if err != nil {
			return nil, t.lineError(i, fmt.Errorf("invalid value %q: %w", t.get(i, colValue), err))
		}
		id := marketdata.NewQuoteID(t.get(i, colSymbology), t.get(i, colTicker))
		out[id] = v.InexactFloat64()
	}
	f.logger().Debug("quotes loaded",
		zap.String("file", path),
		zap.String("valuation_date", valDate.Format(utils.DateLayout)),
		zap.Int("quotes", len(out)),
		zap.Int("skipped", skipped))
	return out, nil
}
