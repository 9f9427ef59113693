package calc

import "fmt"

// Measure names a quantity the engine can compute for a trade.
type Measure string

// PresentValue is the present value of a trade in its own currencies.
const PresentValue Measure = "PresentValue"

// Column is one requested output per trade.
type Column struct {
	Measure Measure
}

func (c Column) String() string { return string(c.Measure) }

// Result is the outcome of one cell: a value or the error that prevented it.
type Result struct {
	value any
	err   error
}

// Success wraps a computed value.
func Success(v any) Result { return Result{value: v} }

// Failure wraps the reason a cell could not be computed.
func Failure(err error) Result {
	if err == nil {
		err = fmt.Errorf("calc: failure without reason")
	}
	return Result{err: err}
}

func (r Result) IsSuccess() bool { return r.err == nil }
func (r Result) Value() any { return r.value }
func (r Result) Err() error { return r.err }

// Results is a row-major matrix with one row per trade and one column per Column.
type Results struct {
	columns []Column
	rows    int
	cells   []Result
}

func newResults(rows int, columns []Column) *Results {
	return &Results{
		columns: append([]Column(nil), columns...),
		rows:    rows,
		cells:   make([]Result, rows*len(columns)),
	}
}

// NewResults builds a matrix from its cells; len(cells) must be rows*len(columns).
func NewResults(rows int, columns []Column, cells []Result) (*Results, error) {
	if len(cells) != rows*len(columns) {
		return nil, fmt.Errorf("calc: %d cells for %dx%d results", len(cells), rows, len(columns))
	}
	r := newResults(rows, columns)
	copy(r.cells, cells)
	return r, nil
}

func (r *Results) RowCount() int { return r.rows }
func (r *Results) ColumnCount() int { return len(r.columns) }

// Columns returns a copy of the requested columns.
func (r *Results) Columns() []Column { return append([]Column(nil), r.columns...) }

// Get returns the cell at (row, col). It panics when out of range, like a slice index.
func (r *Results) Get(row, col int) Result {
	if row < 0 || row >= r.rows || col < 0 || col >= len(r.columns) {
		panic(fmt.Sprintf("calc: cell (%d, %d) out of range %dx%d", row, col, r.rows, len(r.columns)))
	}
	return r.cells[row*len(r.columns)+col]
}

// Column returns the results of column col in row order.
func (r *Results) Column(col int) []Result {
	out := make([]Result, r.rows)
	for row := range out {
		out[row] = r.Get(row, col)
	}
	return out
}

func (r *Results) set(row, col int, res Result) {
	r.cells[row*len(r.columns)+col] = res
}
