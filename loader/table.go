package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is a headed grid of cells read from a CSV file or a spreadsheet.
type table struct {
	file   string
	header map[string]int
	rows   [][]string
	lines  []int
}

// lineError attaches the file and line to err.
func (t *table) lineError(i int, err error) error {
	return fmt.Errorf("%s:%d: %w", t.file, t.lines[i], err)
}

func (t *table) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.header[normalizeHeader(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing column(s) %s", t.file, strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed cell of row i under column col, or "" when absent.
func (t *table) get(i int, col string) string {
	j, ok := t.header[normalizeHeader(col)]
	if !ok || j >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][j])
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func newTable(file string, records [][]string, lines []int) (*table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", file)
	}
	t := &table{file: file, header: make(map[string]int)}
	for j, h := range records[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		t.header[normalizeHeader(h)] = j
	}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, lines[i+1])
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return newTable(path, records, lines)
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %s: %w", path, sheets[0], err)
	}
	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	return newTable(path, rows, lines)
}
