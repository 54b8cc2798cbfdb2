// Package table holds spreadsheet sheets in memory as header + string rows.
//
// Tables are treated as immutable values: every transforming method returns a
// new Table and leaves the receiver untouched.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Table is one sheet: ordered headers and rows of string cells.
// A cell that is empty or beyond the end of its row is missing.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string

	index   map[string]int
	nonText map[Pos]bool
}

// Pos addresses a data cell by row and column index
type Pos struct {
	Row, Col int
}

// New creates a table and indexes its headers. The first occurrence of a
// duplicated header wins lookups.
func New(name string, headers []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Headers: headers,
		Rows:    rows,
	}
	t.reindex()
	return t
}

// NewTyped is New for a sheet read from a workbook. nonText marks the cells
// that held a number, boolean, date or error rather than text. Tables
// derived from this one by WithColumn, Select, Concat or Clone are plain
// string tables.
func NewTyped(name string, headers []string, rows [][]string, nonText map[Pos]bool) *Table {
	t := New(name, headers, rows)
	if len(nonText) > 0 {
		t.nonText = nonText
	}
	return t
}

// NonText reports whether a cell held a non-text value in its sheet
func (t *Table) NonText(row, col int) bool {
	return t.nonText[Pos{Row: row, Col: col}]
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		if _, exists := t.index[h]; !exists {
			t.index[h] = i
		}
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Col returns the index of a header
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the cell at (row, col), or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Get returns the named cell, or "" when the column or cell is absent.
func (t *Table) Get(row int, column string) string {
	col, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.Cell(row, col)
}

// Value returns the named cell as a string, or nil when it is missing. A
// non-text cell is returned as a float64, NaN when it is not numeric.
func (t *Table) Value(row int, column string) any {
	col, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return nil
	}
	v := t.Rows[row][col]
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if t.NonText(row, col) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return math.NaN()
	}
	return v
}

// Column returns every value of a column; missing cells are "".
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	col, ok := t.index[name]
	if !ok {
		return out
	}
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Row returns a copy of row i padded to the header width.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Headers))
	if i < 0 || i >= len(t.Rows) {
		return out
	}
	copy(out, t.Rows[i])
	return out
}

// WithColumn returns a copy with the column replaced, or appended when absent.
// values must have one entry per row.
func (t *Table) WithColumn(name string, values []string) *Table {
	headers := append([]string(nil), t.Headers...)
	col, exists := t.index[name]
	if !exists {
		headers = append(headers, name)
		col = len(headers) - 1
	}

	rows := make([][]string, len(t.Rows))
	for i := range t.Rows {
		row := make([]string, len(headers))
		copy(row, t.Rows[i])
		if i < len(values) {
			row[col] = values[i]
		}
		rows[i] = row
	}
	return New(t.Name, headers, rows)
}

// Select returns a copy holding only the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	out := make([][]string, 0, len(rows))
	for _, i := range rows {
		out = append(out, t.Row(i))
	}
	return New(t.Name, append([]string(nil), t.Headers...), out)
}

// Concat stacks b under a. The header is a's columns followed by b's columns
// that a lacks; cells a row's own table does not have are left blank.
func Concat(name string, a, b *Table) *Table {
	headers := append([]string(nil), a.Headers...)
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[h] = true
	}
	for _, h := range b.Headers {
		if !seen[h] {
			seen[h] = true
			headers = append(headers, h)
		}
	}

	rows := make([][]string, 0, a.Len()+b.Len())
	for _, src := range []*Table{a, b} {
		for i := range src.Rows {
			row := make([]string, len(headers))
			for j, h := range headers {
				row[j] = src.Get(i, h)
			}
			rows = append(rows, row)
		}
	}
	return New(name, headers, rows)
}

// Clone returns a deep copy renamed to name.
func (t *Table) Clone(name string) *Table {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return New(name, append([]string(nil), t.Headers...), rows)
}
