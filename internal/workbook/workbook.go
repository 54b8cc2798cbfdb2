// Package workbook reads and writes .xlsx workbooks as tables.
package workbook

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/table"
)

// Workbook is an open input workbook
type Workbook struct {
	path string
	file *excelize.File
}

// Open opens an existing workbook. A missing or unreadable file is a
// FatalInputError.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewFatalInputError(path, "", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewFatalInputError(path, "", err)
	}

	return &Workbook{path: path, file: f}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the file path the workbook was opened from
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames lists sheets in workbook order
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet reads the named sheet. The first row is the header.
func (w *Workbook) Sheet(name string) (*table.Table, error) {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, errors.NewFatalInputError(w.path, name, err)
	}
	return w.read(name)
}

// SheetAt reads the sheet at a zero-based position.
func (w *Workbook) SheetAt(pos int) (*table.Table, error) {
	names := w.file.GetSheetList()
	if pos < 0 || pos >= len(names) {
		return nil, errors.NewFatalInputError(w.path, fmt.Sprintf("#%d", pos), nil)
	}
	return w.read(names[pos])
}

func (w *Workbook) read(name string) (*table.Table, error) {
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewFatalInputError(w.path, name, err)
	}

	if len(rows) == 0 {
		return table.New(name, nil, nil), nil
	}

	headers := rows[0]
	data := make([][]string, 0, len(rows)-1)
	nonText := make(map[table.Pos]bool)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		for col, v := range row {
			typed, err := w.nonText(name, i+2, col+1, v)
			if err != nil {
				return nil, errors.NewFatalInputError(w.path, name, err)
			}
			if typed {
				nonText[table.Pos{Row: len(data), Col: col}] = true
			}
		}
		data = append(data, row)
	}

	return table.NewTyped(name, headers, data, nonText), nil
}

// nonText reports whether the cell at (sheetRow, sheetCol) holds a number,
// boolean, date or error. Raw values of those types are numeric, ISO dates
// or start with '#', so other cells are text without a type lookup.
func (w *Workbook) nonText(sheet string, sheetRow, sheetCol int, raw string) (bool, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return false, nil
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil && !strings.HasPrefix(v, "#") && !isISODate(v) {
		return false, nil
	}

	cell, err := excelize.CoordinatesToCellName(sheetCol, sheetRow)
	if err != nil {
		return false, err
	}
	typ, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return false, nil
	}
	// Unset is how numbers are stored without an explicit "n" type
	return true, nil
}

func isISODate(v string) bool {
	if len(v) < 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", v[:10])
	return err == nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadSheet opens path and reads one named sheet.
func ReadSheet(path, sheet string) (*table.Table, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	return wb.Sheet(sheet)
}

// Save writes the tables to a new workbook at path, one sheet per table in
// order. Each table's Name is its sheet name.
func Save(path string, sheets ...*table.Table) (err error) {
	if len(sheets) == 0 {
		return fmt.Errorf("save %s: no sheets", path)
	}

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	defaultSheet := f.GetSheetName(0)
	for i, t := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", t.Name, err)
		}

		if err := writeSheet(f, t); err != nil {
			return fmt.Errorf("write sheet %q: %w", t.Name, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, t *table.Table) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for i := range t.Rows {
		row := t.Row(i)
		values := make([]interface{}, len(row))
		for j, c := range row {
			values[j] = CellValue(c)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// CellValue converts a cell string to the value written to the sheet.
// Integers and floats that survive a format round trip are written as
// numbers so "007" stays text and "12.5" becomes numeric.
func CellValue(s string) interface{} {
	if s == "" {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	return s
}
