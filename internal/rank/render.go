package rank

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/refmatch/internal/table"
)

// Format selects how results are printed
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Render writes t in the given format
func Render(w io.Writer, t *table.Table, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, records(t), format)
	default:
		return renderTable(w, t)
	}
}

// RenderValue writes a structured value such as a Profile
func RenderValue(w io.Writer, v any, format Format) error {
	if format == FormatTable {
		format = FormatYAML
	}
	return encode(w, v, format)
}

func encode(w io.Writer, v any, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// records turns rows into header-keyed maps
func records(t *table.Table) []map[string]string {
	out := make([]map[string]string, t.Len())
	for i := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			rec[h] = t.Cell(i, j)
		}
		out[i] = rec
	}
	return out
}

func renderTable(w io.Writer, t *table.Table) error {
	if t.Name != "" {
		if _, err := fmt.Fprintf(w, "## %s\n", t.Name); err != nil {
			return err
		}
	}

	align := make([]tw.Align, len(t.Headers))
	for i := range align {
		align[i] = tw.AlignLeft
	}
	config := tablewriter.Config{}
	config.Header.Alignment = tw.CellAlignment{PerColumn: align}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	headers := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	tbl.Header(headers...)

	for i := range t.Rows {
		row := t.Row(i)
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		if err := tbl.Append(cells...); err != nil {
			return err
		}
	}
	return tbl.Render()
}
