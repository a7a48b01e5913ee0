package output

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/totals"
)

// FormulaMarker is appended to the header of formula-driven columns.
const FormulaMarker = " (fx)"

// DocumentOutput is the JSON form of a rendered document.
type DocumentOutput struct {
	Title   string         `json:"title,omitempty"`
	Columns []ColumnInfo   `json:"columns"`
	Rows    [][]string     `json:"rows"`
	Totals  *TotalsInfo    `json:"totals,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ColumnInfo describes one column.
type ColumnInfo struct {
	Name    string `json:"name"`
	Formula string `json:"formula,omitempty"`
	Total   bool   `json:"total"`
}

// TotalsInfo describes the total row.
type TotalsInfo struct {
	Visible bool               `json:"visible"`
	Results map[string]float64 `json:"results"`
}

// Document renders d in the effective mode. raw is the stored text, written
// as-is in ModeRaw.
func (r *Renderer) Document(title, raw string, d *document.Document) error {
	switch r.EffectiveMode() {
	case ModeRaw:
		_, err := fmt.Fprint(r.out, raw)
		return err
	case ModeJSON:
		return r.documentJSON(title, d)
	case ModeMarkdown:
		r.documentMarkdown(title, d)
		return nil
	default:
		r.documentText(title, d)
		return nil
	}
}

func headers(d *document.Document) []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c
		if d.Metadata.Formulas.Has(c) {
			out[i] += FormulaMarker
		}
	}
	return out
}

func cells(d *document.Document, row document.Row) []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = row[c]
	}
	return out
}

func (r *Renderer) documentText(title string, d *document.Document) {
	if title != "" {
		r.Println(r.styles.Header1.Render(title))
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)

	header := make(table.Row, len(d.Columns))
	configs := make([]table.ColumnConfig, 0, len(d.Metadata.Formulas))
	for i, h := range headers(d) {
		header[i] = h
		if d.Metadata.Formulas.Has(d.Columns[i]) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range d.Rows {
		t.AppendRow(toTableRow(cells(d, row)))
	}
	if footer := totals.Row(d.Metadata, d.Columns); footer != nil {
		t.AppendFooter(toTableRow(footer))
	}

	t.Render()
	r.Println(r.styles.Muted.Render(fmt.Sprintf("(%d rows)", len(d.Rows))))
}

func toTableRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func (r *Renderer) documentMarkdown(title string, d *document.Document) {
	if title != "" {
		r.Println(FormatHeader(1, title))
		r.Println("")
	}

	writeMarkdownRow := func(values []string) {
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = escapeMarkdown(v)
		}
		r.Printf("| %s |\n", strings.Join(escaped, " | "))
	}

	writeMarkdownRow(headers(d))
	seps := make([]string, len(d.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	r.Printf("| %s |\n", strings.Join(seps, " | "))
	for _, row := range d.Rows {
		writeMarkdownRow(cells(d, row))
	}
	if footer := totals.Row(d.Metadata, d.Columns); footer != nil {
		for i, v := range footer {
			if v != "" {
				footer[i] = "**" + v + "**"
			}
		}
		writeMarkdownRow(footer)
	}
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func (r *Renderer) documentJSON(title string, d *document.Document) error {
	targets := d.Metadata.Totals.Targets(d.Columns)
	doc := DocumentOutput{
		Title:   title,
		Columns: make([]ColumnInfo, len(d.Columns)),
		Rows:    make([][]string, len(d.Rows)),
		Extra:   d.Metadata.Extra,
	}
	for i, c := range d.Columns {
		expr, _ := d.Metadata.Formulas.Get(c)
		doc.Columns[i] = ColumnInfo{Name: c, Formula: expr, Total: slices.Contains(targets, c)}
	}
	for i, row := range d.Rows {
		doc.Rows[i] = cells(d, row)
	}
	if t := d.Metadata.Totals; t != nil {
		results := map[string]float64(t.Results)
		if results == nil {
			results = map[string]float64{}
		}
		doc.Totals = &TotalsInfo{Visible: t.Visible(), Results: results}
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
