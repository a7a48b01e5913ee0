// Package totals computes the aggregate total row of a document.
package totals

import (
	"slices"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/numeric"
)

// Recompute returns a copy of meta whose Totals.Results holds the sum of
// every target column. It is a no-op when the totals block is absent or the
// total row is explicitly hidden. A column without any numeric cell gets no
// result entry.
func Recompute(meta document.Metadata, columns []string, rows []document.Row) document.Metadata {
	out := meta.Clone()
	if out.Totals == nil || !out.Totals.Visible() {
		return out
	}

	targets := out.Totals.Targets(columns)
	results := make(document.Results)
	for _, column := range columns {
		if !slices.Contains(targets, column) {
			continue
		}
		if sum, ok := Sum(rows, column); ok {
			results[column] = sum
		}
	}
	out.Totals.Results = results
	return out
}

// Sum adds up the numeric cells of column. ok is false when no cell parsed.
func Sum(rows []document.Row, column string) (sum float64, ok bool) {
	for _, row := range rows {
		v, parsed := numeric.Parse(row[column])
		if !parsed {
			continue
		}
		sum += v
		ok = true
	}
	return numeric.Round(sum), ok
}

// CellKind classifies a total row cell for display.
type CellKind int

const (
	// Excluded marks a column that is not totaled.
	Excluded CellKind = iota
	// Empty marks a totaled column without numeric data.
	Empty
	// Value marks a totaled column with a computed sum.
	Value
)

// Placeholder is shown in the total row for columns that are not totaled.
const Placeholder = "-"

// Cell returns the display text of the total row cell for column.
func Cell(meta document.Metadata, columns []string, column string) (string, CellKind) {
	if !slices.Contains(meta.Totals.Targets(columns), column) {
		return Placeholder, Excluded
	}
	if meta.Totals == nil {
		return "", Empty
	}
	v, ok := meta.Totals.Results[column]
	if !ok {
		return "", Empty
	}
	return numeric.Format(v), Value
}

// Label replaces the first cell of the total row.
const Label = "Total"

// Row returns the display cells of the total row, or nil when it is hidden.
// The first cell always holds Label.
func Row(meta document.Metadata, columns []string) []string {
	if !meta.Totals.Visible() || len(columns) == 0 {
		return nil
	}
	cells := make([]string, len(columns))
	cells[0] = Label
	for i, c := range columns[1:] {
		cells[i+1], _ = Cell(meta, columns, c)
	}
	return cells
}
