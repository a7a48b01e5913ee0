// Package document defines the tabular document model and its text codec.
//
// A document is a YAML metadata block between two "---" lines followed by
// comma-separated row data with a header record:
//
//	---
//	formulas:
//	  Total: '{Price} * {Qty}'
//	totals:
//	  targetColumns:
//	    - Total
//	---
//	Item,Price,Qty,Total
//	Apple,1.5,4,6
package document

import (
	"maps"
	"slices"
)

// DefaultColumn is the column synthesized when a document has no header.
const DefaultColumn = "Column1"

// Row maps a column name to its cell text.
type Row map[string]string

// Document is a parsed document. Every row holds exactly the keys in Columns,
// and a document always has at least one column and one row.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

// New creates a document with the given columns and a single empty row.
// Without columns it gets DefaultColumn.
func New(columns ...string) *Document {
	d := &Document{Columns: slices.Clone(columns)}
	d.EnsureMinimal()
	return d
}

// NewRow returns a row with an empty cell for every column.
func NewRow(columns []string) Row {
	row := make(Row, len(columns))
	for _, c := range columns {
		row[c] = ""
	}
	return row
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = maps.Clone(r)
	}
	return &Document{
		Metadata: d.Metadata.Clone(),
		Columns:  slices.Clone(d.Columns),
		Rows:     rows,
	}
}

// ColumnIndex returns the position of name in the column order, or -1.
func (d *Document) ColumnIndex(name string) int {
	return slices.Index(d.Columns, name)
}

// HasColumn reports whether name is a column of d.
func (d *Document) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// EnsureMinimal synthesizes DefaultColumn when there are no columns and a
// single empty row when there are no rows.
func (d *Document) EnsureMinimal() {
	if len(d.Columns) == 0 {
		d.Columns = []string{DefaultColumn}
		for _, r := range d.Rows {
			r[DefaultColumn] = ""
		}
	}
	if len(d.Rows) == 0 {
		d.Rows = []Row{NewRow(d.Columns)}
	}
}
