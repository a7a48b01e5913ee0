// Package editor implements the structural edits of a document.
//
// Every operation is a value transformation: Apply never modifies its input
// and returns either a new document with changed=true, or the input itself
// with changed=false when the edit is invalid or has no effect. Callers
// recompute formulas and totals only for changed results.
package editor

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/formula"
)

// Kind names an operation.
type Kind string

// Operation kinds.
const (
	KindRenameColumn Kind = "rename_column"
	KindAddColumn    Kind = "add_column"
	KindDeleteColumn Kind = "delete_column"
	KindMoveColumn   Kind = "move_column"
	KindSetFormula   Kind = "set_formula"
	KindToggleTotal  Kind = "toggle_total"
	KindSetTotalRow  Kind = "set_total_row"
	KindAddRow       Kind = "add_row"
	KindDeleteRow    Kind = "delete_row"
	KindMoveRow      Kind = "move_row"
	KindEditCell     Kind = "edit_cell"
	KindRecalculate  Kind = "recalculate"
)

// newColumnBaseName is the stem of names generated by AddColumn.
const newColumnBaseName = "NewCol"

// Operation is a structural edit.
type Operation interface {
	Kind() Kind
	Apply(d *document.Document) (*document.Document, bool)
}

// Side selects where AddColumn inserts relative to its anchor.
type Side string

// Sides.
const (
	Left  Side = "left"
	Right Side = "right"
)

// RenameColumn renames a column and cascades the new name into cells,
// formulas (both the formula key and {Old} placeholders) and total targets.
type RenameColumn struct {
	Old string `mapstructure:"old" json:"old"`
	New string `mapstructure:"new" json:"new"`
}

func (RenameColumn) Kind() Kind { return KindRenameColumn }

func (op RenameColumn) Apply(d *document.Document) (*document.Document, bool) {
	if op.New == "" || op.New == op.Old || d.HasColumn(op.New) {
		return d, false
	}
	idx := d.ColumnIndex(op.Old)
	if idx < 0 {
		return d, false
	}

	out := d.Clone()
	out.Columns[idx] = op.New
	for _, row := range out.Rows {
		row[op.New] = row[op.Old]
		delete(row, op.Old)
	}

	meta := &out.Metadata
	for i := range meta.Formulas {
		if meta.Formulas[i].Column == op.Old {
			meta.Formulas[i].Column = op.New
		}
		meta.Formulas[i].Expr = formula.RenameReference(meta.Formulas[i].Expr, op.Old, op.New)
	}
	if t := meta.Totals; t != nil {
		if i := slices.Index(t.TargetColumns, op.Old); i >= 0 {
			t.TargetColumns[i] = op.New
		}
		if v, ok := t.Results[op.Old]; ok {
			delete(t.Results, op.Old)
			t.Results[op.New] = v
		}
	}
	return out, true
}

// AddColumn inserts a uniquely named empty column next to Anchor.
type AddColumn struct {
	Anchor string `mapstructure:"anchor" json:"anchor"`
	Side   Side   `mapstructure:"side" json:"side"`
}

func (AddColumn) Kind() Kind { return KindAddColumn }

func (op AddColumn) Apply(d *document.Document) (*document.Document, bool) {
	idx := d.ColumnIndex(op.Anchor)
	if idx < 0 {
		return d, false
	}
	switch op.Side {
	case Left:
	case Right:
		idx++
	default:
		return d, false
	}

	name := NewColumnName(d.Columns)
	out := d.Clone()
	out.Columns = slices.Insert(out.Columns, idx, name)
	for _, row := range out.Rows {
		row[name] = ""
	}
	return out, true
}

// NewColumnName returns the first of NewCol, NewCol1, NewCol2, ... not in columns.
func NewColumnName(columns []string) string {
	name := newColumnBaseName
	for n := 1; slices.Contains(columns, name); n++ {
		name = newColumnBaseName + strconv.Itoa(n)
	}
	return name
}

// DeleteColumn removes a column with its formula and total target. Formulas
// of other columns that reference it are left as they are; the dangling
// placeholder evaluates to 0.
type DeleteColumn struct {
	Name string `mapstructure:"name" json:"name"`
}

func (DeleteColumn) Kind() Kind { return KindDeleteColumn }

func (op DeleteColumn) Apply(d *document.Document) (*document.Document, bool) {
	idx := d.ColumnIndex(op.Name)
	if idx < 0 {
		return d, false
	}

	out := d.Clone()
	out.Columns = slices.Delete(out.Columns, idx, idx+1)
	for _, row := range out.Rows {
		delete(row, op.Name)
	}
	out.Metadata.Formulas.Delete(op.Name)
	if t := out.Metadata.Totals; t != nil {
		if i := slices.Index(t.TargetColumns, op.Name); i >= 0 {
			t.TargetColumns = slices.Delete(t.TargetColumns, i, i+1)
		}
		delete(t.Results, op.Name)
	}
	out.EnsureMinimal()
	return out, true
}

// MoveColumn moves the column at From to position To. Cells are keyed by
// name, so only the column order changes.
type MoveColumn struct {
	From int `mapstructure:"from" json:"from"`
	To   int `mapstructure:"to" json:"to"`
}

func (MoveColumn) Kind() Kind { return KindMoveColumn }

func (op MoveColumn) Apply(d *document.Document) (*document.Document, bool) {
	if !validMove(op.From, op.To, len(d.Columns)) {
		return d, false
	}
	out := d.Clone()
	out.Columns = move(out.Columns, op.From, op.To)
	return out, true
}

// SetFormula sets the formula of Column. A blank formula clears it and the
// column becomes freely editable again.
type SetFormula struct {
	Column  string `mapstructure:"column" json:"column"`
	Formula string `mapstructure:"formula" json:"formula"`
}

func (SetFormula) Kind() Kind { return KindSetFormula }

func (op SetFormula) Apply(d *document.Document) (*document.Document, bool) {
	if !d.HasColumn(op.Column) {
		return d, false
	}
	expr := strings.TrimSpace(op.Formula)
	current, exists := d.Metadata.Formulas.Get(op.Column)

	out := d.Clone()
	switch {
	case expr == "" && !exists:
		return d, false
	case expr == "":
		out.Metadata.Formulas.Delete(op.Column)
	case exists && current == expr:
		return d, false
	default:
		out.Metadata.Formulas.Set(op.Column, expr)
	}
	return out, true
}

// ToggleTotal adds Column to the total targets or removes it. When no
// target list exists yet it starts from every current column.
type ToggleTotal struct {
	Column string `mapstructure:"column" json:"column"`
}

func (ToggleTotal) Kind() Kind { return KindToggleTotal }

func (op ToggleTotal) Apply(d *document.Document) (*document.Document, bool) {
	targets := d.Metadata.Totals.Targets(d.Columns)
	if !d.HasColumn(op.Column) && !slices.Contains(targets, op.Column) {
		return d, false
	}

	out := d.Clone()
	if out.Metadata.Totals == nil {
		show := true
		out.Metadata.Totals = &document.Totals{ShowTotalRow: &show}
	}
	t := out.Metadata.Totals
	if t.TargetColumns == nil {
		t.TargetColumns = slices.Clone(document.ColumnList(out.Columns))
	}
	if i := slices.Index(t.TargetColumns, op.Column); i >= 0 {
		t.TargetColumns = slices.Delete(t.TargetColumns, i, i+1)
	} else {
		t.TargetColumns = append(t.TargetColumns, op.Column)
	}
	return out, true
}

// SetTotalRow shows or hides the total row.
type SetTotalRow struct {
	Visible bool `mapstructure:"visible" json:"visible"`
}

func (SetTotalRow) Kind() Kind { return KindSetTotalRow }

func (op SetTotalRow) Apply(d *document.Document) (*document.Document, bool) {
	if t := d.Metadata.Totals; t != nil && t.ShowTotalRow != nil && *t.ShowTotalRow == op.Visible {
		return d, false
	}
	out := d.Clone()
	if out.Metadata.Totals == nil {
		out.Metadata.Totals = &document.Totals{}
	}
	visible := op.Visible
	out.Metadata.Totals.ShowTotalRow = &visible
	return out, true
}

// AddRow inserts an empty row at position At (0 through len(rows)).
type AddRow struct {
	At int `mapstructure:"at" json:"at"`
}

func (AddRow) Kind() Kind { return KindAddRow }

func (op AddRow) Apply(d *document.Document) (*document.Document, bool) {
	if op.At < 0 || op.At > len(d.Rows) {
		return d, false
	}
	out := d.Clone()
	out.Rows = slices.Insert(out.Rows, op.At, document.NewRow(out.Columns))
	return out, true
}

// DeleteRow removes the row at Index. Removing the only row leaves a
// single empty row.
type DeleteRow struct {
	Index int `mapstructure:"index" json:"index"`
}

func (DeleteRow) Kind() Kind { return KindDeleteRow }

func (op DeleteRow) Apply(d *document.Document) (*document.Document, bool) {
	if op.Index < 0 || op.Index >= len(d.Rows) {
		return d, false
	}
	out := d.Clone()
	out.Rows = slices.Delete(out.Rows, op.Index, op.Index+1)
	out.EnsureMinimal()
	return out, true
}

// MoveRow moves the row at From to position To, keeping the relative order
// of all other rows.
type MoveRow struct {
	From int `mapstructure:"from" json:"from"`
	To   int `mapstructure:"to" json:"to"`
}

func (MoveRow) Kind() Kind { return KindMoveRow }

func (op MoveRow) Apply(d *document.Document) (*document.Document, bool) {
	if !validMove(op.From, op.To, len(d.Rows)) {
		return d, false
	}
	out := d.Clone()
	out.Rows = move(out.Rows, op.From, op.To)
	return out, true
}

// EditCell assigns a cell value. Formula-driven cells are not editable.
type EditCell struct {
	Row    int    `mapstructure:"row" json:"row"`
	Column string `mapstructure:"column" json:"column"`
	Value  string `mapstructure:"value" json:"value"`
}

func (EditCell) Kind() Kind { return KindEditCell }

func (op EditCell) Apply(d *document.Document) (*document.Document, bool) {
	if op.Row < 0 || op.Row >= len(d.Rows) || !d.HasColumn(op.Column) {
		return d, false
	}
	if d.Metadata.Formulas.Has(op.Column) || d.Rows[op.Row][op.Column] == op.Value {
		return d, false
	}
	out := d.Clone()
	out.Rows[op.Row][op.Column] = op.Value
	return out, true
}

// Recalculate changes nothing structurally but always triggers a save cycle.
type Recalculate struct{}

func (Recalculate) Kind() Kind { return KindRecalculate }

func (Recalculate) Apply(d *document.Document) (*document.Document, bool) {
	return d.Clone(), true
}

func validMove(from, to, n int) bool {
	return from != to && from >= 0 && from < n && to >= 0 && to < n
}

// move splices the element at from out and back in at to.
func move[S ~[]E, E any](s S, from, to int) S {
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}
