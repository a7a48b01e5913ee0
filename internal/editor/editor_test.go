package editor

import (
	"testing"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invoice returns a small document used across the editor tests.
func invoice() *document.Document {
	return document.Parse(`---
formulas:
  Total: '{Price}*{Qty}'
totals:
  targetColumns: [Price, Qty, Total]
  results:
    Price: 5
---
Item,Price,Qty,Total
Apple,2,3,6
Pear,3,1,3
`)
}

func apply(t *testing.T, d *document.Document, op Operation) *document.Document {
	t.Helper()
	before := document.Serialize(d)
	out, changed := op.Apply(d)
	require.True(t, changed, "%s should change the document", op.Kind())
	assert.Equal(t, before, document.Serialize(d), "input document must not be modified")
	return out
}

func assertNoop(t *testing.T, d *document.Document, op Operation) {
	t.Helper()
	out, changed := op.Apply(d)
	assert.False(t, changed)
	assert.Same(t, d, out)
}

func assertShape(t *testing.T, d *document.Document) {
	t.Helper()
	require.NotEmpty(t, d.Columns)
	require.NotEmpty(t, d.Rows)
	for i, row := range d.Rows {
		assert.Len(t, row, len(d.Columns), "row %d", i)
		for _, c := range d.Columns {
			_, ok := row[c]
			assert.True(t, ok, "row %d misses column %q", i, c)
		}
	}
}

func TestRenameColumn(t *testing.T) {
	d := apply(t, invoice(), RenameColumn{Old: "Price", New: "Cost"})

	assert.Equal(t, []string{"Item", "Cost", "Qty", "Total"}, d.Columns)
	assert.Equal(t, "2", d.Rows[0]["Cost"])
	assert.Equal(t, document.Formulas{{Column: "Total", Expr: "{Cost}*{Qty}"}}, d.Metadata.Formulas)
	assert.Equal(t, document.ColumnList{"Cost", "Qty", "Total"}, d.Metadata.Totals.TargetColumns)
	assert.Equal(t, document.Results{"Cost": 5}, d.Metadata.Totals.Results)
	assertShape(t, d)
}

func TestRenameColumn_FormulaColumn(t *testing.T) {
	d := apply(t, invoice(), RenameColumn{Old: "Total", New: "Amount"})

	assert.Equal(t, document.Formulas{{Column: "Amount", Expr: "{Price}*{Qty}"}}, d.Metadata.Formulas)
	assert.Equal(t, "6", d.Rows[0]["Amount"])
}

func TestRenameColumn_KeepsFormulaPosition(t *testing.T) {
	d := document.Parse("---\nformulas:\n  B: '{A}+1'\n  C: '{B}+1'\n---\nA,B,C\n1,2,3\n")

	out := apply(t, d, RenameColumn{Old: "B", New: "X"})

	assert.Equal(t, document.Formulas{
		{Column: "X", Expr: "{A}+1"},
		{Column: "C", Expr: "{X}+1"},
	}, out.Metadata.Formulas)
}

func TestRenameColumn_Noop(t *testing.T) {
	tests := []struct {
		name string
		op   RenameColumn
	}{
		{name: "empty name", op: RenameColumn{Old: "Price", New: ""}},
		{name: "same name", op: RenameColumn{Old: "Price", New: "Price"}},
		{name: "duplicate", op: RenameColumn{Old: "Price", New: "Qty"}},
		{name: "unknown column", op: RenameColumn{Old: "Nope", New: "Other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoop(t, invoice(), tt.op)
		})
	}
}

func TestAddColumn(t *testing.T) {
	d := apply(t, invoice(), AddColumn{Anchor: "Price", Side: Left})
	assert.Equal(t, []string{"Item", "NewCol", "Price", "Qty", "Total"}, d.Columns)

	d = apply(t, d, AddColumn{Anchor: "Total", Side: Right})
	assert.Equal(t, []string{"Item", "NewCol", "Price", "Qty", "Total", "NewCol1"}, d.Columns)

	for _, row := range d.Rows {
		assert.Equal(t, "", row["NewCol"])
		assert.Equal(t, "", row["NewCol1"])
	}
	assertShape(t, d)
}

func TestAddColumn_UniqueNames(t *testing.T) {
	d := document.Parse("NewCol\nx\n")

	d = apply(t, d, AddColumn{Anchor: "NewCol", Side: Right})
	d = apply(t, d, AddColumn{Anchor: "NewCol", Side: Right})

	assert.Equal(t, []string{"NewCol", "NewCol2", "NewCol1"}, d.Columns)
}

func TestAddColumn_Noop(t *testing.T) {
	assertNoop(t, invoice(), AddColumn{Anchor: "Nope", Side: Left})
	assertNoop(t, invoice(), AddColumn{Anchor: "Price", Side: "up"})
}

func TestNewColumnName(t *testing.T) {
	assert.Equal(t, "NewCol", NewColumnName([]string{"A"}))
	assert.Equal(t, "NewCol1", NewColumnName([]string{"NewCol"}))
	assert.Equal(t, "NewCol3", NewColumnName([]string{"NewCol", "NewCol1", "NewCol2"}))
}

func TestDeleteColumn(t *testing.T) {
	d := apply(t, invoice(), DeleteColumn{Name: "Qty"})

	assert.Equal(t, []string{"Item", "Price", "Total"}, d.Columns)
	assert.Equal(t, document.ColumnList{"Price", "Total"}, d.Metadata.Totals.TargetColumns)
	assert.Equal(t, "{Price}*{Qty}", d.Metadata.Formulas[0].Expr, "references are left dangling")
	assertShape(t, d)
}

func TestDeleteColumn_FormulaColumn(t *testing.T) {
	d := apply(t, invoice(), DeleteColumn{Name: "Total"})

	assert.Nil(t, d.Metadata.Formulas)
	assert.Equal(t, document.ColumnList{"Price", "Qty"}, d.Metadata.Totals.TargetColumns)
}

func TestDeleteColumn_Last(t *testing.T) {
	d := apply(t, document.Parse("A\n1\n2\n"), DeleteColumn{Name: "A"})

	assert.Equal(t, []string{document.DefaultColumn}, d.Columns)
	assert.Len(t, d.Rows, 2)
	assertShape(t, d)
}

func TestDeleteColumn_Noop(t *testing.T) {
	assertNoop(t, invoice(), DeleteColumn{Name: "Nope"})
}

func TestMoveColumn(t *testing.T) {
	d := apply(t, invoice(), MoveColumn{From: 3, To: 0})
	assert.Equal(t, []string{"Total", "Item", "Price", "Qty"}, d.Columns)

	d = apply(t, d, MoveColumn{From: 0, To: 2})
	assert.Equal(t, []string{"Item", "Price", "Total", "Qty"}, d.Columns)
	assert.Equal(t, "6", d.Rows[0]["Total"])
}

func TestMoveColumn_Noop(t *testing.T) {
	assertNoop(t, invoice(), MoveColumn{From: 1, To: 1})
	assertNoop(t, invoice(), MoveColumn{From: -1, To: 1})
	assertNoop(t, invoice(), MoveColumn{From: 0, To: 4})
}

func TestSetFormula(t *testing.T) {
	d := apply(t, invoice(), SetFormula{Column: "Item", Formula: "  {Qty} + 1  "})
	expr, ok := d.Metadata.Formulas.Get("Item")
	require.True(t, ok)
	assert.Equal(t, "{Qty} + 1", expr)
	assert.Len(t, d.Metadata.Formulas, 2)

	d = apply(t, d, SetFormula{Column: "Total", Formula: "{Price}"})
	expr, _ = d.Metadata.Formulas.Get("Total")
	assert.Equal(t, "{Price}", expr)
	assert.Equal(t, "Total", d.Metadata.Formulas[0].Column, "overwrite keeps position")
}

func TestSetFormula_Clear(t *testing.T) {
	d := apply(t, invoice(), SetFormula{Column: "Total", Formula: "   "})

	assert.False(t, d.Metadata.Formulas.Has("Total"))
	assert.Equal(t, "6", d.Rows[0]["Total"])
}

func TestSetFormula_Noop(t *testing.T) {
	assertNoop(t, invoice(), SetFormula{Column: "Nope", Formula: "1"})
	assertNoop(t, invoice(), SetFormula{Column: "Item", Formula: ""})
	assertNoop(t, invoice(), SetFormula{Column: "Total", Formula: "{Price}*{Qty}"})
}

func TestToggleTotal(t *testing.T) {
	d := apply(t, invoice(), ToggleTotal{Column: "Price"})
	assert.Equal(t, document.ColumnList{"Qty", "Total"}, d.Metadata.Totals.TargetColumns)

	d = apply(t, d, ToggleTotal{Column: "Price"})
	assert.Equal(t, document.ColumnList{"Qty", "Total", "Price"}, d.Metadata.Totals.TargetColumns)
}

func TestToggleTotal_InitializesTargets(t *testing.T) {
	d := apply(t, document.Parse("A,B\n1,2\n"), ToggleTotal{Column: "A"})

	require.NotNil(t, d.Metadata.Totals)
	require.NotNil(t, d.Metadata.Totals.ShowTotalRow)
	assert.True(t, *d.Metadata.Totals.ShowTotalRow)
	assert.Equal(t, document.ColumnList{"B"}, d.Metadata.Totals.TargetColumns)
}

func TestToggleTotal_Noop(t *testing.T) {
	assertNoop(t, invoice(), ToggleTotal{Column: "Nope"})
}

func TestSetTotalRow(t *testing.T) {
	d := apply(t, invoice(), SetTotalRow{Visible: false})
	require.NotNil(t, d.Metadata.Totals.ShowTotalRow)
	assert.False(t, *d.Metadata.Totals.ShowTotalRow)
	assert.False(t, d.Metadata.Totals.Visible())

	assertNoop(t, d, SetTotalRow{Visible: false})

	d = apply(t, d, SetTotalRow{Visible: true})
	assert.True(t, d.Metadata.Totals.Visible())

	d = apply(t, document.Parse("A\n1\n"), SetTotalRow{Visible: true})
	assert.NotNil(t, d.Metadata.Totals)
}

func TestAddRow(t *testing.T) {
	d := apply(t, invoice(), AddRow{At: 0})
	assert.Len(t, d.Rows, 3)
	assert.Equal(t, document.Row{"Item": "", "Price": "", "Qty": "", "Total": ""}, d.Rows[0])

	d = apply(t, d, AddRow{At: len(d.Rows)})
	assert.Len(t, d.Rows, 4)
	assert.Equal(t, "Pear", d.Rows[2]["Item"])
	assertShape(t, d)

	assertNoop(t, d, AddRow{At: -1})
	assertNoop(t, d, AddRow{At: 5})
}

func TestDeleteRow(t *testing.T) {
	d := apply(t, invoice(), DeleteRow{Index: 0})
	require.Len(t, d.Rows, 1)
	assert.Equal(t, "Pear", d.Rows[0]["Item"])

	d = apply(t, d, DeleteRow{Index: 0})
	require.Len(t, d.Rows, 1)
	assert.Equal(t, document.NewRow(d.Columns), d.Rows[0])

	assertNoop(t, d, DeleteRow{Index: 1})
}

func TestMoveRow(t *testing.T) {
	d := document.Parse("N\n0\n1\n2\n3\n")

	out := apply(t, d, MoveRow{From: 0, To: 2})
	assert.Equal(t, []document.Row{{"N": "1"}, {"N": "2"}, {"N": "0"}, {"N": "3"}}, out.Rows)

	out = apply(t, d, MoveRow{From: 3, To: 1})
	assert.Equal(t, []document.Row{{"N": "0"}, {"N": "3"}, {"N": "1"}, {"N": "2"}}, out.Rows)

	assertNoop(t, d, MoveRow{From: 2, To: 2})
	assertNoop(t, d, MoveRow{From: 0, To: 4})
}

func TestEditCell(t *testing.T) {
	d := apply(t, invoice(), EditCell{Row: 1, Column: "Qty", Value: "5"})
	assert.Equal(t, "5", d.Rows[1]["Qty"])

	assertNoop(t, d, EditCell{Row: 1, Column: "Qty", Value: "5"})
	assertNoop(t, d, EditCell{Row: 0, Column: "Total", Value: "1"})
	assertNoop(t, d, EditCell{Row: 9, Column: "Qty", Value: "1"})
	assertNoop(t, d, EditCell{Row: 0, Column: "Nope", Value: "1"})
}

func TestRecalculate(t *testing.T) {
	d := invoice()
	out := apply(t, d, Recalculate{})

	assert.Equal(t, d, out)
	assert.NotSame(t, d, out)
}
