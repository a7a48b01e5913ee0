package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/editor"
	"github.com/hatomachi/ocalc/internal/testutil"
)

const invoiceRaw = `---
formulas:
  Total: '{Price}*{Qty}'
totals:
  targetColumns:
    - Total
---
Item,Price,Qty,Total
Apple,2,3,99
Pear,1.5,4,6
`

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Config{Logger: testutil.NewTestLogger(t)})
	e.Open(invoiceRaw)
	return e
}

func column(d *document.Document, name string) []string {
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[name]
	}
	return values
}

func TestNew(t *testing.T) {
	e := New(Config{})

	state := e.Current()
	assert.Equal(t, "", state.Raw)
	assert.Equal(t, []string{document.DefaultColumn}, state.Document.Columns)
	assert.Len(t, state.Document.Rows, 1)
}

func TestOpen_DoesNotRecompute(t *testing.T) {
	e := newEngine(t)

	state := e.Current()
	assert.Equal(t, invoiceRaw, state.Raw)
	assert.Equal(t, []string{"99", "6"}, column(state.Document, "Total"))
	assert.Nil(t, state.Document.Metadata.Totals.Results)
}

func TestApply_RenameRecomputes(t *testing.T) {
	e := newEngine(t)

	res, err := e.Apply(editor.RenameColumn{Old: "Price", New: "Cost"})
	require.NoError(t, err)
	require.True(t, res.Changed)

	d := res.Document
	assert.Equal(t, []string{"Item", "Cost", "Qty", "Total"}, d.Columns)
	expr, ok := d.Metadata.Formulas.Get("Total")
	require.True(t, ok)
	assert.Equal(t, "{Cost}*{Qty}", expr)
	assert.Equal(t, []string{"6", "6"}, column(d, "Total"))
	assert.Equal(t, document.Results{"Total": 12}, d.Metadata.Totals.Results)

	assert.Equal(t, document.Serialize(d), res.Raw)
	assert.Equal(t, res.State, e.Current())
	assert.Equal(t, d, document.Parse(res.Raw))
}

func TestApply_TotalsSeeFreshFormulaValues(t *testing.T) {
	e := newEngine(t)

	res, err := e.Apply(editor.EditCell{Row: 0, Column: "Qty", Value: "10"})
	require.NoError(t, err)

	assert.Equal(t, []string{"20", "6"}, column(res.Document, "Total"))
	assert.Equal(t, document.Results{"Total": 26}, res.Document.Metadata.Totals.Results)
}

func TestApply_DeletedReferenceEvaluatesToZero(t *testing.T) {
	e := newEngine(t)

	res, err := e.Apply(editor.DeleteColumn{Name: "Qty"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Item", "Price", "Total"}, res.Document.Columns)
	assert.Equal(t, []string{"0", "0"}, column(res.Document, "Total"))
	assert.Equal(t, document.Results{"Total": 0}, res.Document.Metadata.Totals.Results)
}

func TestApply_Noop(t *testing.T) {
	e := newEngine(t)
	before := e.Current()

	res, err := e.Apply(editor.RenameColumn{Old: "Price", New: "Qty"})
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, invoiceRaw, res.Raw)
	assert.Same(t, before.Document, res.Document)
}

func TestApply_Recalculate(t *testing.T) {
	e := newEngine(t)

	res, err := e.Apply(editor.Recalculate{})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, []string{"6", "6"}, column(res.Document, "Total"))
	assert.Contains(t, res.Raw, "results:")
}

func TestApply_Nil(t *testing.T) {
	_, err := New(Config{}).Apply(nil)
	assert.ErrorIs(t, err, ErrNilOperation)
}

func TestApply_DoesNotAliasPreviousState(t *testing.T) {
	e := newEngine(t)
	before := e.Current()

	_, err := e.Apply(editor.EditCell{Row: 1, Column: "Item", Value: "Plum"})
	require.NoError(t, err)

	assert.Equal(t, "Pear", before.Document.Rows[1]["Item"])
	assert.Equal(t, "Plum", e.Current().Document.Rows[1]["Item"])
}

func TestDo(t *testing.T) {
	e := newEngine(t)

	res, err := e.Do("add_row", map[string]any{"at": "2"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Len(t, res.Document.Rows, 3)
	assert.Equal(t, "0", res.Document.Rows[2]["Total"])

	_, err = e.Do("explode", nil)
	var unknown *UnknownOperationError
	assert.ErrorAs(t, err, &unknown)
}

func TestApply_LogsOperation(t *testing.T) {
	logger, rec := testutil.NewRecordingLogger()
	e := New(Config{Logger: logger})
	e.Open(invoiceRaw)

	_, err := e.Apply(editor.EditCell{Row: 0, Column: "Qty", Value: "5"})
	require.NoError(t, err)
	_, err = e.Apply(editor.DeleteRow{Index: 7})
	require.NoError(t, err)

	records := rec.Records("applied operation")
	require.Len(t, records, 2)
	assert.Equal(t, "edit_cell", records[0]["kind"])
	assert.Equal(t, true, records[0]["changed"])
	assert.Equal(t, float64(4), records[0]["columns"])
	assert.Equal(t, "delete_row", records[1]["kind"])
	assert.Equal(t, false, records[1]["changed"])
}
