package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestParse_Empty(t *testing.T) {
	d := Parse("")

	assert.Equal(t, []string{"Column1"}, d.Columns)
	require.Len(t, d.Rows, 1)
	assert.Equal(t, Row{"Column1": ""}, d.Rows[0])
	assert.True(t, d.Metadata.IsEmpty())
}

func TestParse_PlainTable(t *testing.T) {
	d := Parse("Item,Price\nApple,1.5\nPear,2\n")

	assert.True(t, d.Metadata.IsEmpty())
	assert.Equal(t, []string{"Item", "Price"}, d.Columns)
	assert.Equal(t, []Row{
		{"Item": "Apple", "Price": "1.5"},
		{"Item": "Pear", "Price": "2"},
	}, d.Rows)
}

func TestParse_WithMetadata(t *testing.T) {
	raw := `---
formulas:
  Total: "{Price} * {Qty}"
totals:
  showTotalRow: true
  targetColumns:
    - Total
  results:
    Total: 12
---
Price,Qty,Total
3,4,12
`
	d := Parse(raw)

	assert.Equal(t, []string{"Price", "Qty", "Total"}, d.Columns)
	expr, ok := d.Metadata.Formulas.Get("Total")
	require.True(t, ok)
	assert.Equal(t, "{Price} * {Qty}", expr)

	require.NotNil(t, d.Metadata.Totals)
	assert.Equal(t, boolPtr(true), d.Metadata.Totals.ShowTotalRow)
	assert.Equal(t, ColumnList{"Total"}, d.Metadata.Totals.TargetColumns)
	assert.Equal(t, Results{"Total": 12}, d.Metadata.Totals.Results)
	assert.Equal(t, []Row{{"Price": "3", "Qty": "4", "Total": "12"}}, d.Rows)
}

func TestParse_FormulaOrderPreserved(t *testing.T) {
	raw := "---\nformulas:\n  Z: '1'\n  A: '{Z} + 1'\n  M: '2'\n---\nA,M,Z\n"
	d := Parse(raw)

	require.Len(t, d.Metadata.Formulas, 3)
	assert.Equal(t, "Z", d.Metadata.Formulas[0].Column)
	assert.Equal(t, "A", d.Metadata.Formulas[1].Column)
	assert.Equal(t, "M", d.Metadata.Formulas[2].Column)
}

func TestParse_MissingClosingDelimiter(t *testing.T) {
	d := Parse("---\nformulas:\n  A: x\n")

	assert.True(t, d.Metadata.IsEmpty())
	assert.Equal(t, []string{"---"}, d.Columns)
}

func TestParse_MalformedMetadata(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "broken yaml", raw: "---\nformulas: [\n---\nA\n1\n"},
		{name: "scalar document", raw: "---\njust text\n---\nA\n1\n"},
		{name: "wrong shape", raw: "---\ntotals: 5\n---\nA\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.raw)
			assert.True(t, d.Metadata.IsEmpty())
			assert.Equal(t, []string{"A"}, d.Columns)
			assert.Equal(t, []Row{{"A": "1"}}, d.Rows)
		})
	}
}

func TestParse_BadResultEntriesSkipped(t *testing.T) {
	d := Parse("---\nformulas:\n  B: '{A}'\ntotals:\n  results:\n    A: abc\n    B: 3\n---\nA,B\n")

	assert.True(t, d.Metadata.Formulas.Has("B"))
	require.NotNil(t, d.Metadata.Totals)
	assert.Equal(t, Results{"B": 3}, d.Metadata.Totals.Results)
}

func TestParse_EmptyMetadataBlock(t *testing.T) {
	d := Parse("---\n---\nA,B\n1,2\n")

	assert.True(t, d.Metadata.IsEmpty())
	assert.Equal(t, []string{"A", "B"}, d.Columns)
}

func TestParse_CRLF(t *testing.T) {
	d := Parse("---\r\nformulas:\r\n  B: '{A} * 2'\r\n---\r\nA,B\r\n1,2\r\n")

	assert.True(t, d.Metadata.Formulas.Has("B"))
	assert.Equal(t, []string{"A", "B"}, d.Columns)
	assert.Equal(t, []Row{{"A": "1", "B": "2"}}, d.Rows)
}

func TestParse_HeaderOnly(t *testing.T) {
	d := Parse("A,B")

	assert.Equal(t, []Row{{"A": "", "B": ""}}, d.Rows)
}

func TestParse_RaggedRecords(t *testing.T) {
	d := Parse("A,B,C\n1\n1,2,3,4\n")

	assert.Equal(t, []Row{
		{"A": "1", "B": "", "C": ""},
		{"A": "1", "B": "2", "C": "3"},
	}, d.Rows)
}

func TestParse_DuplicateHeaders(t *testing.T) {
	d := Parse("A,A,A_1\n1,2,3\n")

	assert.Equal(t, []string{"A", "A_1", "A_1_1"}, d.Columns)
}

func TestParse_QuotedFields(t *testing.T) {
	d := Parse("Name,Note\n\"Smith, J\",\"line one\nline two\"\n")

	assert.Equal(t, []Row{{"Name": "Smith, J", "Note": "line one\nline two"}}, d.Rows)
}

func TestParse_UnknownKeysPreserved(t *testing.T) {
	d := Parse("---\nowner: finance\n---\nA\n1\n")

	assert.Equal(t, map[string]any{"owner": "finance"}, d.Metadata.Extra)
	assert.Contains(t, Serialize(d), "owner: finance\n")
}

func TestSerialize(t *testing.T) {
	d := &Document{
		Metadata: Metadata{
			Formulas: Formulas{{Column: "Total", Expr: "{Price}*{Qty}"}},
		},
		Columns: []string{"Price", "Qty", "Total"},
		Rows:    []Row{{"Price": "2", "Qty": "3", "Total": "6"}},
	}

	out := Serialize(d)

	assert.True(t, strings.HasPrefix(out, "---\nformulas:\n  Total: "), out)
	assert.True(t, strings.HasSuffix(out, "\n---\nPrice,Qty,Total\n2,3,6\n"), out)
	assert.Equal(t, d, Parse(out))
}

func TestSerialize_EmptyMetadata(t *testing.T) {
	assert.Equal(t, "---\n{}\n---\nColumn1\n\"\"\n", Serialize(Parse("")))
}

func TestSerialize_TargetColumnsPresence(t *testing.T) {
	none := &Document{
		Metadata: Metadata{Totals: &Totals{TargetColumns: ColumnList{}}},
		Columns:  []string{"A"},
		Rows:     []Row{{"A": "1"}},
	}
	all := &Document{
		Metadata: Metadata{Totals: &Totals{ShowTotalRow: boolPtr(false)}},
		Columns:  []string{"A"},
		Rows:     []Row{{"A": "1"}},
	}

	assert.Contains(t, Serialize(none), "targetColumns: []")
	assert.NotNil(t, Parse(Serialize(none)).Metadata.Totals.TargetColumns)
	assert.NotContains(t, Serialize(all), "targetColumns")
	assert.Nil(t, Parse(Serialize(all)).Metadata.Totals.TargetColumns)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "plain", raw: "A,B\n1,2\n3,4"},
		{name: "blank lines", raw: "A\n\n1\n\n"},
		{name: "quoting", raw: "Name,Note\n\"a,b\",\"say \"\"hi\"\"\"\n\" lead\",\"x\ny\"\n"},
		{name: "metadata", raw: "---\nformulas:\n  C: '{A} + {B}'\n  D: '{C} * 2'\ntotals:\n  targetColumns: [A, C]\n  results:\n    A: 4\n---\nA,B,C,D\n1,2,3,6\n3,,3,6\n"},
		{name: "empty targets", raw: "---\ntotals:\n  targetColumns: []\n  results: {}\n---\nA\n1\n"},
		{name: "hidden totals", raw: "---\ntotals:\n  showTotalRow: false\n---\nA\n1\n"},
		{name: "extra keys", raw: "---\ntitle: Budget\ntags: [home, 2024]\n---\nA\n1\n"},
		{name: "crlf", raw: "A,B\r\n1,2\r\n"},
		{name: "numeric column names", raw: "---\nformulas:\n  '2024': '{2023} * 2'\n---\n2023,2024\n1,2\n"},
		{name: "malformed metadata", raw: "---\n: [\n---\nA\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Parse(tt.raw)
			out := Serialize(first)
			second := Parse(out)

			assert.Equal(t, first, second)
			assert.Equal(t, out, Serialize(second))
		})
	}
}

func TestRoundTrip_SingleColumnEmptyRows(t *testing.T) {
	d := &Document{
		Columns: []string{"A"},
		Rows:    []Row{{"A": ""}, {"A": "x"}, {"A": ""}},
	}

	assert.Equal(t, d, Parse(Serialize(d)))
}
