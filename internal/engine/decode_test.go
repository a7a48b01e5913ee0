package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatomachi/ocalc/internal/editor"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		params map[string]any
		want   editor.Operation
	}{
		{
			name:   "rename column",
			kind:   "rename_column",
			params: map[string]any{"old": "Price", "new": "Cost"},
			want:   editor.RenameColumn{Old: "Price", New: "Cost"},
		},
		{
			name:   "add column",
			kind:   "add_column",
			params: map[string]any{"anchor": "Price", "side": "left"},
			want:   editor.AddColumn{Anchor: "Price", Side: editor.Left},
		},
		{
			name:   "ints from strings",
			kind:   "move_row",
			params: map[string]any{"from": "1", "to": "0"},
			want:   editor.MoveRow{From: 1, To: 0},
		},
		{
			name:   "ints from json numbers",
			kind:   "move_column",
			params: map[string]any{"from": float64(2), "to": float64(3)},
			want:   editor.MoveColumn{From: 2, To: 3},
		},
		{
			name:   "bool from string",
			kind:   "set_total_row",
			params: map[string]any{"visible": "false"},
			want:   editor.SetTotalRow{Visible: false},
		},
		{
			name:   "edit cell",
			kind:   "edit_cell",
			params: map[string]any{"row": "0", "column": "Qty", "value": ""},
			want:   editor.EditCell{Row: 0, Column: "Qty", Value: ""},
		},
		{
			name: "recalculate without params",
			kind: "recalculate",
			want: editor.Recalculate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Decode(tt.kind, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
			assert.Equal(t, editor.Kind(tt.kind), op.Kind())
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		params map[string]any
	}{
		{name: "missing param", kind: "rename_column", params: map[string]any{"old": "Price"}},
		{name: "unknown param", kind: "delete_column", params: map[string]any{"name": "A", "force": true}},
		{name: "not a number", kind: "delete_row", params: map[string]any{"index": "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.kind)
		})
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode("explode", nil)

	var unknown *UnknownOperationError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "explode", unknown.Kind)
	assert.Equal(t, Kinds(), unknown.Available)
	assert.Contains(t, err.Error(), "rename_column")
}

func TestKinds(t *testing.T) {
	kinds := Kinds()

	assert.Len(t, kinds, 12)
	assert.IsIncreasing(t, kinds)
	assert.Contains(t, kinds, "set_total_row")
}
