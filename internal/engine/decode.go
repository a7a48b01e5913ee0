package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hatomachi/ocalc/internal/editor"
)

// UnknownOperationError is returned by Decode for an unregistered kind.
type UnknownOperationError struct {
	Kind      string
	Available []string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q (available: %s)", e.Kind, strings.Join(e.Available, ", "))
}

type decodeFunc func(params map[string]any) (editor.Operation, error)

var decoders = map[editor.Kind]decodeFunc{
	editor.KindRenameColumn: decodeAs[editor.RenameColumn],
	editor.KindAddColumn:    decodeAs[editor.AddColumn],
	editor.KindDeleteColumn: decodeAs[editor.DeleteColumn],
	editor.KindMoveColumn:   decodeAs[editor.MoveColumn],
	editor.KindSetFormula:   decodeAs[editor.SetFormula],
	editor.KindToggleTotal:  decodeAs[editor.ToggleTotal],
	editor.KindSetTotalRow:  decodeAs[editor.SetTotalRow],
	editor.KindAddRow:       decodeAs[editor.AddRow],
	editor.KindDeleteRow:    decodeAs[editor.DeleteRow],
	editor.KindMoveRow:      decodeAs[editor.MoveRow],
	editor.KindEditCell:     decodeAs[editor.EditCell],
	editor.KindRecalculate:  decodeAs[editor.Recalculate],
}

// Kinds returns the operation kinds Decode accepts, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	return kinds
}

// Decode builds an operation from its kind and loosely typed params. Params
// are decoded weakly, so "2" is accepted for an int field and "true" for a
// bool. Every field of the operation must be given and unknown keys are
// rejected.
func Decode(kind string, params map[string]any) (editor.Operation, error) {
	decode, ok := decoders[editor.Kind(kind)]
	if !ok {
		return nil, &UnknownOperationError{Kind: kind, Available: Kinds()}
	}
	op, err := decode(params)
	if err != nil {
		return nil, fmt.Errorf("invalid %s params: %w", kind, err)
	}
	return op, nil
}

func decodeAs[T editor.Operation](params map[string]any) (editor.Operation, error) {
	var op T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ErrorUnset:       true,
		Result:           &op,
	})
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := dec.Decode(params); err != nil {
		return nil, err
	}
	return op, nil
}
