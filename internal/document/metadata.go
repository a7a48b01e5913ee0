package document

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Metadata is the structured block at the top of a document.
type Metadata struct {
	// Formulas makes columns formula-driven. Order is significant: formulas
	// are recomputed in this order, so later ones see earlier results.
	Formulas Formulas `yaml:"formulas,omitempty" json:"formulas,omitempty"`

	// Totals configures the total row. Nil means the block is absent.
	Totals *Totals `yaml:"totals,omitempty" json:"totals,omitempty"`

	// Extra keeps unknown top-level keys so they survive a save.
	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	out := Metadata{
		Formulas: slices.Clone(m.Formulas),
		Extra:    maps.Clone(m.Extra),
	}
	if m.Totals != nil {
		out.Totals = m.Totals.Clone()
	}
	return out
}

// IsEmpty reports whether m carries no information.
func (m Metadata) IsEmpty() bool {
	return len(m.Formulas) == 0 && m.Totals == nil && len(m.Extra) == 0
}

// Formula is one formula-driven column.
type Formula struct {
	Column string `json:"column"`
	Expr   string `json:"formula"`
}

// Formulas is an ordered column -> formula mapping. It is stored in YAML as
// a mapping whose key order is preserved.
type Formulas []Formula

// Get returns the formula of column.
func (f Formulas) Get(column string) (string, bool) {
	for _, fm := range f {
		if fm.Column == column {
			return fm.Expr, true
		}
	}
	return "", false
}

// Has reports whether column is formula-driven.
func (f Formulas) Has(column string) bool {
	_, ok := f.Get(column)
	return ok
}

// Set overwrites the formula of column in place, or appends it.
func (f *Formulas) Set(column, expr string) {
	for i := range *f {
		if (*f)[i].Column == column {
			(*f)[i].Expr = expr
			return
		}
	}
	*f = append(*f, Formula{Column: column, Expr: expr})
}

// Delete removes the formula of column. An emptied list becomes nil.
func (f *Formulas) Delete(column string) {
	*f = slices.DeleteFunc(*f, func(fm Formula) bool { return fm.Column == column })
	if len(*f) == 0 {
		*f = nil
	}
}

// MarshalYAML encodes the formulas as a mapping in list order.
func (f Formulas) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, fm := range f {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fm.Column},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fm.Expr},
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping, keeping key order. Entries whose value is
// not a scalar are ignored; a repeated key overwrites the earlier one.
func (f *Formulas) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("formulas: expected a mapping, got %s", value.ShortTag())
	}
	var out Formulas
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.ShortTag() == "!!null" {
			continue
		}
		out.Set(k.Value, v.Value)
	}
	*f = out
	return nil
}

// Totals configures the aggregate total row.
type Totals struct {
	// ShowTotalRow hides the total row when explicitly false.
	ShowTotalRow *bool `yaml:"showTotalRow,omitempty" json:"showTotalRow,omitempty"`

	// TargetColumns lists the totaled columns. Nil means every column; an
	// empty, non-nil list means none.
	TargetColumns ColumnList `yaml:"targetColumns,omitempty" json:"targetColumns"`

	// Results caches the last computed sums. It is rebuilt on every save.
	Results Results `yaml:"results,omitempty" json:"results,omitempty"`
}

// Clone returns a deep copy of t.
func (t *Totals) Clone() *Totals {
	out := &Totals{
		TargetColumns: slices.Clone(t.TargetColumns),
		Results:       maps.Clone(t.Results),
	}
	if t.ShowTotalRow != nil {
		show := *t.ShowTotalRow
		out.ShowTotalRow = &show
	}
	return out
}

// Visible reports whether the total row is shown. An absent flag means shown.
func (t *Totals) Visible() bool {
	return t == nil || t.ShowTotalRow == nil || *t.ShowTotalRow
}

// Targets returns the effective target columns for the given column order.
func (t *Totals) Targets(columns []string) []string {
	if t == nil || t.TargetColumns == nil {
		return slices.Clone(columns)
	}
	return slices.Clone(t.TargetColumns)
}

// ColumnList is a list of column names that distinguishes absent (nil) from
// empty when encoded.
type ColumnList []string

// IsZero lets yaml omitempty drop only a nil list.
func (l ColumnList) IsZero() bool {
	return l == nil
}

// Results maps a column to its computed total.
type Results map[string]float64

// IsZero lets yaml omitempty drop only a nil map.
func (r Results) IsZero() bool {
	return r == nil
}

// UnmarshalYAML decodes the cached totals, skipping entries that are not
// numbers. The cache is recomputed anyway, so a bad entry is not fatal.
func (r *Results) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("results: expected a mapping, got %s", value.ShortTag())
	}
	out := make(Results, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v float64
		if err := value.Content[i+1].Decode(&v); err != nil {
			continue
		}
		out[value.Content[i].Value] = v
	}
	*r = out
	return nil
}
