package formula

import (
	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/numeric"
)

// Recompute rewrites every formula-driven cell of d in place. Rows are
// visited in order and formulas in metadata order, so a formula may read a
// column recomputed earlier in the same row. Formulas naming a column that
// does not exist are skipped.
func (e *Evaluator) Recompute(d *document.Document) {
	var active document.Formulas
	for _, fm := range d.Metadata.Formulas {
		if d.HasColumn(fm.Column) {
			active = append(active, fm)
		}
	}
	if len(active) == 0 {
		return
	}

	for _, row := range d.Rows {
		for _, fm := range active {
			row[fm.Column] = numeric.Format(e.Evaluate(fm.Expr, row))
		}
	}
}
