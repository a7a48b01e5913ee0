// Package engine is the single entry point for working with a document.
//
// It owns the current document and runs every edit through the same cycle:
// clone, apply the operation, recompute formulas, recompute totals, serialize
// and swap. Adapters (CLI, REPL, HTTP) persist State.Raw and render from
// State.Document.
package engine

import (
	"errors"
	"log/slog"

	"github.com/hatomachi/ocalc/internal/document"
	"github.com/hatomachi/ocalc/internal/editor"
	"github.com/hatomachi/ocalc/internal/formula"
	"github.com/hatomachi/ocalc/internal/totals"
)

// ErrNilOperation is returned by Apply when no operation is given.
var ErrNilOperation = errors.New("engine: nil operation")

// State is a document together with its serialized text.
type State struct {
	Raw      string             `json:"raw"`
	Document *document.Document `json:"document"`
}

// Result is the outcome of an applied operation. When Changed is false the
// State is the one before the operation and nothing needs to be saved.
type Result struct {
	State
	Changed bool `json:"changed"`
}

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Evaluator computes formula cells (optional, one is built from Logger)
	Evaluator *formula.Evaluator
}

// Engine holds one open document. It performs no locking; callers sharing an
// engine across goroutines serialize access themselves.
type Engine struct {
	logger    *slog.Logger
	evaluator *formula.Evaluator
	current   State
}

// New creates an engine holding an empty document.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = formula.NewEvaluator(logger)
	}

	e := &Engine{logger: logger, evaluator: evaluator}
	e.Open("")
	return e
}

// Open parses raw and makes it the current document. Formulas and totals are
// not recomputed, so the state reflects the text as it was stored.
func (e *Engine) Open(raw string) State {
	e.current = State{Raw: raw, Document: document.Parse(raw)}
	e.logger.Debug("opened document",
		"columns", len(e.current.Document.Columns),
		"rows", len(e.current.Document.Rows),
		"formulas", len(e.current.Document.Metadata.Formulas))
	return e.current
}

// Current returns the current state.
func (e *Engine) Current() State {
	return e.current
}

// Apply runs op against the current document. A no-op leaves the current
// state untouched and reports Changed=false.
func (e *Engine) Apply(op editor.Operation) (Result, error) {
	if op == nil {
		return Result{}, ErrNilOperation
	}

	doc, changed := op.Apply(e.current.Document)
	if changed {
		e.recompute(doc)
		e.current = State{Raw: document.Serialize(doc), Document: doc}
	}

	e.logger.Debug("applied operation",
		"kind", op.Kind(),
		"changed", changed,
		"columns", len(e.current.Document.Columns),
		"rows", len(e.current.Document.Rows))

	return Result{State: e.current, Changed: changed}, nil
}

// Do decodes an operation from kind and params and applies it.
func (e *Engine) Do(kind string, params map[string]any) (Result, error) {
	op, err := Decode(kind, params)
	if err != nil {
		return Result{}, err
	}
	return e.Apply(op)
}

// recompute refreshes formula cells first so that totals sum fresh values.
func (e *Engine) recompute(doc *document.Document) {
	e.evaluator.Recompute(doc)
	doc.Metadata = totals.Recompute(doc.Metadata, doc.Columns, doc.Rows)
}
