// Package formula evaluates per-row column formulas such as "{Price} * {Qty}".
//
// Placeholders are replaced by the numeric value of the referenced cell and the
// remaining arithmetic is evaluated as a Starlark expression, extended with
// calculator notation (^, mod, implicit multiplication). Evaluation never
// fails from the caller's point of view: anything that cannot be computed is 0.
package formula

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/hatomachi/ocalc/internal/numeric"
	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxExecutionSteps bounds the work a single formula may do.
const maxExecutionSteps = 100_000

// Evaluator evaluates formulas against rows.
// The zero value is not usable; create one with NewEvaluator.
type Evaluator struct {
	predeclared starlark.StringDict
	logger      *slog.Logger
}

// NewEvaluator creates an evaluator. A nil logger discards output.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{
		predeclared: Predeclared(),
		logger:      logger,
	}
}

// Predeclared returns the functions and constants available to formulas:
// the members of the Starlark math module as bare names (sqrt, pow, pi, ...)
// plus the module itself as "math". round takes an optional number of
// decimals. abs, min and max come from the Starlark universe.
func Predeclared() starlark.StringDict {
	globals := make(starlark.StringDict, len(starmath.Module.Members)+2)
	for name, v := range starmath.Module.Members {
		globals[name] = v
	}
	globals["math"] = starmath.Module
	globals["round"] = starlark.NewBuiltin("round", round)
	return globals
}

// round(x, ndigits=0) rounds half away from zero to ndigits decimals.
func round(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	ndigits := 0
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "x", &x, "ndigits?", &ndigits); err != nil {
		return nil, err
	}
	v, ok := starlark.AsFloat(x)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want number", fn.Name(), x.Type())
	}
	scale := math.Pow(10, float64(ndigits))
	return starlark.Float(math.Round(v*scale) / scale), nil
}

var defaultEvaluator = NewEvaluator(nil)

// Evaluate evaluates text against row with a shared, silent evaluator.
func Evaluate(text string, row map[string]string) float64 {
	return defaultEvaluator.Evaluate(text, row)
}

// Evaluate substitutes placeholders from row and evaluates the expression.
// Missing, empty and non-numeric cells count as 0. Malformed expressions,
// runtime errors and non-finite results yield 0.
func (e *Evaluator) Evaluate(text string, row map[string]string) float64 {
	expr, env := e.bind(text, row)

	v, err := e.eval(expr, env)
	if err != nil {
		e.logger.Debug("formula evaluation failed", "formula", text, "error", err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.logger.Debug("formula produced a non-finite result", "formula", text)
		return 0
	}
	return numeric.Round(v)
}

// bind rewrites each placeholder to a generated variable name and returns
// the rewritten expression with its bindings. A placeholder directly after a
// number, a closing parenthesis or another placeholder, or directly before an
// opening parenthesis, is multiplied in.
func (e *Evaluator) bind(text string, row map[string]string) (string, starlark.StringDict) {
	env := make(starlark.StringDict, len(e.predeclared)+4)
	for k, v := range e.predeclared {
		env[k] = v
	}

	var b strings.Builder
	last := 0
	for n, m := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		if endsOperand(b.String()) {
			b.WriteString(" *")
		}

		name := fmt.Sprintf("_col%d", n)
		env[name] = starlark.Float(numeric.ParseOrZero(row[text[m[2]:m[3]]]))
		b.WriteString(" " + name + " ")

		last = m[1]
		if strings.HasPrefix(strings.TrimLeft(text[last:], " \t"), "(") {
			b.WriteString("*")
		}
	}
	b.WriteString(text[last:])

	expr := modPattern.ReplaceAllString(b.String(), "%")
	return strings.TrimSpace(expr), env
}

// endsOperand reports whether s ends with a number, a closing parenthesis
// or a bound placeholder.
func endsOperand(s string) bool {
	s = strings.TrimRight(s, " \t")
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c == ')' || c == '.' || (c >= '0' && c <= '9')
}

func (e *Evaluator) eval(expr string, env starlark.StringDict) (float64, error) {
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	thread := &starlark.Thread{
		Name:  "formula",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(maxExecutionSteps)

	opts := &syntax.FileOptions{}
	parsed, err := opts.ParseExpr("formula", expr, 0)
	if err != nil {
		return 0, err
	}
	result, err := starlark.EvalExprOptions(opts, thread, rewritePower(parsed), env)
	if err != nil {
		return 0, err
	}
	return toFloat(result)
}

// toFloat converts a Starlark result into a number.
func toFloat(v starlark.Value) (float64, error) {
	switch x := v.(type) {
	case starlark.Float:
		return float64(x), nil
	case starlark.Int:
		return float64(x.Float()), nil
	case starlark.Bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("formula result is %s, not a number", v.Type())
	}
}
