package formula

import (
	"regexp"

	"go.starlark.net/syntax"
)

// Formulas use calculator notation on top of Starlark expressions:
//
//	{A}^2        exponentiation, binding tighter than unary minus, right-associative
//	{A} mod 2    remainder (floored, like %)
//	2{A}, {A}{B} implicit multiplication before a placeholder
//	{A}(1+{B})   implicit multiplication before a parenthesis
//
// Starlark parses ^ as bitwise xor at a lower precedence than + and *, so
// arithmetic runs containing it are flattened and rebuilt with ^ as pow.

var modPattern = regexp.MustCompile(`\bmod\b`)

// binaryPrec ranks the operators of an arithmetic run. Any other operator
// ends the run.
var binaryPrec = map[syntax.Token]int{
	syntax.AMP:        1,
	syntax.LTLT:       2,
	syntax.GTGT:       2,
	syntax.PLUS:       3,
	syntax.MINUS:      3,
	syntax.STAR:       4,
	syntax.SLASH:      4,
	syntax.SLASHSLASH: 4,
	syntax.PERCENT:    4,
	syntax.CIRCUMFLEX: 6,
}

// prefixPrec sits between multiplication and exponentiation: -a^2 is -(a^2).
const prefixPrec = 5

func isPrefix(op syntax.Token) bool {
	return op == syntax.MINUS || op == syntax.PLUS || op == syntax.TILDE
}

// term is one element of a flattened arithmetic run: an operand, a binary
// operator or a prefix operator.
type term struct {
	operand syntax.Expr
	op      syntax.Token
	prefix  bool
	pos     syntax.Position
}

// rewritePower returns e with every ^ turned into a pow call at
// exponentiation precedence. e is modified in place.
func rewritePower(e syntax.Expr) syntax.Expr {
	switch x := e.(type) {
	case *syntax.BinaryExpr:
		if _, ok := binaryPrec[x.Op]; ok {
			return rebuild(flatten(x, nil))
		}
		x.X, x.Y = rewritePower(x.X), rewritePower(x.Y)
	case *syntax.UnaryExpr:
		if isPrefix(x.Op) {
			return rebuild(flatten(x, nil))
		}
		if x.X != nil {
			x.X = rewritePower(x.X)
		}
	case *syntax.ParenExpr:
		x.X = rewritePower(x.X)
	case *syntax.CallExpr:
		x.Fn = rewritePower(x.Fn)
		rewriteAll(x.Args)
	case *syntax.CondExpr:
		x.Cond, x.True, x.False = rewritePower(x.Cond), rewritePower(x.True), rewritePower(x.False)
	case *syntax.IndexExpr:
		x.X, x.Y = rewritePower(x.X), rewritePower(x.Y)
	case *syntax.ListExpr:
		rewriteAll(x.List)
	case *syntax.TupleExpr:
		rewriteAll(x.List)
	}
	return e
}

func rewriteAll(list []syntax.Expr) {
	for i := range list {
		list[i] = rewritePower(list[i])
	}
}

// flatten appends the terms of the arithmetic run rooted at e to out.
// Operands are rewritten on the way.
func flatten(e syntax.Expr, out []term) []term {
	switch x := e.(type) {
	case *syntax.BinaryExpr:
		if _, ok := binaryPrec[x.Op]; ok {
			out = flatten(x.X, out)
			out = append(out, term{op: x.Op, pos: x.OpPos})
			return flatten(x.Y, out)
		}
	case *syntax.UnaryExpr:
		if isPrefix(x.Op) {
			out = append(out, term{op: x.Op, prefix: true, pos: x.OpPos})
			return flatten(x.X, out)
		}
	}
	return append(out, term{operand: rewritePower(e)})
}

func rebuild(terms []term) syntax.Expr {
	b := &runBuilder{terms: terms}
	return b.expr(0)
}

// runBuilder reparses a flattened run by precedence climbing.
type runBuilder struct {
	terms []term
	i     int
}

func (b *runBuilder) expr(minPrec int) syntax.Expr {
	left := b.unary()
	for b.i < len(b.terms) {
		t := b.terms[b.i]
		prec := binaryPrec[t.op]
		if prec < minPrec {
			break
		}
		b.i++
		next := prec + 1
		if t.op == syntax.CIRCUMFLEX {
			next = prec
		}
		left = combine(t, left, b.expr(next))
	}
	return left
}

func (b *runBuilder) unary() syntax.Expr {
	t := b.terms[b.i]
	b.i++
	if t.prefix {
		return &syntax.UnaryExpr{OpPos: t.pos, Op: t.op, X: b.expr(prefixPrec + 1)}
	}
	return t.operand
}

func combine(t term, x, y syntax.Expr) syntax.Expr {
	if t.op == syntax.CIRCUMFLEX {
		return &syntax.CallExpr{
			Fn:     &syntax.Ident{NamePos: t.pos, Name: "pow"},
			Lparen: t.pos,
			Args:   []syntax.Expr{x, y},
			Rparen: t.pos,
		}
	}
	return &syntax.BinaryExpr{X: x, OpPos: t.pos, Op: t.op, Y: y}
}
