// Package numeric holds the number handling shared by formulas and totals:
// locale-agnostic cell parsing, 14-significant-digit rounding and the
// canonical text form written back into cells.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Precision is the number of significant digits kept after every computation.
const Precision = 14

// numberPrefix matches the leading decimal number of a cell, e.g. "12.5" in "12.5 kg".
var numberPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// Parse reads the leading decimal number of s, ignoring leading whitespace.
// Cells such as "abc", "" or "Infinity" report ok=false.
func Parse(s string) (v float64, ok bool) {
	m := numberPrefix.FindString(strings.TrimLeft(s, " \t\r\n\v\f"))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseOrZero is Parse with 0 substituted for anything unparseable.
func ParseOrZero(s string) float64 {
	v, _ := Parse(s)
	return v
}

// Round rounds v to Precision significant digits. Non-finite values are
// returned unchanged and negative zero becomes zero.
func Round(v float64) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return v + 0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', Precision, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Format renders v the way it is stored in a cell: plain decimal notation,
// switching to exponent form only for very large or very small magnitudes.
func Format(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
