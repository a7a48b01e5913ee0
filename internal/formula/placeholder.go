package formula

import (
	"regexp"
)

// placeholderPattern matches {ColumnName} references inside a formula.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// References returns the column names referenced by a formula, in order of
// first appearance and without duplicates.
func References(text string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, name)
	}
	return refs
}

// RenameReference rewrites every literal {oldName} placeholder to {newName}.
// Matching is on the braced name only; the expression itself is not parsed.
func RenameReference(text, oldName, newName string) string {
	re := regexp.MustCompile(`\{` + regexp.QuoteMeta(oldName) + `\}`)
	return re.ReplaceAllLiteralString(text, "{"+newName+"}")
}
