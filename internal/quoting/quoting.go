// Package quoting provides shared identifier and literal quoting utilities.
package quoting

import "strings"

// DoubleQuote quotes an identifier using double quotes (CQL, PostgreSQL,
// ANSI SQL). Internal double quotes are escaped by doubling them.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes a SQL identifier using backticks (MySQL).
// Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// SingleQuote renders a CQL string literal: wrapped in single quotes with
// internal single quotes doubled. CQL has no backslash escapes.
func SingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
