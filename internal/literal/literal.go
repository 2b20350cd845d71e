// Package literal renders CSV field values as SQL literals for INSERT
// statements.
package literal

import "strings"

// Null is the bare token emitted for absent values
const Null = "NULL"

// Zero is emitted for numeric fields that are empty or absent
const Zero = "0"

// Escape renders a value as a SQL string literal. An absent value renders
// as NULL. Single quotes are doubled.
func Escape(value string, present bool) string {
	if !present {
		return Null
	}
	return Quote(value)
}

// Quote wraps text in single quotes, doubling any embedded single quotes
func Quote(text string) string {
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}

// Numeric renders a numeric field unquoted. The raw text is trusted as-is;
// only empty or absent values are replaced by 0.
func Numeric(value string, present bool) string {
	if !present || value == "" {
		return Zero
	}
	return value
}
