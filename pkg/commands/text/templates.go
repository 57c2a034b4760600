// Package text formats diamondctl help text.
package text

import (
	"strings"
)

// Indentation prefixes every example line.
const Indentation = `  `

// LongDesc trims a long description written as an indented raw string literal.
func LongDesc(s string) string {
	return strings.TrimSpace(s)
}

// Examples trims an example block and indents each of its lines by Indentation.
func Examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = Indentation + strings.TrimSpace(line)
	}

	return strings.Join(lines, "\n")
}
