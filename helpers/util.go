package helpers

import (
	"strings"
)

// CollapseSpaces trims s and replaces every whitespace run with one space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitList splits a comma-separated list, dropping blank entries
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = CollapseSpaces(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

