package pybuild

import (
	"strings"
	"unicode"
)

// containsString reports whether values contains s.
func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// uniqueStrings drops empty and repeated values, keeping first occurrences.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}

// isLineBreak reports whether r ends a line for Python's str.splitlines.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// firstLine returns the text before the first line break, using the same
// set of line boundaries as Python's str.splitlines.
func firstLine(s string) string {
	if i := strings.IndexFunc(s, isLineBreak); i >= 0 {
		return s[:i]
	}
	return s
}

// splitOutput turns captured process output into lines, dropping a single
// trailing newline.
func splitOutput(output []byte) []string {
	text := strings.TrimRight(string(output), "\r\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func trimLeftSpace(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
