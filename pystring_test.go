package pybuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStringLiteral(t *testing.T) {
	testCases := []struct {
		literal  string
		expected string
		ok       bool
	}{
		{`"1.0"`, "1.0", true},
		{`'1.0'`, "1.0", true},
		{`u"1.0"`, "1.0", true},
		{`""`, "", true},
		{`"""Docs."""`, "Docs.", true},
		{`'''Docs.'''`, "Docs.", true},
		{`"tab\there"`, "tab\there", true},
		{`"quote \" inside"`, `quote " inside`, true},
		{`"octal \101"`, "octal A", true},
		{`"hex \x41"`, "hex A", true},
		{`"unicode é"`, "unicode é", true},
		{`"wide \U0001F600"`, "wide \U0001F600", true},
		{`"unknown \q"`, `unknown \q`, true},
		{"\"joined \\\nline\"", "joined line", true},
		{`r"raw \n"`, `raw \n`, true},
		{`R'raw \d+'`, `raw \d+`, true},
		{`b"bytes"`, "", false},
		{`rb"bytes"`, "", false},
		{`f"{x}"`, "", false},
		{`"named \N{BULLET}"`, "", false},
		{`"bad \x4"`, "", false},
		{`"unterminated`, "", false},
		{`version`, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.literal, func(t *testing.T) {
			got, ok := parseStringLiteral(tc.literal)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestCleanDocstring(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"single line", "Summary.", "Summary."},
		{"leading space", "   Summary.", "Summary."},
		{
			name:     "indented body",
			input:    "Summary.\n\n    Details here.\n      Nested.\n    ",
			expected: "Summary.\n\nDetails here.\n  Nested.",
		},
		{
			name:     "summary on second line",
			input:    "\n    Summary.\n    More.\n",
			expected: "Summary.\nMore.",
		},
		{
			name:     "tabs",
			input:    "Summary.\n\tBody.",
			expected: "Summary.\nBody.",
		},
		{"blank", "   \n  \n", "  "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanDocstring(tc.input))
		})
	}
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "a       b", expandTabs("a\tb", 8))
	assert.Equal(t, "        x\n        y", expandTabs("\tx\n\ty", 8))
	assert.Equal(t, "no tabs", expandTabs("no tabs", 8))
}
