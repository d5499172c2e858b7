package pybuild

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseStringLiteral evaluates a single Python string literal token such as
// `"1.0"`, `r'''raw'''` or `u"text"`.
//
// The second result is false for anything that does not evaluate to a plain
// str constant: bytes and f-string prefixes, malformed quoting, and named
// unicode escapes (\N{...}) that cannot be resolved without a Unicode name
// table.
func parseStringLiteral(lit string) (string, bool) {
	i := 0
	raw := false
	for i < len(lit) && strings.IndexByte("rRuUbBfF", lit[i]) >= 0 {
		switch lit[i] {
		case 'r', 'R':
			raw = true
		case 'b', 'B', 'f', 'F':
			return "", false
		}
		i++
	}
	if i > 2 {
		return "", false
	}
	body := lit[i:]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		quote = body[:1]
	default:
		return "", false
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if raw {
		return body, true
	}
	return unescapePython(body)
}

// unescapePython processes the backslash escapes of a non-raw str literal.
// Unknown escapes are kept verbatim, as Python does.
func unescapePython(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		esc := s[i+1]
		i += 2
		switch esc {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i - 1
			end := j + 1
			for end < len(s) && end < j+3 && s[end] >= '0' && s[end] <= '7' {
				end++
			}
			n, _ := strconv.ParseUint(s[j:end], 8, 32)
			b.WriteRune(rune(n))
			i = end
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[esc]
			if i+width > len(s) {
				return "", false
			}
			n, err := strconv.ParseUint(s[i:i+width], 16, 32)
			if err != nil || n > unicode.MaxRune {
				return "", false
			}
			b.WriteRune(rune(n))
			i += width
		case 'N':
			return "", false
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String(), true
}

// cleanDocstring mirrors inspect.cleandoc: tabs are expanded, the first
// line is stripped of leading whitespace, the common indentation of the
// remaining lines is removed, and leading and trailing blank lines are
// dropped.
func cleanDocstring(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		runes := []rune(line)
		content := []rune(trimLeftSpace(line))
		if len(content) == 0 {
			continue
		}
		if indent := len(runes) - len(content); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = trimLeftSpace(lines[0])
	if margin >= 0 {
		for i := 1; i < len(lines); i++ {
			runes := []rune(lines[i])
			if len(runes) > margin {
				lines[i] = string(runes[margin:])
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// expandTabs mirrors str.expandtabs: the column resets at '\n' and '\r'.
func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var b strings.Builder
	col := 0
	for len(s) > 0 {
		r, n := utf8.DecodeRuneInString(s)
		s = s[n:]
		switch r {
		case '\t':
			spaces := size - col%size
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
