package pybuild

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	codingCookie = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*([-\w.]+)`)
	blankOrNote  = regexp.MustCompile(`^[ \t\f]*(?:[#\r\n]|$)`)
)

// decodeSource converts raw module bytes to UTF-8 text with '\n' line
// endings.
//
// A UTF-8 byte order mark is dropped. Otherwise a PEP 263 coding cookie on
// the first line, or on the second line when the first is blank or a
// comment, selects the source encoding.
func decodeSource(src []byte) ([]byte, error) {
	if bytes.HasPrefix(src, utf8BOM) {
		src = src[len(utf8BOM):]
	} else if name := sourceEncoding(src); name != "" {
		enc, err := lookupEncoding(name)
		if err != nil {
			return nil, err
		}
		if enc != nil {
			if src, err = enc.NewDecoder().Bytes(src); err != nil {
				return nil, fmt.Errorf("decoding source as %s: %w", name, err)
			}
		}
	}

	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(src, []byte("\r"), []byte("\n")), nil
}

// sourceEncoding returns the encoding named by a coding cookie, or "".
func sourceEncoding(src []byte) string {
	lines := bytes.SplitN(src, []byte("\n"), 3)
	for i, line := range lines {
		if i == 2 {
			break
		}
		if m := codingCookie.FindSubmatch(line); m != nil {
			return string(m[1])
		}
		if !blankOrNote.Match(line) {
			break
		}
	}
	return ""
}

// lookupEncoding resolves a Python codec name. A nil encoding with a nil
// error means the text is already UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	norm := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	switch norm {
	case "utf-8", "utf8", "utf-8-sig":
		return nil, nil
	case "latin-1":
		norm = "latin1"
	}

	if enc, err := ianaindex.IANA.Encoding(norm); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(norm); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unknown source encoding: %s", name)
}
