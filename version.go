package pybuild

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
)

// versionPattern is the PEP 440 public/local version grammar, accepting the
// alternative spellings the normalization rules allow.
var versionPattern = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`\s*$`)

var preReleaseSpellings = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"c":       "rc",
	"rc":      "rc",
	"pre":     "rc",
	"preview": "rc",
}

// Version is a parsed PEP 440 version. Numeric components are kept as
// decimal strings without leading zeros so arbitrarily large segments
// survive normalization.
type Version struct {
	Epoch   string   // "" when the epoch is 0
	Release []string // At least one segment
	Pre     string   // "a1", "b2", "rc0" or ""
	Post    string   // Post-release number, "" when absent
	Dev     string   // Dev-release number, "" when absent
	Local   string   // Lowercased, dot-separated, "" when absent

	hasPost bool
	hasDev  bool
}

// ParseVersion parses s according to PEP 440.
//
// Alternative spellings are accepted (e.g. "1.0-ALPHA.1", "v2.0", "1.0-1")
// and folded into the canonical form returned by String.
func ParseVersion(s string) (*Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid version: '%s'", s)
	}
	group := func(name string) string {
		return m[versionPattern.SubexpIndex(name)]
	}

	v := &Version{}

	if epoch := trimLeadingZeros(group("epoch")); epoch != "0" {
		v.Epoch = epoch
	}

	for _, seg := range strings.Split(group("release"), ".") {
		v.Release = append(v.Release, trimLeadingZeros(seg))
	}

	if label := group("pre_l"); label != "" {
		v.Pre = preReleaseSpellings[strings.ToLower(label)] + trimLeadingZeros(group("pre_n"))
	}

	if group("post") != "" {
		v.hasPost = true
		v.Post = trimLeadingZeros(group("post_n1") + group("post_n2"))
	}

	if group("dev") != "" {
		v.hasDev = true
		v.Dev = trimLeadingZeros(group("dev_n"))
	}

	if local := group("local"); local != "" {
		parts := strings.FieldsFunc(strings.ToLower(local), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})
		for i, part := range parts {
			if isDigits(part) {
				parts[i] = trimLeadingZeros(part)
			}
		}
		v.Local = strings.Join(parts, ".")
	}

	return v, nil
}

// String renders the canonical form of the version.
//
// Trailing zero release segments beyond the second are dropped, so "1.0.0"
// renders as "1.0" while "1.0" and "2" are left alone.
func (v *Version) String() string {
	var b strings.Builder

	if v.Epoch != "" {
		b.WriteString(v.Epoch)
		b.WriteByte('!')
	}

	release := v.Release
	for len(release) > 2 && release[len(release)-1] == "0" {
		release = release[:len(release)-1]
	}
	b.WriteString(strings.Join(release, "."))

	b.WriteString(v.Pre)
	if v.hasPost {
		b.WriteString(".post")
		b.WriteString(v.Post)
	}
	if v.hasDev {
		b.WriteString(".dev")
		b.WriteString(v.Dev)
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(v.Local)
	}

	return b.String()
}

// NormalizeVersion returns the canonical form of s, logging a warning when
// s was valid but not already canonical.
func NormalizeVersion(s string, logger *slog.Logger) (string, error) {
	v, err := ParseVersion(s)
	if err != nil {
		return "", err
	}

	canonical := v.String()
	if canonical != s {
		loggerOrDefault(logger).Warn("Version is not in canonical PEP 440 form",
			"version", s, "canonical", canonical)
	}
	return canonical, nil
}

// CheckVersion validates a raw __version__ value read from filename and
// returns its canonical PEP 440 form.
//
// # Parameters
//
//   - raw: The value found in the module: nil, a Go string, or a PyValue
//     describing a non-string Python object
//   - filename: The module file, used in error messages
//   - logger: Receives the non-canonical warning (nil = slog.Default())
//
// # Returns
//
// Returns the canonical version on success. Callers must store it, never
// raw. On failure the error is a *MetadataError whose Kind is:
//   - ErrNoVersion for nil, "" and other falsy values
//   - ErrInvalidVersion for non-strings and strings that are not PEP 440
//
// # Example
//
//	version, err := pybuild.CheckVersion("1.0.0", "src/pkg/__init__.py", nil)
//	// version == "1.0", and a warning was logged
//
//	_, err = pybuild.CheckVersion(nil, "src/pkg/__init__.py", nil)
//	if errors.Is(err, pybuild.ErrNoVersion) {
//	    // ask the user to define __version__
//	}
func CheckVersion(raw any, filename string, logger *slog.Logger) (string, error) {
	if isFalsy(raw) {
		return "", noVersionError(filename)
	}

	s, ok := raw.(string)
	if !ok {
		return "", invalidVersionError(filename,
			"__version__ must be a string, not %s, in module '%s'.", pyTypeName(raw), filename)
	}

	canonical, err := NormalizeVersion(s, logger)
	if err != nil {
		return "", invalidVersionError(filename,
			"Invalid __version__ in module '%s': %v", filename, err)
	}
	return canonical, nil
}

// isFalsy follows Python truthiness for the values CheckVersion receives.
func isFalsy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case PyValue:
		return !v.Truthy
	case *PyValue:
		return v == nil || !v.Truthy
	}
	return reflect.ValueOf(raw).IsZero()
}

func pyTypeName(raw any) string {
	switch v := raw.(type) {
	case PyValue:
		return v.Type
	case *PyValue:
		return v.Type
	}
	return fmt.Sprintf("%T", raw)
}

func trimLeadingZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
