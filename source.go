package pybuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const versionVariable = "__version__"

// SourceInfo is what static analysis found in a module. Empty strings mean
// "not found"; an empty docstring or version is treated the same as a
// missing one by the extractor.
type SourceInfo struct {
	Docstring string
	Version   string
}

// DocstringAndVersionFromSource parses the module at path without executing
// it and returns its docstring and the value of the first top-level simple
// string assignment to __version__.
//
// Only assignments of the form `__version__ = "literal"` count, including
// chained targets (`a = __version__ = "1.0"`) and implicitly concatenated or
// parenthesized literals. Computed values and annotated or augmented
// assignments are ignored.
//
// Read failures are returned as errors. Sources that cannot be decoded, or
// that contain any syntax error, yield an empty SourceInfo and a nil error
// so the caller falls back to executing the module, which reports the
// error properly.
func DocstringAndVersionFromSource(ctx context.Context, path string, logger *slog.Logger) (*SourceInfo, error) {
	logger = loggerOrDefault(logger)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", path, err)
	}

	src, err := decodeSource(raw)
	if err != nil {
		logger.Debug("Cannot decode module source", "file", path, "error", err)
		return &SourceInfo{}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		logger.Debug("Cannot parse module source", "file", path, "error", err)
		return &SourceInfo{}, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		logger.Debug("Module source contains syntax errors", "file", path)
		return &SourceInfo{}, nil
	}

	info := &SourceInfo{}
	first := true
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}

		if first {
			first = false
			if doc, ok := docstringOf(stmt, src); ok {
				info.Docstring = cleanDocstring(doc)
				continue
			}
		}

		if version, ok := versionAssignment(stmt, src); ok {
			info.Version = version
			break
		}
	}

	return info, nil
}

// docstringOf returns the string constant of a bare string expression
// statement.
func docstringOf(stmt *sitter.Node, src []byte) (string, bool) {
	if stmt.Type() != "expression_statement" || stmt.HasError() || stmt.NamedChildCount() != 1 {
		return "", false
	}
	return stringValue(stmt.NamedChild(0), src)
}

// versionAssignment reports the literal assigned to __version__ by stmt.
func versionAssignment(stmt *sitter.Node, src []byte) (string, bool) {
	if stmt.Type() != "expression_statement" || stmt.HasError() || stmt.NamedChildCount() != 1 {
		return "", false
	}

	node := stmt.NamedChild(0)
	if node.Type() != "assignment" {
		return "", false
	}

	matched := false
	for node.Type() == "assignment" {
		if node.ChildByFieldName("type") != nil {
			return "", false
		}
		if left := node.ChildByFieldName("left"); left != nil &&
			left.Type() == "identifier" && left.Content(src) == versionVariable {
			matched = true
		}
		node = node.ChildByFieldName("right")
		if node == nil {
			return "", false
		}
	}

	if !matched {
		return "", false
	}
	return stringValue(node, src)
}

// stringValue evaluates string, concatenated_string and parenthesized
// string nodes.
func stringValue(node *sitter.Node, src []byte) (string, bool) {
	switch node.Type() {
	case "string":
		return parseStringLiteral(node.Content(src))

	case "concatenated_string":
		var value string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part := node.NamedChild(i)
			if part.Type() == "comment" {
				continue
			}
			s, ok := stringValue(part, src)
			if !ok {
				return "", false
			}
			value += s
		}
		return value, true

	case "parenthesized_expression":
		var inner *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			if inner != nil {
				return "", false
			}
			inner = child
		}
		if inner == nil {
			return "", false
		}
		return stringValue(inner, src)
	}

	return "", false
}
