package pybuild

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Path addresses a node in a configuration tree, outermost key first.
type Path []string

// ParsePath splits a slash-separated path such as "cross/cmake/options".
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(s, "/")
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// ConfigTree is the view of the build configuration that the quirks
// patcher and CMake argument rendering need.
type ConfigTree interface {
	// Contains reports whether a node exists at p.
	Contains(p Path) bool

	// Get returns the value at p. Subtrees are returned as map[string]any.
	Get(p Path) (any, bool)

	// SetDefault stores value at p unless a node already exists there, and
	// returns the value now at p. Missing parent tables are created.
	SetDefault(p Path, value any) any
}

// ConfigNode is a ConfigTree backed by nested map[string]any tables, the
// shape yaml.v3 decodes mappings into.
type ConfigNode struct {
	root map[string]any
}

// NewConfigNode creates an empty tree.
func NewConfigNode() *ConfigNode {
	return &ConfigNode{root: map[string]any{}}
}

// ConfigNodeFromMap wraps m without copying it.
func ConfigNodeFromMap(m map[string]any) *ConfigNode {
	if m == nil {
		m = map[string]any{}
	}
	return &ConfigNode{root: m}
}

// LoadConfigNode decodes a YAML document into a tree. An empty document
// yields an empty tree.
func LoadConfigNode(r io.Reader) (*ConfigNode, error) {
	var m map[string]any
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return ConfigNodeFromMap(m), nil
}

// WriteYAML encodes the tree as YAML.
func (c *ConfigNode) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.root); err != nil {
		return err
	}
	return enc.Close()
}

// Map returns the underlying tables.
func (c *ConfigNode) Map() map[string]any {
	return c.root
}

// Contains reports whether a node exists at p. The empty path always exists.
func (c *ConfigNode) Contains(p Path) bool {
	_, ok := c.Get(p)
	return ok
}

// Get returns the value at p.
func (c *ConfigNode) Get(p Path) (any, bool) {
	var node any = c.root
	for _, key := range p {
		table, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = table[key]; !ok {
			return nil, false
		}
	}
	return node, true
}

// SetDefault stores value at p unless a node already exists there. It
// panics if a non-table value sits on the way to p, or if p is empty.
func (c *ConfigNode) SetDefault(p Path, value any) any {
	if len(p) == 0 {
		panic("pybuild: SetDefault on the root of a configuration tree")
	}

	table := c.root
	for i, key := range p[:len(p)-1] {
		next, ok := table[key]
		if !ok {
			child := map[string]any{}
			table[key] = child
			table = child
			continue
		}
		if table, ok = next.(map[string]any); !ok {
			panic(fmt.Sprintf("pybuild: %s is not a table", p[:i+1]))
		}
	}

	last := p[len(p)-1]
	if existing, ok := table[last]; ok {
		return existing
	}
	table[last] = value
	return value
}

// stringMap returns the scalar entries of the table at p rendered as
// strings. Booleans become ON/OFF as CMake expects.
func stringMap(tree ConfigTree, p Path) map[string]string {
	value, ok := tree.Get(p)
	if !ok {
		return nil
	}
	table, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	result := make(map[string]string, len(table))
	for key, v := range table {
		switch v := v.(type) {
		case map[string]any, []any:
			continue
		case bool:
			if v {
				result[key] = "ON"
			} else {
				result[key] = "OFF"
			}
		case nil:
			result[key] = ""
		default:
			result[key] = fmt.Sprint(v)
		}
	}
	return result
}
