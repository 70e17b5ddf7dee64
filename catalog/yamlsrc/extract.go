// Package yamlsrc extracts the `catalog` key from YAML and JSON rule files.
package yamlsrc

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/exorules/catalog"
	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

// BindingName is the top-level key the extractor looks for.
const BindingName = "catalog"

func init() {
	catalog.DefaultRegistry.Register("yaml", []string{".yaml", ".yml", ".json"},
		func() catalog.SourceParser {
			return &Extractor{}
		})
}

// Extractor reads a YAML (or JSON) document whose top level is a mapping
// with a `catalog` key. Anchors and aliases are resolved; custom tags are
// rejected.
type Extractor struct{}

// Extract implements catalog.SourceParser.
func (e *Extractor) Extract(_ context.Context, path string, content []byte) (literal.Value, bool, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return literal.Value{}, false, &rules.Error{Kind: rules.ErrMalformedLiteral, File: path, Rule: -1, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return literal.Value{}, false, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return literal.Value{}, false, nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != BindingName {
			continue
		}
		c := converter{path: path}
		v, err := c.convert(root.Content[i+1], 0)
		if err != nil {
			return literal.Value{}, false, err
		}
		return v, true, nil
	}
	return literal.Value{}, false, nil
}

// maxDepth bounds alias expansion.
const maxDepth = 64

type converter struct {
	path string
}

func (c *converter) convert(n *yaml.Node, depth int) (literal.Value, error) {
	if depth > maxDepth {
		return literal.Value{}, c.malformed(n, fmt.Errorf("nesting deeper than %d", maxDepth))
	}
	v, err := c.convertNode(n, depth)
	if err != nil {
		return literal.Value{}, err
	}
	v.Pos = literal.Position{Line: n.Line, Column: n.Column}
	return v, nil
}

func (c *converter) convertNode(n *yaml.Node, depth int) (literal.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return c.convertNode(n.Alias, depth+1)

	case yaml.MappingNode:
		m := literal.Value{Kind: literal.KindMap}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := c.convert(n.Content[i], depth+1)
			if err != nil {
				return literal.Value{}, err
			}
			if k.Kind == literal.KindList || k.Kind == literal.KindMap {
				return literal.Value{}, c.malformed(n.Content[i], fmt.Errorf("mapping key must be a scalar"))
			}
			v, err := c.convert(n.Content[i+1], depth+1)
			if err != nil {
				return literal.Value{}, err
			}
			m.Set(k, v)
		}
		return m, nil

	case yaml.SequenceNode:
		out := literal.Value{Kind: literal.KindList}
		for _, item := range n.Content {
			v, err := c.convert(item, depth+1)
			if err != nil {
				return literal.Value{}, err
			}
			out.Items = append(out.Items, v)
		}
		return out, nil

	case yaml.ScalarNode:
		return c.scalar(n)
	}
	return literal.Value{}, c.malformed(n, fmt.Errorf("unexpected node kind %d", n.Kind))
}

func (c *converter) scalar(n *yaml.Node) (literal.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return literal.None(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return literal.Value{}, c.malformed(n, err)
		}
		return literal.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			var i64 int64
			if derr := n.Decode(&i64); derr != nil {
				return literal.Value{}, c.malformed(n, err)
			}
			i = i64
		}
		return literal.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return literal.Value{}, c.malformed(n, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return literal.Value{}, c.malformed(n, fmt.Errorf("non-finite float %s", n.Value))
		}
		return literal.Float(f), nil
	case "!!str", "!!binary", "!!timestamp":
		return literal.String(n.Value), nil
	}
	return literal.Value{}, c.malformed(n, fmt.Errorf("unsupported tag %s", n.Tag))
}

func (c *converter) malformed(n *yaml.Node, err error) error {
	return &rules.Error{Kind: rules.ErrMalformedLiteral, File: c.path, Line: n.Line, Rule: -1, Err: err}
}
