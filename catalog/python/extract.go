// Package python extracts the `catalog` literal from Python rule-definition
// files using tree-sitter.
//
// Only literal syntax is accepted: dicts, lists, tuples, sets, strings
// (including implicit concatenation), numbers, booleans and None, with
// unary +/- on numbers. Anything that would need evaluation, such as names,
// calls, operators, comprehensions or f-strings, is rejected as a malformed
// literal. The file itself is never run.
package python

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/exorules/catalog"
	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

// BindingName is the top-level name the extractor looks for.
const BindingName = "catalog"

func init() {
	catalog.DefaultRegistry.Register("python", []string{".py"},
		func() catalog.SourceParser {
			return NewExtractor()
		})
}

// Extractor pulls the catalog literal out of Python source.
// An Extractor is not safe for concurrent use.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates a new Python extractor.
func NewExtractor() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Extractor{parser: p}
}

// Extract finds the first top-level `catalog = ...` or `catalog: T = ...`
// statement and converts its right-hand side to a literal value.
func (e *Extractor) Extract(ctx context.Context, path string, content []byte) (literal.Value, bool, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return literal.Value{}, false, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" {
			continue
		}
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			assign := stmt.NamedChild(j)
			if assign.Type() != "assignment" {
				continue
			}
			left := assign.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" || left.Content(content) != BindingName {
				continue
			}

			right := assign.ChildByFieldName("right")
			if right == nil {
				// bare annotation: `catalog: dict`
				continue
			}
			if right.HasError() {
				return literal.Value{}, false, malformed(path, right, fmt.Errorf("syntax error in catalog value"))
			}

			c := converter{path: path, src: content}
			v, err := c.convert(right)
			if err != nil {
				return literal.Value{}, false, err
			}
			return v, true, nil
		}
	}
	return literal.Value{}, false, nil
}

type converter struct {
	path string
	src  []byte
}

func (c *converter) convert(n *sitter.Node) (literal.Value, error) {
	v, err := c.convertNode(n)
	if err != nil {
		return literal.Value{}, err
	}
	v.Pos = position(n)
	return v, nil
}

func (c *converter) convertNode(n *sitter.Node) (literal.Value, error) {
	switch n.Type() {
	case "dictionary":
		m := literal.Value{Kind: literal.KindMap}
		for _, child := range c.children(n) {
			if child.Type() != "pair" {
				return literal.Value{}, c.notLiteral(child)
			}
			k, err := c.convert(child.ChildByFieldName("key"))
			if err != nil {
				return literal.Value{}, err
			}
			if k.Kind == literal.KindList || k.Kind == literal.KindMap {
				return literal.Value{}, malformed(c.path, child, fmt.Errorf("unhashable dict key %s", k.Kind))
			}
			v, err := c.convert(child.ChildByFieldName("value"))
			if err != nil {
				return literal.Value{}, err
			}
			m.Set(k, v)
		}
		return m, nil

	case "list", "tuple", "set":
		kind := literal.KindList
		if n.Type() == "tuple" {
			kind = literal.KindTuple
		}
		out := literal.Value{Kind: kind}
		for _, child := range c.children(n) {
			v, err := c.convert(child)
			if err != nil {
				return literal.Value{}, err
			}
			out.Items = append(out.Items, v)
		}
		return out, nil

	case "parenthesized_expression":
		kids := c.children(n)
		if len(kids) != 1 {
			return literal.Value{}, c.notLiteral(n)
		}
		return c.convertNode(kids[0])

	case "string":
		s, err := c.stringValue(n)
		if err != nil {
			return literal.Value{}, err
		}
		return literal.String(s), nil

	case "concatenated_string":
		var b strings.Builder
		for _, child := range c.children(n) {
			if child.Type() != "string" {
				return literal.Value{}, c.notLiteral(child)
			}
			s, err := c.stringValue(child)
			if err != nil {
				return literal.Value{}, err
			}
			b.WriteString(s)
		}
		return literal.String(b.String()), nil

	case "integer":
		return c.integer(n, n.Content(c.src))

	case "float":
		return c.float(n, n.Content(c.src))

	case "true":
		return literal.Bool(true), nil
	case "false":
		return literal.Bool(false), nil
	case "none":
		return literal.None(), nil

	case "unary_operator":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		if op == nil || arg == nil {
			return literal.Value{}, c.notLiteral(n)
		}
		v, err := c.convertNode(arg)
		if err != nil {
			return literal.Value{}, err
		}
		if !v.IsNumber() {
			return literal.Value{}, c.notLiteral(n)
		}
		switch op.Content(c.src) {
		case "+":
			return v, nil
		case "-":
			if v.Kind == literal.KindInt {
				return literal.Int(-v.Int), nil
			}
			return literal.Float(-v.Float), nil
		}
		return literal.Value{}, c.notLiteral(n)
	}

	return literal.Value{}, c.notLiteral(n)
}

// children returns the named children of n, skipping comments.
func (c *converter) children(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) stringValue(n *sitter.Node) (string, error) {
	if hasDescendant(n, "interpolation") {
		return "", malformed(c.path, n, fmt.Errorf("f-strings are not literals"))
	}
	s, err := unquote(n.Content(c.src))
	if err != nil {
		return "", malformed(c.path, n, err)
	}
	return s, nil
}

func (c *converter) integer(n *sitter.Node, text string) (literal.Value, error) {
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		return literal.Value{}, malformed(c.path, n, fmt.Errorf("complex number %s", text))
	}
	lower := strings.ToLower(text)
	// Legacy leading-zero decimals are a syntax error; only "0", "00"... are valid.
	if len(lower) > 1 && lower[0] == '0' && lower[1] >= '0' && lower[1] <= '9' && strings.Trim(lower, "0_") != "" {
		return literal.Value{}, malformed(c.path, n, fmt.Errorf("invalid integer %s", text))
	}
	i, err := strconv.ParseInt(lower, 0, 64)
	if err != nil {
		return literal.Value{}, malformed(c.path, n, fmt.Errorf("invalid integer %s: %w", text, err))
	}
	return literal.Int(i), nil
}

func (c *converter) float(n *sitter.Node, text string) (literal.Value, error) {
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		return literal.Value{}, malformed(c.path, n, fmt.Errorf("complex number %s", text))
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return literal.Value{}, malformed(c.path, n, fmt.Errorf("invalid float %s: %w", text, err))
	}
	return literal.Float(f), nil
}

func (c *converter) notLiteral(n *sitter.Node) error {
	text := n.Content(c.src)
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return malformed(c.path, n, fmt.Errorf("%s is not a literal: %s", n.Type(), text))
}

func hasDescendant(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == typ || hasDescendant(child, typ) {
			return true
		}
	}
	return false
}

func position(n *sitter.Node) literal.Position {
	p := n.StartPoint()
	return literal.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func malformed(path string, n *sitter.Node, err error) error {
	return &rules.Error{
		Kind: rules.ErrMalformedLiteral,
		File: path,
		Line: position(n).Line,
		Rule: -1,
		Err:  err,
	}
}
