// Package catalog loads species rule catalogs from a directory of
// rule-definition files.
//
// Each file is handed to the SourceParser registered for its extension,
// which extracts the literal `catalog` binding without executing anything.
// The literal is checked for the expected shape
//
//	mapping<group, mapping<species key, {name, value, rulesets}>>
//
// and accumulated into one SpeciesEntry per (genus, species). A species that
// appears in several files gets the concatenation of their rulesets, in file
// order then declaration order.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

// Definition is one raw species definition as declared in a file.
type Definition struct {
	File     string
	Line     int
	Group    string
	Key      string
	Name     string
	Value    int64
	Rulesets []literal.Value
}

// FileInfo summarizes one loaded file.
type FileInfo struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Parser  string `json:"parser"`
	Species int    `json:"species"`
	Rules   int    `json:"rules"`
}

// Catalog is the accumulated result of loading a directory.
type Catalog struct {
	Files       []FileInfo
	Definitions []Definition

	entries map[rules.Key]*rules.SpeciesEntry
	order   []rules.Key
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[rules.Key]*rules.SpeciesEntry)}
}

// Entries returns the accumulated species in (genus, species) order.
func (c *Catalog) Entries() []*rules.SpeciesEntry {
	keys := make([]rules.Key, len(c.order))
	copy(keys, c.order)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]*rules.SpeciesEntry, len(keys))
	for i, k := range keys {
		out[i] = c.entries[k]
	}
	return out
}

// Entry returns the accumulated entry for a species.
func (c *Catalog) Entry(k rules.Key) (*rules.SpeciesEntry, bool) {
	e, ok := c.entries[k]
	return e, ok
}

// Len returns the number of distinct species.
func (c *Catalog) Len() int {
	return len(c.order)
}

// RuleCount returns the total number of rules across all species.
func (c *Catalog) RuleCount() int {
	n := 0
	for _, e := range c.entries {
		n += len(e.Rules)
	}
	return n
}

// ParseDefinitions checks the shape of an extracted catalog literal and
// flattens it into definitions, in declaration order.
func ParseDefinitions(file string, cat literal.Value) ([]Definition, error) {
	if cat.Kind != literal.KindMap {
		return nil, malformed(file, cat.Pos.Line, "", fmt.Errorf("catalog must be a mapping, got %s", cat.Kind))
	}

	var defs []Definition
	for _, group := range cat.Entries {
		if group.Value.Kind != literal.KindMap {
			return nil, malformed(file, group.Value.Pos.Line, "",
				fmt.Errorf("group %s must be a mapping, got %s", group.Key.Repr(), group.Value.Kind))
		}
		for _, sp := range group.Value.Entries {
			def, err := parseDefinition(file, group.Key.Text(), sp)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func parseDefinition(file, group string, sp literal.Entry) (Definition, error) {
	v := sp.Value
	ident := group + "/" + sp.Key.Text()
	if v.Kind != literal.KindMap {
		return Definition{}, malformed(file, v.Pos.Line, ident, fmt.Errorf("species definition must be a mapping, got %s", v.Kind))
	}

	def := Definition{File: file, Line: v.Pos.Line, Group: group, Key: sp.Key.Text()}

	name, ok := v.Get("name")
	if !ok || name.IsNone() {
		return Definition{}, &rules.Error{Kind: rules.ErrMissingField, File: file, Line: v.Pos.Line, Species: ident, Rule: -1, Field: "name"}
	}
	if name.Kind != literal.KindString || rules.ParseName(name.Str).Genus == "" {
		return Definition{}, &rules.Error{Kind: rules.ErrInvalidValue, File: file, Line: name.Pos.Line, Species: ident, Rule: -1, Field: "name", Value: name.Repr()}
	}
	def.Name = name.Str

	value, ok := v.Get("value")
	if !ok || value.IsNone() {
		return Definition{}, &rules.Error{Kind: rules.ErrMissingField, File: file, Line: v.Pos.Line, Species: def.Name, Rule: -1, Field: "value"}
	}
	if value.Kind != literal.KindInt {
		return Definition{}, &rules.Error{Kind: rules.ErrInvalidValue, File: file, Line: value.Pos.Line, Species: def.Name, Rule: -1, Field: "value", Value: value.Repr()}
	}
	def.Value = value.Int

	rs, ok := v.Get("rulesets")
	switch {
	case !ok || rs.IsNone():
	case rs.IsSequence():
		def.Rulesets = rs.Items
	default:
		return Definition{}, &rules.Error{Kind: rules.ErrInvalidValue, File: file, Line: rs.Pos.Line, Species: def.Name, Rule: -1, Field: "rulesets", Value: rs.Kind.String()}
	}
	return def, nil
}

// add accumulates definitions into species entries. The first value seen
// for a species wins; the returned keys are species whose later value
// disagreed.
func (c *Catalog) add(defs []Definition) []rules.Key {
	var conflicts []rules.Key
	for _, d := range defs {
		c.Definitions = append(c.Definitions, d)

		key := rules.ParseName(d.Name)
		entry, ok := c.entries[key]
		if !ok {
			entry = &rules.SpeciesEntry{Key: key, Value: d.Value}
			c.entries[key] = entry
			c.order = append(c.order, key)
		} else if entry.Value != d.Value {
			conflicts = append(conflicts, key)
		}
		for _, r := range d.Rulesets {
			entry.Rules = append(entry.Rules, rules.RawRule{File: d.File, Record: r})
		}
	}
	return conflicts
}

func malformed(file string, line int, species string, err error) error {
	return &rules.Error{Kind: rules.ErrMalformedLiteral, File: file, Line: line, Species: species, Rule: -1, Err: err}
}

// ComputeHash returns a short content hash used for change detection.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}
