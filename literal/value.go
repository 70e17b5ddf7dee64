// Package literal models the static data extracted from rule-definition files.
//
// A Value is a closed tree of scalars (none, bool, int, float, string) and
// containers (list, tuple, map). Maps keep insertion order so that anything
// derived from them stays deterministic.
package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a literal value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindTuple
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Position locates a value in its source file (1-based line).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Value is one node of a literal data tree.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Items   []Value
	Entries []Entry
	Pos     Position
}

// Entry is one key/value pair of a map value.
type Entry struct {
	Key   Value
	Value Value
}

func None() Value { return Value{Kind: KindNone} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func List(items ...Value) Value { return Value{Kind: KindList, Items: items} }
func Tuple(items ...Value) Value { return Value{Kind: KindTuple, Items: items} }

// Map builds a map value from alternating key/value arguments.
// It panics on an odd argument count; it is meant for tests and fixtures.
func Map(kv ...Value) Value {
	if len(kv)%2 != 0 {
		panic("literal.Map: odd number of arguments")
	}
	m := Value{Kind: KindMap}
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set inserts or replaces the entry for key. A replaced entry keeps its
// original position, matching dict-literal semantics of the source files.
func (v *Value) Set(key, val Value) {
	for i := range v.Entries {
		if v.Entries[i].Key.Equal(key) {
			v.Entries[i].Value = val
			return
		}
	}
	v.Entries = append(v.Entries, Entry{Key: key, Value: val})
}

// Get returns the value stored under a string key.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.Entries {
		if e.Key.Kind == KindString && e.Key.Str == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// IsNone reports whether v is the none literal.
func (v Value) IsNone() bool { return v.Kind == KindNone }

// IsSequence reports whether v is a list or tuple.
func (v Value) IsSequence() bool { return v.Kind == KindList || v.Kind == KindTuple }

// IsNumber reports whether v is an int or float. Bools are not numbers here.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Number returns the numeric value of an int or float literal.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	}
	return 0, false
}

// Truthy mirrors the truthiness rules of the rule-definition language:
// none, false, zero, and empty strings or containers are falsy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindList, KindTuple:
		return len(v.Items) > 0
	case KindMap:
		return len(v.Entries) > 0
	}
	return false
}

// Equal reports deep equality. Ints and floats with the same numeric value
// compare equal, as they do as dict keys in the source language.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		a, _ := v.Number()
		b, _ := o.Number()
		return a == b
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNone:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindString:
		return v.Str == o.Str
	case KindList, KindTuple:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Entries) != len(o.Entries) {
			return false
		}
		for i := range v.Entries {
			if !v.Entries[i].Key.Equal(o.Entries[i].Key) || !v.Entries[i].Value.Equal(o.Entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Text renders v the way str() does in the rule-definition language.
// Strings render bare; containers render in repr form.
func (v Value) Text() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.Repr()
}

// Repr renders v in source-literal form.
func (v Value) Repr() string {
	switch v.Kind {
	case KindNone:
		return "None"
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return FormatFloat(v.Float)
	case KindString:
		return quote(v.Str)
	case KindList, KindTuple:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.Repr()
		}
		if v.Kind == KindList {
			return "[" + strings.Join(parts, ", ") + "]"
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindMap:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = e.Key.Repr() + ": " + e.Value.Repr()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// FormatFloat renders f in the shortest form that round-trips, always
// marking it as a float: 1 becomes "1.0", 1e16 becomes "1e+16".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
