package rules

import (
	"errors"
	"sort"
	"strings"

	"github.com/c360studio/exorules/literal"
)

// Key identifies a species: genus is the first word of the display name,
// species the remainder.
type Key struct {
	Genus   string
	Species string
}

// ParseName splits a display name such as "Tubus Conifer" into its Key.
func ParseName(name string) Key {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return Key{}
	}
	return Key{Genus: fields[0], Species: strings.Join(fields[1:], " ")}
}

// String returns the canonical compound key, "Genus Species".
func (k Key) String() string {
	if k.Species == "" {
		return k.Genus
	}
	return k.Genus + " " + k.Species
}

// Less orders keys by genus, then species.
func (k Key) Less(o Key) bool {
	if k.Genus != o.Genus {
		return k.Genus < o.Genus
	}
	return k.Species < o.Species
}

// RawRule is one undecoded rule together with the file it came from.
type RawRule struct {
	File   string
	Record literal.Value
}

// SpeciesEntry accumulates every rule declared for one species across the
// whole catalog. Rules are disjunctive alternatives.
type SpeciesEntry struct {
	Key   Key
	Value int64
	Rules []RawRule
}

// CompiledSpecies is a species with all of its rules normalized.
type CompiledSpecies struct {
	Key   Key
	Value int64
	Rules []Constraint
}

// CompileSpecies decodes and normalizes every rule of one entry, stopping
// at the first failure.
func CompileSpecies(entry *SpeciesEntry) (CompiledSpecies, error) {
	out := CompiledSpecies{
		Key:   entry.Key,
		Value: entry.Value,
		Rules: make([]Constraint, 0, len(entry.Rules)),
	}
	for i, raw := range entry.Rules {
		rec, err := Decode(raw.Record)
		if err != nil {
			return CompiledSpecies{}, withContext(err, raw.File, entry.Key, i)
		}
		c, err := Normalize(rec)
		if err != nil {
			if raw.Record.Pos.Line > 0 {
				var ce *Error
				if errors.As(err, &ce) && ce.Line == 0 {
					ce.Line = raw.Record.Pos.Line
				}
			}
			return CompiledSpecies{}, withContext(err, raw.File, entry.Key, i)
		}
		out.Rules = append(out.Rules, c)
	}
	return out, nil
}

// Compile compiles entries in (genus, species) order. The input slice is
// not modified.
func Compile(entries []*SpeciesEntry) ([]CompiledSpecies, error) {
	sorted := make([]*SpeciesEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Less(sorted[j].Key) })

	out := make([]CompiledSpecies, 0, len(sorted))
	for _, e := range sorted {
		cs, err := CompileSpecies(e)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func withContext(err error, file string, key Key, rule int) error {
	var ce *Error
	if errors.As(err, &ce) {
		if ce.File == "" {
			ce.File = file
		}
		ce.Species = key.String()
		ce.Rule = rule
		return ce
	}
	return &Error{Kind: ErrInvalidValue, File: file, Species: key.String(), Rule: rule, Err: err}
}
