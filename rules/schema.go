// Package rules validates and normalizes habitability rule records.
//
// A rule record arrives as an untyped literal map. Decode checks it against
// the closed field schema and lifts every recognized field into a typed slot
// of RuleRecord; Normalize then resolves vocabularies and defaults into a
// Constraint that emitters can render without further interpretation.
package rules

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/c360studio/exorules/literal"
)

// Recognized rule fields.
const (
	FieldMinGravity          = "min_gravity"
	FieldMaxGravity          = "max_gravity"
	FieldMinTemperature      = "min_temperature"
	FieldMaxTemperature      = "max_temperature"
	FieldMinPressure         = "min_pressure"
	FieldMaxPressure         = "max_pressure"
	FieldAtmosphere          = "atmosphere"
	FieldBodyType            = "body_type"
	FieldAtmosphereComponent = "atmosphere_component"
	FieldBodies              = "bodies"
	FieldMaxOrbitalPeriod    = "max_orbital_period"
	FieldDistance            = "distance"
	FieldGuardian            = "guardian"
	FieldNebula              = "nebula"
	FieldParentStar          = "parent_star"
	FieldRegions             = "regions"
	FieldRegion              = "region"
	FieldStar                = "star"
	FieldTuber               = "tuber"
	FieldVolcanism           = "volcanism"
)

// Shape records how a scalar-or-sequence field was written.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeScalar
	ShapeSequence
)

// Strings is a field that may be written as one string or a sequence of
// strings. Values always holds the canonical sequence form.
type Strings struct {
	Shape  Shape
	Values []string
}

// Present reports whether the field was given a non-empty value.
func (s Strings) Present() bool {
	return s.Shape != ShapeAbsent
}

// Component is one gas of an atmosphere_component mapping.
type Component struct {
	Gas     string
	Percent float64
}

// RuleRecord is one rule with every recognized field in a typed slot.
// Nil pointers and absent Strings mean the field was not given.
type RuleRecord struct {
	MinGravity     *float64
	MaxGravity     *float64
	MinTemperature *float64
	MaxTemperature *float64
	MinPressure    *float64
	MaxPressure    *float64

	Atmosphere          Strings
	BodyType            Strings
	AtmosphereComponent []Component
	Bodies              []string
	MaxOrbitalPeriod    *float64
	Distance            *float64
	Guardian            *bool
	Nebula              *string
	ParentStar          []string
	Regions             []string
	Region              *string
	Star                []string
	Tuber               []string
	Volcanism           Strings
}

type fieldDecoder func(r *RuleRecord, v literal.Value) error

var decoders = map[string]fieldDecoder{
	FieldMinGravity:     numberInto(func(r *RuleRecord) **float64 { return &r.MinGravity }),
	FieldMaxGravity:     numberInto(func(r *RuleRecord) **float64 { return &r.MaxGravity }),
	FieldMinTemperature: numberInto(func(r *RuleRecord) **float64 { return &r.MinTemperature }),
	FieldMaxTemperature: numberInto(func(r *RuleRecord) **float64 { return &r.MaxTemperature }),
	FieldMinPressure:    numberInto(func(r *RuleRecord) **float64 { return &r.MinPressure }),
	FieldMaxPressure:    numberInto(func(r *RuleRecord) **float64 { return &r.MaxPressure }),

	FieldMaxOrbitalPeriod: numberInto(func(r *RuleRecord) **float64 { return &r.MaxOrbitalPeriod }),
	FieldDistance:         numberInto(func(r *RuleRecord) **float64 { return &r.Distance }),

	FieldAtmosphere: func(r *RuleRecord, v literal.Value) error {
		s, err := decodeStrings(v, false)
		r.Atmosphere = s
		return err
	},
	FieldBodyType: func(r *RuleRecord, v literal.Value) error {
		s, err := decodeStrings(v, false)
		r.BodyType = s
		return err
	},
	FieldVolcanism: func(r *RuleRecord, v literal.Value) error {
		s, err := decodeStrings(v, true)
		r.Volcanism = s
		return err
	},

	FieldBodies:     stringsInto(func(r *RuleRecord) *[]string { return &r.Bodies }),
	FieldParentStar: stringsInto(func(r *RuleRecord) *[]string { return &r.ParentStar }),
	FieldTuber:      stringsInto(func(r *RuleRecord) *[]string { return &r.Tuber }),
	FieldRegions:    stringsInto(func(r *RuleRecord) *[]string { return &r.Regions }),

	FieldRegion: func(r *RuleRecord, v literal.Value) error {
		if v.IsSequence() || v.Kind == literal.KindMap {
			return fmt.Errorf("expected a scalar, got %s", v.Kind)
		}
		s := v.Text()
		r.Region = &s
		return nil
	},
	FieldNebula: func(r *RuleRecord, v literal.Value) error {
		if v.IsSequence() || v.Kind == literal.KindMap {
			return fmt.Errorf("expected a scalar, got %s", v.Kind)
		}
		s := v.Text()
		r.Nebula = &s
		return nil
	},
	FieldGuardian: func(r *RuleRecord, v literal.Value) error {
		if v.Kind != literal.KindBool {
			return fmt.Errorf("expected a bool, got %s", v.Kind)
		}
		b := v.Bool
		r.Guardian = &b
		return nil
	},
	FieldStar: func(r *RuleRecord, v literal.Value) error {
		stars, err := decodeStars(v)
		r.Star = stars
		return err
	},
	FieldAtmosphereComponent: func(r *RuleRecord, v literal.Value) error {
		comps, err := decodeComponents(v)
		r.AtmosphereComponent = comps
		return err
	},
}

// Fields returns the recognized field names in sorted order.
func Fields() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode validates a raw rule against the schema and lifts it into a
// RuleRecord. Unknown keys are reported together as ErrSchemaViolation;
// wrongly typed values fail with ErrInvalidValue. The returned *Error
// carries no file or species context; callers add it.
func Decode(raw literal.Value) (*RuleRecord, error) {
	if raw.Kind != literal.KindMap {
		return nil, &Error{Kind: ErrMalformedLiteral, Rule: -1, Line: raw.Pos.Line,
			Err: fmt.Errorf("rule must be a mapping, got %s", raw.Kind)}
	}

	var unknown []string
	for _, e := range raw.Entries {
		if e.Key.Kind == literal.KindString {
			if _, ok := decoders[e.Key.Str]; ok {
				continue
			}
		}
		unknown = append(unknown, e.Key.Text())
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &Error{Kind: ErrSchemaViolation, Rule: -1, Line: raw.Pos.Line, Keys: unknown}
	}

	rec := &RuleRecord{}
	for _, e := range raw.Entries {
		if e.Value.IsNone() {
			continue
		}
		if err := decoders[e.Key.Str](rec, e.Value); err != nil {
			return nil, &Error{
				Kind:  ErrInvalidValue,
				Rule:  -1,
				Line:  e.Value.Pos.Line,
				Field: e.Key.Str,
				Value: e.Value.Repr(),
				Err:   err,
			}
		}
	}
	return rec, nil
}

func numberInto(slot func(*RuleRecord) **float64) fieldDecoder {
	return func(r *RuleRecord, v literal.Value) error {
		f, err := decodeNumber(v)
		if err != nil {
			return err
		}
		*slot(r) = &f
		return nil
	}
}

func stringsInto(slot func(*RuleRecord) *[]string) fieldDecoder {
	return func(r *RuleRecord, v literal.Value) error {
		s, err := decodeStrings(v, false)
		if err != nil {
			return err
		}
		*slot(r) = s.Values
		return nil
	}
}

func decodeNumber(v literal.Value) (float64, error) {
	f, ok := v.Number()
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", v.Kind)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("number must be finite")
	}
	return f, nil
}

// decodeStrings lifts a scalar-or-sequence value into Strings. Falsy values
// (empty string, empty sequence) are absent. When dropNone is set, none
// elements inside a sequence are skipped rather than stringified.
func decodeStrings(v literal.Value, dropNone bool) (Strings, error) {
	switch {
	case v.Kind == literal.KindMap:
		return Strings{}, fmt.Errorf("expected a string or sequence, got %s", v.Kind)
	case !v.Truthy() && (v.Kind == literal.KindString || v.IsSequence()):
		return Strings{}, nil
	case v.IsSequence():
		out := make([]string, 0, len(v.Items))
		for _, it := range v.Items {
			if dropNone && it.IsNone() {
				continue
			}
			if it.Kind == literal.KindMap {
				return Strings{}, fmt.Errorf("sequence element must be a scalar, got %s", it.Kind)
			}
			out = append(out, it.Text())
		}
		return Strings{Shape: ShapeSequence, Values: out}, nil
	default:
		return Strings{Shape: ShapeScalar, Values: []string{v.Text()}}, nil
	}
}

// decodeStars accepts bare spectral classes and (class, luminosity) pairs.
func decodeStars(v literal.Value) ([]string, error) {
	if v.Kind == literal.KindString {
		if v.Str == "" {
			return nil, nil
		}
		return []string{v.Str}, nil
	}
	if !v.IsSequence() {
		return nil, fmt.Errorf("expected a sequence, got %s", v.Kind)
	}
	out := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		switch {
		case it.IsSequence():
			parts := make([]string, len(it.Items))
			for i, p := range it.Items {
				parts[i] = p.Text()
			}
			out = append(out, strings.Join(parts, " "))
		case it.Kind == literal.KindMap:
			return nil, fmt.Errorf("star entry must be a string or pair, got %s", it.Kind)
		default:
			out = append(out, it.Text())
		}
	}
	return out, nil
}

func decodeComponents(v literal.Value) ([]Component, error) {
	if v.Kind != literal.KindMap {
		return nil, fmt.Errorf("expected a mapping, got %s", v.Kind)
	}
	out := make([]Component, 0, len(v.Entries))
	for _, e := range v.Entries {
		pct, err := decodeNumber(e.Value)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", e.Key.Text(), err)
		}
		out = append(out, Component{Gas: e.Key.Text(), Percent: pct})
	}
	return out, nil
}
