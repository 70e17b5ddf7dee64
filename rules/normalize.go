package rules

import (
	"fmt"
	"math"
)

// Open bounds synthesized when a range gives only one side.
const (
	UnboundedMin = 0.0
	UnboundedMax = math.MaxFloat64
)

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Constraint is the canonical form of one rule. Nil and empty fields are
// unconstrained and are not emitted.
type Constraint struct {
	Gravity     *Range
	Temperature *Range
	Pressure    *Range

	// AtmosphereRequired is set by the "Any" spelling: some atmosphere must
	// exist but its kind is free.
	AtmosphereRequired bool
	Atmospheres        []Atmosphere
	BodyTypes          []BodyType

	AtmosphereComponents []Component
	Bodies               []string
	MaxOrbitalPeriod     *float64
	Distance             *float64
	Guardian             *bool
	Nebula               *string
	ParentStars          []string
	Regions              []string
	Stars                []string
	Tubers               []string

	// Volcanism is the coarse requirement; VolcanismAllowed, when non-empty,
	// replaces it with an explicit allow-list of volcanism kinds.
	Volcanism        Volcanism
	VolcanismAllowed []string
}

// Normalize resolves a decoded record into its Constraint. Vocabulary
// misses fail with ErrUnmappedEnum.
func Normalize(rec *RuleRecord) (Constraint, error) {
	c := Constraint{
		Gravity:          pairRange(rec.MinGravity, rec.MaxGravity),
		Temperature:      pairRange(rec.MinTemperature, rec.MaxTemperature),
		Pressure:         pairRange(rec.MinPressure, rec.MaxPressure),
		MaxOrbitalPeriod: rec.MaxOrbitalPeriod,
		Distance:         rec.Distance,
		Guardian:         rec.Guardian,
		Nebula:           rec.Nebula,
		Bodies:           rec.Bodies,
		ParentStars:      rec.ParentStar,
		Stars:            rec.Star,
		Tubers:           rec.Tuber,
		Regions:          unionRegions(rec.Regions, rec.Region),
	}

	seenAtmo := make(map[Atmosphere]bool)
	for _, s := range rec.Atmosphere.Values {
		if s == AtmosphereAny {
			c.AtmosphereRequired = true
			continue
		}
		a, ok := ParseAtmosphere(s)
		if !ok {
			return Constraint{}, &Error{Kind: ErrUnmappedEnum, Rule: -1, Field: FieldAtmosphere, Value: fmt.Sprintf("%q", s)}
		}
		if !seenAtmo[a] {
			seenAtmo[a] = true
			c.Atmospheres = append(c.Atmospheres, a)
		}
	}

	seenBody := make(map[BodyType]bool)
	for _, s := range rec.BodyType.Values {
		b, ok := ParseBodyType(s)
		if !ok {
			return Constraint{}, &Error{Kind: ErrUnmappedEnum, Rule: -1, Field: FieldBodyType, Value: fmt.Sprintf("%q", s)}
		}
		if !seenBody[b] {
			seenBody[b] = true
			c.BodyTypes = append(c.BodyTypes, b)
		}
	}

	c.AtmosphereComponents = dedupeComponents(rec.AtmosphereComponent)
	c.Volcanism, c.VolcanismAllowed = volcanism(rec.Volcanism)
	return c, nil
}

// pairRange returns nil when neither bound is given and fills a missing
// bound with its open sentinel otherwise.
func pairRange(lo, hi *float64) *Range {
	if lo == nil && hi == nil {
		return nil
	}
	r := &Range{Min: UnboundedMin, Max: UnboundedMax}
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	return r
}

// unionRegions appends the singular region after the plural list and drops
// duplicates, keeping first occurrences.
func unionRegions(regions []string, region *string) []string {
	all := regions
	if region != nil {
		all = append(append([]string(nil), regions...), *region)
	}
	if len(all) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, r := range all {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func dedupeComponents(in []Component) []Component {
	if len(in) == 0 {
		return nil
	}
	idx := make(map[string]int, len(in))
	out := make([]Component, 0, len(in))
	for _, c := range in {
		if i, ok := idx[c.Gas]; ok {
			out[i].Percent = c.Percent
			continue
		}
		idx[c.Gas] = len(out)
		out = append(out, c)
	}
	return out
}

// volcanism collapses the field. A sequence is an allow-list unless it is
// exactly {"None"}; a scalar collapses to NO_VOLCANISM or VOLCANIC_ONLY.
func volcanism(s Strings) (Volcanism, []string) {
	if len(s.Values) == 0 {
		return VolcanismAny, nil
	}

	onlyNone := true
	for _, v := range s.Values {
		if v != volcanismNone {
			onlyNone = false
			break
		}
	}
	if onlyNone {
		return VolcanismNone, nil
	}
	if s.Shape == ShapeSequence {
		return VolcanismAny, s.Values
	}
	return VolcanismOnly, nil
}
