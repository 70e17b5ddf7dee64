// Package exobio is the runtime data model that generated constraint
// registration code builds against.
//
// Generated code calls NewSpeciesConstraint once per species and
// NewRule()...Build() once per rule, then registers the container under its
// Key. Each Rule is one sufficient set of conditions; a species is possible
// on a body when any of its rules holds. Evaluating rules against bodies is
// left to the consumer.
package exobio

import (
	"fmt"
	"math"
)

// Atmosphere is an atmosphere kind.
type Atmosphere int

const (
	AtmosphereNone Atmosphere = iota + 1
	AtmosphereCO2
	AtmosphereCO2Rich
	AtmosphereMethane
	AtmosphereMethaneRich
	AtmosphereNitrogen
	AtmosphereNitrogenRich
	AtmosphereOxygen
	AtmosphereOxygenRich
	AtmosphereNeon
	AtmosphereNeonRich
	AtmosphereArgon
	AtmosphereArgonRich
	AtmosphereWater
	AtmosphereWaterRich
	AtmosphereSulphurDioxide
	AtmosphereSulphurDioxideRich
	AtmosphereHelium
	AtmosphereAmmonia
	AtmosphereAmmoniaRich
)

// PlanetType is a planet body kind.
type PlanetType int

const (
	PlanetRocky PlanetType = iota + 1
	PlanetHighMetal
	PlanetMetalRich
	PlanetRockyIce
	PlanetIcy
)

// VolcanismRequirement is the coarse volcanism condition of a rule.
type VolcanismRequirement int

const (
	VolcanismAny VolcanismRequirement = iota
	NoVolcanism
	VolcanicOnly
)

func (v VolcanismRequirement) String() string {
	switch v {
	case NoVolcanism:
		return "NO_VOLCANISM"
	case VolcanicOnly:
		return "VOLCANIC_ONLY"
	default:
		return "ANY"
	}
}

// Unbounded is the upper bound used when a range only gives a minimum.
const Unbounded = math.MaxFloat64

// Range is a closed interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Rule is one compiled rule. Nil and empty fields are unconstrained.
type Rule struct {
	Gravity     *Range
	Temperature *Range
	Pressure    *Range

	AtmosphereRequired bool
	Atmospheres        []Atmosphere
	PlanetTypes        []PlanetType

	AtmosphereComponents map[string]float64
	Bodies               []string
	MaxOrbitalPeriod     *float64
	Distance             *float64
	Guardian             *bool
	Nebula               *string
	ParentStars          []string
	Regions              []string
	Stars                []string
	Tubers               []string

	Volcanism      VolcanismRequirement
	VolcanismAnyOf []string
}

// RuleBuilder assembles a Rule.
type RuleBuilder struct {
	rule Rule
}

// NewRule starts an unconstrained rule.
func NewRule() *RuleBuilder {
	return &RuleBuilder{}
}

func (b *RuleBuilder) Gravity(min, max float64) *RuleBuilder {
	b.rule.Gravity = &Range{Min: min, Max: max}
	return b
}

func (b *RuleBuilder) Temperature(min, max float64) *RuleBuilder {
	b.rule.Temperature = &Range{Min: min, Max: max}
	return b
}

func (b *RuleBuilder) Pressure(min, max float64) *RuleBuilder {
	b.rule.Pressure = &Range{Min: min, Max: max}
	return b
}

// RequireAtmosphere marks that some atmosphere must be present, of any kind.
func (b *RuleBuilder) RequireAtmosphere() *RuleBuilder {
	b.rule.AtmosphereRequired = true
	return b
}

func (b *RuleBuilder) Atmospheres(kinds ...Atmosphere) *RuleBuilder {
	b.rule.Atmospheres = append(b.rule.Atmospheres, kinds...)
	return b
}

func (b *RuleBuilder) PlanetTypes(kinds ...PlanetType) *RuleBuilder {
	b.rule.PlanetTypes = append(b.rule.PlanetTypes, kinds...)
	return b
}

// AtmosphereComponents sets minimum gas percentages by gas name.
func (b *RuleBuilder) AtmosphereComponents(m map[string]float64) *RuleBuilder {
	if b.rule.AtmosphereComponents == nil {
		b.rule.AtmosphereComponents = make(map[string]float64, len(m))
	}
	for gas, pct := range m {
		b.rule.AtmosphereComponents[gas] = pct
	}
	return b
}

func (b *RuleBuilder) Bodies(names ...string) *RuleBuilder {
	b.rule.Bodies = append(b.rule.Bodies, names...)
	return b
}

func (b *RuleBuilder) MaxOrbitalPeriod(v float64) *RuleBuilder {
	b.rule.MaxOrbitalPeriod = &v
	return b
}

func (b *RuleBuilder) Distance(v float64) *RuleBuilder {
	b.rule.Distance = &v
	return b
}

func (b *RuleBuilder) Guardian(v bool) *RuleBuilder {
	b.rule.Guardian = &v
	return b
}

func (b *RuleBuilder) Nebula(v string) *RuleBuilder {
	b.rule.Nebula = &v
	return b
}

func (b *RuleBuilder) ParentStars(stars ...string) *RuleBuilder {
	b.rule.ParentStars = append(b.rule.ParentStars, stars...)
	return b
}

func (b *RuleBuilder) Regions(regions ...string) *RuleBuilder {
	b.rule.Regions = append(b.rule.Regions, regions...)
	return b
}

func (b *RuleBuilder) Stars(stars ...string) *RuleBuilder {
	b.rule.Stars = append(b.rule.Stars, stars...)
	return b
}

func (b *RuleBuilder) Tubers(targets ...string) *RuleBuilder {
	b.rule.Tubers = append(b.rule.Tubers, targets...)
	return b
}

func (b *RuleBuilder) Volcanism(req VolcanismRequirement) *RuleBuilder {
	b.rule.Volcanism = req
	b.rule.VolcanismAnyOf = nil
	return b
}

// VolcanismAnyOf restricts volcanism to an explicit list of kinds. It
// replaces any coarse requirement.
func (b *RuleBuilder) VolcanismAnyOf(kinds ...string) *RuleBuilder {
	b.rule.Volcanism = VolcanismAny
	b.rule.VolcanismAnyOf = append(b.rule.VolcanismAnyOf, kinds...)
	return b
}

// Build returns the assembled rule. The builder may be reused.
func (b *RuleBuilder) Build() Rule {
	r := b.rule
	b.rule = Rule{}
	return r
}

// SpeciesConstraint holds every rule for one species.
type SpeciesConstraint struct {
	Genus   string
	Species string
	Value   int64
	Rules   []Rule
}

// NewSpeciesConstraint creates an empty container.
func NewSpeciesConstraint(genus, species string, value int64) *SpeciesConstraint {
	return &SpeciesConstraint{Genus: genus, Species: species, Value: value}
}

// AddRules appends rules in order.
func (sc *SpeciesConstraint) AddRules(rules ...Rule) {
	sc.Rules = append(sc.Rules, rules...)
}

// Key returns the registration key, "Genus Species".
func (sc *SpeciesConstraint) Key() string {
	if sc.Species == "" {
		return sc.Genus
	}
	return fmt.Sprintf("%s %s", sc.Genus, sc.Species)
}
