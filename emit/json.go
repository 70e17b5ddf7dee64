package emit

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/c360studio/exorules/rules"
)

// JSONEmitter writes the compiled catalog as canonical JSON. Unconstrained
// fields are omitted exactly as the source emitters omit their calls.
type JSONEmitter struct{}

type jsonDoc struct {
	Generator string        `json:"generator"`
	Species   []jsonSpecies `json:"species"`
}

type jsonSpecies struct {
	Key     string     `json:"key"`
	Genus   string     `json:"genus"`
	Species string     `json:"species"`
	Value   int64      `json:"value"`
	Rules   []jsonRule `json:"rules"`
}

type jsonRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type jsonComponent struct {
	Gas     string  `json:"gas"`
	Percent float64 `json:"percent"`
}

type jsonRule struct {
	Gravity              *jsonRange      `json:"gravity,omitempty"`
	Temperature          *jsonRange      `json:"temperature,omitempty"`
	Pressure             *jsonRange      `json:"pressure,omitempty"`
	AtmosphereRequired   bool            `json:"atmosphere_required,omitempty"`
	Atmospheres          []string        `json:"atmospheres,omitempty"`
	PlanetTypes          []string        `json:"planet_types,omitempty"`
	AtmosphereComponents []jsonComponent `json:"atmosphere_components,omitempty"`
	Bodies               []string        `json:"bodies,omitempty"`
	MaxOrbitalPeriod     *float64        `json:"max_orbital_period,omitempty"`
	Distance             *float64        `json:"distance,omitempty"`
	Guardian             *bool           `json:"guardian,omitempty"`
	Nebula               *string         `json:"nebula,omitempty"`
	ParentStars          []string        `json:"parent_stars,omitempty"`
	Regions              []string        `json:"regions,omitempty"`
	Stars                []string        `json:"stars,omitempty"`
	Tubers               []string        `json:"tubers,omitempty"`
	Volcanism            string          `json:"volcanism,omitempty"`
	VolcanismAnyOf       []string        `json:"volcanism_any_of,omitempty"`
}

// Emit implements Emitter.
func (e *JSONEmitter) Emit(u *Unit) ([]byte, error) {
	doc := jsonDoc{Generator: "exorules", Species: make([]jsonSpecies, 0, len(u.Species))}
	for _, sp := range u.Species {
		js := jsonSpecies{
			Key:     sp.Key.String(),
			Genus:   sp.Key.Genus,
			Species: sp.Key.Species,
			Value:   sp.Value,
			Rules:   make([]jsonRule, 0, len(sp.Rules)),
		}
		for _, c := range sp.Rules {
			js.Rules = append(js.Rules, toJSONRule(c))
		}
		doc.Species = append(doc.Species, js)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize catalog: %w", err)
	}
	return append(out, '\n'), nil
}

func toJSONRule(c rules.Constraint) jsonRule {
	r := jsonRule{
		Gravity:            toJSONRange(c.Gravity),
		Temperature:        toJSONRange(c.Temperature),
		Pressure:           toJSONRange(c.Pressure),
		AtmosphereRequired: c.AtmosphereRequired,
		Bodies:             c.Bodies,
		MaxOrbitalPeriod:   c.MaxOrbitalPeriod,
		Distance:           c.Distance,
		Guardian:           c.Guardian,
		Nebula:             c.Nebula,
		ParentStars:        c.ParentStars,
		Regions:            c.Regions,
		Stars:              c.Stars,
		Tubers:             c.Tubers,
		VolcanismAnyOf:     c.VolcanismAllowed,
	}
	for _, a := range c.Atmospheres {
		r.Atmospheres = append(r.Atmospheres, a.String())
	}
	for _, b := range c.BodyTypes {
		r.PlanetTypes = append(r.PlanetTypes, b.String())
	}
	for _, comp := range c.AtmosphereComponents {
		r.AtmosphereComponents = append(r.AtmosphereComponents, jsonComponent{Gas: comp.Gas, Percent: comp.Percent})
	}
	if c.Volcanism != rules.VolcanismAny && len(c.VolcanismAllowed) == 0 {
		r.Volcanism = c.Volcanism.String()
	}
	return r
}

func toJSONRange(r *rules.Range) *jsonRange {
	if r == nil {
		return nil
	}
	return &jsonRange{Min: r.Min, Max: r.Max}
}
