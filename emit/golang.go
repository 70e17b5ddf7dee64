package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"strconv"
	"strings"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

// runtimeName is the identifier generated Go code uses for the runtime
// package, whatever its import path.
const runtimeName = "exobio"

var goAtmospheres = map[rules.Atmosphere]string{
	rules.AtmosphereNone:               "AtmosphereNone",
	rules.AtmosphereCO2:                "AtmosphereCO2",
	rules.AtmosphereCO2Rich:            "AtmosphereCO2Rich",
	rules.AtmosphereMethane:            "AtmosphereMethane",
	rules.AtmosphereMethaneRich:        "AtmosphereMethaneRich",
	rules.AtmosphereNitrogen:           "AtmosphereNitrogen",
	rules.AtmosphereNitrogenRich:       "AtmosphereNitrogenRich",
	rules.AtmosphereOxygen:             "AtmosphereOxygen",
	rules.AtmosphereOxygenRich:         "AtmosphereOxygenRich",
	rules.AtmosphereNeon:               "AtmosphereNeon",
	rules.AtmosphereNeonRich:           "AtmosphereNeonRich",
	rules.AtmosphereArgon:              "AtmosphereArgon",
	rules.AtmosphereArgonRich:          "AtmosphereArgonRich",
	rules.AtmosphereWater:              "AtmosphereWater",
	rules.AtmosphereWaterRich:          "AtmosphereWaterRich",
	rules.AtmosphereSulphurDioxide:     "AtmosphereSulphurDioxide",
	rules.AtmosphereSulphurDioxideRich: "AtmosphereSulphurDioxideRich",
	rules.AtmosphereHelium:             "AtmosphereHelium",
	rules.AtmosphereAmmonia:            "AtmosphereAmmonia",
	rules.AtmosphereAmmoniaRich:        "AtmosphereAmmoniaRich",
}

var goPlanetTypes = map[rules.BodyType]string{
	rules.BodyRocky:     "PlanetRocky",
	rules.BodyHighMetal: "PlanetHighMetal",
	rules.BodyMetalRich: "PlanetMetalRich",
	rules.BodyRockyIce:  "PlanetRockyIce",
	rules.BodyIcy:       "PlanetIcy",
}

var goVolcanism = map[rules.Volcanism]string{
	rules.VolcanismNone: "NoVolcanism",
	rules.VolcanismOnly: "VolcanicOnly",
}

// GoEmitter writes a Go file declaring
//
//	func RegisterConstraints(m map[string]*exobio.SpeciesConstraint)
//
// and formats it with go/format.
type GoEmitter struct{}

// Emit implements Emitter.
func (e *GoEmitter) Emit(unit *Unit) ([]byte, error) {
	u := unit.withDefaults()

	w := &goWriter{}
	w.line("// " + Header)
	w.line("")
	w.line("package " + u.Package)
	w.line("")
	if path.Base(u.RuntimeImport) == runtimeName {
		w.line("import " + strconv.Quote(u.RuntimeImport))
	} else {
		w.line("import " + runtimeName + " " + strconv.Quote(u.RuntimeImport))
	}
	w.line("")
	w.line(fmt.Sprintf("// %s registers the compiled constraints of %d species in m,", u.FuncName, len(u.Species)))
	w.line("// keyed by \"Genus Species\".")
	w.line(fmt.Sprintf("func %s(m map[string]*%s.SpeciesConstraint) {", u.FuncName, runtimeName))
	if len(u.Species) > 0 {
		w.line(fmt.Sprintf("var sc *%s.SpeciesConstraint", runtimeName))
	}
	for _, sp := range u.Species {
		w.line("")
		w.line(fmt.Sprintf("sc = %s.NewSpeciesConstraint(%s, %s, %d)",
			runtimeName, strconv.Quote(sp.Key.Genus), strconv.Quote(sp.Key.Species), sp.Value))
		if len(sp.Rules) > 0 {
			w.line("sc.AddRules(")
			for _, c := range sp.Rules {
				w.rule(c)
			}
			w.line(")")
		}
		w.line("m[sc.Key()] = sc")
	}
	w.line("}")

	out, err := format.Source(w.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated go: %w", err)
	}
	return out, nil
}

type goWriter struct {
	buf bytes.Buffer
}

func (w *goWriter) line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *goWriter) call(method string, args ...string) {
	w.line("\t" + method + "(" + strings.Join(args, ", ") + ").")
}

func (w *goWriter) rule(c rules.Constraint) {
	w.line(runtimeName + ".NewRule().")
	if c.Gravity != nil {
		w.call("Gravity", goRange(c.Gravity)...)
	}
	if c.Temperature != nil {
		w.call("Temperature", goRange(c.Temperature)...)
	}
	if c.Pressure != nil {
		w.call("Pressure", goRange(c.Pressure)...)
	}
	if c.AtmosphereRequired {
		w.call("RequireAtmosphere")
	}
	if len(c.Atmospheres) > 0 {
		args := make([]string, len(c.Atmospheres))
		for i, a := range c.Atmospheres {
			args[i] = runtimeName + "." + goAtmospheres[a]
		}
		w.call("Atmospheres", args...)
	}
	if len(c.BodyTypes) > 0 {
		args := make([]string, len(c.BodyTypes))
		for i, b := range c.BodyTypes {
			args[i] = runtimeName + "." + goPlanetTypes[b]
		}
		w.call("PlanetTypes", args...)
	}
	if len(c.AtmosphereComponents) > 0 {
		parts := make([]string, len(c.AtmosphereComponents))
		for i, comp := range c.AtmosphereComponents {
			parts[i] = strconv.Quote(comp.Gas) + ": " + goFloat(comp.Percent)
		}
		w.call("AtmosphereComponents", "map[string]float64{"+strings.Join(parts, ", ")+"}")
	}
	if len(c.Bodies) > 0 {
		w.call("Bodies", goStrings(c.Bodies)...)
	}
	if c.MaxOrbitalPeriod != nil {
		w.call("MaxOrbitalPeriod", goFloat(*c.MaxOrbitalPeriod))
	}
	if c.Distance != nil {
		w.call("Distance", goFloat(*c.Distance))
	}
	if c.Guardian != nil {
		w.call("Guardian", strconv.FormatBool(*c.Guardian))
	}
	if c.Nebula != nil {
		w.call("Nebula", strconv.Quote(*c.Nebula))
	}
	if len(c.ParentStars) > 0 {
		w.call("ParentStars", goStrings(c.ParentStars)...)
	}
	if len(c.Regions) > 0 {
		w.call("Regions", goStrings(c.Regions)...)
	}
	if len(c.Stars) > 0 {
		w.call("Stars", goStrings(c.Stars)...)
	}
	if len(c.Tubers) > 0 {
		w.call("Tubers", goStrings(c.Tubers)...)
	}
	if len(c.VolcanismAllowed) > 0 {
		w.call("VolcanismAnyOf", goStrings(c.VolcanismAllowed)...)
	} else if name, ok := goVolcanism[c.Volcanism]; ok {
		w.call("Volcanism", runtimeName+"."+name)
	}
	w.line("\tBuild(),")
}

func goRange(r *rules.Range) []string {
	return []string{goFloat(r.Min), goFloat(r.Max)}
}

func goFloat(f float64) string {
	if f == rules.UnboundedMax {
		return runtimeName + ".Unbounded"
	}
	return literal.FormatFloat(f)
}

func goStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
