package emit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

// JavaEmitter writes a final class with a static
// initConstraints(Map<String, SpeciesConstraint>) method whose rules are
// SpeciesRuleBuilder chains.
type JavaEmitter struct{}

// Emit implements Emitter.
func (e *JavaEmitter) Emit(unit *Unit) ([]byte, error) {
	u := unit.withDefaults()

	var sb strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	w("// %s", Header)
	w("package %s;", u.JavaPackage)
	w("")
	w("import java.util.*;")
	w("")
	for _, t := range []string{"AtmosphereType", "PlanetType", "SpeciesConstraint", "SpeciesRule.SpeciesRuleBuilder", "VolcanismRequirement"} {
		w("import %s.ExobiologyData.%s;", u.JavaPackage, t)
	}
	w("")
	w("public final class %s {", u.JavaClass)
	w("")
	w("    private %s() {", u.JavaClass)
	w("    }")
	w("")
	w("    public static void initConstraints(Map<String, SpeciesConstraint> CONSTRAINTS) {")
	w("        SpeciesConstraint sc;")
	w("")
	for _, sp := range u.Species {
		w("        sc = new SpeciesConstraint(%s, %s, %d, new ArrayList<>());",
			javaString(sp.Key.Genus), javaString(sp.Key.Species), sp.Value)
		if len(sp.Rules) > 0 {
			w("        sc.getRules().addAll(Arrays.asList(")
			blocks := make([]string, len(sp.Rules))
			for i, c := range sp.Rules {
				blocks[i] = javaRule(c)
			}
			w("%s", strings.Join(blocks, ",\n"))
			w("        ));")
		}
		w("        CONSTRAINTS.put(sc.key(), sc);")
		w("")
	}
	w("    }")
	w("}")
	return []byte(sb.String()), nil
}

func javaRule(c rules.Constraint) string {
	lines := []string{"            SpeciesRuleBuilder.create()"}
	call := func(method string, args ...string) {
		lines = append(lines, fmt.Sprintf("                .%s(%s)", method, strings.Join(args, ", ")))
	}

	if c.Gravity != nil {
		call("gravity", javaDouble(c.Gravity.Min), javaDouble(c.Gravity.Max))
	}
	if c.Temperature != nil {
		call("temperature", javaDouble(c.Temperature.Min), javaDouble(c.Temperature.Max))
	}
	if c.Pressure != nil {
		call("pressure", javaDouble(c.Pressure.Min), javaDouble(c.Pressure.Max))
	}
	if c.AtmosphereRequired {
		call("requireAtmosphere")
	}
	if len(c.Atmospheres) > 0 {
		args := make([]string, len(c.Atmospheres))
		for i, a := range c.Atmospheres {
			args[i] = "AtmosphereType." + a.String()
		}
		call("atmospheres", args...)
	}
	if len(c.BodyTypes) > 0 {
		args := make([]string, len(c.BodyTypes))
		for i, b := range c.BodyTypes {
			args[i] = "PlanetType." + b.String()
		}
		call("planetTypes", args...)
	}
	if len(c.AtmosphereComponents) > 0 {
		call("atmosphereComponents", javaComponents(c.AtmosphereComponents))
	}
	if len(c.Bodies) > 0 {
		call("bodies", javaList(c.Bodies))
	}
	if c.MaxOrbitalPeriod != nil {
		call("maxOrbitalPeriod", javaDouble(*c.MaxOrbitalPeriod))
	}
	if c.Distance != nil {
		call("distance", javaDouble(*c.Distance))
	}
	if c.Guardian != nil {
		if *c.Guardian {
			call("guardian", "Boolean.TRUE")
		} else {
			call("guardian", "Boolean.FALSE")
		}
	}
	if c.Nebula != nil {
		call("nebula", javaString(*c.Nebula))
	}
	if len(c.ParentStars) > 0 {
		call("parentStars", javaList(c.ParentStars))
	}
	if len(c.Regions) > 0 {
		call("regions", javaList(c.Regions))
	}
	if len(c.Stars) > 0 {
		call("stars", javaList(c.Stars))
	}
	if len(c.Tubers) > 0 {
		call("tubers", javaList(c.Tubers))
	}
	if len(c.VolcanismAllowed) > 0 {
		args := make([]string, len(c.VolcanismAllowed))
		for i, v := range c.VolcanismAllowed {
			args[i] = javaString(v)
		}
		call("volcanismAnyOf", args...)
	} else if c.Volcanism != rules.VolcanismAny {
		call("volcanism", "VolcanismRequirement."+c.Volcanism.String())
	}
	lines = append(lines, "                .build()")
	return strings.Join(lines, "\n")
}

func javaDouble(f float64) string {
	if f == rules.UnboundedMax {
		return "Double.MAX_VALUE"
	}
	return literal.FormatFloat(f)
}

func javaList(ss []string) string {
	args := make([]string, len(ss))
	for i, s := range ss {
		args[i] = javaString(s)
	}
	return "Arrays.asList(" + strings.Join(args, ", ") + ")"
}

// javaComponents renders a Map<String, Double>; a single entry uses
// singletonMap, more use an insertion-ordered LinkedHashMap.
func javaComponents(cs []rules.Component) string {
	if len(cs) == 1 {
		return fmt.Sprintf("Collections.singletonMap(%s, %s)", javaString(cs[0].Gas), javaDouble(cs[0].Percent))
	}
	parts := []string{"new LinkedHashMap<String, Double>() {{"}
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("    put(%s, %s);", javaString(c.Gas), javaDouble(c.Percent)))
	}
	parts = append(parts, "}}")
	return strings.Join(parts, "\n")
}

func javaString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
