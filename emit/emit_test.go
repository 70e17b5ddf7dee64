package emit

import (
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

func s(v string) literal.Value { return literal.String(v) }

// fixture compiles a small catalog through the real normalizer.
func fixture(t *testing.T) []rules.CompiledSpecies {
	t.Helper()
	entries := []*rules.SpeciesEntry{
		{
			Key:   rules.Key{Genus: "Tubus", Species: "Conifer"},
			Value: 2415500,
			Rules: []rules.RawRule{
				{File: "tubus.py", Record: literal.Map(
					s("min_gravity"), literal.Float(0.04),
					s("max_gravity"), literal.Float(0.15),
					s("min_temperature"), literal.Int(160),
					s("atmosphere"), s("CarbonDioxide"),
					s("body_type"), literal.List(s("Rocky body")),
					s("volcanism"), literal.List(s("None")),
				)},
				{File: "tubus.py", Record: literal.Map(
					s("atmosphere"), s("Any"),
					s("region"), s("Witch Head \"Nebula\""),
					s("regions"), literal.List(s("Orion")),
					s("guardian"), literal.Bool(false),
					s("atmosphere_component"), literal.Map(s("Oxygen"), literal.Float(1.5), s("Neon"), literal.Int(2)),
					s("volcanism"), literal.List(s("SilicateMagma")),
				)},
			},
		},
		{
			Key:   rules.Key{Genus: "Aleoida", Species: "Arcus"},
			Value: 7252500,
			Rules: []rules.RawRule{
				{File: "aleoida.py", Record: literal.Map(
					s("star"), literal.List(literal.Tuple(s("B"), s("IV")), s("O")),
					s("distance"), literal.Float(12000),
					s("volcanism"), s("Silicate vapour geysers"),
				)},
				{File: "aleoida.py", Record: literal.Map()},
			},
		},
	}
	compiled, err := rules.Compile(entries)
	require.NoError(t, err)
	return compiled
}

// squash collapses all whitespace so assertions ignore gofmt indentation.
func squash(b []byte) string {
	return strings.Join(strings.Fields(string(b)), " ")
}

func TestNew(t *testing.T) {
	for _, name := range Targets() {
		e, err := New(Target(name))
		require.NoError(t, err, name)
		assert.NotNil(t, e)
	}
	_, err := New("cobol")
	assert.Error(t, err)

	info, ok := GetTargetInfo(TargetGo)
	require.True(t, ok)
	assert.Equal(t, ".go", info.Extension)
	assert.Equal(t, []string{"go", "java", "json"}, Targets())
}

func TestGoEmitter(t *testing.T) {
	out, err := (&GoEmitter{}).Emit(&Unit{Package: "biodata", Species: fixture(t)})
	require.NoError(t, err)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "constraints.go", out, parser.ParseComments)
	require.NoError(t, err, string(out))
	assert.Equal(t, "biodata", f.Name.Name)
	assert.True(t, ast.IsGenerated(f))

	require.Len(t, f.Imports, 1)
	assert.Equal(t, `"github.com/c360studio/exorules/exobio"`, f.Imports[0].Path.Value)

	var fn *ast.FuncDecl
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			fn = fd
		}
	}
	require.NotNil(t, fn)
	assert.Equal(t, DefaultFuncName, fn.Name.Name)

	text := squash(out)
	assert.Contains(t, text, `sc = exobio.NewSpeciesConstraint("Aleoida", "Arcus", 7252500)`)
	assert.Contains(t, text, `exobio.NewRule(). Gravity(0.04, 0.15). Temperature(160.0, exobio.Unbounded). Atmospheres(exobio.AtmosphereCO2). PlanetTypes(exobio.PlanetRocky). Volcanism(exobio.NoVolcanism). Build(),`)
	assert.Contains(t, text, `RequireAtmosphere(). AtmosphereComponents(map[string]float64{"Oxygen": 1.5, "Neon": 2.0}). Guardian(false). Regions("Orion", "Witch Head \"Nebula\""). VolcanismAnyOf("SilicateMagma"). Build(),`)
	assert.Contains(t, text, `Distance(12000.0). Stars("B IV", "O"). Volcanism(exobio.VolcanicOnly). Build(),`)
	assert.Contains(t, text, `exobio.NewRule(). Build(),`)
	assert.Contains(t, text, `m[sc.Key()] = sc`)

	// Aleoida sorts before Tubus.
	assert.Less(t, strings.Index(text, `"Aleoida"`), strings.Index(text, `"Tubus"`))
}

func TestGoEmitter_RuntimeAlias(t *testing.T) {
	out, err := (&GoEmitter{}).Emit(&Unit{RuntimeImport: "example.com/game/bio/v2", Species: fixture(t)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `import exobio "example.com/game/bio/v2"`)
	assert.Contains(t, string(out), "package constraints")
}

func TestGoEmitter_Empty(t *testing.T) {
	out, err := (&GoEmitter{}).Emit(&Unit{})
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "empty.go", out, 0)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "var sc")
}

func TestGoEmitter_Deterministic(t *testing.T) {
	u := &Unit{Species: fixture(t)}
	a, err := (&GoEmitter{}).Emit(u)
	require.NoError(t, err)
	b, err := (&GoEmitter{}).Emit(u)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestJavaEmitter(t *testing.T) {
	out, err := (&JavaEmitter{}).Emit(&Unit{Species: fixture(t)})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "package org.dce.ed.exobiology;")
	assert.Contains(t, text, "import org.dce.ed.exobiology.ExobiologyData.SpeciesRule.SpeciesRuleBuilder;")
	assert.Contains(t, text, "public final class ExobiologyDataConstraints {")
	assert.Contains(t, text, "public static void initConstraints(Map<String, SpeciesConstraint> CONSTRAINTS) {")
	assert.Contains(t, text, `sc = new SpeciesConstraint("Tubus", "Conifer", 2415500, new ArrayList<>());`)

	assert.Contains(t, text, "                .gravity(0.04, 0.15)\n")
	assert.Contains(t, text, "                .temperature(160.0, Double.MAX_VALUE)\n")
	assert.Contains(t, text, "                .atmospheres(AtmosphereType.CO2)\n")
	assert.Contains(t, text, "                .planetTypes(PlanetType.ROCKY)\n")
	assert.Contains(t, text, "                .volcanism(VolcanismRequirement.NO_VOLCANISM)\n")
	assert.Contains(t, text, "                .requireAtmosphere()\n")
	assert.Contains(t, text, "                .atmosphereComponents(new LinkedHashMap<String, Double>() {{\n    put(\"Oxygen\", 1.5);\n    put(\"Neon\", 2.0);\n}})\n")
	assert.Contains(t, text, "                .guardian(Boolean.FALSE)\n")
	assert.Contains(t, text, `.regions(Arrays.asList("Orion", "Witch Head \"Nebula\""))`)
	assert.Contains(t, text, `.volcanismAnyOf("SilicateMagma")`)
	assert.Contains(t, text, `.stars(Arrays.asList("B IV", "O"))`)
	assert.Contains(t, text, "            SpeciesRuleBuilder.create()\n                .build()")
	assert.Contains(t, text, "                .build(),\n            SpeciesRuleBuilder.create()")
	assert.Contains(t, text, "        CONSTRAINTS.put(sc.key(), sc);")
	assert.True(t, strings.HasSuffix(text, "    }\n}\n"))
}

func TestJavaString(t *testing.T) {
	assert.Equal(t, `"a\\b\"c\n"`, javaString("a\\b\"c\n"))
	assert.Equal(t, `"\u0001"`, javaString("\x01"))
	assert.Equal(t, `"Singleton"`, javaString("Singleton"))
}

func TestJavaComponents_Singleton(t *testing.T) {
	got := javaComponents([]rules.Component{{Gas: "Ammonia", Percent: 3}})
	assert.Equal(t, `Collections.singletonMap("Ammonia", 3.0)`, got)
}

func TestJSONEmitter(t *testing.T) {
	out, err := (&JSONEmitter{}).Emit(&Unit{Species: fixture(t)})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	species := doc["species"].([]any)
	require.Len(t, species, 2)

	first := species[0].(map[string]any)
	assert.Equal(t, "Aleoida Arcus", first["key"])
	firstRules := first["rules"].([]any)
	require.Len(t, firstRules, 2)
	assert.Equal(t, "VOLCANIC_ONLY", firstRules[0].(map[string]any)["volcanism"])
	assert.Empty(t, firstRules[1].(map[string]any))

	second := species[1].(map[string]any)
	rule := second["rules"].([]any)[1].(map[string]any)
	assert.Equal(t, true, rule["atmosphere_required"])
	assert.Equal(t, []any{"SilicateMagma"}, rule["volcanism_any_of"])
	assert.NotContains(t, rule, "volcanism")

	// Canonical form: keys sorted, no insignificant whitespace.
	assert.True(t, strings.HasPrefix(string(out), `{"generator":"exorules","species":[{"genus":"Aleoida","key":"Aleoida Arcus"`))
}
