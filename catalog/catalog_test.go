package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

func species(name string, value literal.Value, rulesets ...literal.Value) literal.Value {
	kv := []literal.Value{literal.String("value"), value}
	if name != "" {
		kv = append(kv, literal.String("name"), literal.String(name))
	}
	if rulesets != nil {
		kv = append(kv, literal.String("rulesets"), literal.List(rulesets...))
	}
	return literal.Map(kv...)
}

func TestParseDefinitions(t *testing.T) {
	cat := literal.Map(
		literal.String("$Codex_Ent_Bacterial_Genus_Name;"), literal.Map(
			literal.String("$Codex_Ent_Bacterial_01_Name;"), species("Bacterium Aurasus", literal.Int(1000000),
				literal.Map(literal.String("atmosphere"), literal.String("CarbonDioxide"))),
			literal.String("$Codex_Ent_Bacterial_02_Name;"), species("Bacterium Nebulus", literal.Int(5289900)),
		),
	)

	defs, err := ParseDefinitions("bacterium.py", cat)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Bacterium Aurasus", defs[0].Name)
	assert.Equal(t, "$Codex_Ent_Bacterial_Genus_Name;", defs[0].Group)
	assert.Equal(t, "$Codex_Ent_Bacterial_01_Name;", defs[0].Key)
	assert.Equal(t, int64(1000000), defs[0].Value)
	assert.Len(t, defs[0].Rulesets, 1)
	assert.Empty(t, defs[1].Rulesets)
}

func TestParseDefinitions_Errors(t *testing.T) {
	group := func(sp literal.Value) literal.Value {
		return literal.Map(literal.String("g"), literal.Map(literal.String("k"), sp))
	}

	tests := []struct {
		name  string
		cat   literal.Value
		kind  error
		field string
	}{
		{"catalog not a mapping", literal.List(), rules.ErrMalformedLiteral, ""},
		{"group not a mapping", literal.Map(literal.String("g"), literal.Int(1)), rules.ErrMalformedLiteral, ""},
		{"species not a mapping", group(literal.String("x")), rules.ErrMalformedLiteral, ""},
		{"missing name", group(species("", literal.Int(1))), rules.ErrMissingField, "name"},
		{"missing value", group(literal.Map(literal.String("name"), literal.String("A b"))), rules.ErrMissingField, "value"},
		{"name not a string", group(literal.Map(literal.String("name"), literal.Int(3), literal.String("value"), literal.Int(1))), rules.ErrInvalidValue, "name"},
		{"blank name", group(species("  ", literal.Int(1))), rules.ErrInvalidValue, "name"},
		{"value not an int", group(species("A b", literal.Float(1.5))), rules.ErrInvalidValue, "value"},
		{"rulesets not a sequence", group(literal.Map(
			literal.String("name"), literal.String("A b"),
			literal.String("value"), literal.Int(1),
			literal.String("rulesets"), literal.String("x"),
		)), rules.ErrInvalidValue, "rulesets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions("f.py", tt.cat)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var ce *rules.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "f.py", ce.File)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCatalog_AddKeepsFirstValue(t *testing.T) {
	c := New()
	r := literal.Map()
	conflicts := c.add([]Definition{
		{File: "a.py", Name: "Fonticulua Campestris", Value: 1000000, Rulesets: []literal.Value{r}},
	})
	assert.Empty(t, conflicts)

	conflicts = c.add([]Definition{
		{File: "b.py", Name: "Fonticulua Campestris", Value: 2000000, Rulesets: []literal.Value{r, r}},
	})
	require.Len(t, conflicts, 1)

	e, ok := c.Entry(rules.Key{Genus: "Fonticulua", Species: "Campestris"})
	require.True(t, ok)
	assert.Equal(t, int64(1000000), e.Value)
	assert.Len(t, e.Rules, 3)
	assert.Len(t, c.Definitions, 2)
}

func TestComputeHash(t *testing.T) {
	h := ComputeHash([]byte("catalog = {}"))
	assert.Len(t, h, 16)
	assert.Equal(t, h, ComputeHash([]byte("catalog = {}")))
	assert.NotEqual(t, h, ComputeHash([]byte("catalog = {} ")))
}

type stubParser struct{ name string }

func (s *stubParser) Extract(context.Context, string, []byte) (literal.Value, bool, error) {
	return literal.String(s.name), true, nil
}

func TestParserRegistry(t *testing.T) {
	r := NewParserRegistry()
	r.Register("first", []string{".py", ".pyi"}, func() SourceParser { return &stubParser{"first"} })
	r.Register("second", []string{".py", ".yaml"}, func() SourceParser { return &stubParser{"second"} })

	name, ok := r.GetParserName(".py")
	assert.True(t, ok)
	assert.Equal(t, "first", name)

	p, err := r.CreateParserForExtension(".yaml")
	require.NoError(t, err)
	v, _, _ := p.Extract(context.Background(), "", nil)
	assert.Equal(t, "second", v.Str)

	_, err = r.CreateParserForExtension(".toml")
	assert.Error(t, err)

	assert.Equal(t, []string{".py", ".pyi", ".yaml"}, r.ListExtensions())
}
