package python

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/exorules/literal"
	"github.com/c360studio/exorules/rules"
)

func extract(t *testing.T, src string) (literal.Value, bool, error) {
	t.Helper()
	return NewExtractor().Extract(context.Background(), "tubus.py", []byte(src))
}

func TestExtract_AnnotatedCatalog(t *testing.T) {
	src := `"""Tubus rulesets."""
from typing import Any

catalog: dict[str, dict[str, Any]] = {
    "$Codex_Ent_Tube_Name;": {
        "$Codex_Ent_Tube_01_Name;": {
            "name": "Tubus Conifer",
            "value": 2_415_500,
            "rulesets": [
                {
                    "min_gravity": 0.04,  # trailing comment
                    "max_gravity": .15,
                    "min_temperature": 160,
                    "atmosphere": "CarbonDioxide",
                    "body_type": ["Rocky body"],
                    "star": [("B", "IV"), "O"],
                    "guardian": True,
                    "nebula": None,
                    "distance": -1e3,
                },
            ],
        },
    },
}

def helper():
    return catalog
`
	v, found, err := extract(t, src)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, literal.KindMap, v.Kind)
	assert.Equal(t, 4, v.Pos.Line)

	group, ok := v.Get("$Codex_Ent_Tube_Name;")
	require.True(t, ok)
	sp, ok := group.Get("$Codex_Ent_Tube_01_Name;")
	require.True(t, ok)

	name, _ := sp.Get("name")
	assert.Equal(t, "Tubus Conifer", name.Str)
	value, _ := sp.Get("value")
	assert.Equal(t, int64(2415500), value.Int)

	rulesets, _ := sp.Get("rulesets")
	require.Len(t, rulesets.Items, 1)
	rule := rulesets.Items[0]

	minG, _ := rule.Get("min_gravity")
	assert.Equal(t, literal.Float(0.04).Float, minG.Float)
	maxG, _ := rule.Get("max_gravity")
	assert.Equal(t, 0.15, maxG.Float)
	minT, _ := rule.Get("min_temperature")
	assert.Equal(t, literal.KindInt, minT.Kind)

	star, _ := rule.Get("star")
	require.Len(t, star.Items, 2)
	assert.Equal(t, literal.KindTuple, star.Items[0].Kind)
	assert.Equal(t, "('B', 'IV')", star.Items[0].Repr())

	guardian, _ := rule.Get("guardian")
	assert.True(t, guardian.Bool)
	nebula, _ := rule.Get("nebula")
	assert.True(t, nebula.IsNone())
	distance, _ := rule.Get("distance")
	assert.Equal(t, -1000.0, distance.Float)
}

func TestExtract_PlainAssignment(t *testing.T) {
	v, found, err := extract(t, "catalog = {'g': {}}\n")
	require.NoError(t, err)
	require.True(t, found)
	_, ok := v.Get("g")
	assert.True(t, ok)
}

func TestExtract_FirstBindingWins(t *testing.T) {
	v, found, err := extract(t, "catalog = {'first': {}}\ncatalog = {'second': {}}\n")
	require.NoError(t, err)
	require.True(t, found)
	_, ok := v.Get("first")
	assert.True(t, ok)
}

func TestExtract_NoCatalog(t *testing.T) {
	_, found, err := extract(t, "other = {'a': 1}\n\ndef catalog():\n    return {}\n")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = extract(t, "catalog: dict\n")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtract_NestedBindingIgnored(t *testing.T) {
	src := "if True:\n    catalog = {'a': {}}\n"
	_, found, err := extract(t, src)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtract_RejectsNonLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"call", "catalog = dict(a=1)\n"},
		{"name reference", "base = {}\ncatalog = {'a': base}\n"},
		{"binary operator", "catalog = {'a': 1 + 2}\n"},
		{"comprehension", "catalog = {k: {} for k in 'ab'}\n"},
		{"f-string", "x = 1\ncatalog = {'a': f'{x}'}\n"},
		{"dict splat", "base = {}\ncatalog = {**base}\n"},
		{"negated string", "catalog = {'a': -'x'}\n"},
		{"complex", "catalog = {'a': 1j}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := extract(t, tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rules.ErrMalformedLiteral), "got %v", err)

			var ce *rules.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "tubus.py", ce.File)
			assert.Greater(t, ce.Line, 0)
		})
	}
}

func TestExtract_Strings(t *testing.T) {
	src := `catalog = {
    "concat": "Witch " 'Head',
    "escapes": "a\tb\\c\"d\x41\u00e9",
    "raw": r"C:\temp",
    "triple": """multi
line""",
    "paren": ("grouped"),
}
`
	v, found, err := extract(t, src)
	require.NoError(t, err)
	require.True(t, found)

	get := func(k string) string {
		x, ok := v.Get(k)
		require.True(t, ok, k)
		return x.Str
	}
	assert.Equal(t, "Witch Head", get("concat"))
	assert.Equal(t, "a\tb\\c\"dAé", get("escapes"))
	assert.Equal(t, `C:\temp`, get("raw"))
	assert.Equal(t, "multi\nline", get("triple"))
	assert.Equal(t, "grouped", get("paren"))
}

func TestExtract_Numbers(t *testing.T) {
	v, _, err := extract(t, "catalog = {'hex': 0x1F, 'oct': 0o17, 'bin': 0b101, 'neg': -4, 'pos': +2.5, 'exp': 1e-3}\n")
	require.NoError(t, err)

	get := func(k string) literal.Value {
		x, ok := v.Get(k)
		require.True(t, ok, k)
		return x
	}
	assert.Equal(t, int64(31), get("hex").Int)
	assert.Equal(t, int64(15), get("oct").Int)
	assert.Equal(t, int64(5), get("bin").Int)
	assert.Equal(t, int64(-4), get("neg").Int)
	assert.Equal(t, 2.5, get("pos").Float)
	assert.Equal(t, 0.001, get("exp").Float)
}

func TestExtract_DuplicateKeysKeepLastValue(t *testing.T) {
	v, _, err := extract(t, "catalog = {'a': 1, 'b': 2, 'a': 3}\n")
	require.NoError(t, err)
	require.Len(t, v.Entries, 2)
	assert.Equal(t, "a", v.Entries[0].Key.Str)
	assert.Equal(t, int64(3), v.Entries[0].Value.Int)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`'plain'`, "plain", false},
		{`u"unicode"`, "unicode", false},
		{`'it\'s'`, "it's", false},
		{`"\101\x42"`, "AB", false},
		{`"keep \d"`, `keep \d`, false},
		{`R'\n'`, `\n`, false},
		{`b'bytes'`, "", true},
		{`f'x'`, "", true},
		{`"\N{DASH}"`, "", true},
		{`"\x4"`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := unquote(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
