package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("tab-1"), `"tab-1"`},
		{"empty string", String(""), `""`},
		{"int", Int(7), "7"},
		{"negative int", Int(-1), "-1"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"go string", "slide", `"slide"`},
		{"go int", 3, "3"},
		{"go bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalEventShape(t *testing.T) {
	obj := Object{
		"type":    String("ACTIVATED"),
		"seq":     Int(4),
		"values":  Array{String("b")},
		"indexes": Array{Int(1)},
		"engine_id": Object{
			"z": Bool(true),
			"a": Bool(false),
		},
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"engine_id":{"a":false,"z":true},"indexes":[1],"seq":4,"type":"ACTIVATED","values":["b"]}`,
		string(got),
	)
}

func TestMarshalCanonicalGoContainers(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b": []any{int64(1), "two", true},
		"a": "x",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,"two",true]}`, string(got))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+10000 is the surrogate pair D800 DC00, which sorts before U+E000 in
	// UTF-16 but after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(Object{
		"label": String("<b>Q&A</b>"),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"label":"<b>Q&A</b>"}`, string(got))
	assert.NotContains(t, string(got), `\u003c`)
	assert.NotContains(t, string(got), `\u0026`)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"backspace", "a\bb", `"a\bb"`},
		{"form feed", "a\fb", `"a\fb"`},
		{"nul", "a\x00b", `"a\u0000b"`},
		{"unit separator", "a\x1fb", `"a\u001fb"`},
		{"delete is literal", "a\x7fb", "\"a\x7fb\""},
		{"literal backslash-u text", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalLineSeparatorsLiteral(t *testing.T) {
	got, err := MarshalCanonical(Object{
		"a\u2028b": String("c\u2029d"),
	})
	require.NoError(t, err)

	assert.Equal(t, "{\"a\u2028b\":\"c\u2029d\"}", string(got))
	assert.NotContains(t, string(got), `\u2028`)
	assert.NotContains(t, string(got), `\u2029`)
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	t.Run("values", func(t *testing.T) {
		a, err := MarshalCanonical(String(composed))
		require.NoError(t, err)
		b, err := MarshalCanonical(String(decomposed))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("keys", func(t *testing.T) {
		a, err := MarshalCanonical(Object{composed: Int(1)})
		require.NoError(t, err)
		b, err := MarshalCanonical(Object{decomposed: Int(1)})
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, "{\"caf\u00E9\":1}", string(a))
	})
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"float64", 0.5, "float"},
		{"float32", float32(0.5), "float"},
		{"nil", nil, "null"},
		{"null value", Null{}, "null"},
		{"null in array", Array{String("a"), Null{}}, "null"},
		{"null in object", Object{"k": Null{}}, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	cases := []Value{
		String("hello"),
		Int(42),
		Array{Int(1), String("two"), Bool(false)},
		Object{"b": String("test"), "a": Int(1)},
		Object{"nested": Object{"list": Array{Int(1), Int(2)}}},
	}

	for _, original := range cases {
		first, err := MarshalCanonical(original)
		require.NoError(t, err)

		parsed, err := ParseValue(first)
		require.NoError(t, err)

		second, err := MarshalCanonical(parsed)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestNormalizeString(t *testing.T) {
	assert.Equal(t, "caf\u00E9", NormalizeString("cafe\u0301"))
	assert.Equal(t, "plain", NormalizeString("plain"))
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1,2,3]`)
	f.Add(`"hello"`)
	f.Add(`{"nested":{"deep":{"value":123}}}`)

	f.Fuzz(func(t *testing.T, input string) {
		val, err := ParseValue([]byte(input))
		if err != nil {
			t.Skip()
		}
		first, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}

		parsed, err := ParseValue(first)
		require.NoError(t, err)

		second, err := MarshalCanonical(parsed)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
