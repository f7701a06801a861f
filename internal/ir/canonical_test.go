package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-3), "-3"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool", IRBool(true), "true"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"record", IRObject{"text": IRString("x"), "id": IRString("k1"), "score": IRInt(0)}, `{"id":"k1","score":0,"text":"x"}`},
		{"plain map", map[string]any{"b": 1, "a": "z"}, `{"a":"z","b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html is not escaped", "<b>&</b>", `"<b>&</b>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"newline and tab", "a\nb\tc", `"a\nb\tc"`},
		{"control char", "\x01", `"\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"score": 2.5})
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF61 in UTF-16, while UTF-8 byte order puts it after.
	obj := IRObject{"\uff61": IRInt(1), "\U0001F600": IRInt(2)}
	assert.Equal(t, []string{"\U0001F600", "\uff61"}, obj.SortedKeys())
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"id":"k1","score":-2,"tags":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"id":    IRString("k1"),
		"score": IRInt(-2),
		"tags":  IRArray{IRString("a")},
	}, v)

	_, err = UnmarshalIRValue([]byte(`{"score":1.5}`))
	assert.Error(t, err)

	_, err = UnmarshalIRValue([]byte(`null`))
	assert.Error(t, err)
}

func TestIRArrayJSONRoundTrip(t *testing.T) {
	arr := IRArray{IRObject{"id": IRString("k1"), "score": IRInt(3)}}

	data, err := arr.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"k1","score":3}]`, string(data))

	var back IRArray
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, arr, back)
}
