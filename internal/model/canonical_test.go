package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsObjectKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zebra": "z",
		"alpha": "a",
		"mid":   uint64(3),
	})
	require.NoError(t, err)
	require.Equal(t, `{"alpha":"a","mid":3,"zebra":"z"}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a href=\"x\">&</a>")
	require.NoError(t, err)
	require.Equal(t, `"<a href=\"x\">&</a>"`, string(data))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9.
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	require.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_LineSeparatorsUnescaped(t *testing.T) {
	data, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	require.Equal(t, "\"a\u2028b\u2029c\"", string(data))
}

func TestMarshalCanonical_BackslashU2028TextStaysEscaped(t *testing.T) {
	// A literal backslash followed by the text "u2028" is not an escape
	// sequence and must survive as an escaped backslash.
	data, err := MarshalCanonical("\\u2028")
	require.NoError(t, err)
	require.Equal(t, `"\\u2028"`, string(data))
}

func TestMarshalCanonical_FloatsForbidden(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"ratio": 1.5})
	require.Error(t, err)
}

func TestMarshalCanonical_NullForbidden(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"gone": nil})
	require.Error(t, err)
}
