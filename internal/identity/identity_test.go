package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveExplicitWins(t *testing.T) {
	t.Setenv(EnvVar, "from-env")
	got, err := Resolve("from-flag", "from-config")
	require.NoError(t, err)
	require.Equal(t, "from-flag", got)
}

func TestResolveEnvBeatsConfig(t *testing.T) {
	t.Setenv(EnvVar, "from-env")
	got, err := Resolve("", "from-config")
	require.NoError(t, err)
	require.Equal(t, "from-env", got)
}

func TestResolveConfigFallback(t *testing.T) {
	t.Setenv(EnvVar, "")
	got, err := Resolve("", "from-config")
	require.NoError(t, err)
	require.Equal(t, "from-config", got)
}

func TestResolveWhitespaceIsUnset(t *testing.T) {
	t.Setenv(EnvVar, "   ")
	_, err := Resolve("  ", " ")
	require.ErrorIs(t, err, ErrUnresolved)
}
