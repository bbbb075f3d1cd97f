package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("store_root: /tmp/voyages\nidentity: alice\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/voyages", cfg.StoreRoot)
	require.Equal(t, "alice", cfg.Identity)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_root: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestResolveStoreRoot(t *testing.T) {
	root, err := ResolveStoreRoot("/explicit", Config{StoreRoot: "/from-config"})
	require.NoError(t, err)
	require.Equal(t, "/explicit", root)

	root, err = ResolveStoreRoot("", Config{StoreRoot: "/from-config"})
	require.NoError(t, err)
	require.Equal(t, "/from-config", root)

	root, err = ResolveStoreRoot("", Config{})
	require.NoError(t, err)
	require.Contains(t, root, filepath.Join(".helm", "voyages"))
}
