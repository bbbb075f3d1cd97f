// Package config loads the user's helm configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-level settings from ~/.helm/config.yaml. All fields
// are optional; zero values mean "use the default".
type Config struct {
	// StoreRoot is the directory holding voyage databases.
	// Defaults to ~/.helm/voyages.
	StoreRoot string `yaml:"store_root"`

	// Identity is the default identity recorded on logbook entries when
	// neither --as nor HELM_IDENTITY provides one.
	Identity string `yaml:"identity"`
}

// DefaultPath returns the standard config file location, ~/.helm/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".helm", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error: it
// returns an empty Config, since every setting has a default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveStoreRoot picks the voyage store root: the explicit flag value if
// set, else the config's store_root, else ~/.helm/voyages.
func ResolveStoreRoot(explicit string, cfg Config) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if cfg.StoreRoot != "" {
		return cfg.StoreRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".helm", "voyages"), nil
}
