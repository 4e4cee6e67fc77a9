package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configFileName = ".lumen-di.toml"

// fileConfig is the shape of .lumen-di.toml, loaded once per invocation and
// merged under whatever flags the user passed explicitly (flags win).
// MaxDiagnostics is decoded but not applied: the diagnostic cap comes only
// from the --max-diagnostics flag.
type fileConfig struct {
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Watch          struct {
		DebounceMillis int `toml:"debounce_millis"`
	} `toml:"watch"`
}

func defaultConfig() fileConfig {
	cfg := fileConfig{Color: "auto", MaxDiagnostics: 100}
	cfg.Watch.DebounceMillis = 150

	return cfg
}

// findConfigFile walks upward from startDir looking for .lumen-di.toml,
// the same parent-search findSurgeToml uses for its own project manifest.
func findConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", false, nil
}

// loadConfig returns the effective configuration: explicitPath if given,
// else the nearest .lumen-di.toml found by walking up from the cwd, else
// just the defaults.
func loadConfig(explicitPath string) (fileConfig, error) {
	cfg := defaultConfig()

	path := explicitPath
	if path == "" {
		found, ok, err := findConfigFile(".")
		if err != nil {
			return cfg, err
		}

		if !ok {
			return cfg, nil
		}

		path = found
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %q: %w", path, err)
	}

	return cfg, nil
}
