// Package config loads optional szvol CLI defaults from a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/seisio/szvol/pkg/sz"
)

// Config holds CLI defaults that flags may override.
type Config struct {
	// Workers is the zslice gather worker count.
	Workers int `toml:"workers"`
	// Debug enables debug-level logging.
	Debug bool `toml:"debug"`
	// Human switches logs to the human-friendly console writer.
	Human bool `toml:"human"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{Workers: sz.DefaultWorkers}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.Workers < 1 {
		return Config{}, fmt.Errorf("config %s: workers must be positive, got %d", path, c.Workers)
	}
	return c, nil
}
