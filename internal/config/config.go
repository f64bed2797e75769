// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the hde command configuration from a TOML file.
//
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/db47h/hde"
	"github.com/pkg/errors"
)

// Config is the hde command configuration.
//
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Logging    LoggingConfig    `toml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// SimulationConfig sets up the registry and the network.
//
type SimulationConfig struct {
	Workers int   `toml:"workers"` // <= 0: one per CPU
	MaxIDs  int64 `toml:"max_ids"` // upper bound of the id space
	Ticks   int   `toml:"ticks"`   // default number of ticks to run
}

// LoggingConfig selects the log level and encoding.
//
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// MetricsConfig controls the prometheus endpoint.
//
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Load reads the configuration in file path. Missing keys keep their default
// value.
//
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data, path)
}

// Parse decodes a TOML configuration. name is only used in error messages.
//
func Parse(data []byte, name string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", name)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errors.Errorf("parse config %s: unknown key %s", name, keys[0])
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", name)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
//
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Workers: 0,
			MaxIDs:  hde.DefaultMaxIDs,
			Ticks:   1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

func (c *Config) validate() error {
	if c.Simulation.MaxIDs <= 0 {
		return errors.Errorf("simulation.max_ids must be positive, got %d", c.Simulation.MaxIDs)
	}
	if c.Simulation.Ticks < 0 {
		return errors.Errorf("simulation.ticks must not be negative, got %d", c.Simulation.Ticks)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New("metrics.address is required when metrics are enabled")
	}
	return nil
}
