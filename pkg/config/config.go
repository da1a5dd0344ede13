// Package config loads pipinfo's settings.
//
// Settings come from four layers, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. The TOML file at [Path] ($XDG_CONFIG_HOME/pipinfo/config.toml)
//  3. Environment variables (PIPINFO_DEBUG, NO_COLOR)
//  4. Command-line flags, applied by the CLI
//
// Example file:
//
//	python = "/usr/local/bin/python3.12"
//	color = false
//	cache_ttl = "12h"
//	workers = 16
//	deep_extras = true
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipinfo/pkg/errors"
)

// AppName names the configuration directory.
const AppName = "pipinfo"

// Defaults.
const (
	DefaultCacheTTL = 24 * time.Hour
	DefaultWorkers  = 8
	DefaultIndexURL = "https://pypi.org/pypi"
	DefaultPython   = "python3"
)

// Duration is a time.Duration written as a Go duration string ("12h").
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting a run depends on.
type Config struct {
	Python     string   `toml:"python"`      // interpreter asked for site directories
	Color      bool     `toml:"color"`       // colored listing
	Progress   bool     `toml:"progress"`    // progress meter during index lookups
	CacheTTL   Duration `toml:"cache_ttl"`   // freshness window of cached index answers
	IndexURL   string   `toml:"index_url"`   // PyPI JSON API root
	Workers    int      `toml:"workers"`     // concurrent scans and lookups
	DeepExtras bool     `toml:"deep_extras"` // expand every extra activation when computing required-by
	Debug      bool     `toml:"debug"`       // debug logging
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Python:   DefaultPython,
		Color:    true,
		Progress: true,
		CacheTTL: Duration{DefaultCacheTTL},
		IndexURL: DefaultIndexURL,
		Workers:  DefaultWorkers,
	}
}

// Path returns the configuration file location following the XDG
// convention: $XDG_CONFIG_HOME/pipinfo/config.toml, or
// ~/.config/pipinfo/config.toml when the variable is unset.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load returns the defaults overlaid with the file at path and the
// environment. An empty path means [Path]. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			cfg.ApplyEnv(os.LookupEnv)
			return cfg, nil
		}
		path = p
	}

	if err := cfg.LoadFile(path); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// LoadFile overlays the TOML file at path onto c. Keys absent from the file
// keep their current values. A missing file leaves c unchanged.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// ApplyEnv overlays environment variables onto c. lookup is usually
// os.LookupEnv.
//
//   - PIPINFO_DEBUG, when set to anything, enables debug logging
//   - NO_COLOR, when set to anything non-empty, disables color
//     (https://no-color.org)
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if _, ok := lookup("PIPINFO_DEBUG"); ok {
		c.Debug = true
	}
	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		c.Color = false
	}
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_ttl must not be negative")
	}
	if err := errors.ValidateURL(c.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "index_url")
	}
	return nil
}
