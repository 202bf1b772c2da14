// Package config loads the lindhard defaults file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/lindhard/config.toml
// (~/.config/lindhard/config.toml when XDG_CONFIG_HOME is unset):
//
//	[compute]
//	gamma = 0.01
//	temperature = 0.025
//	workers = 0
//
//	[output]
//	format = "dx"
//	component = "real"
//
//	[cache]
//	enabled = true
//	dir = ""
//
// Every key is optional. Command-line flags override the file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config holds user defaults.
type Config struct {
	Compute Compute `toml:"compute"`
	Output  Output  `toml:"output"`
	Cache   Cache   `toml:"cache"`
}

// Compute holds the physical defaults.
type Compute struct {
	Gamma       float64 `toml:"gamma"`
	Temperature float64 `toml:"temperature"`
	Workers     int     `toml:"workers"`
}

// Output holds the artifact defaults.
type Output struct {
	Format    string `toml:"format"`
	Component string `toml:"component"`
}

// Cache controls the result cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Compute: Compute{
			Gamma:       pipeline.DefaultGamma,
			Temperature: pipeline.DefaultTemperature,
		},
		Output: Output{
			Format:    string(pipeline.DefaultFormat),
			Component: string(pipeline.DefaultComponent),
		},
		Cache: Cache{Enabled: true},
	}
}

// DefaultPath returns the config file location following XDG conventions.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lindhard", FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lindhard", FileName), nil
}

// Load reads the config file at path. An empty path means DefaultPath, and
// a missing default file yields Defaults. A path given explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Defaults(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Defaults(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text on top of Defaults and validates the result.
// Unknown keys are rejected so that typos do not pass silently.
func Parse(text string) (*Config, error) {
	cfg := Defaults()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value.
func (c *Config) Validate() error {
	if err := errors.ValidatePositive("compute.gamma", c.Compute.Gamma); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "compute")
	}
	if err := errors.ValidatePositive("compute.temperature", c.Compute.Temperature); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "compute")
	}
	if err := errors.ValidateNonNegative("compute.workers", c.Compute.Workers); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "compute")
	}
	if _, err := dx.ParseFormat(c.Output.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.format")
	}
	if err := pipeline.ValidateComponent(grid.Component(c.Output.Component)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.component")
	}
	return nil
}

// Apply fills the zero fields of opts from the config. Fields already set
// (from flags) are left alone.
func (c *Config) Apply(opts *pipeline.Options) {
	if opts.Gamma == 0 {
		opts.Gamma = c.Compute.Gamma
	}
	if opts.Temperature == 0 {
		opts.Temperature = c.Compute.Temperature
	}
	if opts.Workers == 0 {
		opts.Workers = c.Compute.Workers
	}
	if opts.Format == "" {
		// An output extension still wins over the configured default.
		if _, ok := dx.FormatFromPath(opts.Output); !ok {
			opts.Format = dx.Format(c.Output.Format)
		}
	}
	if opts.Component == "" {
		opts.Component = grid.Component(c.Output.Component)
	}
}
