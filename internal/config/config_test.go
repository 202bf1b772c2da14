package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() should validate: %v", err)
	}
	if cfg.Compute.Gamma != pipeline.DefaultGamma {
		t.Errorf("Gamma = %v, want %v", cfg.Compute.Gamma, pipeline.DefaultGamma)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[compute]
gamma = 0.05
workers = 4

[output]
component = "abs"

[cache]
enabled = false
dir = "/tmp/chi"
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Compute.Gamma != 0.05 {
		t.Errorf("Gamma = %v, want 0.05", cfg.Compute.Gamma)
	}
	if cfg.Compute.Temperature != pipeline.DefaultTemperature {
		t.Errorf("Temperature = %v, should keep the default", cfg.Compute.Temperature)
	}
	if cfg.Compute.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Compute.Workers)
	}
	if cfg.Output.Format != "dx" || cfg.Output.Component != "abs" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/chi" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", "[compute\ngamma = 1"},
		{"negative gamma", "[compute]\ngamma = -0.1"},
		{"zero temperature", "[compute]\ntemperature = 0.0"},
		{"negative workers", "[compute]\nworkers = -1"},
		{"unknown format", "[output]\nformat = \"xyz\""},
		{"unknown component", "[output]\ncomponent = \"phase\""},
		{"unknown key", "[compute]\ngama = 0.1"},
		{"wrong type", "[compute]\ngamma = \"small\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file falls back to defaults
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Compute.Gamma != pipeline.DefaultGamma {
		t.Errorf("Gamma = %v, want default", cfg.Compute.Gamma)
	}

	// Default file is picked up
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "lindhard", FileName) {
		t.Errorf("DefaultPath() = %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[compute]\ntemperature = 0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Compute.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.Compute.Temperature)
	}

	// Explicit missing file is an error
	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestApply(t *testing.T) {
	cfg := Defaults()
	cfg.Compute.Gamma = 0.2
	cfg.Compute.Workers = 3
	cfg.Output.Format = "csv"
	cfg.Output.Component = "imag"

	// Flags win over config
	opts := pipeline.Options{Gamma: 0.5, Component: grid.ComponentAbs}
	cfg.Apply(&opts)
	if opts.Gamma != 0.5 {
		t.Errorf("Gamma = %v, flag value should win", opts.Gamma)
	}
	if opts.Temperature != cfg.Compute.Temperature {
		t.Errorf("Temperature = %v, want config value", opts.Temperature)
	}
	if opts.Workers != 3 {
		t.Errorf("Workers = %d, want 3", opts.Workers)
	}
	if opts.Format != dx.FormatCSV {
		t.Errorf("Format = %s, want csv", opts.Format)
	}
	if opts.Component != grid.ComponentAbs {
		t.Errorf("Component = %s, flag value should win", opts.Component)
	}

	// Output extension wins over the configured format
	opts = pipeline.Options{Output: "chi.dx.gz"}
	cfg.Apply(&opts)
	if opts.Format != "" {
		t.Errorf("Format = %s, should be left for the output extension", opts.Format)
	}
}
