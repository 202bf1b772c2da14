// Package pipeline provides the susceptibility pipeline for lindhard.
//
// This package implements the complete decode → compute → encode pipeline
// used by the CLI. By centralizing this logic, every command reads grids,
// caches results and writes artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Read the eigenvalue grid (gzip or plain text)
//  2. Compute: Drop the repeated boundary slice and evaluate chi(q)
//  3. Encode: Close the periodic cell again and write the chosen component
//
// Each stage can be run independently or as part of the complete pipeline.
// The compute stage dominates the cost and is cached by input content and
// physical parameters.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:  "eigenvalues.dx.gz",
//	    Output: "chi.dx",
//	    Gamma:  0.01,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Points)
//
// Run individual stages:
//
//	// Decode only
//	g, hash, err := runner.Decode(ctx, opts)
//
//	// Compute with an already decoded grid
//	chi, err := runner.Compute(ctx, g, hash, opts)
//
//	// Encode an existing result
//	data, err := runner.Encode(ctx, chi, g.Lattice, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lindhard/pkg/cache"
	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/susceptibility"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config
// =============================================================================

const (
	// DefaultGamma is the imaginary broadening of the denominators.
	DefaultGamma = susceptibility.DefaultGamma

	// DefaultTemperature is the smearing temperature of the occupations,
	// in the energy unit of the input grid.
	DefaultTemperature = susceptibility.DefaultTemperature

	// DefaultFormat is the default artifact format.
	DefaultFormat = dx.FormatDX

	// DefaultComponent is the part of chi that is written by default.
	DefaultComponent = grid.ComponentReal
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the susceptibility pipeline.
type Options struct {
	// Decode options
	Input string `json:"input"`

	// Compute options
	Gamma       float64 `json:"gamma,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Workers     int     `json:"workers,omitempty"`
	Refresh     bool    `json:"refresh,omitempty"`

	// Encode options
	Output    string         `json:"output,omitempty"`
	Format    dx.Format      `json:"format,omitempty"`
	Component grid.Component `json:"component,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger            `json:"-"`
	Progress func(done, total int) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Grid is the decoded eigenvalue grid.
	Grid *dx.Grid

	// InputHash is the content hash of the input file.
	InputHash string

	// Chi is the expanded susceptibility on the full periodic cell.
	Chi *grid.Volume[complex128]

	// Artifact is the encoded output (uncompressed).
	Artifact []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points      int // q-points computed
	Bands       int
	Size        int // artifact bytes
	DecodeTime  time.Duration
	ComputeTime time.Duration
	EncodeTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ComputeHit bool // Whether chi came from cache
	EncodeHit  bool // Whether the artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateComponent checks that a component selector is valid.
func ValidateComponent(c grid.Component) error {
	if !grid.ValidComponents[c] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid component: %q (must be one of: real, imag, abs, complex)", c)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForDecode(); err != nil {
		return err
	}
	if err := o.ValidateForCompute(); err != nil {
		return err
	}
	if err := o.ValidateForEncode(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForDecode checks the input path.
func (o *Options) ValidateForDecode() error {
	if o.Input == "" {
		return fmt.Errorf("input is required")
	}
	if err := errors.ValidatePath(o.Input); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetComputeDefaults sets default values for the susceptibility calculation.
func (o *Options) SetComputeDefaults() {
	if o.Gamma == 0 {
		o.Gamma = DefaultGamma
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForCompute validates and sets defaults for the susceptibility calculation.
func (o *Options) ValidateForCompute() error {
	o.SetComputeDefaults()
	return o.Params().Validate()
}

// SetEncodeDefaults sets default values for encoding.
func (o *Options) SetEncodeDefaults() {
	if o.Format == "" {
		if f, ok := dx.FormatFromPath(o.Output); ok {
			o.Format = f
		} else {
			o.Format = DefaultFormat
		}
	}
	if o.Component == "" {
		o.Component = DefaultComponent
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForEncode validates and sets defaults for encoding.
func (o *Options) ValidateForEncode() error {
	o.SetEncodeDefaults()
	f, err := dx.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = f
	if o.Output != "" {
		if err := errors.ValidatePath(o.Output); err != nil {
			return err
		}
	}
	return ValidateComponent(o.Component)
}

// Params returns the engine parameters for these options.
func (o *Options) Params() susceptibility.Params {
	return susceptibility.Params{
		Gamma:       o.Gamma,
		Temperature: o.Temperature,
		Workers:     o.Workers,
		Progress:    o.Progress,
	}
}

// SusceptibilityKeyOpts returns cache key options for the compute stage.
func (o *Options) SusceptibilityKeyOpts() cache.SusceptibilityKeyOpts {
	return cache.SusceptibilityKeyOpts{
		Gamma:       o.Gamma,
		Temperature: o.Temperature,
	}
}

// ArtifactKeyOpts returns cache key options for the encode stage.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    string(o.Format),
		Component: string(o.Component),
	}
}
