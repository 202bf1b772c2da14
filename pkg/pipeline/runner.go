package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/lindhard/pkg/cache"
	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/errors"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/observability"
	"github.com/matzehuels/lindhard/pkg/susceptibility"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → compute → encode pipeline with caching.
// When opts.Output is set the artifact is also written there.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	opts.Logger = opts.Logger.With("run", result.RunID[:8])

	// Stage 1: Decode
	decodeStart := time.Now()
	g, hash, err := r.Decode(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	result.Grid = g
	result.InputHash = hash
	result.Stats.DecodeTime = time.Since(decodeStart)
	result.Stats.Bands = g.Values.Count

	opts.Logger.Info("decoded grid",
		"counts", g.Counts,
		"bands", g.Values.Count,
		"duration", result.Stats.DecodeTime)

	// Stage 2: Compute
	computeStart := time.Now()
	chi, computeHit, err := r.ComputeWithCacheInfo(ctx, g, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	result.Stats.ComputeTime = time.Since(computeStart)
	result.Stats.Points = chi.Dims.Points()
	result.CacheInfo.ComputeHit = computeHit

	opts.Logger.Info("computed susceptibility",
		"points", chi.Dims.Points(),
		"cached", computeHit,
		"duration", result.Stats.ComputeTime)

	full, err := grid.Expand(chi)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	result.Chi = full

	// Stage 3: Encode
	encodeStart := time.Now()
	chiKey := r.Keyer.SusceptibilityKey(hash, opts.SusceptibilityKeyOpts())
	data, encodeHit, err := r.EncodeWithCacheInfo(ctx, full, g.Lattice, chiKey, opts)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	result.Artifact = data
	result.Stats.Size = len(data)
	result.CacheInfo.EncodeHit = encodeHit

	if opts.Output != "" {
		if err := WriteOutput(opts.Output, data); err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
	}
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("encoded output",
		"format", opts.Format,
		"component", opts.Component,
		"bytes", len(data),
		"duration", result.Stats.EncodeTime)

	return result, nil
}

// Convert decodes the input grid and re-encodes its eigenvalues in
// opts.Format without computing anything. When opts.Output is set the
// artifact is also written there.
func (r *Runner) Convert(ctx context.Context, opts Options) ([]byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForDecode(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.ValidateForEncode(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	g, _, err := r.Decode(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := dx.Encode(&buf, g.Values.Field(), g.Lattice, opts.Format); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if opts.Output != "" {
		if err := WriteOutput(opts.Output, buf.Bytes()); err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
	}
	opts.Logger.Debug("converted grid", "format", opts.Format, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// Decode reads the input grid and returns it with the content hash of the
// file, which keys every later cache entry.
func (r *Runner) Decode(ctx context.Context, opts Options) (*dx.Grid, string, error) {
	if err := opts.ValidateForDecode(); err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, opts.Input)
	start := time.Now()

	g, hash, err := readInput(opts.Input)
	if err != nil {
		hooks.OnDecodeComplete(ctx, opts.Input, 0, 0, time.Since(start), err)
		return nil, "", err
	}
	hooks.OnDecodeComplete(ctx, opts.Input, g.Counts.Points(), g.Values.Count, time.Since(start), nil)
	return g, hash, nil
}

func readInput(path string) (*dx.Grid, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	g, err := dx.Read(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return g, cache.Hash(data), nil
}

// ComputeWithCacheInfo drops the repeated boundary slice of g and evaluates
// chi on the remaining cell, with caching. It returns whether the result
// came from the cache.
func (r *Runner) ComputeWithCacheInfo(ctx context.Context, g *dx.Grid, inputHash string, opts Options) (*grid.Volume[complex128], bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompute(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.SusceptibilityKey(inputHash, opts.SusceptibilityKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if chi, err := unmarshalChi(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "chi")
				return chi, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "chi")
	}

	cell, err := g.Values.Interior()
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("computing susceptibility",
		"cell", cell.Dims,
		"bands", cell.Count,
		"terms", susceptibility.Terms(cell),
		"gamma", opts.Gamma,
		"temperature", opts.Temperature)

	hooks := observability.Pipeline()
	hooks.OnComputeStart(ctx, cell.Dims.Points(), cell.Count)
	start := time.Now()
	chi, err := susceptibility.Compute(ctx, cell, opts.Params())
	hooks.OnComputeComplete(ctx, cell.Dims.Points(), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := marshalChi(chi); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLSusceptibility); err == nil {
			observability.Cache().OnCacheSet(ctx, "chi", len(data))
		} else {
			opts.Logger.Warn("could not cache susceptibility", "error", err)
		}
	}

	return chi, false, nil
}

// Compute is a convenience wrapper that calls ComputeWithCacheInfo and discards the cache hit info.
func (r *Runner) Compute(ctx context.Context, g *dx.Grid, inputHash string, opts Options) (*grid.Volume[complex128], error) {
	chi, _, err := r.ComputeWithCacheInfo(ctx, g, inputHash, opts)
	return chi, err
}

// EncodeWithCacheInfo encodes the selected component of an expanded chi
// grid with caching. chiKey identifies chi in the cache.
func (r *Runner) EncodeWithCacheInfo(ctx context.Context, chi *grid.Volume[complex128], lat dx.Lattice, chiKey string, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForEncode(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(chiKey, opts.ArtifactKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := r.Encode(ctx, chi, lat, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Encode writes the selected component of chi in the requested format.
func (r *Runner) Encode(ctx context.Context, chi *grid.Volume[complex128], lat dx.Lattice, opts Options) ([]byte, error) {
	if err := opts.ValidateForEncode(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnEncodeStart(ctx, string(opts.Format))
	start := time.Now()

	var buf bytes.Buffer
	err := dx.Encode(&buf, grid.ComplexField(chi, opts.Component), lat, opts.Format)
	hooks.OnEncodeComplete(ctx, string(opts.Format), buf.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteOutput writes an encoded artifact to path, gzip-compressing it when
// the path ends in ".gz".
func WriteOutput(path string, data []byte) error {
	w, err := dx.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// chiEntry is the cached form of a chi grid.
type chiEntry struct {
	Dims grid.Dims `json:"dims"`
	Re   []float64 `json:"re"`
	Im   []float64 `json:"im"`
}

func marshalChi(chi *grid.Volume[complex128]) ([]byte, error) {
	e := chiEntry{
		Dims: chi.Dims,
		Re:   make([]float64, len(chi.Data)),
		Im:   make([]float64, len(chi.Data)),
	}
	for i, z := range chi.Data {
		e.Re[i], e.Im[i] = real(z), imag(z)
	}
	return json.Marshal(e)
}

func unmarshalChi(data []byte) (*grid.Volume[complex128], error) {
	var e chiEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	chi, err := grid.NewVolume[complex128](e.Dims)
	if err != nil {
		return nil, err
	}
	if len(e.Re) != len(chi.Data) || len(e.Im) != len(chi.Data) {
		return nil, errors.New(errors.ErrCodeInternal, "cached chi holds %d values, want %d", len(e.Re), len(chi.Data))
	}
	for i := range chi.Data {
		chi.Data[i] = complex(e.Re[i], e.Im[i])
	}
	return chi, nil
}
