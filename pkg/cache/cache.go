// Package cache stores intermediate results of the lindhard pipeline.
//
// The susceptibility calculation dominates the cost of a run, so its result
// is cached under a key derived from the content of the input grid and the
// physical parameters. Encoded artifacts are cached on top of that, keyed by
// the susceptibility key plus the output options.
//
// Two backends ship with the package: [FileCache] for CLI usage and
// [NullCache] for when caching is disabled. Keys are produced by a [Keyer];
// [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLSusceptibility = 30 * 24 * time.Hour
	TTLArtifact       = 7 * 24 * time.Hour
)

// Keyer generates cache keys for each cached stage.
type Keyer interface {
	// SusceptibilityKey identifies a computed chi grid.
	SusceptibilityKey(inputHash string, opts SusceptibilityKeyOpts) string

	// ArtifactKey identifies an encoded output derived from a chi grid.
	ArtifactKey(chiKey string, opts ArtifactKeyOpts) string
}

// SusceptibilityKeyOpts are the parameters that change a computed chi grid.
type SusceptibilityKeyOpts struct {
	Gamma       float64 `json:"gamma"`
	Temperature float64 `json:"temperature"`
}

// ArtifactKeyOpts are the parameters that change an encoded artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Component string `json:"component"`
}

// DefaultKeyer derives keys by hashing the key parts.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SusceptibilityKey returns "chi:<hash>".
func (DefaultKeyer) SusceptibilityKey(inputHash string, opts SusceptibilityKeyOpts) string {
	return hashKey("chi", inputHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(chiKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", chiKey, opts)
}
