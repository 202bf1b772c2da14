package cache

// ScopedKeyer wraps a Keyer with a prefix so that several cache layouts
// can share one directory without colliding.
//
// Example usage:
//
//	// Keep entries of a code version apart from older ones
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SusceptibilityKey generates a prefixed key for a computed chi grid.
func (k *ScopedKeyer) SusceptibilityKey(inputHash string, opts SusceptibilityKeyOpts) string {
	return k.prefix + k.inner.SusceptibilityKey(inputHash, opts)
}

// ArtifactKey generates a prefixed key for an encoded artifact.
func (k *ScopedKeyer) ArtifactKey(chiKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(chiKey, opts)
}
