// Package cache stores layout engine results.
//
// Running the layout engine dominates the cost of a layout run, and its
// output depends only on the DOT description and the engine used. Results
// are therefore cached under a key derived from both, and a cached result
// goes through the same geometry parser as a fresh one.
//
// Three backends are provided:
//   - [FileCache]: entries as files under a local directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for disabling the cache
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long layout results stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key of the engine output for a description.
	LayoutKey(engine string, dot []byte) string
}

// cacheKeyPrefix starts every key built by DefaultKeyer.
const cacheKeyPrefix = "layout:"

// DefaultKeyer builds keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(engine string, dot []byte) string {
	return layoutKey(engine, dot)
}

// ScopedKeyer prefixes every key of another keyer, giving each scope its
// own namespace in a shared cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(engine string, dot []byte) string {
	return k.prefix + k.inner.LayoutKey(engine, dot)
}
