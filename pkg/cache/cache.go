// Package cache provides byte caches for fetched resources and theme
// variable sets.
//
// Backends:
//   - [FileCache]: one stamped file per entry under a directory (CLI default)
//   - [MemoryCache]: in-process map with expiry (tests, long-running servers)
//   - [RedisCache]: shared cache for multi-instance `ffs serve` deployments
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that resources and themes never collide
// and so that caches shared between base URLs can be scoped.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	// TTLResource applies to fetched stylesheets and scripts.
	TTLResource = 24 * time.Hour

	// TTLTheme applies to theme variable sets.
	TTLTheme = time.Hour
)

// Cache stores opaque byte values with an optional TTL.
// A TTL of zero means the entry never expires.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ResourceKey generates a key for a fetched resource body.
	ResourceKey(url string) string

	// ThemeKey generates a key for a theme variable set.
	ThemeKey(name string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResourceKey hashes the URL so arbitrary query strings stay key-safe.
func (DefaultKeyer) ResourceKey(url string) string {
	return "resource:" + Hash([]byte(url))
}

// ThemeKey keys theme variable sets by name.
func (DefaultKeyer) ThemeKey(name string) string {
	return "theme:" + name
}
