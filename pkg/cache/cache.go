// Package cache provides result caching for compression runs.
//
// Compression is deterministic: the same input image and options always
// produce the same output raster. That makes results content-addressable,
// so repeated runs can be served from a cache keyed by the input hash and
// an option fingerprint.
//
// Backends:
//   - [FileCache]: directory of JSON entries, for CLI usage
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: TTL-collection cache for deployments already on MongoDB
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// TTLResult is how long compressed results stay cached. Keys are
// content-addressed, so entries never go stale; the TTL only bounds disk
// and memory growth.
const TTLResult = 7 * 24 * time.Hour

// Cache stores opaque byte blobs under string keys with expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ResultKeyOpts fingerprint every option that changes the output raster.
// Two runs share a cache entry iff their input hash and all of these match.
type ResultKeyOpts struct {
	Ratio         float64
	Adjacency     int
	BinSize       float64
	WeightScaled  bool
	Colorspace    string
	PaletteSize   int
	PaletteMethod string
}

// Keyer generates cache keys.
type Keyer interface {
	// ResultKey generates the key for a compressed result, given the
	// SHA-256 hash of the source image bytes.
	ResultKey(inputHash string, opts ResultKeyOpts) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// ResultKey generates a key of the form "result:<sha256>".
func (k *DefaultKeyer) ResultKey(inputHash string, opts ResultKeyOpts) string {
	return hashKey("result", inputHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces when
// several tenants or projects share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(inputHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(inputHash, opts)
}
