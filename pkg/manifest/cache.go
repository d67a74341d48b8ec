package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig controls the parse cache size and entry lifetime.
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultCacheConfig returns the default parse cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 256,
		TTL:        5 * time.Minute,
	}
}

// Cache memoizes Parse results keyed by manifest content hash. Rescan
// paths re-read every manifest on disk; unchanged content skips
// re-validation.
type Cache struct {
	cache  *lru.LRU[string, *Manifest]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a parse cache.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig().MaxEntries
	}

	return &Cache{
		cache: lru.NewLRU[string, *Manifest](cfg.MaxEntries, nil, cfg.TTL),
	}
}

// Parse returns the cached manifest for data, parsing and validating
// on a miss. Validation failures are not cached.
func (c *Cache) Parse(data []byte) (*Manifest, error) {
	key := contentKey(data)

	if m, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return m, nil
	}

	c.misses.Add(1)

	m, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, m)
	return m, nil
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.cache.Purge()
}

// Stats reports cache hit/miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
