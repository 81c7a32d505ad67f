package trust

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/spoke-discovery/pkg/observability"
)

// CacheConfig configures a CachingVerifier
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration

	// Fingerprint adds the file's SHA-256 digest to the cache key
	Fingerprint bool
}

// DefaultCacheConfig returns the default verifier cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxEntries: 256,
		TTL:        10 * time.Minute,
	}
}

// CachingVerifier memoizes trust decisions across discoverers.
//
// Entries are keyed by path, size and modification time so a replaced file is
// verified again. Size and modification time are attacker controlled: a file
// rewritten in place with the same size and a restored mtime keeps its cached
// decision until the entry expires or Purge is called. Set
// CacheConfig.Fingerprint to key on the file's content digest instead, at the
// cost of reading the file on every call.
type CachingVerifier struct {
	next        Verifier
	cache       *lru.LRU[string, bool]
	fingerprint bool
	metrics     *observability.Metrics
}

// NewCachingVerifier wraps next with an expiring LRU cache
func NewCachingVerifier(next Verifier, config *CacheConfig, metrics *observability.Metrics) (*CachingVerifier, error) {
	if next == nil {
		return nil, ErrNilVerifier
	}
	if config == nil {
		config = DefaultCacheConfig()
	}

	maxEntries := config.MaxEntries
	if maxEntries < 1 {
		maxEntries = 1
	}

	return &CachingVerifier{
		next:        next,
		cache:       lru.NewLRU[string, bool](maxEntries, nil, config.TTL),
		fingerprint: config.Fingerprint,
		metrics:     metrics,
	}, nil
}

// IsValid returns the cached decision for filePath or asks the wrapped verifier
func (c *CachingVerifier) IsValid(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return c.next.IsValid(filePath)
	}

	key := cacheKey(filePath, info)
	if c.fingerprint {
		digest, err := FileDigest(filePath)
		if err != nil {
			return c.next.IsValid(filePath)
		}
		key += "|" + digest
	}

	if valid, ok := c.cache.Get(key); ok {
		c.metrics.RecordVerifierCache(true)
		return valid
	}
	c.metrics.RecordVerifierCache(false)

	valid := c.next.IsValid(filePath)
	c.cache.Add(key, valid)
	return valid
}

// Len returns the number of cached decisions
func (c *CachingVerifier) Len() int {
	return c.cache.Len()
}

// Purge drops all cached decisions
func (c *CachingVerifier) Purge() {
	c.cache.Purge()
}

func cacheKey(filePath string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", filePath, info.Size(), info.ModTime().UnixNano())
}
