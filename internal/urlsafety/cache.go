package urlsafety

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"explorecore/internal/domain"
)

const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 60 * time.Second
)

type cacheEntry struct {
	result   domain.ValidationResult
	storedAt time.Time
}

// Cache holds hostname verdicts for a bounded time. It is size-bounded (LRU)
// and safe for concurrent use. Entries at or past their TTL are evicted on
// read and never served.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache builds a cache. Non-positive size or ttl fall back to the defaults;
// a nil clock means time.Now.
func NewCache(size int, ttl time.Duration, now func() time.Time) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	entries, _ := lru.New[string, cacheEntry](size) // only errors on size <= 0
	return &Cache{entries: entries, ttl: ttl, now: now}
}

func (c *Cache) Get(host string) (domain.ValidationResult, bool) {
	e, ok := c.entries.Get(host)
	if !ok {
		return domain.ValidationResult{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.entries.Remove(host)
		return domain.ValidationResult{}, false
	}
	return e.result, true
}

func (c *Cache) Put(host string, res domain.ValidationResult) {
	c.entries.Add(host, cacheEntry{result: res, storedAt: c.now()})
}

// Len returns the number of entries currently held, stale ones included.
func (c *Cache) Len() int { return c.entries.Len() }

func (c *Cache) TTL() time.Duration { return c.ttl }
