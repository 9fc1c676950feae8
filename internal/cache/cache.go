package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/JustJay7/docket-dashboard/internal/metrics"
)

// Cache stores rendered results keyed by request fingerprint.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	Clear()
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	MaxSize    int       `json:"max_size"`
	LastAccess time.Time `json:"last_access"`
}

// LRUCache is a bounded TTL cache. When full, the entry closest to expiry
// is evicted.
type LRUCache[V any] struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
}

func NewCache[V any](maxSize int, ttl time.Duration) *LRUCache[V] {
	return &LRUCache[V]{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		stats:   CacheStats{},
	}
}

func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		if v, ok := data.(V); ok {
			c.stats.Hits++
			metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return v, true
		}
	}

	c.stats.Misses++
	metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	var zero V
	return zero, false
}

func (c *LRUCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize <= 0 {
		return
	}
	if _, exists := c.cache.Get(key); !exists && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *LRUCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{}
}

func (c *LRUCache[V]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	stats.MaxSize = c.maxSize
	return stats
}

func (c *LRUCache[V]) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldest int64

	for key, item := range items {
		if oldestKey == "" || item.Expiration < oldest || (item.Expiration == oldest && key < oldestKey) {
			oldestKey = key
			oldest = item.Expiration
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// GenerateCacheKey joins parts under a namespace, e.g.
// GenerateCacheKey("dashboard", "month", "dcd,nysd").
func GenerateCacheKey(namespace string, parts ...string) string {
	return fmt.Sprintf("%s:%s", namespace, strings.Join(parts, ":"))
}
