package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	Total int
}

func TestCacheGetSet(t *testing.T) {
	c := NewCache[*view](10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", &view{Total: 3})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got.Total)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.MaxSize)
	assert.False(t, stats.LastAccess.IsZero())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCacheEvictsWhenFull(t *testing.T) {
	c := NewCache[int](2, time.Minute)

	c.Set("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Stats().Size)
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry is evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)

	// Overwriting an existing key does not evict.
	c.Set("c", 4)
	assert.Equal(t, 2, c.Stats().Size)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache[string](10, 20*time.Millisecond)
	c.Set("k", "v")

	time.Sleep(40 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := NewCache[string](10, time.Minute)
	c.Set("k", "v")
	_, _ = c.Get("k")

	c.Clear()
	assert.Equal(t, CacheStats{MaxSize: 10}, c.Stats())
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache[string](0, time.Minute)
	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache[int](50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := GenerateCacheKey("test", string(rune('a'+i)))
			c.Set(key, i)
			_, _ = c.Get(key)
			_ = c.Stats()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, c.Stats().Size)
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "dashboard:month:dcd,nysd:", GenerateCacheKey("dashboard", "month", "dcd,nysd", ""))
	assert.Equal(t, "options:", GenerateCacheKey("options"))
}
