// Package rastercache memoizes rendered display-tile rasters.
//
// Entries are evicted least-recently-used first, both when the entry count
// exceeds MaxEntries and when the summed weight exceeds MaxWeight. All-fog
// rasters carry no pixels and are charged SentinelWeight.
package rastercache

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/compositor"
	"github.com/rotblauer/catfog/params"
)

type Cache struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[maptile.Tile, *compositor.Raster]
	weight int

	maxWeight      int
	sentinelWeight int
}

func New(cfg params.RasterCacheConfig) (*Cache, error) {
	c := &Cache{
		maxWeight:      cfg.MaxWeight,
		sentinelWeight: cfg.SentinelWeight,
	}
	l, err := simplelru.NewLRU[maptile.Tile, *compositor.Raster](cfg.MaxEntries, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// onEvict runs with mu held, from within lru calls.
func (c *Cache) onEvict(_ maptile.Tile, r *compositor.Raster) {
	c.weight -= c.weightOf(r)
}

func (c *Cache) weightOf(r *compositor.Raster) int {
	if r.IsAllFog() {
		return c.sentinelWeight
	}
	return r.Bytes()
}

// Get returns the cached raster of t and marks it recently used.
func (c *Cache) Get(t maptile.Tile) (*compositor.Raster, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(t)
}

// Add caches r under r.Tile, evicting old entries to stay within budget.
func (c *Cache) Add(r *compositor.Raster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(r.Tile); ok {
		c.weight -= c.weightOf(old)
	}
	c.lru.Add(r.Tile, r)
	c.weight += c.weightOf(r)
	for c.maxWeight > 0 && c.weight > c.maxWeight && c.lru.Len() > 1 {
		c.lru.RemoveOldest()
	}
}

// GetOrRender returns the cached raster of t, rendering and caching it on a miss.
// render runs without the lock held.
func (c *Cache) GetOrRender(t maptile.Tile, render func(maptile.Tile) *compositor.Raster) *compositor.Raster {
	if r, ok := c.Get(t); ok {
		return r
	}
	r := render(t)
	c.Add(r)
	return r
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.weight = 0
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Weight returns the summed weight of cached entries.
func (c *Cache) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}
