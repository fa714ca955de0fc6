package texture

import (
	"image"
	"sync"

	"robotviz/internal/logging"
)

// Resolver resolves a material texture reference to a decoded image.
type Resolver interface {
	Resolve(ref string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img    *image.NRGBA
	loaded bool // true if we've attempted to load (img may still be nil)
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a texture by reference. Returns nil if the
// reference cannot be resolved or decoded; failures are cached so each
// missing texture is reported once.
func (c *Cache) Resolve(ref string) *image.NRGBA {
	path, ok := c.index.ResolvePath(ref)
	if !ok {
		c.mu.Lock()
		entry, exists := c.items[ref]
		if !exists {
			c.items[ref] = &cacheEntry{loaded: true}
			c.mu.Unlock()
			logging.Logger().Warn("texture not found", "ref", ref)
			return nil
		}
		c.mu.Unlock()
		return entry.img
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := LoadImage(path)
	if err != nil {
		logging.Logger().Warn("texture load failed", "path", path, "error", err)
	}

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img, loaded: true}
	c.mu.Unlock()

	return img
}
