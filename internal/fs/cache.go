package fs

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/location"
)

type cacheKey struct {
	loc           location.Location
	showHidden    bool
	filter        string
	caseSensitive bool
}

// Cache wraps an Enumerator with an LRU of recent results. Failed and
// cancelled enumerations are never cached.
type Cache struct {
	next    Enumerator
	entries *lru.Cache[cacheKey, []Entry]
}

func NewCache(next Enumerator, size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, []Entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, entries: entries}, nil
}

func (c *Cache) Enumerate(ctx context.Context, loc location.Location, opts Options) ([]Entry, error) {
	key := cacheKey{
		loc:           loc,
		showHidden:    opts.ShowHidden,
		filter:        opts.Filter,
		caseSensitive: opts.FilterCaseSensitive,
	}

	if !opts.BypassCache {
		if cached, ok := c.entries.Get(key); ok {
			debug.Log(debug.FS, "cache hit: %s", loc)
			return slices.Clone(cached), nil
		}
	}

	entries, err := c.next.Enumerate(ctx, loc, opts)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, slices.Clone(entries))
	return entries, nil
}

// Invalidate drops every cached result for loc.
func (c *Cache) Invalidate(loc location.Location) {
	for _, key := range c.entries.Keys() {
		if key.loc.Equal(loc) {
			c.entries.Remove(key)
		}
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.entries.Purge()
}
