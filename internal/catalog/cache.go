package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache keeps one snapshot per region for ttl. Concurrent misses for the
// same region share a single load.
type Cache struct {
	loader *Loader
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	snap    *Snapshot
	expires time.Time
}

func NewCache(loader *Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Snapshot(ctx context.Context, region string) *Snapshot {
	c.mu.Lock()
	entry, ok := c.entries[region]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return entry.snap
	}

	v, _, _ := c.group.Do(region, func() (any, error) {
		snap := c.loader.Snapshot(context.WithoutCancel(ctx), region)
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[region] = cacheEntry{snap: snap, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return snap, nil
	})
	return v.(*Snapshot)
}

func (c *Cache) FetchSeason(ctx context.Context, region, seasonID string) (SeasonIndex, error) {
	return c.loader.FetchSeason(ctx, region, seasonID)
}

// Invalidate drops every cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
