package cache

import (
	"orders-dashboard/pkg/cache"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryTracker struct {
	store *gocache.Cache
}

// NewRecentTracker creates an in-memory tracker.
// window: how long a mark stays visible
// cleanupInterval: how often to scan for expired marks
func NewRecentTracker(window, cleanupInterval time.Duration) cache.RecentTracker {
	return &memoryTracker{
		store: gocache.New(window, cleanupInterval),
	}
}

func (c *memoryTracker) Mark(key string) {
	c.store.SetDefault(key, struct{}{})
}

func (c *memoryTracker) Recent(key string) bool {
	_, found := c.store.Get(key)
	return found
}
