// ABOUTME: Thread-safe bounded cache of known-duplicate question keys.
// ABOUTME: Safe to cache positives forever because the record log is append-only.

package dedupe

import (
	"container/list"
	"sync"
)

// cache remembers (theme, text) pairs confirmed to exist in the store so
// repeated candidates within a process skip the database probe. Entries
// never become stale - records are never deleted - so the only bound is
// size, enforced by evicting the oldest entry.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type cache struct {
	mu      sync.RWMutex
	seen    map[string]*list.Element
	order   *list.List // keys in insertion order, oldest at front
	maxSize int
}

func newCache(maxSize int) *cache {
	return &cache{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// check returns true if the key is a known duplicate.
func (c *cache) check(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.seen[key]
	return ok
}

// mark records a confirmed duplicate. If the cache is at capacity, the
// oldest entry is evicted to make room.
func (c *cache) mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.seen[key]; exists {
		return
	}

	if len(c.seen) >= c.maxSize {
		front := c.order.Front()
		if front != nil {
			oldest, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.seen, oldest)
		}
	}

	c.seen[key] = c.order.PushBack(key)
}

// len returns the number of cached keys.
func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}
