package ordcache

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// btreeDegree is the fan-out of the backing tree.
const btreeDegree = 32

// entry is a single key/value pair held by the store.
//
// expiresAt is the zero time when the cache has no TTL.
type entry[K, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// store is the ordered, lock-guarded entry set behind a Cache.
//
// Methods with a Locked suffix expect the caller to hold mu.
type store[K, V any] struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry[K, V]]
}

func newTree[K, V any](compare func(a, b K) int) *btree.BTreeG[entry[K, V]] {
	less := func(a, b entry[K, V]) bool {
		return compare(a.key, b.key) < 0
	}

	return btree.NewG[entry[K, V]](btreeDegree, less)
}

// live reports whether e is still visible at now.
func (c *Cache[K, V]) live(e entry[K, V], now time.Time) bool {
	return !c.hasTTL || now.Before(e.expiresAt)
}

func (c *Cache[K, V]) newEntry(k K, v V, now time.Time) entry[K, V] {
	e := entry[K, V]{key: k, value: v}
	if c.hasTTL {
		e.expiresAt = now.Add(c.ttl)
	}

	return e
}

func (c *Cache[K, V]) lookupLocked(k K) (entry[K, V], bool) {
	return c.st.tree.Get(entry[K, V]{key: k})
}

// insertLocked writes e and enforces the size cap.
func (c *Cache[K, V]) insertLocked(e entry[K, V], now time.Time) {
	c.st.tree.ReplaceOrInsert(e)
	c.evictLocked(now)
}

// evictLocked drops expired entries and then the smallest keys until the
// store fits maxSize.
func (c *Cache[K, V]) evictLocked(now time.Time) {
	if c.maxSize <= 0 || c.st.tree.Len() <= c.maxSize {
		return
	}

	c.purgeLocked(now)

	for c.st.tree.Len() > c.maxSize {
		if _, ok := c.st.tree.DeleteMin(); !ok {
			return
		}
	}
}

// purgeLocked removes every expired entry and returns how many it removed.
func (c *Cache[K, V]) purgeLocked(now time.Time) int {
	if !c.hasTTL {
		return 0
	}

	var expired []entry[K, V]
	c.st.tree.Ascend(func(e entry[K, V]) bool {
		if !c.live(e, now) {
			expired = append(expired, e)
		}

		return true
	})

	for _, e := range expired {
		c.st.tree.Delete(e)
	}

	return len(expired)
}

// deleteIfExpired removes k if it is present and expired at now.
func (c *Cache[K, V]) deleteIfExpired(k K, now time.Time) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	if e, ok := c.lookupLocked(k); ok && !c.live(e, now) {
		c.st.tree.Delete(e)
	}
}

// snapshot returns the live entries in key order. Expired entries seen
// along the way are purged once the read lock is released.
func (c *Cache[K, V]) snapshot() []entry[K, V] {
	c.serve()
	now := c.clock.Now()

	c.st.mu.RLock()
	out := make([]entry[K, V], 0, c.st.tree.Len())
	stale := 0
	c.st.tree.Ascend(func(e entry[K, V]) bool {
		if c.live(e, now) {
			out = append(out, e)
		} else {
			stale++
		}

		return true
	})
	c.st.mu.RUnlock()

	if stale > 0 {
		c.st.mu.Lock()
		c.purgeLocked(now)
		c.st.mu.Unlock()
	}

	return out
}
