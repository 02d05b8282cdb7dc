package ordcache

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a thread-safe in-memory cache that iterates in key order and
// optionally bounds its size and the age of its entries.
//
// The zero value is not usable; create caches with [New] or [NewFunc].
type Cache[K, V any] struct {
	st store[K, V]

	maxSize int // 0 means unbounded
	ttl     time.Duration
	hasTTL  bool
	clock   clockwork.Clock

	serving atomic.Bool
}

// New returns an unbounded cache without TTL whose keys are ordered by
// [cmp.Compare].
func New[K cmp.Ordered, V any]() *Cache[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc returns an unbounded cache without TTL whose keys are ordered by
// compare.
//
// compare must define a total order over K: it returns a negative number
// when a < b, zero when a == b and a positive number when a > b.
func NewFunc[K, V any](compare func(a, b K) int) *Cache[K, V] {
	if compare == nil {
		panic(fmt.Errorf("compare must not be nil"))
	}

	c := &Cache[K, V]{clock: clockwork.NewRealClock()}
	c.st.tree = newTree[K, V](compare)

	return c
}

// WithMaxSize caps the cache at n entries and returns c.
//
// n must be greater than 0. Once full, each Set evicts the entries with the
// smallest keys until the cache fits again.
func (c *Cache[K, V]) WithMaxSize(n int) *Cache[K, V] {
	c.mustConfigure("WithMaxSize")
	if n <= 0 {
		panic(fmt.Errorf("maxSize must be greater than 0; got %d", n))
	}
	c.maxSize = n

	return c
}

// WithTTL makes every entry expire ttl after it was last set and returns c.
//
// A zero ttl makes entries expire immediately.
func (c *Cache[K, V]) WithTTL(ttl time.Duration) *Cache[K, V] {
	c.mustConfigure("WithTTL")
	if ttl < 0 {
		panic(fmt.Errorf("ttl must not be negative; got %s", ttl))
	}
	c.ttl = ttl
	c.hasTTL = true

	return c
}

// WithClock sets the time source used for expiry and returns c.
func (c *Cache[K, V]) WithClock(clock clockwork.Clock) *Cache[K, V] {
	c.mustConfigure("WithClock")
	if clock == nil {
		panic(fmt.Errorf("clock must not be nil"))
	}
	c.clock = clock

	return c
}

// MaxSize returns the configured entry cap, or 0 if the cache is unbounded.
func (c *Cache[K, V]) MaxSize() int {
	return c.maxSize
}

// TTL returns the configured time-to-live and whether one is set.
func (c *Cache[K, V]) TTL() (time.Duration, bool) {
	return c.ttl, c.hasTTL
}

func (c *Cache[K, V]) mustConfigure(method string) {
	if c.serving.Load() {
		panic(fmt.Errorf("%s called after the cache started serving requests", method))
	}
}

// serve freezes the configuration.
func (c *Cache[K, V]) serve() {
	if !c.serving.Load() {
		c.serving.Store(true)
	}
}

// Set stores (k, v) in the cache, replacing any previous value for k and
// restarting its TTL.
//
// The stored entry may be evicted right away if the cache is full and k is
// its smallest key.
func (c *Cache[K, V]) Set(k K, v V) {
	c.serve()
	now := c.clock.Now()

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	c.insertLocked(c.newEntry(k, v, now), now)
}

// Get returns the value for the given key.
//
// Returns the zero value and false if the key is not found or has expired.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.serve()
	now := c.clock.Now()

	c.st.mu.RLock()
	e, ok := c.lookupLocked(k)
	c.st.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if !c.live(e, now) {
		c.deleteIfExpired(k, now)

		var zero V
		return zero, false
	}

	return e.value, true
}

// Has returns true if a live entry for the given key exists in the cache.
func (c *Cache[K, V]) Has(k K) bool {
	_, ok := c.Get(k)

	return ok
}

// GetOrSet returns the existing value for the key if present and live.
// Otherwise, it stores and returns the given value.
//
// The loaded result is true if the value was loaded, false if stored.
func (c *Cache[K, V]) GetOrSet(k K, v V) (actual V, loaded bool) {
	c.serve()
	now := c.clock.Now()

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	if e, ok := c.lookupLocked(k); ok && c.live(e, now) {
		return e.value, true
	}
	c.insertLocked(c.newEntry(k, v, now), now)

	return v, false
}

// SetIfAbsent stores the value for a key only if no live entry exists for it.
//
// Returns true if the value was stored.
func (c *Cache[K, V]) SetIfAbsent(k K, v V) (stored bool) {
	_, loaded := c.GetOrSet(k, v)

	return !loaded
}

// Remove deletes the entry for the given key, expired or not, and returns
// its value.
//
// The second result reports whether the key was present.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	c.serve()

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	e, ok := c.st.tree.Delete(entry[K, V]{key: k})

	return e.value, ok
}

// Delete removes the entry for the given key.
func (c *Cache[K, V]) Delete(k K) {
	c.Remove(k)
}

// Len returns the number of live entries in the cache.
//
// Expired entries are purged before counting.
func (c *Cache[K, V]) Len() int {
	c.serve()
	now := c.clock.Now()

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	c.purgeLocked(now)

	return c.st.tree.Len()
}

// Purge removes all expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	c.serve()
	now := c.clock.Now()

	c.st.mu.Lock()
	defer c.st.mu.Unlock()

	return c.purgeLocked(now)
}

// Reset removes all the items from the cache.
//
// The configuration is kept.
func (c *Cache[K, V]) Reset() {
	c.st.mu.Lock()
	c.st.tree.Clear(false)
	c.st.mu.Unlock()
}

// All returns an iterator over the live key-value pairs in ascending key
// order.
//
// The pairs are captured when All is called; ranging over the iterator
// again yields the same pairs.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	entries := c.snapshot()

	return func(yield func(K, V) bool) {
		for _, e := range entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the live keys in ascending order.
//
// The keys are captured when Keys is called.
func (c *Cache[K, V]) Keys() iter.Seq[K] {
	entries := c.snapshot()

	return func(yield func(K) bool) {
		for _, e := range entries {
			if !yield(e.key) {
				return
			}
		}
	}
}

// Values returns an iterator over the live values, ordered by their keys.
//
// The values are captured when Values is called.
func (c *Cache[K, V]) Values() iter.Seq[V] {
	entries := c.snapshot()

	return func(yield func(V) bool) {
		for _, e := range entries {
			if !yield(e.value) {
				return
			}
		}
	}
}

// RunSweeper purges expired entries every interval, measured on the cache's
// clock, until ctx is done. It blocks; run it in its own goroutine.
//
// RunSweeper returns ctx.Err() on shutdown.
func (c *Cache[K, V]) RunSweeper(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return fmt.Errorf("sweep interval must be greater than 0; got %s", every)
	}
	c.serve()

	ticker := c.clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			c.Purge()
		}
	}
}
