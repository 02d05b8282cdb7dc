// Package ordcache provides a generic, thread-safe in-memory cache with
// ordered iteration, an optional entry cap and an optional time-to-live.
//
// # Architecture
//
// Entries live in a single B-tree ordered by the key comparator, guarded by
// one [sync.RWMutex]. Lookups are O(log n); iteration always yields keys in
// ascending order, never insertion order.
//
// # Configuration
//
// A cache is created with [New] (or [NewFunc] for keys without a native
// order) and configured with builder calls before first use:
//
//	c := ordcache.New[string, int]().
//		WithMaxSize(1000).
//		WithTTL(30 * time.Second)
//
// Configuration is frozen once the cache serves its first operation; a
// later builder call panics.
//
// # Eviction
//
// When a [Cache.Set] pushes the cache past its maximum size, expired entries
// are dropped first and then the entry with the smallest key is evicted
// until the cache fits. The entry just written is not protected: if its key
// is the smallest, it is the one evicted.
//
// # Expiry
//
// An entry expires once its age reaches the TTL. Overwriting a key resets
// its age. Expired entries are invisible to every read and are removed
// lazily by the read that notices them, by [Cache.Purge], or by
// [Cache.RunSweeper] when the caller runs one. The cache never starts
// goroutines on its own.
//
// # Thread Safety
//
// All [Cache] methods are safe for concurrent use by multiple goroutines.
// [Cache.Keys], [Cache.Values] and [Cache.All] return snapshots taken at
// call time.
package ordcache
