package tuicore

import (
	"fmt"
	"strings"
	"sync"
)

// defaultLayoutCacheCapacity covers one frame's worth of distinct Flex
// regions without growing unbounded.
const defaultLayoutCacheCapacity = 64

// LayoutCacheKey fingerprints one Solve call. Two calls with equal keys
// are assumed (by the cache, never verified) to produce equal results.
// Build keys with NewLayoutCacheKey so every solver input is covered;
// a hand-assembled Constraints string that omits a field the solver
// reads silently corrupts the cache.
type LayoutCacheKey struct {
	Area        Rect
	Direction   Direction
	Constraints string // canonical constraint+hint encoding, see NewLayoutCacheKey
}

// NewLayoutCacheKey fingerprints the full solver input: area, direction,
// and an order-sensitive encoding of every field of every constraint and
// size hint. Changing any single value (a Fixed amount, a Ratio
// denominator, a hint's preferred size, constraint order) produces a
// distinct key.
func NewLayoutCacheKey(area Rect, direction Direction, constraints []Constraint, hints []LayoutSizeHint) LayoutCacheKey {
	var b strings.Builder
	for _, c := range constraints {
		fmt.Fprintf(&b, "%d:%d:%d:%d:%d:%d;", c.Kind, c.N, c.P, c.Num, c.Den, c.Hi)
	}
	if len(hints) > 0 {
		b.WriteByte('|')
		for _, h := range hints {
			if h.Max != nil {
				fmt.Fprintf(&b, "%d:%d:%d;", h.Min, h.Preferred, *h.Max)
			} else {
				fmt.Fprintf(&b, "%d:%d:-;", h.Min, h.Preferred)
			}
		}
	}
	return LayoutCacheKey{Area: area, Direction: direction, Constraints: b.String()}
}

type layoutCacheEntry struct {
	rects  []Rect
	access uint64
	gen    uint64
}

// LayoutCacheStats reports hit/miss counters for observability.
type LayoutCacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LayoutCache memoizes Solve results keyed by LayoutCacheKey.
//
// Fixed capacity; on miss while full, the entry with the lowest access
// count is evicted (approximate LRU: cheap to maintain, no linked list
// needed). A generation counter gives InvalidateAll O(1) bulk
// invalidation without walking or reallocating the table: bumping the
// generation makes every existing entry's gen stale, so the next
// GetOrCompute treats it as a miss and overwrites it in place.
type LayoutCache struct {
	mu       sync.Mutex
	capacity int
	gen      uint64
	entries  map[LayoutCacheKey]*layoutCacheEntry
	stats    LayoutCacheStats
}

// NewLayoutCache creates a cache with the given capacity. capacity <= 0
// uses defaultLayoutCacheCapacity.
func NewLayoutCache(capacity int) *LayoutCache {
	if capacity <= 0 {
		capacity = defaultLayoutCacheCapacity
	}
	return &LayoutCache{
		capacity: capacity,
		gen:      1,
		entries:  make(map[LayoutCacheKey]*layoutCacheEntry, capacity),
	}
}

// GetOrCompute returns the cached rects for key if present at the
// current generation, recording a hit; otherwise it calls compute,
// stores the result, records a miss, and evicts the lowest-access-count
// entry first if the cache is at capacity.
//
// compute is a pure function of key: the cache never observes whether
// compute's result actually matches what a prior call with an equal key
// produced, so a caller supplying inconsistent keys silently corrupts
// its own cache.
func (c *LayoutCache) GetOrCompute(key LayoutCacheKey, compute func() []Rect) []Rect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.gen == c.gen {
		e.access++
		c.stats.Hits++
		return e.rects
	}

	c.stats.Misses++
	rects := compute()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = &layoutCacheEntry{rects: rects, access: 1, gen: c.gen}
	return rects
}

// evictLocked removes the entry with the lowest access count, breaking
// ties by iteration order (map order is unspecified but stable enough
// for an approximate policy; exactness is not the point).
func (c *LayoutCache) evictLocked() {
	var victim LayoutCacheKey
	var found bool
	var lowest uint64
	for k, e := range c.entries {
		if !found || e.access < lowest {
			victim = k
			lowest = e.access
			found = true
		}
	}
	if found {
		delete(c.entries, victim)
		c.stats.Evictions++
	}
}

// InvalidateAll discards every cached entry in O(1) by bumping the
// generation; stale entries are overwritten lazily as they are next
// missed rather than walked and deleted eagerly.
func (c *LayoutCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
}

// Clear invalidates and additionally drops every stored entry, releasing
// their memory immediately instead of waiting for lazy overwrite.
func (c *LayoutCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[LayoutCacheKey]*layoutCacheEntry, c.capacity)
}

// Stats returns a snapshot of the hit/miss/eviction counters.
func (c *LayoutCache) Stats() LayoutCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len reports how many entries are currently stored, including any that
// are stale at the current generation and have not yet been missed.
func (c *LayoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
