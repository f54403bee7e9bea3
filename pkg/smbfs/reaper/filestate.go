// Package reaper implements FilesystemsConfig (the share registry) and the
// FileStateReaper that periodically expires stale per-share FileState cache
// entries (spec.md §2, §9 "one reaper per FilesystemsConfig").
package reaper

import (
	"sync"
	"time"
)

// FileState is the per-unique-id metadata cache entry: cross-handle cached
// size/attributes and the segment this unique id is bound to, if any.
type FileState struct {
	UniqueID uint64

	Size       uint64
	Attributes uint32

	// SegmentBinding is an opaque reference to the bound *segment.Base (or
	// one of its variants); kept untyped here so reaper does not import
	// pkg/smbfs/segment, avoiding a cycle with callers that construct both.
	SegmentBinding any

	lastTouched time.Time
	refs        int
}

// Cache is the per-share FileState cache, keyed by unique id.
type Cache struct {
	mu     sync.Mutex
	states map[uint64]*FileState
	fast   *fastLookup
	warm   *warmStore
}

// NewCache creates an empty per-share FileState cache, with a ristretto
// read-through accelerator enabled by default.
func NewCache() *Cache {
	return &Cache{states: make(map[uint64]*FileState), fast: newFastLookup(0)}
}

// Peek returns fastLookup's best-effort, possibly slightly stale view of
// uniqueID's state without taking Cache's mutex or bumping its refcount.
// Suitable for diagnostics/metrics reads; callers needing an authoritative,
// ref-counted lookup must use Get.
func (c *Cache) Peek(uniqueID uint64) (*FileState, bool) {
	return c.fast.get(uniqueID)
}

// EnableWarmStore opens a badger-backed persistent store at dir and starts
// restoring/persisting zero-reference FileState entries across process
// restarts (spec.md §6: "servers are free to persist... but the core does
// not require it"). Returns an error if badger fails to open dir.
func (c *Cache) EnableWarmStore(dir string) error {
	w, err := newWarmStore(dir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.warm = w
	c.mu.Unlock()
	return nil
}

// CloseWarmStore releases the badger handle opened by EnableWarmStore, if any.
func (c *Cache) CloseWarmStore() error {
	c.mu.Lock()
	w := c.warm
	c.warm = nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.close()
}

// Get returns the cached state for uniqueID, creating one (with one
// reference) if absent. A warm store enabled via EnableWarmStore is
// consulted before falling back to a fresh zero-value state, so size and
// attributes cached before a restart survive it.
func (c *Cache) Get(uniqueID uint64) *FileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[uniqueID]
	if !ok {
		if c.warm != nil {
			if restored, ok := c.warm.load(uniqueID); ok {
				s = restored
			}
		}
		if s == nil {
			s = &FileState{UniqueID: uniqueID}
		}
		s.lastTouched = time.Now()
		c.states[uniqueID] = s
	}
	s.refs++
	s.lastTouched = time.Now()
	c.fast.set(uniqueID, s)
	return s
}

// Release drops one reference to uniqueID's state; a state at zero
// references becomes eligible for expiry. A zero-ref release is also the
// point at which a warm store (if enabled) is updated, since that is when
// the state's Size/Attributes/SegmentBinding are settled.
func (c *Cache) Release(uniqueID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[uniqueID]
	if !ok || s.refs == 0 {
		return
	}
	s.refs--
	c.fast.set(uniqueID, s)
	if s.refs == 0 && c.warm != nil {
		c.warm.save(s)
	}
}

// Expire removes every zero-reference state last touched more than
// olderThanSeconds ago, returning the number removed. Expired states are
// evicted from the fast lookup too; the warm store (if enabled) keeps its
// own copy so a later Get after a restart can still restore it.
func (c *Cache) Expire(olderThanSeconds int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	removed := 0
	for id, s := range c.states {
		if s.refs == 0 && s.lastTouched.Before(cutoff) {
			delete(c.states, id)
			c.fast.del(id)
			removed++
		}
	}
	return removed
}

// Count returns the current number of cached states.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}
