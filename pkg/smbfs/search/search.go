// Package search implements the per-NetworkFile directory-search registry
// (spec.md §4.3): the sequential and hashed SearchMap variants and the
// SearchContext contract a disk driver implements to serve a directory
// enumeration.
package search

import (
	"sync"

	"github.com/dittofs-core/smbcore/pkg/smbfs/errors"
	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

const (
	// DefaultSlots is the initial/default number of search slots per file.
	DefaultSlots = 8
	// MaxSlots is the hard ceiling on search slots per file.
	MaxSlots = 256
)

// FileInfo is the minimal per-entry metadata a SearchContext yields; the
// full value object lives in pkg/smbfs/iface (FileInfo), referenced here
// only as an opaque anchor for RestartAt.
type FileInfo any

// SearchContext is implemented by the disk driver per active directory
// search. Exactly one of RestartAt's two anchor forms (integer resume id or
// FileInfo) is meaningful for the driver that created the context; the
// core never inspects SearchString beyond passing it through.
type SearchContext interface {
	// HasMoreFiles reports whether another call to NextFileInfo would succeed.
	HasMoreFiles() bool

	// NextFileInfo populates out with the next matching entry. Returns false
	// when the search is exhausted.
	NextFileInfo(out any) bool

	// NextFileName returns just the name of the next matching entry, or ""
	// when exhausted.
	NextFileName() string

	// ResumeID returns an opaque integer a client can present to RestartAt
	// to resume this search later (e.g. across a disconnected handle).
	ResumeID() int

	// RestartAt repositions the search at either an integer resume id or a
	// concrete FileInfo anchor. Exactly one argument is non-nil.
	RestartAt(resumeID *int, anchor FileInfo) error

	// CloseSearch releases driver-side resources (e.g. an open directory handle).
	CloseSearch()

	// SearchString returns the wildcard pattern this search was opened with.
	SearchString() string
}

// searchSlot holds a context, or the sentinel "allocated but not yet
// populated" state so lookups during the gap between allocateSlot and the
// driver populating the context observe "in use but empty" rather than "free".
type searchSlot struct {
	ctx    SearchContext
	closed bool
}

// Map is the common contract both SearchMap variants satisfy. Per spec.md
// §9 Open Question, the two variants only implement the allocation method
// that fits their storage model; calling the wrong one returns
// ErrWrongAllocator so misuse is caught rather than silently ignored.
type Map interface {
	// AllocateSlot allocates a new search id (sequential variant only).
	AllocateSlot() (int, error)

	// AllocateSlotWithID reserves a caller-chosen id (hashed variant only).
	AllocateSlotWithID(id int) error

	// Set installs the populated context for a previously allocated slot.
	Set(id int, ctx SearchContext) error

	// Get returns the context for id, or (nil, false) if absent or if the
	// slot is allocated-but-empty (the sentinel gap).
	Get(id int) (SearchContext, bool)

	// Remove removes the search at id and returns its context; it does not
	// call CloseSearch.
	Remove(id int) (SearchContext, bool)

	// CloseAll calls CloseSearch on every active context, marks each closed,
	// then clears the table.
	CloseAll()

	// Count returns the number of active (populated or pending) slots.
	Count() int
}

// ErrWrongAllocator is returned when a caller uses the allocation method that
// does not match the SearchMap variant in use.
var ErrWrongAllocator = errors.New(errors.InvalidParameter, "search allocator does not match map variant")

// ============================================================================
// Sequential variant
// ============================================================================

// Sequential is an array-indexed SearchMap: AllocateSlot finds the first
// free slot (or grows up to maxSlots) and returns its index as the search id.
type Sequential struct {
	mu       sync.Mutex
	slots    []*searchSlot // nil entries are free
	maxSlots int
	metrics  *metrics.Metrics
}

// SetMetrics attaches m, so every slot allocation is reported.
func (m *Sequential) SetMetrics(met *metrics.Metrics) { m.metrics = met }

// NewSequential creates a Sequential SearchMap with the given initial and
// maximum slot counts (defaults: DefaultSlots / MaxSlots).
func NewSequential(initialSlots, maxSlots int) *Sequential {
	if initialSlots <= 0 {
		initialSlots = DefaultSlots
	}
	if maxSlots <= 0 {
		maxSlots = MaxSlots
	}
	return &Sequential{
		slots:    make([]*searchSlot, initialSlots),
		maxSlots: maxSlots,
	}
}

func (m *Sequential) AllocateSlot() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.slots {
		if s == nil {
			m.slots[i] = &searchSlot{}
			m.metrics.ObserveSearchSlotAllocated("sequential")
			return i, nil
		}
	}
	if len(m.slots) >= m.maxSlots {
		return 0, errors.ErrTooManySearches
	}
	newLen := len(m.slots) * 2
	if newLen == 0 {
		newLen = DefaultSlots
	}
	if newLen > m.maxSlots {
		newLen = m.maxSlots
	}
	grown := make([]*searchSlot, newLen)
	copy(grown, m.slots)
	id := len(m.slots)
	grown[id] = &searchSlot{}
	m.slots = grown
	m.metrics.ObserveSearchSlotAllocated("sequential")
	return id, nil
}

func (m *Sequential) AllocateSlotWithID(int) error { return ErrWrongAllocator }

func (m *Sequential) Set(id int, ctx SearchContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) || m.slots[id] == nil {
		return errors.ErrInvalidParameter
	}
	m.slots[id].ctx = ctx
	return nil
}

func (m *Sequential) Get(id int) (SearchContext, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) || m.slots[id] == nil || m.slots[id].closed {
		return nil, false
	}
	return m.slots[id].ctx, m.slots[id].ctx != nil
}

func (m *Sequential) Remove(id int) (SearchContext, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) || m.slots[id] == nil {
		return nil, false
	}
	ctx := m.slots[id].ctx
	m.slots[id] = nil
	return ctx, ctx != nil
}

func (m *Sequential) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s != nil && s.ctx != nil {
			s.ctx.CloseSearch()
			s.closed = true
		}
	}
	m.slots = make([]*searchSlot, len(m.slots))
}

func (m *Sequential) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// ============================================================================
// Hashed variant
// ============================================================================

// Hashed is a hash-table-backed SearchMap keyed by caller-chosen search id.
// Per spec.md §9, its AllocateSlot is unsupported (the source's hashed
// variant returns "not supported" there); only AllocateSlotWithID works.
type Hashed struct {
	mu       sync.Mutex
	slots    map[int]*searchSlot
	maxSlots int
	metrics  *metrics.Metrics
}

// SetMetrics attaches m, so every slot allocation is reported.
func (m *Hashed) SetMetrics(met *metrics.Metrics) { m.metrics = met }

// NewHashed creates a Hashed SearchMap with the given slot ceiling (default MaxSlots).
func NewHashed(maxSlots int) *Hashed {
	if maxSlots <= 0 {
		maxSlots = MaxSlots
	}
	return &Hashed{slots: make(map[int]*searchSlot), maxSlots: maxSlots}
}

func (m *Hashed) AllocateSlot() (int, error) { return 0, ErrWrongAllocator }

func (m *Hashed) AllocateSlotWithID(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.slots[id]; exists {
		return errors.ErrInvalidParameter
	}
	if len(m.slots) >= m.maxSlots {
		return errors.ErrTooManySearches
	}
	m.slots[id] = &searchSlot{}
	m.metrics.ObserveSearchSlotAllocated("hashed")
	return nil
}

func (m *Hashed) Set(id int, ctx SearchContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return errors.ErrInvalidParameter
	}
	s.ctx = ctx
	return nil
}

func (m *Hashed) Get(id int) (SearchContext, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || s.closed {
		return nil, false
	}
	return s.ctx, s.ctx != nil
}

func (m *Hashed) Remove(id int) (SearchContext, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, false
	}
	delete(m.slots, id)
	return s.ctx, s.ctx != nil
}

// CloseAll marks every active context closed via setClosed, then clears the
// table. Per spec.md §9 Open Question, the intent here is "mark closed",
// not re-query isClosed(); we call CloseSearch once per context and mark it
// closed ourselves rather than relying on the context's own closed state.
func (m *Hashed) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.ctx != nil {
			s.ctx.CloseSearch()
		}
		s.closed = true
	}
	m.slots = make(map[int]*searchSlot)
}

func (m *Hashed) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

var _ Map = (*Sequential)(nil)
var _ Map = (*Hashed)(nil)
