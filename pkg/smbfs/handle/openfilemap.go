package handle

import (
	"sync"

	"github.com/dittofs-core/smbcore/pkg/smbfs/errors"
)

const (
	// MaxFiles is the hard ceiling on concurrently open handles per tree.
	MaxFiles = 8192
	// InitialFiles is the starting capacity of the Array variant.
	InitialFiles = 32
	// hashWrap is the point at which the Hashed variant's id counter wraps
	// back to 1 (id 0 is never issued).
	hashWrap = 0x1FFFFFFF
)

// Listener receives openFile/closeFile notifications fired by a Map.
// openFile fires before the handle id is returned to the caller; closeFile
// fires after remove returns a non-nil file.
type Listener interface {
	OnOpenFile(f *NetworkFile)
	OnCloseFile(f *NetworkFile)
}

// Map is the contract both OpenFileMap variants implement (spec.md §4.2).
type Map interface {
	Add(f *NetworkFile) (int, error)
	Find(id int) *NetworkFile
	Remove(id int) *NetworkFile
	IterHandles() []int
	OpenFileCount() int
	RemoveAll() []*NetworkFile
	AddListener(l Listener)
}

type listenerSet struct {
	mu        sync.Mutex
	listeners []Listener
}

// AddListener registers l to receive subsequent open/close notifications.
func (s *listenerSet) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *listenerSet) fireOpen(f *NetworkFile) {
	s.mu.Lock()
	ls := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.OnOpenFile(f)
	}
}

func (s *listenerSet) fireClose(f *NetworkFile) {
	s.mu.Lock()
	ls := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.OnCloseFile(f)
	}
}

// ============================================================================
// Array variant
// ============================================================================

// ArrayMap is a dynamically grown dense-vector OpenFileMap. The allocated
// index is the handle id and is also stamped back onto the file as FID.
type ArrayMap struct {
	mu    sync.Mutex
	slots []*NetworkFile // nil entries are free
	listenerSet
}

// NewArrayMap creates an ArrayMap with InitialFiles starting capacity.
func NewArrayMap() *ArrayMap {
	return &ArrayMap{slots: make([]*NetworkFile, InitialFiles)}
}

func (m *ArrayMap) Add(f *NetworkFile) (int, error) {
	m.mu.Lock()
	for i, s := range m.slots {
		if s == nil {
			f.FID = i
			m.slots[i] = f
			m.mu.Unlock()
			m.fireOpen(f)
			return i, nil
		}
	}
	if len(m.slots) >= MaxFiles {
		m.mu.Unlock()
		return 0, errors.ErrTooManyFiles
	}
	newLen := len(m.slots) * 2
	if newLen > MaxFiles {
		newLen = MaxFiles
	}
	grown := make([]*NetworkFile, newLen)
	copy(grown, m.slots)
	id := len(m.slots)
	f.FID = id
	grown[id] = f
	m.slots = grown
	m.mu.Unlock()
	m.fireOpen(f)
	return id, nil
}

func (m *ArrayMap) Find(id int) *NetworkFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) {
		return nil
	}
	return m.slots[id]
}

func (m *ArrayMap) Remove(id int) *NetworkFile {
	m.mu.Lock()
	if id < 0 || id >= len(m.slots) || m.slots[id] == nil {
		m.mu.Unlock()
		return nil
	}
	f := m.slots[id]
	m.slots[id] = nil
	m.mu.Unlock()
	m.fireClose(f)
	return f
}

func (m *ArrayMap) IterHandles() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int
	for i, s := range m.slots {
		if s != nil {
			ids = append(ids, i)
		}
	}
	return ids
}

func (m *ArrayMap) OpenFileCount() int {
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

func (m *ArrayMap) RemoveAll() []*NetworkFile {
	m.mu.Lock()
	var removed []*NetworkFile
	for i, s := range m.slots {
		if s != nil {
			removed = append(removed, s)
			m.slots[i] = nil
		}
	}
	m.mu.Unlock()
	for _, f := range removed {
		m.fireClose(f)
	}
	return removed
}

// ============================================================================
// Hashed variant
// ============================================================================

// HashedMap is a hash-table-backed OpenFileMap. Handle ids come from a
// monotonic counter wrapping at hashWrap back to 1, skipping ids already
// in use. Default variant per the "disable hashed open file map" config flag.
type HashedMap struct {
	mu      sync.Mutex
	slots   map[int]*NetworkFile
	nextID  int
	wrapped bool
	listenerSet
}

// NewHashedMap creates a HashedMap. startID lets callers/tests seed the
// counter (e.g. to exercise the wrap boundary); 0 means start at 1.
func NewHashedMap(startID int) *HashedMap {
	if startID <= 0 {
		startID = 1
	}
	return &HashedMap{slots: make(map[int]*NetworkFile), nextID: startID}
}

func (m *HashedMap) Add(f *NetworkFile) (int, error) {
	m.mu.Lock()
	if len(m.slots) >= MaxFiles {
		m.mu.Unlock()
		return 0, errors.ErrTooManyFiles
	}

	id := m.nextID
	for {
		if _, occupied := m.slots[id]; !occupied {
			break
		}
		id = m.advance(id)
	}
	m.nextID = m.advance(id)

	f.FID = id
	m.slots[id] = f
	m.mu.Unlock()
	m.fireOpen(f)
	return id, nil
}

// advance returns the next candidate id after id; reaching hashWrap wraps
// back to 1, so hashWrap itself is never issued.
func (m *HashedMap) advance(id int) int {
	if id+1 >= hashWrap {
		return 1
	}
	return id + 1
}

func (m *HashedMap) Find(id int) *NetworkFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *HashedMap) Remove(id int) *NetworkFile {
	m.mu.Lock()
	f, ok := m.slots[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.slots, id)
	m.mu.Unlock()
	m.fireClose(f)
	return f
}

func (m *HashedMap) IterHandles() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.slots))
	for id := range m.slots {
		ids = append(ids, id)
	}
	return ids
}

func (m *HashedMap) OpenFileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *HashedMap) RemoveAll() []*NetworkFile {
	m.mu.Lock()
	removed := make([]*NetworkFile, 0, len(m.slots))
	for id, f := range m.slots {
		removed = append(removed, f)
		delete(m.slots, id)
	}
	m.mu.Unlock()
	for _, f := range removed {
		m.fireClose(f)
	}
	return removed
}

var _ Map = (*ArrayMap)(nil)
var _ Map = (*HashedMap)(nil)
