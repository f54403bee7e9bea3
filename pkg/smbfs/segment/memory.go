package segment

// MemorySegment holds the entire file in one contiguous byte buffer
// (spec.md §4.4.2). usedLength tracks the logical size independent of the
// buffer's capacity, so truncate can shrink without releasing memory.
type MemorySegment struct {
	*Base

	buf        []byte
	usedLength uint64
}

// NewMemorySegment creates an empty in-memory segment.
func NewMemorySegment(uniqueID uint64) *MemorySegment {
	return &MemorySegment{Base: NewBase(uniqueID)}
}

// HasDataFor reports the §4.4.2 three-valued verdict for a proposed range:
// Available if it fits within usedLength, Loadable on first access (buffer
// still empty and state pre-load), NotAvailable if the range runs past
// usedLength once data has already been loaded.
func (s *MemorySegment) HasDataFor(off, length uint64) HasDataResult {
	s.lock()
	defer s.unlock()

	if off+length <= s.usedLength {
		return ResultAvailable
	}
	if s.state == Initial || s.state == LoadWait {
		return ResultLoadable
	}
	return ResultNotAvailable
}

// Load installs the full file contents after a BeginLoad/FinishLoad cycle
// run by the caller; data is copied into buf and usedLength is set to len(data).
func (s *MemorySegment) Load(data []byte) {
	s.lock()
	s.buf = append(s.buf[:0], data...)
	s.usedLength = uint64(len(data))
	s.unlock()
}

// ReadAt copies min(len(p), usedLength-off) bytes from the buffer into p.
func (s *MemorySegment) ReadAt(p []byte, off uint64) int {
	s.lock()
	defer s.unlock()
	if off >= s.usedLength {
		return 0
	}
	n := copy(p, s.buf[off:s.usedLength])
	return n
}

// WriteAt writes p at off, growing buf and usedLength as needed, and sets
// StatusUpdated.
func (s *MemorySegment) WriteAt(p []byte, off uint64) int {
	s.lock()
	end := off + uint64(len(p))
	if end > uint64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[off:end], p)
	if end > s.usedLength {
		s.usedLength = end
	}
	if end > s.fileLength {
		s.fileLength = end
	}
	if end > s.readableLength {
		s.readableLength = end
	}
	s.broadcast()
	s.unlock()
	s.SetStatus(StatusUpdated)
	return n
}

// Truncate shrinks or grows usedLength without releasing the underlying buffer.
func (s *MemorySegment) Truncate(size uint64) {
	s.lock()
	defer s.unlock()
	s.usedLength = size
	s.fileLength = size
	if s.readableLength > size {
		s.readableLength = size
	}
}

// UsedLength returns the current logical length.
func (s *MemorySegment) UsedLength() uint64 {
	s.lock()
	defer s.unlock()
	return s.usedLength
}
