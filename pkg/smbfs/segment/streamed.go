package segment

import "sync"

const (
	// DefaultBufferSize is the size of a single tx/rx page.
	DefaultBufferSize = 2 * 1024 * 1024
	// DefaultSlotCount is the max simultaneous rx or tx buffers held.
	DefaultSlotCount = 4
	// DefaultShortReadThreshold is the upper bound for the small
	// out-of-sequence read path when a share doesn't override it.
	DefaultShortReadThreshold = 64 * 1024
)

// page is one fixed-size buffer of file data, either a loaded rx page, an
// accumulating tx page, or an out-of-sequence rx page.
type page struct {
	offset     uint64
	data       []byte
	usedLength uint64
	written    bool // tx pages: true once any byte has been written into it
	shortRead  bool // rx pages: true if loaded to satisfy a short out-of-seq read
}

func (p *page) end() uint64 { return p.offset + p.usedLength }

func (p *page) covers(off, length uint64) bool {
	return off >= p.offset && off+length <= p.end()
}

func (p *page) coversPrefix(off uint64) bool {
	return off >= p.offset && off < p.end()
}

// Streamed is the streamed segment variant for files larger than any
// in-memory budget (spec.md §4.4.3): data moves through fixed-size rx/tx
// pages instead of one contiguous buffer.
type Streamed struct {
	*Base

	bufferSize         uint64
	slotCount          int
	shortReadThreshold uint64

	// smu guards everything below; Base.mu guards state/status/lengths only.
	smu sync.Mutex

	rx       []*page // in-sequence, ordered by offset
	outOfSeq []*page // loaded for random reads off the sequential cursor
	tx       []*page // accumulating for save, ordered by offset

	readCursor      uint64
	nextWriteOffset uint64
	nextAllocOffset uint64

	loadInFlight bool

	writeWaiters *sync.Cond
}

// NewStreamed creates a Streamed segment with the given page size and slot
// count (0 selects the defaults).
func NewStreamed(uniqueID uint64, bufferSize uint64, slotCount int, shortReadThreshold uint64) *Streamed {
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	if slotCount == 0 {
		slotCount = DefaultSlotCount
	}
	if shortReadThreshold == 0 {
		shortReadThreshold = DefaultShortReadThreshold
	}
	s := &Streamed{
		Base:               NewBase(uniqueID),
		bufferSize:         bufferSize,
		slotCount:          slotCount,
		shortReadThreshold: shortReadThreshold,
	}
	s.writeWaiters = sync.NewCond(&s.smu)
	s.SetStatus(StatusStreamed)
	return s
}

// HasDataFor implements the §4.4.3 read decision.
func (s *Streamed) HasDataFor(off, length uint64) HasDataResult {
	s.smu.Lock()
	defer s.smu.Unlock()

	fileLen := s.FileLength()

	if len(s.rx) == 0 {
		if fileLen == 0 {
			return ResultNotAvailable
		}
		switch {
		case off == 0 && length > s.shortReadThreshold:
			return s.upgradeIfLoading(ResultLoadable)
		case length <= s.shortReadThreshold || s.jumpsPastCursor(off):
			return ResultLoadableOutOfSeq
		default:
			return s.upgradeIfLoading(ResultLoadable)
		}
	}

	remainOff, remainLen := off, length
	for _, p := range s.rx {
		if p.covers(remainOff, remainLen) {
			return ResultAvailable
		}
		if p.coversPrefix(remainOff) {
			consumed := p.end() - remainOff
			remainOff += consumed
			remainLen -= consumed
			if remainLen == 0 {
				return ResultAvailable
			}
		}
	}

	for _, p := range s.outOfSeq {
		if p.covers(remainOff, remainLen) {
			return ResultAvailable
		}
	}

	if remainOff+remainLen <= fileLen {
		return ResultLoadableOutOfSeq
	}
	return ResultNotAvailable
}

func (s *Streamed) jumpsPastCursor(off uint64) bool {
	if off < s.readCursor {
		return true
	}
	return off-s.readCursor > s.bufferSize
}

func (s *Streamed) upgradeIfLoading(result HasDataResult) HasDataResult {
	if s.loadInFlight && result == ResultLoadable {
		return ResultLoading
	}
	return result
}

// BeginSequentialLoad marks a load as in-flight for the sequential path;
// the caller fetches bufferSize bytes starting at the cursor and calls
// CompleteLoad with the result.
func (s *Streamed) BeginSequentialLoad() {
	s.smu.Lock()
	s.loadInFlight = true
	s.smu.Unlock()
}

// CompleteLoad installs a freshly fetched page at offset, appends it to the
// rx (or out-of-sequence) list per isOutOfSeq, evicts over-capacity pages,
// and advances the readable prefix.
func (s *Streamed) CompleteLoad(offset uint64, data []byte, isOutOfSeq, shortRead bool) {
	p := &page{offset: offset, data: data, usedLength: uint64(len(data)), shortRead: shortRead}

	s.smu.Lock()
	if isOutOfSeq {
		s.outOfSeq = append(s.outOfSeq, p)
		if len(s.outOfSeq) > s.slotCount {
			s.outOfSeq = s.outOfSeq[1:]
		}
	} else {
		s.rx = append(s.rx, p)
		if len(s.rx) > s.slotCount {
			s.rx = s.rx[1:]
		}
	}
	s.loadInFlight = false
	s.smu.Unlock()

	s.AdvanceReadable(offset + uint64(len(data)))
}

// ReadAt copies bytes for [off, off+len(p)) from the rx/out-of-sequence
// lists (the caller must have already observed Available via HasDataFor /
// WaitForData). Straddling two buffers is copied in two parts. Advances the
// read cursor past bytes served from the rx list (bytes served from
// out-of-sequence pages leave it unchanged) and purges stale rx pages; drops
// a fully-consumed out-of-sequence page unless it was a short read.
func (s *Streamed) ReadAt(out []byte, off uint64) int {
	s.smu.Lock()
	defer s.smu.Unlock()

	isShortRead := uint64(len(out)) <= s.shortReadThreshold

	total := 0
	remainOff := off
	remaining := out

	for len(remaining) > 0 {
		p, fromOutOfSeq := s.findCoveringMarked(remainOff)
		if p == nil {
			break
		}
		avail := p.end() - remainOff
		n := uint64(len(remaining))
		if n > avail {
			n = avail
		}
		start := remainOff - p.offset
		copy(remaining[:n], p.data[start:start+n])
		total += int(n)
		remainOff += n
		remaining = remaining[n:]

		if !fromOutOfSeq && remainOff > s.readCursor {
			s.readCursor = remainOff
		}
		if fromOutOfSeq && remainOff >= p.end() && !isShortRead {
			s.dropOutOfSeq(p)
		}
	}

	s.purgeStaleRx()

	if s.readCursor >= s.FileLength() && s.FileLength() > 0 {
		s.rx = nil
		s.readCursor = 0
	}

	return total
}

func (s *Streamed) findCoveringMarked(off uint64) (p *page, fromOutOfSeq bool) {
	for _, p := range s.rx {
		if off >= p.offset && off < p.end() {
			return p, false
		}
	}
	for _, p := range s.outOfSeq {
		if off >= p.offset && off < p.end() {
			return p, true
		}
	}
	return nil, false
}

func (s *Streamed) dropOutOfSeq(target *page) {
	for i, p := range s.outOfSeq {
		if p == target {
			s.outOfSeq = append(s.outOfSeq[:i], s.outOfSeq[i+1:]...)
			return
		}
	}
}

// purgeStaleRx drops rx pages whose last byte is below the cursor and which
// are not marked written (a tx page sharing a buffer is never in rx, so
// written here only guards against purging a page mid-fill in pathological reuse).
func (s *Streamed) purgeStaleRx() {
	kept := s.rx[:0]
	for _, p := range s.rx {
		if p.end() <= s.readCursor && !p.written {
			continue
		}
		kept = append(kept, p)
	}
	s.rx = kept
}

// WriteAt implements the §4.4.3 write execution. Writes strictly below
// nextWriteOffset are rejected: the streamed model does not support
// out-of-sequence writes (the store has already swallowed that range).
func (s *Streamed) WriteAt(data []byte, off uint64) (WriteResult, int) {
	s.smu.Lock()
	defer s.smu.Unlock()

	if off < s.nextWriteOffset {
		return WriteRejected, 0
	}

	p := s.findOrAllocTxLocked(off)
	if p == nil {
		return WriteMaxBuffers, 0
	}

	start := off - p.offset
	n := copy(p.data[start:], data)
	used := start + uint64(n)
	if used > p.usedLength {
		p.usedLength = used
	}
	p.written = true

	end := off + uint64(n)
	s.lock()
	if end > s.fileLength {
		s.fileLength = end
	}
	s.unlock()

	if p.usedLength >= s.bufferSize {
		return WriteSaveable, n
	}
	return WriteOK, n
}

// findOrAllocTxLocked returns the tx page covering off, allocating a new
// one if needed. Returns nil if at the slot limit and no existing page fits.
func (s *Streamed) findOrAllocTxLocked(off uint64) *page {
	for _, p := range s.tx {
		if off >= p.offset && off < p.offset+s.bufferSize {
			return p
		}
	}
	if len(s.tx) >= s.slotCount {
		return nil
	}
	pageOffset := (off / s.bufferSize) * s.bufferSize
	if pageOffset < s.nextAllocOffset {
		pageOffset = s.nextAllocOffset
	}
	p := &page{offset: pageOffset, data: make([]byte, s.bufferSize)}
	s.tx = append(s.tx, p)
	s.nextAllocOffset = pageOffset + s.bufferSize
	return p
}

// WaitForWriteBuffer blocks until a tx slot frees up (DataSaved runs) or the
// segment errors. Returns false on error/closed.
func (s *Streamed) WaitForWriteBuffer() bool {
	s.smu.Lock()
	defer s.smu.Unlock()
	for len(s.tx) >= s.slotCount {
		if s.State() == Error {
			return false
		}
		s.writeWaiters.Wait()
	}
	return true
}

// DataToSave returns the head tx page iff it is full, or the segment has
// been closed and the head's offset equals nextWriteOffset (in-order save).
func (s *Streamed) DataToSave(closed bool) (offset uint64, data []byte, ok bool) {
	s.smu.Lock()
	defer s.smu.Unlock()
	if len(s.tx) == 0 {
		return 0, nil, false
	}
	head := s.tx[0]
	full := head.usedLength >= s.bufferSize
	if !full && !(closed && head.offset == s.nextWriteOffset) {
		return 0, nil, false
	}
	return head.offset, head.data[:head.usedLength], true
}

// DataSaved removes the head tx page, advances nextWriteOffset by its used
// length, and wakes writers blocked in WaitForWriteBuffer. nextWriteOffset
// is non-decreasing over the life of a segment by construction: it only
// ever advances here, by a non-negative amount.
func (s *Streamed) DataSaved(offset uint64) {
	s.smu.Lock()
	defer s.smu.Unlock()
	if len(s.tx) == 0 || s.tx[0].offset != offset {
		return
	}
	head := s.tx[0]
	s.tx = s.tx[1:]
	s.nextWriteOffset += head.usedLength
	s.writeWaiters.Broadcast()
}

// NextWriteOffset returns the current in-order save cursor.
func (s *Streamed) NextWriteOffset() uint64 {
	s.smu.Lock()
	defer s.smu.Unlock()
	return s.nextWriteOffset
}

// Truncate implements the §4.4.3 truncate semantics: truncating to zero
// drops every buffer; truncating to a positive value below the current
// length drops pages entirely beyond the new end and shrinks the last
// covering page's usedLength.
func (s *Streamed) Truncate(size uint64) {
	s.smu.Lock()
	defer s.smu.Unlock()

	if size == 0 {
		s.rx = nil
		s.outOfSeq = nil
		s.tx = nil
		s.readCursor = 0
		s.nextWriteOffset = 0
		s.nextAllocOffset = 0
		s.lock()
		s.fileLength = 0
		s.readableLength = 0
		s.unlock()
		return
	}

	s.rx = truncatePages(s.rx, size)
	s.outOfSeq = truncatePages(s.outOfSeq, size)
	s.tx = truncatePages(s.tx, size)

	s.lock()
	s.fileLength = size
	if s.readableLength > size {
		s.readableLength = size
	}
	s.unlock()
}

func truncatePages(pages []*page, size uint64) []*page {
	kept := pages[:0]
	for _, p := range pages {
		if p.offset >= size {
			continue
		}
		if p.end() > size {
			p.usedLength = size - p.offset
		}
		kept = append(kept, p)
	}
	return kept
}
