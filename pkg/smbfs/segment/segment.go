package segment

import (
	"sync"
	"time"

	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

// Base is embedded by every concrete variant; it owns the monitor, the
// state machine, the status flags, and the readable-prefix contract
// (spec.md §4.4.4). All three variants share exactly this locking
// discipline: the monitor protects state/flags/cursors, but I/O against
// the backing store runs outside it, guarded instead by the cooperative
// load-lock (the first caller to transition Initial|LoadWait -> Loading
// owns the load; everyone else waits on the monitor).
type Base struct {
	mu   sync.Mutex
	cond *sync.Cond

	uniqueID uint64

	state  State
	status Status

	fileLength     uint64
	readableLength uint64

	err     error
	metrics *metrics.Metrics
}

// NewBase constructs a Base bound to uniqueID, in the Initial state.
func NewBase(uniqueID uint64) *Base {
	b := &Base{uniqueID: uniqueID, state: Initial}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SetMetrics attaches m, so every state transition is reported.
func (b *Base) SetMetrics(m *metrics.Metrics) { b.metrics = m }

func (b *Base) UniqueID() uint64 { return b.uniqueID }

// State returns the current state under the monitor.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setState transitions state and broadcasts; callers must hold b.mu.
func (b *Base) setState(s State) {
	b.state = s
	b.metrics.ObserveSegmentTransition(s.String())
	b.cond.Broadcast()
}

// SetStatus / ClearStatus mutate the orthogonal flag set.
func (b *Base) SetStatus(bit Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status |= bit
}

func (b *Base) ClearStatus(bit Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status &^= bit
}

func (b *Base) HasStatus(bit Status) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status.Has(bit)
}

// FileLength / ReadableLength return the current lengths under the monitor.
// The invariant readableLength <= fileLength holds at every observation point.
func (b *Base) FileLength() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fileLength
}

func (b *Base) ReadableLength() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readableLength
}

// SetFileLength sets the known total length; used when a stat resolves it
// ahead of any load.
func (b *Base) SetFileLength(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fileLength = n
}

// AdvanceReadable grows the readable prefix (clamped to fileLength) and
// wakes any waiter whose range now fits; called by a loader as bytes stream in.
func (b *Base) AdvanceReadable(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.fileLength {
		n = b.fileLength
	}
	if n > b.readableLength {
		b.readableLength = n
		b.cond.Broadcast()
	}
}

// BeginLoad attempts to acquire the single-loader guarantee: if the state
// is Initial or LoadWait, it transitions to Loading and returns true (the
// caller now owns the load and must eventually call FinishLoad). Otherwise
// it returns false; the caller should fall through to WaitForData.
func (b *Base) BeginLoad() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Initial || b.state == LoadWait {
		b.setState(Loading)
		return true
	}
	return false
}

// FinishLoad releases the load-lock by transitioning unconditionally to
// Available (or Error, if err != nil) and recording the terminal length.
func (b *Base) FinishLoad(length uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.err = err
		b.status |= StatusReadError
		b.setState(Error)
		return
	}
	b.fileLength = length
	if b.readableLength < length {
		b.readableLength = length
	}
	b.setState(Available)
}

// Err returns the error that moved the segment into the Error state, if any.
func (b *Base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// WaitForData blocks until off+len <= readableLength, the state reaches
// Error, or the deadline elapses. Returns true iff the range became
// available. A zero deadline means wait indefinitely.
func (b *Base) WaitForData(deadline time.Time, off, length uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		if off+length <= b.readableLength {
			return true
		}
		if b.state == Error {
			return false
		}
		if deadline.IsZero() {
			b.cond.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if !b.timedWait(remaining) {
			return false
		}
	}
}

// timedWait is sync.Cond.Wait with a timeout, implemented via a watcher
// goroutine that broadcasts once the timer fires so Wait() unblocks and the
// caller can re-check its own deadline. Returns false if the timer fired
// before a genuine broadcast woke it (best-effort: a spurious extra
// broadcast is harmless).
func (b *Base) timedWait(d time.Duration) bool {
	done := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		close(done)
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	b.cond.Wait()
	select {
	case <-done:
		timer.Stop()
		return false
	default:
		timer.Stop()
		return true
	}
}

// IsDataAvailable reports off+len <= readableLength without blocking.
func (b *Base) IsDataAvailable(off, length uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return off+length <= b.readableLength
}

// lock/unlock expose the monitor to variant code that needs to hold it
// across a compound read of cursors/buffer lists alongside Base fields.
func (b *Base) lock()   { b.mu.Lock() }
func (b *Base) unlock() { b.mu.Unlock() }
func (b *Base) broadcast() { b.cond.Broadcast() }
