package loader

import "sync"

// Queue is a FIFO of *Request guarded by one monitor; Add signals, RemoveHead
// blocks while empty (spec.md §5 "FileRequestQueue and WriteRequestQueue:
// one monitor each; add signals, removeHead waits on empty").
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*Request
	closed  bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add appends a request to the tail and signals one waiter.
func (q *Queue) Add(r *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, r)
	q.cond.Signal()
}

// AddToTail re-enqueues a requeued request, same as Add (kept as a distinct
// name so Requeue call sites read clearly).
func (q *Queue) AddToTail(r *Request) { q.Add(r) }

// RemoveHead blocks until a request is available or the queue is closed,
// returning (nil, false) in the latter case.
func (q *Queue) RemoveHead() (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes every blocked RemoveHead so workers can exit during shutdown.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// WriteQueue specializes Queue for save-side requests; its ordering and
// blocking contract are identical, distinguished only by type so the loader
// can route Load vs Save/TransactionalSave/Delete to separate queues.
type WriteQueue struct {
	*Queue
}

// NewWriteQueue creates an empty WriteQueue.
func NewWriteQueue() *WriteQueue { return &WriteQueue{Queue: NewQueue()} }
