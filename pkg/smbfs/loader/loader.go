package loader

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dittofs-core/smbcore/internal/logger"
	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

// tracer is a package-level otel.Tracer. With no SDK/TracerProvider
// registered (the common case for this core, which does not itself export
// telemetry) it is a no-op, so every span below costs nothing unless a
// caller has wired a real provider into the process.
var tracer = otel.Tracer("github.com/dittofs-core/smbcore/pkg/smbfs/loader")

const (
	// DefaultWorkers is the default background I/O pool size.
	DefaultWorkers = 8
	// MinWorkers / MaxWorkers bound the configurable pool size.
	MinWorkers = 4
	MaxWorkers = 50

	// DefaultShutdownWait is the grace window per shutdown phase.
	DefaultShutdownWait = 2 * time.Second

	// maxWriteRetries bounds how many times a requeued request is retried;
	// past it the loader drops the request, logging it and counting it as
	// "dropped".
	maxWriteRetries = 3
)

// Processor dispatches one Request to the store and reports its outcome.
// Implementations own the actual segment state-machine transitions
// (LoadWait->Loading->Available/Error, SaveWait->Saving->Saved/Error) and
// the NetworkFile flag updates (DelayedWriteError) on failure.
type Processor interface {
	Process(ctx context.Context, r *Request) Outcome
}

// BackgroundFileLoader owns the load/save/delete queues and a fixed pool of
// worker goroutines that drain them (spec.md §4.5).
type BackgroundFileLoader struct {
	loadQueue  *Queue
	saveQueue  *WriteQueue
	miscQueue  *Queue // Delete / TransactionalSave

	processor Processor
	metrics   *metrics.Metrics

	workers      int
	shutdownWait time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// SetMetrics attaches m, so every dispatch/requeue/queue-depth change is
// reported. Must be called before Start; nil is valid and restores the
// no-op default.
func (l *BackgroundFileLoader) SetMetrics(m *metrics.Metrics) {
	l.metrics = m
}

// New creates a BackgroundFileLoader with the given worker count (clamped
// to [MinWorkers, MaxWorkers]) dispatching to processor.
func New(workers int, shutdownWait time.Duration, processor Processor) *BackgroundFileLoader {
	if workers < MinWorkers {
		workers = MinWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if shutdownWait <= 0 {
		shutdownWait = DefaultShutdownWait
	}
	return &BackgroundFileLoader{
		loadQueue:    NewQueue(),
		saveQueue:    NewWriteQueue(),
		miscQueue:    NewQueue(),
		processor:    processor,
		workers:      workers,
		shutdownWait: shutdownWait,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the worker pool.
func (l *BackgroundFileLoader) Start(ctx context.Context) {
	logger.InfoCtx(ctx, "background file loader starting", logger.WorkerCount(l.workers))
	l.metrics.SetLoaderWorkers(l.workers)
	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go l.runWorker(ctx, i)
	}
}

func (l *BackgroundFileLoader) runWorker(ctx context.Context, id int) {
	defer l.wg.Done()
	for {
		r, ok := l.next()
		if !ok {
			return
		}
		l.dispatch(ctx, r)
	}
}

// next pulls the next request with priority Load > Save > misc, so reads
// (which protocol threads are actively blocked on) are not starved behind
// background saves. When all three queues are observed empty, the worker
// sleeps briefly and checks all three again, so a request on any queue is
// picked up.
func (l *BackgroundFileLoader) next() (*Request, bool) {
	for {
		select {
		case <-l.stopCh:
			return nil, false
		default:
		}
		if l.loadQueue.Len() > 0 {
			if r, ok := l.loadQueue.RemoveHead(); ok {
				return r, true
			}
		}
		if l.saveQueue.Len() > 0 {
			if r, ok := l.saveQueue.RemoveHead(); ok {
				return r, true
			}
		}
		if l.miscQueue.Len() > 0 {
			if r, ok := l.miscQueue.RemoveHead(); ok {
				return r, true
			}
		}
		select {
		case <-l.stopCh:
			return nil, false
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (l *BackgroundFileLoader) dispatch(ctx context.Context, r *Request) {
	ctx, span := tracer.Start(ctx, "loader.dispatch",
		trace.WithAttributes(
			attribute.String("request.kind", r.Kind.String()),
			attribute.Int("request.attempt", r.attempts+1),
		))
	defer span.End()

	r.attempts++
	outcome := l.processor.Process(ctx, r)

	switch outcome {
	case Requeue:
		span.AddEvent("requeue")
		l.requeue(ctx, r)
	case Failure:
		logger.WarnCtx(ctx, "file request failed", logger.RequestKind(r.Kind.String()), logger.Attempt(r.attempts))
		span.SetStatus(codes.Error, "request failed")
		l.metrics.ObserveLoaderRequest(r.Kind.String(), "failure")
	default:
		l.metrics.ObserveLoaderRequest(r.Kind.String(), "success")
	}
	l.reportQueueDepth()
}

func (l *BackgroundFileLoader) reportQueueDepth() {
	load, save, misc := l.PendingCounts()
	l.metrics.SetLoaderQueueDepth(load, save, misc)
}

// requeue routes a Requeue outcome back to the tail of its originating
// queue, per kind, unless it has exhausted its retry budget, in which case
// it is dropped with a Failure-equivalent log (the processor is responsible
// for having already set ReadError/WriteError/DelayedWriteError on the
// segment or NetworkFile before returning Requeue too many times).
func (l *BackgroundFileLoader) requeue(ctx context.Context, r *Request) {
	if r.attempts > maxWriteRetries {
		logger.ErrorCtx(ctx, "request exceeded retry budget, dropping", logger.RequestKind(r.Kind.String()), logger.Attempt(r.attempts))
		l.metrics.ObserveLoaderRequest(r.Kind.String(), "dropped")
		return
	}
	l.metrics.ObserveLoaderRequest(r.Kind.String(), "requeue")
	switch r.Kind {
	case Load:
		l.loadQueue.AddToTail(r)
	case Save:
		l.saveQueue.AddToTail(r)
	default:
		l.miscQueue.AddToTail(r)
	}
}

// Submit enqueues r on the queue matching its Kind.
func (l *BackgroundFileLoader) Submit(r *Request) {
	switch r.Kind {
	case Load:
		l.loadQueue.Add(r)
	case Save:
		l.saveQueue.Add(r)
	default:
		l.miscQueue.Add(r)
	}
}

// Shutdown signals workers to stop pulling new work, waits up to the
// shutdown window for in-flight work to drain, then returns. When immediate
// is true, it does not wait at all: pending saves are abandoned, and the
// caller is expected to surface DelayedWriteError on their owning
// NetworkFiles (the loader itself only stops the pool).
func (l *BackgroundFileLoader) Shutdown(immediate bool) {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.loadQueue.Close()
		l.saveQueue.Close()
		l.miscQueue.Close()
	})

	if immediate {
		return
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(l.shutdownWait):
		logger.Warn("background loader shutdown window elapsed with workers still draining")
	}
}

// PendingCounts reports the current depth of each queue, for diagnostics.
func (l *BackgroundFileLoader) PendingCounts() (load, save, misc int) {
	return l.loadQueue.Len(), l.saveQueue.Len(), l.miscQueue.Len()
}
