package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

type countingProcessor struct {
	processed atomic.Int64
	mu        sync.Mutex
	seen      []Kind
}

func (p *countingProcessor) Process(ctx context.Context, r *Request) Outcome {
	p.processed.Add(1)
	p.mu.Lock()
	p.seen = append(p.seen, r.Kind)
	p.mu.Unlock()
	return Success
}

func TestBackgroundFileLoaderProcessesAllRequests(t *testing.T) {
	proc := &countingProcessor{}
	l := New(DefaultWorkers, 100*time.Millisecond, proc)
	l.Start(context.Background())

	for i := 0; i < 50; i++ {
		l.Submit(&Request{Kind: Load, Single: &SingleFileRequest{FID: uint32(i)}})
	}
	for i := 0; i < 50; i++ {
		l.Submit(&Request{Kind: Save, Single: &SingleFileRequest{FID: uint32(i)}})
	}

	require.Eventually(t, func() bool {
		return proc.processed.Load() == 100
	}, time.Second, 5*time.Millisecond)

	l.Shutdown(false)
}

type requeueOnceProcessor struct {
	mu       sync.Mutex
	attempts map[uint32]int
	done     chan struct{}
}

func (p *requeueOnceProcessor) Process(ctx context.Context, r *Request) Outcome {
	p.mu.Lock()
	p.attempts[r.Single.FID]++
	attempts := p.attempts[r.Single.FID]
	p.mu.Unlock()
	if attempts == 1 {
		return Requeue
	}
	close(p.done)
	return Success
}

func TestRequeueRetriesBeforeSucceeding(t *testing.T) {
	proc := &requeueOnceProcessor{attempts: map[uint32]int{}, done: make(chan struct{})}
	l := New(MinWorkers, 100*time.Millisecond, proc)
	l.Start(context.Background())

	l.Submit(&Request{Kind: Save, Single: &SingleFileRequest{FID: 1}})

	select {
	case <-proc.done:
	case <-time.After(time.Second):
		t.Fatal("requeued request never succeeded on retry")
	}
	l.Shutdown(false)
}

func TestLoaderReportsRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	proc := &countingProcessor{}
	l := New(MinWorkers, 100*time.Millisecond, proc)
	l.SetMetrics(m)
	l.Start(context.Background())

	l.Submit(&Request{Kind: Load, Single: &SingleFileRequest{FID: 1}})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.LoaderRequestsTotal.WithLabelValues("Load", "success")) == 1
	}, time.Second, 5*time.Millisecond)

	l.Shutdown(false)
}

func TestQueueRemoveHeadBlocksUntilAdd(t *testing.T) {
	q := NewQueue()
	result := make(chan *Request, 1)
	go func() {
		r, ok := q.RemoveHead()
		if ok {
			result <- r
		}
	}()

	time.Sleep(10 * time.Millisecond)
	r := &Request{Kind: Delete}
	q.Add(r)

	select {
	case got := <-result:
		assert.Same(t, r, got)
	case <-time.After(time.Second):
		t.Fatal("RemoveHead did not unblock after Add")
	}
}

func TestQueueCloseUnblocksRemoveHead(t *testing.T) {
	q := NewQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.RemoveHead()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock RemoveHead")
	}
}
