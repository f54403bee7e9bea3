package commands

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dittofs-core/smbcore/internal/logger"
	"github.com/dittofs-core/smbcore/pkg/smbfs/loader"
)

// demoProcessor is a Processor that simulates store I/O latency instead of
// talking to a real backing store. The concrete storage driver is an
// external collaborator this core does not implement; this stands in for
// it so the loader's worker pool has something to dispatch to.
type demoProcessor struct {
	minLatency time.Duration
	maxLatency time.Duration
}

func newDemoProcessor() *demoProcessor {
	return &demoProcessor{minLatency: time.Millisecond, maxLatency: 8 * time.Millisecond}
}

func (p *demoProcessor) Process(ctx context.Context, r *loader.Request) loader.Outcome {
	jitter := p.maxLatency - p.minLatency
	delay := p.minLatency
	if jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return loader.Failure
	}

	logger.DebugCtx(ctx, "demo processor handled request", slog.String("kind", r.Kind.String()))
	return loader.Success
}
