package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dittofs-core/smbcore/pkg/smbfs/loader"
)

func TestDemoProcessorSucceeds(t *testing.T) {
	p := newDemoProcessor()
	p.minLatency, p.maxLatency = time.Millisecond, 2*time.Millisecond

	outcome := p.Process(context.Background(), &loader.Request{
		Kind:   loader.Load,
		Single: &loader.SingleFileRequest{FID: 1, UniqueID: 1},
	})
	assert.Equal(t, loader.Success, outcome)
}

func TestDemoProcessorRespectsCancellation(t *testing.T) {
	p := newDemoProcessor()
	p.minLatency, p.maxLatency = time.Second, 2*time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := p.Process(ctx, &loader.Request{
		Kind:   loader.Load,
		Single: &loader.SingleFileRequest{FID: 1, UniqueID: 1},
	})
	assert.Equal(t, loader.Failure, outcome)
}
