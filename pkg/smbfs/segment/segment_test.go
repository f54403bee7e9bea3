package segment

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

func TestWaitForDataReturnsEarlyWhenAlreadyAvailable(t *testing.T) {
	b := NewBase(1)
	b.SetFileLength(100)
	b.AdvanceReadable(50)

	assert.True(t, b.WaitForData(time.Time{}, 0, 50))
	assert.False(t, b.IsDataAvailable(0, 51))
}

func TestWaitForDataWakesOnAdvance(t *testing.T) {
	b := NewBase(1)
	b.SetFileLength(100)

	done := make(chan bool, 1)
	go func() {
		done <- b.WaitForData(time.Now().Add(2*time.Second), 0, 100)
	}()

	time.Sleep(20 * time.Millisecond)
	b.AdvanceReadable(100)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake on AdvanceReadable")
	}
}

func TestWaitForDataTimesOut(t *testing.T) {
	b := NewBase(1)
	b.SetFileLength(100)

	ok := b.WaitForData(time.Now().Add(30*time.Millisecond), 0, 100)
	assert.False(t, ok)
}

func TestReadableLengthNeverExceedsFileLength(t *testing.T) {
	b := NewBase(1)
	b.SetFileLength(10)
	b.AdvanceReadable(1000)
	assert.Equal(t, uint64(10), b.ReadableLength())
	require.LessOrEqual(t, b.ReadableLength(), b.FileLength())
}

func TestBeginLoadSingleOwner(t *testing.T) {
	b := NewBase(1)
	require.True(t, b.BeginLoad())
	assert.False(t, b.BeginLoad(), "a second caller must not also win the load")
	b.FinishLoad(10, nil)
	assert.Equal(t, Available, b.State())
}

func TestStateTransitionsReportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	b := NewBase(1)
	b.SetMetrics(m)
	require.True(t, b.BeginLoad())
	b.FinishLoad(10, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SegmentTransitionsTotal.WithLabelValues("Loading")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SegmentTransitionsTotal.WithLabelValues("Available")))
}
