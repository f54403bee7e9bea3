package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestForShareTracksOpenFiles(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	l := m.ForShare("export")
	l.OnOpenFile(nil)
	l.OnOpenFile(nil)
	l.OnCloseFile(nil)

	require.Equal(t, float64(1), testutil.ToFloat64(m.OpenFilesGauge.WithLabelValues("export")))
}

func TestNilMetricsMethodsAreNoops(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ForShare("export").OnOpenFile(nil)
		m.ObserveSearchSlotAllocated("sequential")
		m.ObserveSegmentTransition("Available")
		m.SetLoaderQueueDepth(1, 2, 3)
		m.ObserveLoaderRequest("load", "success")
		m.ObserveReaperScan()
		m.ObserveReaperExpired("export", 4)
	})
}
