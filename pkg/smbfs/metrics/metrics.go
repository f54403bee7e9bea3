// Package metrics exposes Prometheus instrumentation for the smbfs core:
// open-handle counts, search-slot allocations, segment state transitions,
// background-loader queue depth/dispatch outcomes, and reaper expirations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dittofs-core/smbcore/pkg/smbfs/handle"
)

// Metrics holds every collector the smbfs core reports. All methods are
// nil-safe: calls on a nil *Metrics are no-ops, so callers that never wire
// in a Registerer (tests, tools) do not need to guard every call site.
type Metrics struct {
	OpenFilesGauge *prometheus.GaugeVec

	SearchSlotsAllocated *prometheus.CounterVec
	SearchSlotsActive    *prometheus.GaugeVec

	SegmentTransitionsTotal *prometheus.CounterVec

	LoaderQueueDepth     *prometheus.GaugeVec
	LoaderRequestsTotal  *prometheus.CounterVec
	LoaderWorkersRunning prometheus.Gauge

	ReaperExpiredTotal *prometheus.CounterVec
	ReaperScansTotal   prometheus.Counter
}

// New creates and registers smbfs metrics with reg. If reg is nil, the
// collectors are created but never registered, which is fine for tests or a
// process that doesn't expose a /metrics endpoint.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpenFilesGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "smbcore",
			Subsystem: "handles",
			Name:      "open_files",
			Help:      "Current number of open NetworkFile handles, by share",
		}, []string{"share"}),
		SearchSlotsAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smbcore",
			Subsystem: "search",
			Name:      "slots_allocated_total",
			Help:      "Total search slots allocated, by map variant",
		}, []string{"variant"}),
		SearchSlotsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "smbcore",
			Subsystem: "search",
			Name:      "slots_active",
			Help:      "Current number of active search slots, by map variant",
		}, []string{"variant"}),
		SegmentTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smbcore",
			Subsystem: "segment",
			Name:      "state_transitions_total",
			Help:      "Total segment state transitions, by resulting state",
		}, []string{"state"}),
		LoaderQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "smbcore",
			Subsystem: "loader",
			Name:      "queue_depth",
			Help:      "Current background file loader queue depth, by queue",
		}, []string{"queue"}),
		LoaderRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smbcore",
			Subsystem: "loader",
			Name:      "requests_total",
			Help:      "Total background file loader requests dispatched, by kind and outcome",
		}, []string{"kind", "outcome"}),
		LoaderWorkersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smbcore",
			Subsystem: "loader",
			Name:      "workers_running",
			Help:      "Number of background file loader worker goroutines started",
		}),
		ReaperExpiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smbcore",
			Subsystem: "reaper",
			Name:      "expired_total",
			Help:      "Total FileState cache entries expired, by share",
		}, []string{"share"}),
		ReaperScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smbcore",
			Subsystem: "reaper",
			Name:      "scans_total",
			Help:      "Total reaper expiry scan passes run",
		}),
	}

	if reg == nil {
		return m
	}
	collectors := []prometheus.Collector{
		m.OpenFilesGauge,
		m.SearchSlotsAllocated,
		m.SearchSlotsActive,
		m.SegmentTransitionsTotal,
		m.LoaderQueueDepth,
		m.LoaderRequestsTotal,
		m.LoaderWorkersRunning,
		m.ReaperExpiredTotal,
		m.ReaperScansTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return m
}

// ForShare returns a handle.Listener bound to shareName, backed by m. Pass
// the result to Map.AddListener on that share's OpenFileMap. NetworkFile
// does not itself carry a share name, so the open-files gauge is labeled by
// binding one listener per share rather than inspecting the file.
func (m *Metrics) ForShare(shareName string) handle.Listener {
	if m == nil {
		return noopListener{}
	}
	return &shareListener{m: m, share: shareName}
}

type shareListener struct {
	m     *Metrics
	share string
}

func (l *shareListener) OnOpenFile(*handle.NetworkFile)  { l.m.OpenFilesGauge.WithLabelValues(l.share).Inc() }
func (l *shareListener) OnCloseFile(*handle.NetworkFile) { l.m.OpenFilesGauge.WithLabelValues(l.share).Dec() }

type noopListener struct{}

func (noopListener) OnOpenFile(*handle.NetworkFile)  {}
func (noopListener) OnCloseFile(*handle.NetworkFile) {}

var (
	_ handle.Listener = (*shareListener)(nil)
	_ handle.Listener = noopListener{}
)

// ObserveSearchSlotAllocated records a slot allocation for the given map
// variant ("sequential" or "hashed").
func (m *Metrics) ObserveSearchSlotAllocated(variant string) {
	if m == nil {
		return
	}
	m.SearchSlotsAllocated.WithLabelValues(variant).Inc()
}

// SetSearchSlotsActive sets the current active-slot gauge for variant.
func (m *Metrics) SetSearchSlotsActive(variant string, n int) {
	if m == nil {
		return
	}
	m.SearchSlotsActive.WithLabelValues(variant).Set(float64(n))
}

// ObserveSegmentTransition records a segment reaching state.
func (m *Metrics) ObserveSegmentTransition(state string) {
	if m == nil {
		return
	}
	m.SegmentTransitionsTotal.WithLabelValues(state).Inc()
}

// SetLoaderQueueDepth sets the three loader queue-depth gauges together.
func (m *Metrics) SetLoaderQueueDepth(load, save, misc int) {
	if m == nil {
		return
	}
	m.LoaderQueueDepth.WithLabelValues("load").Set(float64(load))
	m.LoaderQueueDepth.WithLabelValues("save").Set(float64(save))
	m.LoaderQueueDepth.WithLabelValues("misc").Set(float64(misc))
}

// SetLoaderWorkers records the worker pool size the loader started with.
func (m *Metrics) SetLoaderWorkers(n int) {
	if m == nil {
		return
	}
	m.LoaderWorkersRunning.Set(float64(n))
}

// ObserveLoaderRequest records one dispatched request's kind and outcome
// ("success", "requeue", "failure", "dropped").
func (m *Metrics) ObserveLoaderRequest(kind, outcome string) {
	if m == nil {
		return
	}
	m.LoaderRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveReaperScan records one expiry scan pass across all shares.
func (m *Metrics) ObserveReaperScan() {
	if m == nil {
		return
	}
	m.ReaperScansTotal.Inc()
}

// ObserveReaperExpired records n FileState entries expired for shareName.
func (m *Metrics) ObserveReaperExpired(shareName string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReaperExpiredTotal.WithLabelValues(shareName).Add(float64(n))
}
