package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/dittofs-core/smbcore/internal/logger"
	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

// DefaultExpiryInterval is how often the reaper scans every registered
// share's FileState cache.
const DefaultExpiryInterval = 30 * time.Second

// DefaultExpiryAge is the minimum idle time before a zero-reference
// FileState entry is eligible for expiry.
const DefaultExpiryAge = 5 * time.Minute

// FilesystemsConfig is the process-wide registry of mounted shares. Unlike
// the source (a single global reaper), one reaper instance is owned here,
// started when the first share is registered and stopped when the last is
// unregistered (spec.md §9 Design Notes).
type FilesystemsConfig struct {
	mu     sync.Mutex
	shares map[string]*Cache

	expiryEvery   time.Duration
	expiryAgeSecs int64

	metrics *metrics.Metrics
	reaper  *reaperLoop
}

// New creates an empty FilesystemsConfig.
func New(expiryEvery time.Duration, expiryAge time.Duration) *FilesystemsConfig {
	if expiryEvery <= 0 {
		expiryEvery = DefaultExpiryInterval
	}
	if expiryAge <= 0 {
		expiryAge = DefaultExpiryAge
	}
	return &FilesystemsConfig{
		shares:        make(map[string]*Cache),
		expiryEvery:   expiryEvery,
		expiryAgeSecs: int64(expiryAge.Seconds()),
	}
}

// SetMetrics attaches m, so every scan pass reports reaper metrics. Safe to
// call whether or not a reaper loop is currently running.
func (fc *FilesystemsConfig) SetMetrics(m *metrics.Metrics) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.metrics = m
	if fc.reaper != nil {
		fc.reaper.metrics = m
	}
}

// RegisterShare adds shareName's FileState cache to the registry, starting
// the reaper loop if this is the first registered share.
func (fc *FilesystemsConfig) RegisterShare(shareName string) *Cache {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	c := NewCache()
	fc.shares[shareName] = c

	if fc.reaper == nil {
		fc.reaper = newReaperLoop(fc, fc.expiryEvery, fc.expiryAgeSecs)
		fc.reaper.metrics = fc.metrics
		fc.reaper.start()
	}
	return c
}

// UnregisterShare removes shareName from the registry, stopping the reaper
// loop if no shares remain.
func (fc *FilesystemsConfig) UnregisterShare(shareName string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	delete(fc.shares, shareName)

	if len(fc.shares) == 0 && fc.reaper != nil {
		fc.reaper.stop()
		fc.reaper = nil
	}
}

// CacheFor returns the registered cache for shareName, or nil.
func (fc *FilesystemsConfig) CacheFor(shareName string) *Cache {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.shares[shareName]
}

// ShareNames returns a snapshot of currently registered share names.
func (fc *FilesystemsConfig) ShareNames() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	names := make([]string, 0, len(fc.shares))
	for name := range fc.shares {
		names = append(names, name)
	}
	return names
}

// snapshot returns the current set of caches for the reaper loop to scan,
// without holding fc.mu across the scan itself.
func (fc *FilesystemsConfig) snapshot() map[string]*Cache {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make(map[string]*Cache, len(fc.shares))
	for name, c := range fc.shares {
		out[name] = c
	}
	return out
}

// reaperLoop is the periodic expiry-scan goroutine, one per FilesystemsConfig.
type reaperLoop struct {
	owner   *FilesystemsConfig
	every   time.Duration
	ageSecs int64
	metrics *metrics.Metrics
	stopCh  chan struct{}
	done    chan struct{}
}

func newReaperLoop(owner *FilesystemsConfig, every time.Duration, ageSecs int64) *reaperLoop {
	return &reaperLoop{owner: owner, every: every, ageSecs: ageSecs, stopCh: make(chan struct{}), done: make(chan struct{})}
}

func (r *reaperLoop) start() {
	go r.run()
}

func (r *reaperLoop) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.scan()
		}
	}
}

func (r *reaperLoop) scan() {
	ctx := context.Background()
	r.metrics.ObserveReaperScan()
	for name, c := range r.owner.snapshot() {
		n := c.Expire(r.ageSecs)
		if n > 0 {
			logger.DebugCtx(ctx, "expired stale file states", logger.Share(name), logger.Evicted(n))
		}
		r.metrics.ObserveReaperExpired(name, n)
	}
}

func (r *reaperLoop) stop() {
	close(r.stopCh)
	<-r.done
}
