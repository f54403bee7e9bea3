package reaper

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

func TestRegisterShareStartsReaperOnlyOnce(t *testing.T) {
	fc := New(10*time.Millisecond, 0)
	c1 := fc.RegisterShare("share1")
	require.NotNil(t, c1)
	require.NotNil(t, fc.reaper)

	firstReaper := fc.reaper
	fc.RegisterShare("share2")
	assert.Same(t, firstReaper, fc.reaper, "second RegisterShare must not start a second reaper")

	assert.ElementsMatch(t, []string{"share1", "share2"}, fc.ShareNames())
}

func TestUnregisterLastShareStopsReaper(t *testing.T) {
	fc := New(10*time.Millisecond, 0)
	fc.RegisterShare("share1")
	fc.RegisterShare("share2")

	fc.UnregisterShare("share1")
	assert.NotNil(t, fc.reaper, "reaper stays up while a share remains")

	fc.UnregisterShare("share2")
	assert.Nil(t, fc.reaper, "reaper stops once the last share is unregistered")
}

func TestReaperReportsExpiredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	fc := New(10*time.Millisecond, time.Nanosecond)
	fc.SetMetrics(m)
	c := fc.RegisterShare("share1")
	held := c.Get(1)
	_ = held
	c.Release(1)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.ReaperExpiredTotal.WithLabelValues("share1")) == 1
	}, time.Second, 5*time.Millisecond)

	fc.UnregisterShare("share1")
}

func TestCacheExpireRemovesOnlyZeroRefStaleEntries(t *testing.T) {
	c := NewCache()
	live := c.Get(1)
	_ = live
	held := c.Get(2)
	_ = held
	c.Release(2) // back to zero refs, stale after ageSecs

	removed := c.Expire(-1) // everything older than "now + 1s" is stale immediately
	assert.Equal(t, 1, removed, "only the zero-ref entry should expire; the referenced one stays")
	assert.Equal(t, 1, c.Count())
}
