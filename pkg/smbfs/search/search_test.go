package search

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

func TestSequentialAllocateSlotReportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s := NewSequential(0, 0)
	s.SetMetrics(m)

	id, err := s.AllocateSlot()
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchSlotsAllocated.WithLabelValues("sequential")))

	assert.ErrorIs(t, s.AllocateSlotWithID(5), ErrWrongAllocator)
}

func TestHashedAllocateSlotWithIDReportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	h := NewHashed(0)
	h.SetMetrics(m)

	require.NoError(t, h.AllocateSlotWithID(7))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchSlotsAllocated.WithLabelValues("hashed")))

	_, err := h.AllocateSlot()
	assert.ErrorIs(t, err, ErrWrongAllocator)
}
