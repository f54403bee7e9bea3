package handle

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/errors"
	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
)

type countingListener struct {
	opens, closes int
}

func (l *countingListener) OnOpenFile(*NetworkFile)  { l.opens++ }
func (l *countingListener) OnCloseFile(*NetworkFile) { l.closes++ }

func TestArrayMapAddFindRemove(t *testing.T) {
	m := NewArrayMap()
	l := &countingListener{}
	m.AddListener(l)

	f := &NetworkFile{Path: `\a.txt`}
	id, err := m.Add(f)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	assert.Equal(t, 1, l.opens)
	assert.Same(t, f, m.Find(id))
	assert.Equal(t, 1, m.OpenFileCount())

	removed := m.Remove(id)
	assert.Same(t, f, removed)
	assert.Equal(t, 1, l.closes)
	assert.Nil(t, m.Find(id))
	assert.Equal(t, 0, m.OpenFileCount())

	// double-close is a no-op, no extra listener fire
	assert.Nil(t, m.Remove(id))
	assert.Equal(t, 1, l.closes)
}

func TestArrayMapOverflow(t *testing.T) {
	m := NewArrayMap()
	for i := 0; i < MaxFiles; i++ {
		_, err := m.Add(&NetworkFile{})
		require.NoError(t, err)
	}
	_, err := m.Add(&NetworkFile{})
	require.ErrorIs(t, err, errors.ErrTooManyFiles)
}

// TestHashedMapIDWrap exercises §8 scenario 2: starting with nextFileId =
// 0x1FFFFFFE, adding three files and removing the middle one yields ids
// {0x1FFFFFFE, 1, 2} and openFileCount()==2 after the remove.
func TestHashedMapIDWrap(t *testing.T) {
	m := NewHashedMap(0x1FFFFFFE)

	id1, err := m.Add(&NetworkFile{})
	require.NoError(t, err)
	assert.Equal(t, 0x1FFFFFFE, id1)

	id2, err := m.Add(&NetworkFile{})
	require.NoError(t, err)
	assert.Equal(t, 1, id2)

	id3, err := m.Add(&NetworkFile{})
	require.NoError(t, err)
	assert.Equal(t, 2, id3)

	removed := m.Remove(id2)
	require.NotNil(t, removed)
	assert.Equal(t, 2, m.OpenFileCount())
}

func TestArrayMapMetricsListenerTracksOpenFiles(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	m := NewArrayMap()
	m.AddListener(met.ForShare("export"))

	id, err := m.Add(&NetworkFile{Path: `\a.txt`})
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(met.OpenFilesGauge.WithLabelValues("export")))

	m.Remove(id)
	assert.Equal(t, float64(0), testutil.ToFloat64(met.OpenFilesGauge.WithLabelValues("export")))
}

func TestHashedMapRemoveAllFiresListeners(t *testing.T) {
	m := NewHashedMap(0)
	l := &countingListener{}
	m.AddListener(l)

	for i := 0; i < 5; i++ {
		_, err := m.Add(&NetworkFile{})
		require.NoError(t, err)
	}
	removed := m.RemoveAll()
	assert.Len(t, removed, 5)
	assert.Equal(t, 5, l.opens)
	assert.Equal(t, 5, l.closes)
	assert.Equal(t, 0, m.OpenFileCount())
}
