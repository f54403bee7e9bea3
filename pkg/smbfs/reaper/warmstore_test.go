package reaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSurvivesRestartViaWarmStore(t *testing.T) {
	dir := t.TempDir()

	c1 := NewCache()
	require.NoError(t, c1.EnableWarmStore(dir))

	s := c1.Get(42)
	s.Size = 1024
	s.Attributes = 7
	c1.Release(42)
	require.NoError(t, c1.CloseWarmStore())

	c2 := NewCache()
	require.NoError(t, c2.EnableWarmStore(dir))
	defer c2.CloseWarmStore()

	restored := c2.Get(42)
	assert.Equal(t, uint64(1024), restored.Size)
	assert.Equal(t, uint32(7), restored.Attributes)
}

func TestCachePeekUsesFastLookup(t *testing.T) {
	c := NewCache()
	c.Get(1)
	c.fast.wait()

	s, ok := c.Peek(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), s.UniqueID)

	_, ok = c.Peek(999)
	assert.False(t, ok)
}
