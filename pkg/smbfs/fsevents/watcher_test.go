package fsevents

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDeliversCreateNotification(t *testing.T) {
	dir := t.TempDir()

	w, err := New()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.Watch("export", dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0644))

	require.Eventually(t, func() bool {
		return len(w.Recent("export")) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	dir := t.TempDir()

	w, err := New()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.Watch("export", dir))
	w.Unregister("export")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi"), 0644))
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, w.Recent("export"))
}
