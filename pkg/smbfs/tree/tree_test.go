package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dittofs-core/smbcore/pkg/smbfs/device"
	"github.com/dittofs-core/smbcore/pkg/smbfs/handle"
	"github.com/dittofs-core/smbcore/pkg/smbfs/iface"
)

// flakyDriver fails CloseFile for a configurable number of calls, then succeeds.
type flakyDriver struct {
	iface.DiskInterface
	failuresLeft int
}

func (d *flakyDriver) CloseFile(ctx context.Context, f iface.DriverFile) error {
	if d.failuresLeft > 0 {
		d.failuresLeft--
		return errors.New("IOError")
	}
	return nil
}

// TestForceCloseTotality exercises §8 scenario 7: closing a tree with 100
// open handles where 3 driver CloseFile calls fail still removes all 100
// handles, fires every close listener, and decrements the device refcount
// by exactly one.
func TestForceCloseTotality(t *testing.T) {
	dev := device.NewContext("share1", nil, nil, nil, nil)
	driver := &flakyDriver{failuresLeft: 3}
	files := handle.NewHashedMap(0)

	l := &countingListener{}
	files.AddListener(l)

	conn := New(1, 42, "share1", dev, driver, PermissionWriteable, files)
	assert.Equal(t, int64(1), dev.ConnectionCount())

	for i := 0; i < 100; i++ {
		_, err := conn.AddFile(&handle.NetworkFile{Path: "\\f"})
		require.NoError(t, err)
	}

	conn.Close(context.Background())

	assert.Equal(t, 0, files.OpenFileCount())
	assert.Equal(t, 100, l.opens)
	assert.Equal(t, 100, l.closes)
	assert.Equal(t, int64(0), dev.ConnectionCount())
	assert.True(t, conn.Closed())

	// calling Close again must not double-decrement the refcount
	conn.Close(context.Background())
	assert.Equal(t, int64(0), dev.ConnectionCount())
}

type countingListener struct{ opens, closes int }

func (l *countingListener) OnOpenFile(*handle.NetworkFile)  { l.opens++ }
func (l *countingListener) OnCloseFile(*handle.NetworkFile) { l.closes++ }
