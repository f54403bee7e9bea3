//go:build linux

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshDiskInfoFromRealFilesystem(t *testing.T) {
	c := NewContext("test-share", nil, nil, nil, nil)
	err := c.RefreshDiskInfo(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, c.Disk.TotalUnits, uint64(0))
	assert.Greater(t, c.Disk.BlockSize, uint32(0))
}
