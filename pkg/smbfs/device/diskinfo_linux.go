//go:build linux

package device

import "golang.org/x/sys/unix"

// RefreshDiskInfo fills c.Disk from the real filesystem backing root, via
// statfs(2). BlockSize is the filesystem's block size (Bsize) and
// BlocksPerUnit is 1, so TotalUnits/FreeUnits are block counts.
func (c *Context) RefreshDiskInfo(root string) error {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return err
	}

	c.Disk = SrvDiskInfo{
		TotalUnits:    st.Blocks,
		FreeUnits:     st.Bavail,
		BlocksPerUnit: 1,
		BlockSize:     uint32(st.Bsize),
	}
	return nil
}
