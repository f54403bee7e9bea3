// Package tree implements TreeConnection: the per-session binding to a
// mounted share, owner of one OpenFileMap, and the unit of force-close
// teardown (spec.md §4.6).
package tree

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dittofs-core/smbcore/internal/logger"
	"github.com/dittofs-core/smbcore/pkg/smbfs/device"
	"github.com/dittofs-core/smbcore/pkg/smbfs/handle"
	"github.com/dittofs-core/smbcore/pkg/smbfs/iface"
)

// Permission is the effective access level a session has on a tree,
// either set directly from the enum or derived from an ACL evaluation and
// folded down to one of these four values.
type Permission int

const (
	PermissionNoAccess Permission = iota
	PermissionReadOnly
	PermissionWriteable
	PermissionNone
)

// Connection is a TreeConnection: binds a session to a device.Context,
// owns an OpenFileMap, and is the unit of force-close.
type Connection struct {
	ID         int
	SessionID  uint64
	ShareName  string
	Device     *device.Context
	Permission Permission
	Driver     iface.DiskInterface

	Files handle.Map

	closed atomic.Bool
	mu     sync.Mutex
}

// New constructs a Connection bound to dev, incrementing its active
// connection counter. filesMap is typically handle.NewHashedMap(0) or
// handle.NewArrayMap() per the share's "hashed_open_file_map" setting.
func New(id int, sessionID uint64, shareName string, dev *device.Context, driver iface.DiskInterface, permission Permission, filesMap handle.Map) *Connection {
	dev.IncrementConnections()
	return &Connection{
		ID:         id,
		SessionID:  sessionID,
		ShareName:  shareName,
		Device:     dev,
		Permission: permission,
		Driver:     driver,
		Files:      filesMap,
	}
}

// AddFile delegates to the OpenFileMap, firing openFile listeners.
func (c *Connection) AddFile(f *handle.NetworkFile) (int, error) {
	return c.Files.Add(f)
}

// RemoveFile delegates to the OpenFileMap, firing closeFile listeners only
// if a file was actually removed.
func (c *Connection) RemoveFile(id int) *handle.NetworkFile {
	return c.Files.Remove(id)
}

// Closed reports whether Close has run.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Close force-closes every remaining open handle: for each, it closes the
// handle's searches, invokes the driver's CloseFile, and tolerates any
// per-file error so the loop always completes
// (spec.md §8 scenario 7: 3-of-100 driver errors still yields a total close).
// Close order across files is unspecified; totality is guaranteed. Decrements
// the device's connection refcount exactly once, even if called twice.
func (c *Connection) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Swap(true) {
		return
	}

	ids := c.Files.IterHandles()
	for _, id := range ids {
		f := c.Files.Find(id)
		if f == nil {
			continue
		}
		c.forceCloseOne(ctx, f)
	}
	c.Files.RemoveAll()
	c.Device.DecrementConnections()
	logger.InfoCtx(ctx, "tree connection closed", logger.TreeID(c.ID), logger.Share(c.ShareName), logger.Entries(len(ids)))
}

func (c *Connection) forceCloseOne(ctx context.Context, f *handle.NetworkFile) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "panic while force-closing handle", logger.FID(f.FID), logger.Path(f.Path), "panic", r)
		}
	}()

	f.CloseAllSearches()

	if c.Driver != nil {
		if err := c.Driver.CloseFile(ctx, f.Backend); err != nil {
			logger.WarnCtx(ctx, "driver closeFile failed during force close", logger.FID(f.FID), logger.Path(f.Path), logger.Err(err))
		}
	}
}
