// Package device implements DiskDeviceContext, the per-share singleton
// binding a mounted share to its optional collaborators (quota, lock,
// oplock, change-notification managers) and its volume/disk metadata
// (spec.md §4.7).
package device

import (
	"sync/atomic"

	"github.com/dittofs-core/smbcore/pkg/smbfs/iface"
)

// FilesystemAttr is the bitmask describing filesystem-level capabilities
// advertised to clients (case sensitivity, streams, compression, etc.).
type FilesystemAttr uint32

const (
	FSCaseSensitiveSearch FilesystemAttr = 1 << iota
	FSCasePreservedNames
	FSUnicodeOnDisk
	FSPersistentACLs
	FSFileCompression
	FSVolumeQuotas
	FSSupportsSparseFiles
	FSSupportsReparsePoints
	FSVolumeIsCompressed
	FSSupportsEncryption
	FSNamedStreams
	FSSupportsObjectIDs
)

// DeviceAttr is the bitmask describing the backing device's physical traits.
type DeviceAttr uint32

const (
	DevRemovable DeviceAttr = 1 << iota
	DevReadOnly
	DevWriteOnce
)

// VolumeInfo is the value object surfaced for FS_VOLUME_INFORMATION-style queries.
type VolumeInfo struct {
	Name         string
	SerialNumber uint32
	CreationTime int64 // unix nanos
}

// SrvDiskInfo mirrors the classic SMB disk-size reply: total/free allocation
// units expressed in blocks, plus the block geometry.
type SrvDiskInfo struct {
	TotalUnits     uint64
	FreeUnits      uint64
	BlocksPerUnit  uint32
	BlockSize      uint32
}

// Context is a per-share singleton: one DiskDeviceContext per mounted tree.
// Its ConnectionCount is incremented by each TreeConnection constructed
// against it and decremented on TreeConnection.Close (spec.md §4.6).
type Context struct {
	ShareName string

	connectionCount atomic.Int64

	QuotaManager  iface.QuotaManager  // optional
	LockManager   iface.LockManager   // optional
	OplockManager iface.OplockManager // optional
	ChangeHandler iface.FSEventsHandler // optional
	FileStateCache FileStateCache       // optional; set by reaper wiring

	Volume  VolumeInfo
	Disk    SrvDiskInfo
	FSAttr  FilesystemAttr
	DevAttr DeviceAttr

	closed bool
}

// FileStateCache is the minimal surface DiskDeviceContext needs from the
// per-share FileState cache; the full cache lives alongside the reaper
// (pkg/smbfs/reaper) to avoid a device<->reaper import cycle.
type FileStateCache interface {
	Expire(olderThanSeconds int64) int
	Count() int
}

// NewContext constructs a DiskDeviceContext for shareName with the given
// optional collaborators (any may be nil).
func NewContext(shareName string, quota iface.QuotaManager, locks iface.LockManager, oplocks iface.OplockManager, changes iface.FSEventsHandler) *Context {
	return &Context{
		ShareName:     shareName,
		QuotaManager:  quota,
		LockManager:   locks,
		OplockManager: oplocks,
		ChangeHandler: changes,
	}
}

// IncrementConnections is called by TreeConnection construction.
func (c *Context) IncrementConnections() { c.connectionCount.Add(1) }

// DecrementConnections is called by TreeConnection.Close.
func (c *Context) DecrementConnections() { c.connectionCount.Add(-1) }

// ConnectionCount returns the current active-connection count.
func (c *Context) ConnectionCount() int64 { return c.connectionCount.Load() }

// CloseContext unregisters from the change handler, then marks the context
// closed. Idempotent.
func (c *Context) CloseContext() {
	if c.closed {
		return
	}
	if c.ChangeHandler != nil {
		c.ChangeHandler.Unregister(c.ShareName)
	}
	c.closed = true
}

// Closed reports whether CloseContext has run.
func (c *Context) Closed() bool { return c.closed }
