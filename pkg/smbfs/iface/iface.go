// Package iface defines the external-collaborator contracts the filesystem
// core consumes from a pluggable storage driver and its supporting managers
// (spec.md §4.8). Nothing in this package is implemented by the core itself;
// these are the seams a concrete backend (local disk, object store, etc.)
// plugs into.
package iface

import (
	"context"
	"time"

	"github.com/dittofs-core/smbcore/pkg/smbfs"
	"github.com/dittofs-core/smbcore/pkg/smbfs/search"
)

// ExistenceState is the result of DiskInterface.FileExists.
type ExistenceState int

const (
	NotExist ExistenceState = iota
	FileExists
	DirectoryExists
	ExistenceUnknown
)

// FileInfo is the metadata value object returned by GetFileInformation and
// carried into SearchContext.NextFileInfo. SetFlags marks which fields a
// corresponding SetFileInformation call intends to change, so partial
// updates don't clobber unrelated metadata.
type FileInfo struct {
	Name       string
	Size       uint64
	Attributes smbfs.Attributes
	Mtime      time.Time
	Ctime      time.Time
	Atime      time.Time
	AllocationSize uint64

	SetFlags FileInfoSetFlags
}

// FileInfoSetFlags marks which FileInfo fields a SetFileInformation call
// should apply; zero-value fields the flag doesn't cover are left untouched.
type FileInfoSetFlags uint16

const (
	SetSize FileInfoSetFlags = 1 << iota
	SetAttributes
	SetMtime
	SetCtime
	SetAtime
)

// SrvDiskInfo / VolumeInfo live in pkg/smbfs/device, which imports this
// package; to avoid an import cycle, DiskSizeInterface below returns the
// SrvDiskInfo fields as plain values rather than a device.SrvDiskInfo.

// DriverFile is the opaque backend-specific handle a DiskInterface returns
// from OpenFile/CreateFile; the core treats it as a capability token and
// passes it back unchanged on every subsequent call.
type DriverFile any

// DiskInterface is the mandatory contract: every mounted share has exactly
// one implementation bound to it.
type DiskInterface interface {
	OpenFile(ctx context.Context, params *smbfs.OpenParams) (DriverFile, error)
	CreateFile(ctx context.Context, params *smbfs.OpenParams) (DriverFile, error)
	CloseFile(ctx context.Context, f DriverFile) error

	CreateDirectory(ctx context.Context, path string) error
	DeleteDirectory(ctx context.Context, path string) error

	DeleteFile(ctx context.Context, path string) error
	RenameFile(ctx context.Context, oldPath, newPath string) error

	ReadFile(ctx context.Context, f DriverFile, buf []byte, offset uint64) (int, error)
	WriteFile(ctx context.Context, f DriverFile, buf []byte, offset uint64) (int, error)
	SeekFile(ctx context.Context, f DriverFile, offset int64, whence int) (int64, error)
	FlushFile(ctx context.Context, f DriverFile) error
	TruncateFile(ctx context.Context, f DriverFile, size uint64) error

	GetFileInformation(ctx context.Context, f DriverFile) (*FileInfo, error)
	SetFileInformation(ctx context.Context, f DriverFile, info *FileInfo) error

	FileExists(ctx context.Context, path string) (ExistenceState, error)
	IsReadOnly(ctx context.Context) bool

	StartSearch(ctx context.Context, pattern string, attrFilter smbfs.Attributes) (search.SearchContext, error)
}

// FileIdInterface resolves a (did, fid) pair to a share-relative path;
// optional capability some drivers expose to shortcut path reconstruction.
type FileIdInterface interface {
	ResolvePath(ctx context.Context, did, fid uint32) (string, error)
}

// DiskSizeInterface fills out the disk-capacity fields surfaced to clients.
// Defined structurally (not importing pkg/smbfs/device) so device and iface
// have no import cycle. device.Context does not call it; its Disk field is
// filled by RefreshDiskInfo or set directly.
type DiskSizeInterface interface {
	GetDiskFreeSpace(ctx context.Context) (totalUnits, freeUnits uint64, blocksPerUnit, blockSize uint32, err error)
}

// IOCtlInterface processes an NT FSCTL/IOCTL control code.
type IOCtlInterface interface {
	ProcessIOCtl(ctx context.Context, f DriverFile, code uint32, in []byte) (out []byte, err error)
}

// SymbolicLinkInterface indicates symlink support and resolves targets.
type SymbolicLinkInterface interface {
	SymlinksEnabled() bool
	ReadSymlink(ctx context.Context, path string) (target string, err error)
}

// TransactionalFilesystemInterface brackets a request in a read or write
// transaction, when the backend supports it.
type TransactionalFilesystemInterface interface {
	BeginReadTransaction(ctx context.Context) (txID string, err error)
	BeginWriteTransaction(ctx context.Context) (txID string, err error)
	EndTransaction(ctx context.Context, txID string, commit bool) error
}

// SecurityDescriptorInterface manages the binary security descriptor bound
// to a NetworkFile.
type SecurityDescriptorInterface interface {
	SecurityDescriptorLength(ctx context.Context, f DriverFile) (int, error)
	LoadSecurityDescriptor(ctx context.Context, f DriverFile) ([]byte, error)
	SaveSecurityDescriptor(ctx context.Context, f DriverFile, sd []byte) error
}

// QuotaManager allocates/releases space against a per-user quota and
// reports free space.
type QuotaManager interface {
	AllocateSpace(ctx context.Context, user string, bytes uint64) error
	ReleaseSpace(ctx context.Context, user string, bytes uint64) error
	UserFreeSpace(ctx context.Context, user string) (uint64, error)
	TotalFreeSpace(ctx context.Context) (uint64, error)
}

// NamedFileLoader is the loader-side subset of driver operations the
// background loader calls without going through a live NetworkFile.
type NamedFileLoader interface {
	FileExists(ctx context.Context, path string) (ExistenceState, error)
	CreateDirectory(ctx context.Context, path string) error
	DeleteDirectory(ctx context.Context, path string) error
	RenameFileDirectory(ctx context.Context, oldPath, newPath string) error
	SetFileInformation(ctx context.Context, path string, info *FileInfo) error
}

// LockManager is the external collaborator responsible for cross-session
// byte-range lock conflict semantics; the core only records lock intent on
// NetworkFile and delegates enforcement here.
type LockManager interface {
	Lock(ctx context.Context, uniqueID uint64, offset, length uint64, exclusive bool, ownerID string) error
	Unlock(ctx context.Context, uniqueID uint64, offset, length uint64, ownerID string) error
	ReleaseAllForOwner(ctx context.Context, ownerID string)
}

// OplockManager grants, breaks, and releases oplocks bound to handles.
type OplockManager interface {
	Request(ctx context.Context, uniqueID uint64, requested smbfs.Oplock) (granted smbfs.Oplock, err error)
	Break(ctx context.Context, uniqueID uint64, to smbfs.Oplock) error
	Release(ctx context.Context, uniqueID uint64)
}

// FSEventsHandler receives filesystem change notifications and is
// registered/unregistered per share by DiskDeviceContext.
type FSEventsHandler interface {
	Notify(ctx context.Context, shareName, path string, action uint32)
	Unregister(shareName string)
}
