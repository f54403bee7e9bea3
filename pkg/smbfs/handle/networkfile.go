package handle

import (
	"sync"
	"time"

	"github.com/dittofs-core/smbcore/pkg/smbfs"
	"github.com/dittofs-core/smbcore/pkg/smbfs/search"
)

// Lock records one byte-range lock held on a NetworkFile.
type Lock struct {
	Offset    uint64
	Length    uint64
	Exclusive bool
	OwnerID   string
}

// NetworkFile is the per-handle state created by a successful open/create:
// the file, directory, or named-stream identity the client addresses by
// file id for every subsequent READ/WRITE/CLOSE/SET_INFO on this handle.
//
// Timestamp-freeze semantics follow MS-FSA 2.1.5.14.2: once a timestamp is
// frozen (client set it explicitly), ordinary I/O must not auto-update it
// until the freeze is explicitly lifted.
type NetworkFile struct {
	mu sync.Mutex

	// FID is the protocol-visible handle id assigned by the owning OpenFileMap.
	FID int
	// UniqueID identifies the underlying file across renames/hardlinks,
	// stable for the lifetime of the backing object (used to key segments).
	UniqueID uint64

	TreeID int
	Path   string
	Stream string

	Access      smbfs.AccessMask
	Sharing     smbfs.SharingMode
	Disposition smbfs.Disposition
	IsDirectory bool

	Size  uint64
	Attrs smbfs.Attributes

	Mtime, Ctime, Atime                   time.Time
	MtimeFrozen, CtimeFrozen, AtimeFrozen bool

	DeletePending bool
	Oplock        smbfs.Oplock

	// Backend is the driver-opaque handle (iface.DriverFile) returned by
	// DiskInterface.OpenFile/CreateFile; the core stores it unmodified and
	// passes it back on every subsequent driver call for this handle.
	Backend any

	// Searches is the per-handle directory-search table (§4.3); only
	// meaningful when IsDirectory is true.
	Searches search.Map

	locks []Lock

	// modifyDateDirty is set by any write and cleared only by an explicit
	// SetModifyDate; callers use it to decide whether an implicit mtime
	// update is owed at close.
	modifyDateDirty bool

	token *AccessToken
}

// NewNetworkFile constructs a NetworkFile bound to the given access token,
// installing the default sequential SearchMap when the handle is a directory.
func NewNetworkFile(fid int, uniqueID uint64, treeID int, params *smbfs.OpenParams, token *AccessToken) *NetworkFile {
	nf := &NetworkFile{
		FID:         fid,
		UniqueID:    uniqueID,
		TreeID:      treeID,
		Path:        params.Path,
		Stream:      params.Stream,
		Access:      params.Access,
		Sharing:     params.Sharing,
		Disposition: params.Disposition,
		IsDirectory: params.IsDirectory(),
		Attrs:       params.Attributes,
		Oplock:      params.Oplock,
		token:       token,
	}
	if nf.IsDirectory {
		nf.Searches = search.NewSequential(search.DefaultSlots, search.MaxSlots)
	}
	return nf
}

// MarkWritten records a write for mtime-dirty tracking; callers apply the
// actual timestamp update unless Mtime is frozen.
func (f *NetworkFile) MarkWritten(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.MtimeFrozen {
		f.Mtime = now
	}
	f.modifyDateDirty = true
}

// SetModifyDate explicitly sets Mtime and clears the dirty flag, regardless
// of the frozen state (an explicit SET_INFO always wins).
func (f *NetworkFile) SetModifyDate(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mtime = t
	f.modifyDateDirty = false
}

// ModifyDateDirty reports whether a write has occurred since the last
// explicit SetModifyDate.
func (f *NetworkFile) ModifyDateDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modifyDateDirty
}

// FreezeMtime / FreezeCtime / FreezeAtime implement the FILETIME -1 / -2
// SET_INFO convention: freeze=true pins the timestamp against auto-update,
// freeze=false lifts a previously applied freeze.
func (f *NetworkFile) FreezeMtime(freeze bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MtimeFrozen = freeze
}

func (f *NetworkFile) FreezeCtime(freeze bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CtimeFrozen = freeze
}

func (f *NetworkFile) FreezeAtime(freeze bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AtimeFrozen = freeze
}

// Token returns the access token this handle was opened with.
func (f *NetworkFile) Token() *AccessToken { return f.token }

// AddLock appends a byte-range lock. The core does not itself enforce
// overlap rules here; that is the driver's LockManager responsibility
// (pkg/smbfs/iface).
func (f *NetworkFile) AddLock(l Lock) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks = append(f.locks, l)
}

// RemoveLock removes the first lock matching offset/length/owner exactly.
// Reports whether a lock was found.
func (f *NetworkFile) RemoveLock(offset, length uint64, ownerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.locks {
		if l.Offset == offset && l.Length == length && l.OwnerID == ownerID {
			f.locks = append(f.locks[:i], f.locks[i+1:]...)
			return true
		}
	}
	return false
}

// Locks returns a snapshot copy of the active lock list.
func (f *NetworkFile) Locks() []Lock {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Lock, len(f.locks))
	copy(out, f.locks)
	return out
}

// CloseAllSearches closes and clears this handle's directory-search table;
// a no-op for non-directory handles.
func (f *NetworkFile) CloseAllSearches() {
	if f.Searches != nil {
		f.Searches.CloseAll()
	}
}
