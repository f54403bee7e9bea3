package segment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dittofs-core/smbcore/pkg/smbfs/errors"
)

// FileSegment keeps all of a file's data in a per-unique-id scratch file on
// local storage (spec.md §4.4.1). Reads and writes simply seek and I/O that
// file; a write past the current length zero-pads the gap.
type FileSegment struct {
	*Base

	path   string
	file   *os.File
	closed bool
}

// NewFileSegment creates a scratch file named prefix+origName under dir.
func NewFileSegment(uniqueID uint64, dir, prefix, origName string) (*FileSegment, error) {
	path := filepath.Join(dir, prefix+origName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrap(errors.IOError, path, err)
	}
	return &FileSegment{Base: NewBase(uniqueID), path: path, file: f}, nil
}

// ReadAt reads len(p) bytes at off, reporting the §4.4.4 readable-prefix
// contract indirectly: callers are expected to call WaitForData first.
func (s *FileSegment) ReadAt(p []byte, off uint64) (int, error) {
	n, err := s.file.ReadAt(p, int64(off))
	if err != nil && err.Error() != "EOF" {
		return n, errors.Wrap(errors.IOError, s.path, err)
	}
	return n, nil
}

// WriteAt writes p at off, zero-padding if off is past the current length,
// and sets StatusUpdated on success.
func (s *FileSegment) WriteAt(p []byte, off uint64) (int, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, errors.Wrap(errors.IOError, s.path, err)
	}
	if cur := uint64(info.Size()); off > cur {
		if err := s.file.Truncate(int64(off)); err != nil {
			return 0, errors.Wrap(errors.IOError, s.path, err)
		}
	}
	n, err := s.file.WriteAt(p, int64(off))
	if err != nil {
		return n, errors.Wrap(errors.IOError, s.path, err)
	}
	s.SetStatus(StatusUpdated)
	newLen := off + uint64(n)
	s.lock()
	if newLen > s.fileLength {
		s.fileLength = newLen
	}
	if newLen > s.readableLength {
		s.readableLength = newLen
	}
	s.broadcast()
	s.unlock()
	return n, nil
}

// Flush forces a durable sync of the scratch file.
func (s *FileSegment) Flush() error {
	if err := s.file.Sync(); err != nil {
		return errors.Wrap(errors.IOError, s.path, err)
	}
	return nil
}

// Truncate resizes the scratch file, updating fileLength/readableLength.
func (s *FileSegment) Truncate(size uint64) error {
	if err := s.file.Truncate(int64(size)); err != nil {
		return errors.Wrap(errors.IOError, s.path, err)
	}
	s.lock()
	s.fileLength = size
	if s.readableLength > size {
		s.readableLength = size
	}
	s.unlock()
	return nil
}

// DeleteTemporaryFile removes the scratch file. Allowed only once the
// segment's handle has been closed (StatusFileClosed set); otherwise fails.
func (s *FileSegment) DeleteTemporaryFile() error {
	if !s.HasStatus(StatusFileClosed) {
		return errors.New(errors.InvalidParameter, fmt.Sprintf("cannot delete scratch file %q: handle still open", s.path))
	}
	if s.closed {
		return nil
	}
	_ = s.file.Close()
	s.closed = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.IOError, s.path, err)
	}
	return nil
}

// Close marks the handle closed (enabling DeleteTemporaryFile) without
// deleting the backing file, for callers that want the data retained.
func (s *FileSegment) Close() {
	s.SetStatus(StatusFileClosed)
}
