package reaper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// warmStore persists zero-reference FileState entries to a badger database,
// so size/attribute metadata survives a process restart without requiring
// the backing store to be re-stat'd. Grounded on the teacher's
// pkg/metadata/store/badger: a prefixed-key namespace, db.Update/db.View
// transactions, and JSON-encoded values, the same shape this store uses for
// every other persisted record (pkg/metadata/store/badger/encoding.go).
type warmStore struct {
	db *badgerdb.DB
}

const warmStorePrefix = "filestate:"

func warmStoreKey(uniqueID uint64) []byte {
	key := make([]byte, len(warmStorePrefix)+8)
	copy(key, warmStorePrefix)
	binary.BigEndian.PutUint64(key[len(warmStorePrefix):], uniqueID)
	return key
}

// persistedFileState is the subset of FileState worth surviving a restart;
// SegmentBinding is in-process-only and is never persisted.
type persistedFileState struct {
	UniqueID   uint64
	Size       uint64
	Attributes uint32
}

func newWarmStore(dir string) (*warmStore, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("reaper: open warm store at %s: %w", dir, err)
	}
	return &warmStore{db: db}, nil
}

func (w *warmStore) save(s *FileState) {
	rec := persistedFileState{UniqueID: s.UniqueID, Size: s.Size, Attributes: s.Attributes}
	data, err := json.Marshal(&rec)
	if err != nil {
		return
	}
	_ = w.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(warmStoreKey(s.UniqueID), data)
	})
}

func (w *warmStore) load(uniqueID uint64) (*FileState, bool) {
	var s *FileState
	err := w.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(warmStoreKey(uniqueID))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec persistedFileState
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			s = &FileState{UniqueID: rec.UniqueID, Size: rec.Size, Attributes: rec.Attributes}
			return nil
		})
	})
	if err != nil || s == nil {
		return nil, false
	}
	return s, true
}

func (w *warmStore) close() error {
	return w.db.Close()
}
