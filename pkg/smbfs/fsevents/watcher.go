// Package fsevents implements a local-filesystem-backed
// iface.FSEventsHandler using fsnotify, for drivers whose backing store is a
// real directory tree and has no native SMB-shaped change-notification
// mechanism of its own (spec.md §4.7 "optional FSEventsHandler").
package fsevents

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dittofs-core/smbcore/internal/logger"
)

// Action mirrors the classic FILE_ACTION_* values an SMB change-notify
// reply carries.
const (
	ActionAdded uint32 = iota + 1
	ActionRemoved
	ActionModified
	ActionRenamedOldName
	ActionRenamedNewName
)

// Watcher watches one root directory per registered share and translates
// fsnotify events into calls to its own Notify, which records them per share
// (see Recent) and logs them. It also satisfies
// iface.FSEventsHandler directly, so a driver that already knows about a
// change (no fsnotify watch needed) can call Notify on it too.
type Watcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	roots     map[string]string  // shareName -> watched root path
	pathShare map[string]string  // watched root path -> shareName
	recent    map[string][]Event // shareName -> ring of recent events
	maxRecent int

	done chan struct{}
}

// Event is one delivered change notification.
type Event struct {
	Path   string
	Action uint32
}

// New creates a Watcher and starts its background fsnotify read loop.
func New() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:   fw,
		roots:     make(map[string]string),
		pathShare: make(map[string]string),
		recent:    make(map[string][]Event),
		maxRecent: 64,
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch registers root as the watched directory for shareName. Calling it
// again for the same share replaces the previous root.
func (w *Watcher) Watch(shareName, root string) error {
	w.mu.Lock()
	if old, ok := w.roots[shareName]; ok {
		_ = w.watcher.Remove(old)
		delete(w.pathShare, old)
	}
	w.roots[shareName] = root
	w.pathShare[root] = shareName
	w.mu.Unlock()

	return w.watcher.Add(root)
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.dispatch(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("fsevents watcher error", logger.Err(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) dispatch(ev fsnotify.Event) {
	share := w.shareForEvent(ev.Name)
	if share == "" {
		return
	}
	w.Notify(context.Background(), share, ev.Name, actionFor(ev.Op))
}

func (w *Watcher) shareForEvent(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root, share := range w.pathShare {
		if root == path || (len(path) > len(root) && path[:len(root)] == root) {
			return share
		}
	}
	return ""
}

func actionFor(op fsnotify.Op) uint32 {
	switch {
	case op&fsnotify.Create != 0:
		return ActionAdded
	case op&fsnotify.Remove != 0:
		return ActionRemoved
	case op&fsnotify.Rename != 0:
		return ActionRenamedOldName
	case op&fsnotify.Write != 0:
		return ActionModified
	default:
		return ActionModified
	}
}

// Notify implements iface.FSEventsHandler: records the event and logs it.
// A real wire-protocol layer would instead push this onto the per-session
// pending-change-notify queue of every session with an outstanding
// NOTIFY request on shareName; that layer is outside this core's scope.
func (w *Watcher) Notify(ctx context.Context, shareName, path string, action uint32) {
	w.mu.Lock()
	ring := append(w.recent[shareName], Event{Path: path, Action: action})
	if len(ring) > w.maxRecent {
		ring = ring[len(ring)-w.maxRecent:]
	}
	w.recent[shareName] = ring
	w.mu.Unlock()

	logger.DebugCtx(ctx, "filesystem change notification", logger.Share(shareName), logger.Path(path))
}

// Unregister implements iface.FSEventsHandler: stops watching shareName's root.
func (w *Watcher) Unregister(shareName string) {
	w.mu.Lock()
	root, ok := w.roots[shareName]
	if ok {
		delete(w.roots, shareName)
		delete(w.pathShare, root)
		delete(w.recent, shareName)
	}
	w.mu.Unlock()

	if ok {
		_ = w.watcher.Remove(root)
	}
}

// Recent returns a snapshot of the most recent events delivered for shareName.
func (w *Watcher) Recent(shareName string) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Event, len(w.recent[shareName]))
	copy(out, w.recent[shareName])
	return out
}

// Close stops the watcher's background loop and releases the fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
