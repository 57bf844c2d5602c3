package api

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pegboard-io/pegboard/internal/tenant"
)

// StoreWatcherSubscriber receives store change notifications.
type StoreWatcherSubscriber interface {
	OnStoreChange(event ChangeEvent)
}

// StoreWatcher watches the data directory for tenant store files appearing
// or disappearing outside of this process (another instance, manual copies,
// restores from the archive area). Changes are forwarded as board-level
// events so connected clients can refresh their board lists.
type StoreWatcher struct {
	watcher     *fsnotify.Watcher
	dataDir     string
	mu          sync.RWMutex
	subscribers []StoreWatcherSubscriber
	debounce    map[string]*time.Timer
	debounceMu  sync.Mutex
	stopCh      chan struct{}
	stopped     bool // Once stopped, cannot restart
	running     bool
}

// NewStoreWatcher creates a watcher for the given data directory.
func NewStoreWatcher(dataDir string) (*StoreWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &StoreWatcher{
		watcher:  watcher,
		dataDir:  dataDir,
		debounce: make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}, nil
}

// Subscribe adds a subscriber to receive store change notifications.
func (sw *StoreWatcher) Subscribe(sub StoreWatcherSubscriber) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.subscribers = append(sw.subscribers, sub)
}

// Start begins watching the data directory. Only the top-level directory is
// watched; the archive area below it is deliberately not.
func (sw *StoreWatcher) Start() error {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return nil
	}
	if sw.stopped {
		sw.mu.Unlock()
		return fmt.Errorf("store watcher cannot be restarted after stop")
	}
	sw.running = true
	sw.mu.Unlock()

	if err := sw.watcher.Add(sw.dataDir); err != nil {
		return err
	}

	go sw.run()
	return nil
}

// Stop stops watching for changes.
func (sw *StoreWatcher) Stop() error {
	sw.mu.Lock()
	if !sw.running || sw.stopped {
		sw.mu.Unlock()
		return nil
	}
	sw.running = false
	sw.stopped = true
	sw.mu.Unlock()

	// Cancel pending debounce timers so they cannot fire after stop
	sw.debounceMu.Lock()
	for path, timer := range sw.debounce {
		timer.Stop()
		delete(sw.debounce, path)
	}
	sw.debounceMu.Unlock()

	close(sw.stopCh)
	return sw.watcher.Close()
}

func (sw *StoreWatcher) run() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handleEvent(event)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("store watcher error", "error", err)

		case <-sw.stopCh:
			return
		}
	}
}

func (sw *StoreWatcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".db") {
		// WAL/SHM sidecars and temp files churn constantly under load
		return
	}

	// Debounce: wait 100ms before emitting to coalesce rapid changes
	sw.debounceMu.Lock()
	if timer, exists := sw.debounce[event.Name]; exists {
		timer.Stop()
	}
	sw.debounce[event.Name] = time.AfterFunc(100*time.Millisecond, func() {
		sw.emitChange(event)
		sw.debounceMu.Lock()
		delete(sw.debounce, event.Name)
		sw.debounceMu.Unlock()
	})
	sw.debounceMu.Unlock()
}

func (sw *StoreWatcher) emitChange(event fsnotify.Event) {
	// The debounce timer may fire after Stop
	sw.mu.RLock()
	if sw.stopped {
		sw.mu.RUnlock()
		return
	}
	subs := make([]StoreWatcherSubscriber, len(sw.subscribers))
	copy(subs, sw.subscribers)
	sw.mu.RUnlock()

	change, ok := sw.classifyChange(event)
	if !ok {
		return
	}

	for _, sub := range subs {
		sub.OnStoreChange(change)
	}
}

// classifyChange maps a filesystem event on a store file to a board event.
// Files inside the archive area or with invalid uids are ignored.
func (sw *StoreWatcher) classifyChange(event fsnotify.Event) (ChangeEvent, bool) {
	relPath, err := filepath.Rel(sw.dataDir, event.Name)
	if err != nil || strings.Contains(relPath, string(filepath.Separator)) {
		return ChangeEvent{}, false
	}

	uid := strings.TrimSuffix(relPath, ".db")
	if tenant.ValidateID(uid) != nil {
		return ChangeEvent{}, false
	}

	change := ChangeEvent{Board: uid, Kind: "board"}
	switch {
	case event.Op&fsnotify.Create != 0:
		change.Action = "created"
	case event.Op&fsnotify.Remove != 0:
		change.Action = "archived"
	case event.Op&fsnotify.Rename != 0:
		// Rename source is effectively gone; archiving renames into deleted/
		change.Action = "archived"
	default:
		return ChangeEvent{}, false
	}

	return change, true
}
