package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/internal/store"
)

// ArchiveDirName is the subdirectory of the data dir that receives archived
// store files.
const ArchiveDirName = "deleted"

// archiveStamp is the timestamp suffix format for archived store files.
const archiveStamp = "2006-01-02_150405"

// Registry owns one store handle per tenant id, created lazily on first
// access and cached for the life of the process. The cache is never evicted
// during normal operation; only archiving a board removes its entry.
type Registry struct {
	dataDir string

	mu      sync.Mutex
	handles map[string]*store.Store
}

// NewRegistry creates a registry rooted at dataDir. The directory is created
// if needed.
func NewRegistry(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, pberr.Storage("open", err)
	}
	return &Registry{
		dataDir: dataDir,
		handles: make(map[string]*store.Store),
	}, nil
}

// DataDir returns the registry's root directory.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// StorePath returns the backing file path for a tenant id.
func (r *Registry) StorePath(id string) string {
	return filepath.Join(r.dataDir, id+".db")
}

// archivePath returns the destination for an archived store file.
func (r *Registry) archivePath(id string, now time.Time) string {
	name := fmt.Sprintf("%s.%s.db", id, now.Format(archiveStamp))
	return filepath.Join(r.dataDir, ArchiveDirName, name)
}

// Exists reports whether a backing file exists for the tenant id. The HTTP
// boundary calls this before any query is attempted.
func (r *Registry) Exists(id string) bool {
	_, err := os.Stat(r.StorePath(id))
	return err == nil
}

// Handle returns the cached store handle for a tenant id, opening and
// caching it on first access. It never creates a backing file: an absent
// store is a NotFoundError.
//
// The double-checked lookup under the mutex guarantees at most one handle
// per tenant id even when concurrent requests race on first access.
func (r *Registry) Handle(id string) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.handles[id]; ok {
		return st, nil
	}

	st, err := store.Open(r.StorePath(id))
	if err != nil {
		return nil, err
	}
	r.handles[id] = st
	return st, nil
}

// Default returns the handle for the reserved default store.
func (r *Registry) Default() (*store.Store, error) {
	return r.Handle(DefaultID)
}

// EnsureDefault creates the default store if its backing file is absent.
// Called once at startup; the default store is the only one ever created
// implicitly.
func (r *Registry) EnsureDefault() error {
	if r.Exists(DefaultID) {
		return nil
	}
	_, err := r.Create(DefaultID)
	return err
}

// Create creates a new tenant store: backing file, full schema, and a
// schema-version stamp at the current head. Fails with AlreadyExistsError
// if the backing file exists.
func (r *Registry) Create(id string) (*store.Store, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := store.Create(r.StorePath(id))
	if err != nil {
		return nil, err
	}
	r.handles[id] = st
	return st, nil
}

// Archive closes the tenant's handle, evicts it from the cache, and moves
// the backing file into the archive area with a timestamp suffix. The
// default store is refused. Returns the archived file path.
func (r *Registry) Archive(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	if id == DefaultID {
		return "", pberr.InvalidField("board_uid", "the default board cannot be archived")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.StorePath(id)
	if _, err := os.Stat(src); err != nil {
		return "", pberr.BoardNotFound(id)
	}

	// The file cannot move while a handle holds it open. Evict the handle
	// even when Close fails: a half-closed pool must never be handed out.
	if st, ok := r.handles[id]; ok {
		err := st.Close()
		delete(r.handles, id)
		if err != nil {
			return "", pberr.Storage("archive", err)
		}
	}

	dst := r.archivePath(id, time.Now())
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", pberr.Storage("archive", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", pberr.Storage("archive", err)
	}

	// WAL sidecars are stale once the main file is gone.
	os.Remove(src + "-wal")
	os.Remove(src + "-shm")

	return dst, nil
}

// List returns the tenant ids with live backing files, sorted, excluding
// the reserved default store.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, pberr.Storage("list", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".db")
		if id == DefaultID || ValidateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes every cached handle. Called at process shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, st := range r.handles {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.handles, id)
	}
	return firstErr
}
