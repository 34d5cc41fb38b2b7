package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/georisk/georisk/internal/model"
)

// FileStore keeps one JSON snapshot file per source id under a cache
// directory. File names derive from a hash of the source id so arbitrary
// identifiers (URLs included) map to safe names.
type FileStore struct {
	dir string

	// mu guards locks; each per-source mutex serializes that source's
	// load/save critical section within this process.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the cache directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w: %w", dir, err, ErrUnavailable)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache directory the store writes into.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// snapshotPath maps a source id to its snapshot file.
func (fs *FileStore) snapshotPath(sourceID string) string {
	sum := sha256.Sum256([]byte(sourceID))
	return filepath.Join(fs.dir, "layout_"+hex.EncodeToString(sum[:8])+".json")
}

// lock returns the mutex for one source id, creating it on first use.
func (fs *FileStore) lock(sourceID string) *sync.Mutex {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	l, ok := fs.locks[sourceID]
	if !ok {
		l = &sync.Mutex{}
		fs.locks[sourceID] = l
	}
	return l
}

// Load reads the stored baseline for sourceID. A missing file yields
// (nil, nil). A file that no longer parses or validates is treated as an
// absent baseline rather than a failure: the cache is disposable and the
// caller simply re-establishes it on the next save.
func (fs *FileStore) Load(ctx context.Context, sourceID string) (*model.LayoutSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := fs.lock(sourceID)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(fs.snapshotPath(sourceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot for %s: %w: %w", sourceID, err, ErrUnavailable)
	}

	var snap model.LayoutSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	if err := snap.Validate(); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// Save atomically replaces the baseline for the snapshot's source id by
// writing a temporary file and renaming it into place.
func (fs *FileStore) Save(ctx context.Context, snapshot *model.LayoutSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid snapshot: %w", err)
	}

	l := fs.lock(snapshot.SourceID)
	l.Lock()
	defer l.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize snapshot for %s: %w", snapshot.SourceID, err)
	}

	path := fs.snapshotPath(snapshot.SourceID)
	tmp, err := os.CreateTemp(fs.dir, "layout_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w: %w", err, ErrUnavailable)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot for %s: %w: %w", snapshot.SourceID, err, ErrUnavailable)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot file for %s: %w: %w", snapshot.SourceID, err, ErrUnavailable)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot for %s: %w: %w", snapshot.SourceID, err, ErrUnavailable)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (fs *FileStore) Close() error {
	return nil
}
