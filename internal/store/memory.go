package store

import (
	"context"
	"sync"

	"github.com/georisk/georisk/internal/model"
)

// MemoryStore keeps baselines in an in-process map. It backs tests and the
// degraded mode used when the real store is unavailable.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*model.LayoutSnapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*model.LayoutSnapshot)}
}

// Load returns a copy of the stored baseline, or (nil, nil) when absent.
func (ms *MemoryStore) Load(ctx context.Context, sourceID string) (*model.LayoutSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.snapshots[sourceID].Clone(), nil
}

// Save stores a copy of the snapshot as the new baseline.
func (ms *MemoryStore) Save(ctx context.Context, snapshot *model.LayoutSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.snapshots[snapshot.SourceID] = snapshot.Clone()
	return nil
}

// Close is a no-op.
func (ms *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored baselines. Test helper.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.snapshots)
}
