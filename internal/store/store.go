package store

import (
	"context"
	"errors"

	"github.com/georisk/georisk/internal/model"
)

// ErrUnavailable is returned when the storage medium itself fails: an
// unreadable cache directory, a locked database file. Callers may retry
// with backoff, or proceed treating the run as having no baseline and log
// the degradation. A missing baseline never produces this error.
var ErrUnavailable = errors.New("snapshot store unavailable")

// Store persists the latest layout snapshot per source id.
//
// The baseline read-then-write cycle (load, detect, save) for a single
// source is a critical section: implementations provide at-most-one-writer
// -per-source semantics so two concurrent runs cannot both read the same
// stale baseline and overwrite each other's update. Different sources are
// fully independent.
type Store interface {
	// Load returns the most recently stored snapshot for the source, or
	// (nil, nil) when none exists yet.
	Load(ctx context.Context, sourceID string) (*model.LayoutSnapshot, error)

	// Save persists the snapshot as the new baseline for its source id,
	// replacing any prior value atomically: a reader never observes a
	// partial or mixed record.
	Save(ctx context.Context, snapshot *model.LayoutSnapshot) error

	// Close releases any resources held by the store.
	Close() error
}
