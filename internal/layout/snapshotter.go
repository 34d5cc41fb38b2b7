package layout

import (
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/georisk/georisk/internal/model"
)

// Table describes one tabular structure found in a fetched document.
// It is the raw input form; the Snapshotter converts it into the
// model.TableShape stored in snapshots.
type Table struct {
	// Rows is the number of table rows, including the header row.
	Rows int

	// Cols is the number of cells in the first row.
	Cols int
}

// Snapshotter converts raw structural facts about a fetched document into
// a canonical model.LayoutSnapshot. It is pure: no I/O, and identical
// input always produces an identical snapshot apart from CapturedAt.
type Snapshotter struct {
	// normalizer canonicalizes content before hashing.
	normalizer Normalizer

	// now supplies capture timestamps; injectable for deterministic tests.
	now func() time.Time
}

// SnapshotterOption configures a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithNormalizer replaces the default content normalizer. Pass Identity()
// when the caller supplies already-canonicalized content.
func WithNormalizer(n Normalizer) SnapshotterOption {
	return func(s *Snapshotter) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithClock replaces the capture-time source.
func WithClock(now func() time.Time) SnapshotterOption {
	return func(s *Snapshotter) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSnapshotter creates a Snapshotter with the given options.
func NewSnapshotter(opts ...SnapshotterOption) *Snapshotter {
	s := &Snapshotter{
		normalizer: Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot builds a LayoutSnapshot from structural facts.
//
// content carries the document's extractable text. A nil slice means the
// content was absent, which is an input error; an empty non-nil slice is
// valid and hashes to the fixed digest of empty canonical input.
//
// It returns an error wrapping ErrInvalidInput when sourceID is empty,
// any table has a negative dimension, or content is absent.
func (s *Snapshotter) Snapshot(sourceID string, tables []Table, pdfURLs []string, content []byte) (*model.LayoutSnapshot, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("source id is empty: %w", ErrInvalidInput)
	}
	for i, tbl := range tables {
		if tbl.Rows < 0 || tbl.Cols < 0 {
			return nil, fmt.Errorf("table %d has negative shape %dx%d: %w", i, tbl.Rows, tbl.Cols, ErrInvalidInput)
		}
	}
	if content == nil {
		return nil, fmt.Errorf("content is absent: %w", ErrInvalidInput)
	}

	shapes := make([]model.TableShape, len(tables))
	for i, tbl := range tables {
		shapes[i] = model.TableShape{Rows: tbl.Rows, Cols: tbl.Cols}
	}

	canonical := s.normalizer.Canonicalize(string(content))
	digest := blake2b.Sum256(canonical)

	snap := &model.LayoutSnapshot{
		SourceID:    sourceID,
		TableCount:  len(shapes),
		TableShapes: shapes,
		ContentHash: hex.EncodeToString(digest[:]),
		CapturedAt:  s.now().UTC(),
	}
	return withPDFLinks(snap, pdfURLs), nil
}

// withPDFLinks canonicalizes, deduplicates, and sorts the PDF URL set so
// that equal sets always serialize identically.
func withPDFLinks(snap *model.LayoutSnapshot, pdfURLs []string) *model.LayoutSnapshot {
	set := make(map[string]struct{}, len(pdfURLs))
	for _, raw := range pdfURLs {
		set[CanonicalizeURL(raw)] = struct{}{}
	}
	urls := make([]string, 0, len(set))
	for u := range set {
		urls = append(urls, u)
	}
	slices.Sort(urls)

	snap.PDFLinkURLs = urls
	snap.PDFLinkCount = len(urls)
	return snap
}
