package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Snapshot validation errors. Returned by LayoutSnapshot.Validate when a
// snapshot violates its own invariants, typically after loading a record
// written by an older or corrupted cache.
var (
	// ErrSnapshotNoSource is returned when the snapshot has an empty source id.
	ErrSnapshotNoSource = errors.New("snapshot has empty source id")

	// ErrSnapshotTableCount is returned when table_count disagrees with the
	// length of the table shape sequence.
	ErrSnapshotTableCount = errors.New("snapshot table count does not match table shapes")

	// ErrSnapshotPDFCount is returned when pdf_link_count disagrees with the
	// number of stored PDF URLs.
	ErrSnapshotPDFCount = errors.New("snapshot pdf link count does not match pdf link urls")

	// ErrSnapshotNegativeShape is returned when any table shape has a
	// negative row or column count.
	ErrSnapshotNegativeShape = errors.New("snapshot table shape has negative dimension")

	// ErrSnapshotNoHash is returned when the content hash is missing.
	ErrSnapshotNoHash = errors.New("snapshot has empty content hash")
)

// TableShape records the dimensions of one tabular structure,
// in document order.
type TableShape struct {
	// Rows is the number of table rows, including the header row.
	Rows int `json:"rows"`

	// Cols is the number of cells in the first row. Extraction logic
	// addresses fields by column position, so this is the dimension that
	// matters for parser compatibility.
	Cols int `json:"cols"`
}

// String returns the shape as "RxC", e.g. "238x5".
func (t TableShape) String() string {
	return fmt.Sprintf("%dx%d", t.Rows, t.Cols)
}

// LayoutSnapshot is an immutable structural fingerprint of a fetched source
// page at one point in time. Snapshots are produced fresh on every
// extraction attempt and never mutated; the store keeps at most one per
// source id as the comparison baseline.
type LayoutSnapshot struct {
	// SourceID names the logical source, e.g. "hifca".
	SourceID string `json:"source_id"`

	// TableCount is the number of distinct tables found.
	// Invariant: TableCount == len(TableShapes).
	TableCount int `json:"table_count"`

	// TableShapes holds one (rows, cols) pair per table in document order.
	TableShapes []TableShape `json:"table_shapes"`

	// PDFLinkCount is the number of linked PDF resources.
	// Invariant: PDFLinkCount == len(PDFLinkURLs).
	PDFLinkCount int `json:"pdf_link_count"`

	// PDFLinkURLs is the set of discovered PDF URLs, stored sorted and
	// deduplicated so that equal sets serialize identically.
	PDFLinkURLs []string `json:"pdf_link_urls"`

	// ContentHash is a hex-encoded 256-bit digest over the canonicalized
	// extractable content. Identical canonical input always yields an
	// identical hash.
	ContentHash string `json:"content_hash"`

	// CapturedAt is the capture timestamp. It is metadata only and never
	// feeds into ContentHash.
	CapturedAt time.Time `json:"captured_at"`
}

// Validate checks the snapshot's internal invariants.
func (s *LayoutSnapshot) Validate() error {
	if s.SourceID == "" {
		return ErrSnapshotNoSource
	}
	if s.TableCount != len(s.TableShapes) {
		return ErrSnapshotTableCount
	}
	for _, shape := range s.TableShapes {
		if shape.Rows < 0 || shape.Cols < 0 {
			return ErrSnapshotNegativeShape
		}
	}
	if s.PDFLinkCount != len(s.PDFLinkURLs) {
		return ErrSnapshotPDFCount
	}
	if s.ContentHash == "" {
		return ErrSnapshotNoHash
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so that callers can
// never mutate a persisted baseline through a shared slice.
func (s *LayoutSnapshot) Clone() *LayoutSnapshot {
	if s == nil {
		return nil
	}
	dup := *s
	dup.TableShapes = slices.Clone(s.TableShapes)
	dup.PDFLinkURLs = slices.Clone(s.PDFLinkURLs)
	return &dup
}
