package model

import (
	"errors"
	"testing"
	"time"
)

// validSnapshot returns a snapshot that passes Validate.
func validSnapshot() *LayoutSnapshot {
	return &LayoutSnapshot{
		SourceID:     "hifca",
		TableCount:   1,
		TableShapes:  []TableShape{{Rows: 238, Cols: 5}},
		PDFLinkCount: 2,
		PDFLinkURLs:  []string{"https://example.gov/a.pdf", "https://example.gov/b.pdf"},
		ContentHash:  "0b9c2625dc21ef05f6ad4ddf47c5f203837aa32c2b8b5e599a9e0b7a4e3a0c11",
		CapturedAt:   time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

// TestLayoutSnapshotValidate tests invariant checking.
func TestLayoutSnapshotValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*LayoutSnapshot)
		wantErr error
	}{
		{"valid", func(*LayoutSnapshot) {}, nil},
		{"empty source id", func(s *LayoutSnapshot) { s.SourceID = "" }, ErrSnapshotNoSource},
		{"table count mismatch", func(s *LayoutSnapshot) { s.TableCount = 3 }, ErrSnapshotTableCount},
		{"negative shape", func(s *LayoutSnapshot) { s.TableShapes[0].Cols = -1 }, ErrSnapshotNegativeShape},
		{"pdf count mismatch", func(s *LayoutSnapshot) { s.PDFLinkCount = 5 }, ErrSnapshotPDFCount},
		{"empty hash", func(s *LayoutSnapshot) { s.ContentHash = "" }, ErrSnapshotNoHash},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap := validSnapshot()
			tc.mutate(snap)

			err := snap.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, expected %v", err, tc.wantErr)
			}
		})
	}
}

// TestLayoutSnapshotClone tests that clones do not share slices.
func TestLayoutSnapshotClone(t *testing.T) {
	t.Parallel()

	original := validSnapshot()
	clone := original.Clone()

	clone.TableShapes[0].Rows = 999
	clone.PDFLinkURLs[0] = "mutated"

	if original.TableShapes[0].Rows == 999 {
		t.Error("clone shares table shapes with original")
	}
	if original.PDFLinkURLs[0] == "mutated" {
		t.Error("clone shares pdf urls with original")
	}

	var nilSnap *LayoutSnapshot
	if nilSnap.Clone() != nil {
		t.Error("clone of nil snapshot should be nil")
	}
}

// TestTableShapeString tests display formatting.
func TestTableShapeString(t *testing.T) {
	t.Parallel()

	shape := TableShape{Rows: 238, Cols: 5}
	if shape.String() != "238x5" {
		t.Errorf("got %q, expected %q", shape.String(), "238x5")
	}
}

// TestCountyDesignation tests combined program labels.
func TestCountyDesignation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		county   County
		expected Designation
	}{
		{"both", County{HIFCA: true, HIDTA: true}, DesignationBoth},
		{"hifca only", County{HIFCA: true}, DesignationHIFCA},
		{"hidta only", County{HIDTA: true}, DesignationHIDTA},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.county.Designation(); got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}
