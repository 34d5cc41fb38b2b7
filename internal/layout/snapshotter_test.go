package layout

import (
	"errors"
	"testing"
	"time"

	"github.com/georisk/georisk/internal/model"
)

// fixedClock returns a deterministic timestamp source for tests.
func fixedClock() func() time.Time {
	ts := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

// TestSnapshotterDeterminism tests that identical input produces an
// identical hash and identical structure across repeated calls.
func TestSnapshotterDeterminism(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(WithClock(fixedClock()))
	tables := []Table{{Rows: 238, Cols: 5}, {Rows: 10, Cols: 3}}
	pdfs := []string{"https://example.gov/b.pdf", "https://example.gov/a.pdf"}
	content := []byte("Designated   counties\nas of last review")

	first, err := s.Snapshot("hifca", tables, pdfs, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Snapshot("hifca", tables, pdfs, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ContentHash != second.ContentHash {
		t.Errorf("content hash not deterministic: %s vs %s", first.ContentHash, second.ContentHash)
	}
	if len(first.TableShapes) != 2 || first.TableShapes[0] != (model.TableShape{Rows: 238, Cols: 5}) {
		t.Errorf("unexpected table shapes: %v", first.TableShapes)
	}
	if first.TableCount != len(first.TableShapes) {
		t.Errorf("table count %d does not match shapes %d", first.TableCount, len(first.TableShapes))
	}
	if first.PDFLinkCount != 2 {
		t.Errorf("got pdf link count %d, expected 2", first.PDFLinkCount)
	}
	// URL set is stored sorted regardless of discovery order.
	if first.PDFLinkURLs[0] != "https://example.gov/a.pdf" {
		t.Errorf("pdf urls not sorted: %v", first.PDFLinkURLs)
	}
	if err := first.Validate(); err != nil {
		t.Errorf("snapshot violates its own invariants: %v", err)
	}
}

// TestSnapshotterCosmeticChanges tests that whitespace and volatile
// content do not move the hash.
func TestSnapshotterCosmeticChanges(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(WithClock(fixedClock()))

	base, err := s.Snapshot("hifca", nil, nil, []byte("Counties by tier. Review complete."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		name    string
		content string
	}{
		{"extra whitespace", "Counties   by \n\t tier.  Review complete. "},
		{"embedded timestamp", "Counties by tier. 2026-01-15 08:30:00 Review complete."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap, err := s.Snapshot("hifca", nil, nil, []byte(tc.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.ContentHash != base.ContentHash {
				t.Errorf("cosmetic change moved the hash:\n base %s\n got  %s", base.ContentHash, snap.ContentHash)
			}
		})
	}
}

// TestSnapshotterInvalidInput tests the input validation failures.
func TestSnapshotterInvalidInput(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter()

	testCases := []struct {
		name     string
		sourceID string
		tables   []Table
		content  []byte
	}{
		{"empty source id", "", nil, []byte("x")},
		{"negative rows", "hifca", []Table{{Rows: -1, Cols: 5}}, []byte("x")},
		{"negative cols", "hifca", []Table{{Rows: 3, Cols: -2}}, []byte("x")},
		{"absent content", "hifca", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Snapshot(tc.sourceID, tc.tables, nil, tc.content)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, expected ErrInvalidInput", err)
			}
		})
	}
}

// TestSnapshotterEmptyContent tests that empty (non-absent) content is
// valid and hashes to a fixed digest.
func TestSnapshotterEmptyContent(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(WithClock(fixedClock()))

	first, err := s.Snapshot("hifca", nil, nil, []byte{})
	if err != nil {
		t.Fatalf("empty content should be valid: %v", err)
	}
	second, err := s.Snapshot("hifca", nil, nil, []byte{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ContentHash == "" || first.ContentHash != second.ContentHash {
		t.Errorf("empty content must hash to a fixed digest, got %q and %q", first.ContentHash, second.ContentHash)
	}
}

// TestSnapshotterNormalizesPDFURLs tests deduplication and tracking
// parameter stripping on the URL set.
func TestSnapshotterNormalizesPDFURLs(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter()
	pdfs := []string{
		"https://example.gov/report.pdf?utm_source=newsletter",
		"https://EXAMPLE.gov/report.pdf",
		"https://example.gov/other.pdf",
	}

	snap, err := s.Snapshot("hifca", nil, pdfs, []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.PDFLinkCount != 2 {
		t.Errorf("got %d pdf links, expected 2 after canonicalization: %v", snap.PDFLinkCount, snap.PDFLinkURLs)
	}
}

// TestSnapshotterIdentityNormalizer tests the pluggable normalizer hook.
func TestSnapshotterIdentityNormalizer(t *testing.T) {
	t.Parallel()

	plain := NewSnapshotter(WithNormalizer(Identity()))

	a, err := plain.Snapshot("hifca", nil, nil, []byte("a  b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := plain.Snapshot("hifca", nil, nil, []byte("a b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ContentHash == b.ContentHash {
		t.Error("identity normalizer should not collapse whitespace")
	}
}
