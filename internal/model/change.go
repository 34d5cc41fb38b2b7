package model

// ChangeKind identifies the category of one detected structural difference.
// The string values match the change types emitted in reports, so the type
// serializes naturally.
type ChangeKind string

const (
	// ChangeTableCount indicates the number of tables on the page changed.
	ChangeTableCount ChangeKind = "TABLE_COUNT_CHANGED"

	// ChangeTableShape indicates a table at the same position changed
	// dimensions. The Detail.Dimension sub-field distinguishes row-count
	// changes from column-count changes.
	ChangeTableShape ChangeKind = "TABLE_SHAPE_CHANGED"

	// ChangePDFAdded indicates PDF links appeared that the baseline lacked.
	ChangePDFAdded ChangeKind = "PDF_LINKS_ADDED"

	// ChangePDFRemoved indicates PDF links from the baseline disappeared.
	ChangePDFRemoved ChangeKind = "PDF_LINKS_REMOVED"

	// ChangeContentHash indicates the canonical content hash changed with
	// no structural difference found.
	ChangeContentHash ChangeKind = "CONTENT_HASH_CHANGED"
)

// ShapeDimension names which table dimension a shape change affects.
type ShapeDimension string

const (
	// DimensionRows marks a row-count-only change.
	DimensionRows ShapeDimension = "rows"

	// DimensionColumns marks a column-count change, regardless of whether
	// the row count also moved.
	DimensionColumns ShapeDimension = "columns"
)

// ChangeDetail describes one change with enough context to log or display
// without re-deriving anything from the snapshots.
type ChangeDetail struct {
	// Old and New hold the before/after values in display form
	// (counts, "RxC" shapes, or hashes depending on the change kind).
	Old string `json:"old,omitempty"`
	New string `json:"new,omitempty"`

	// TableIndex is the zero-based position of the affected table for
	// TABLE_SHAPE_CHANGED entries, and -1 otherwise.
	TableIndex int `json:"table_index"`

	// Dimension is set for TABLE_SHAPE_CHANGED entries.
	Dimension ShapeDimension `json:"dimension,omitempty"`

	// URLs lists the affected PDF URLs for PDF_LINKS_ADDED and
	// PDF_LINKS_REMOVED entries.
	URLs []string `json:"urls,omitempty"`
}

// ChangeEntry is one detected structural difference.
type ChangeEntry struct {
	Kind     ChangeKind   `json:"kind"`
	Severity Severity     `json:"severity"`
	Detail   ChangeDetail `json:"detail"`
}

// Verdict is the overall classification of a detection run.
type Verdict string

const (
	// VerdictNoBaseline means no prior snapshot existed for the source.
	// The current snapshot becomes the baseline; this is not an error.
	VerdictNoBaseline Verdict = "NO_BASELINE"

	// VerdictUnchanged means no differences were detected.
	VerdictUnchanged Verdict = "UNCHANGED"

	// VerdictChangedMinor means only LOW or MEDIUM severity entries exist.
	VerdictChangedMinor Verdict = "CHANGED_MINOR"

	// VerdictChangedMajor means at least one HIGH severity entry exists.
	VerdictChangedMajor Verdict = "CHANGED_MAJOR"
)

// ChangeReport is produced once per detection run and never mutated after
// construction. It is ephemeral: consumed by the caller and discarded,
// never persisted.
type ChangeReport struct {
	// SourceID identifies the source the report concerns.
	SourceID string `json:"source_id"`

	// Verdict classifies the run as a whole.
	Verdict Verdict `json:"verdict"`

	// Changes lists every detected difference in detection order,
	// which is stable across runs for reproducibility.
	Changes []ChangeEntry `json:"changes"`
}

// CountBySeverity returns the number of entries at the given severity.
func (r *ChangeReport) CountBySeverity(sev Severity) int {
	n := 0
	for _, c := range r.Changes {
		if c.Severity == sev {
			n++
		}
	}
	return n
}

// Blocking reports whether the verdict should stop the caller from
// trusting freshly extracted data. Only CHANGED_MAJOR blocks; the gate
// applies to use of the data, not to updating the baseline.
func (r *ChangeReport) Blocking() bool {
	return r.Verdict == VerdictChangedMajor
}
