package layout

import (
	"strconv"

	"github.com/georisk/georisk/internal/model"
)

// SeverityPolicy maps each detectable change class to a severity. The
// defaults implement the fixed policy the tool has always used; callers
// can tune sensitivity per source without forking the detector.
type SeverityPolicy struct {
	// TableCount applies when the number of tables changed.
	TableCount model.Severity

	// TableRows applies when a table's row count changed but its column
	// count did not. This typically means more or fewer data rows rather
	// than broken parsing.
	TableRows model.Severity

	// TableColumns applies when a table's column count changed. Column
	// changes are structural: field-position-based parsing breaks.
	TableColumns model.Severity

	// PDFAdded applies when PDF links appeared. Additions are
	// informational, not breaking.
	PDFAdded model.Severity

	// PDFRemoved applies when PDF links from the baseline disappeared.
	PDFRemoved model.Severity

	// ContentHash applies when only the canonical content hash moved.
	ContentHash model.Severity
}

// DefaultSeverityPolicy returns the standard change-class severities.
func DefaultSeverityPolicy() SeverityPolicy {
	return SeverityPolicy{
		TableCount:   model.SeverityHigh,
		TableRows:    model.SeverityMedium,
		TableColumns: model.SeverityHigh,
		PDFAdded:     model.SeverityLow,
		PDFRemoved:   model.SeverityMedium,
		ContentHash:  model.SeverityLow,
	}
}

// Detector compares a current snapshot against a baseline and classifies
// every structural delta. Compare is a pure function of its two inputs:
// no I/O, no mutation of either snapshot, total over well-formed
// snapshots.
type Detector struct {
	policy SeverityPolicy
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithSeverityPolicy overrides the default change-class severities.
func WithSeverityPolicy(p SeverityPolicy) DetectorOption {
	return func(d *Detector) {
		d.policy = p
	}
}

// NewDetector creates a Detector with the given options.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{policy: DefaultSeverityPolicy()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compare produces a ChangeReport for current against baseline.
//
// A nil baseline yields VerdictNoBaseline with no changes: the first run
// against any source is trusted and its snapshot becomes the baseline.
// Otherwise every comparison rule is evaluated independently, so a single
// run may emit entries of several kinds.
//
// Tables are correlated by position. Tables carry no stable identity
// across fetches, so positional matching is the most conservative policy;
// a page that reorders tables will read as shape changes. Known
// limitation, preferred over guessing an identity scheme.
func (d *Detector) Compare(current, baseline *model.LayoutSnapshot) *model.ChangeReport {
	report := &model.ChangeReport{
		SourceID: current.SourceID,
		Changes:  []model.ChangeEntry{},
	}

	if baseline == nil {
		report.Verdict = model.VerdictNoBaseline
		return report
	}

	d.compareTableCount(report, current, baseline)
	d.compareTableShapes(report, current, baseline)
	d.comparePDFLinks(report, current, baseline)
	d.compareContentHash(report, current, baseline)

	report.Verdict = deriveVerdict(report.Changes)
	return report
}

// compareTableCount emits one HIGH-by-default entry when the table count
// moved.
func (d *Detector) compareTableCount(report *model.ChangeReport, current, baseline *model.LayoutSnapshot) {
	if current.TableCount == baseline.TableCount {
		return
	}
	report.Changes = append(report.Changes, model.ChangeEntry{
		Kind:     model.ChangeTableCount,
		Severity: d.policy.TableCount,
		Detail: model.ChangeDetail{
			Old:        strconv.Itoa(baseline.TableCount),
			New:        strconv.Itoa(current.TableCount),
			TableIndex: -1,
		},
	})
}

// compareTableShapes walks indexes present in both shape sequences and
// emits one entry per changed table.
func (d *Detector) compareTableShapes(report *model.ChangeReport, current, baseline *model.LayoutSnapshot) {
	n := min(len(current.TableShapes), len(baseline.TableShapes))
	for i := range n {
		oldShape := baseline.TableShapes[i]
		newShape := current.TableShapes[i]
		if oldShape == newShape {
			continue
		}

		dimension := model.DimensionRows
		severity := d.policy.TableRows
		if oldShape.Cols != newShape.Cols {
			// Column changes dominate: the entry is reported as a column
			// change even when the row count also moved.
			dimension = model.DimensionColumns
			severity = d.policy.TableColumns
		}

		report.Changes = append(report.Changes, model.ChangeEntry{
			Kind:     model.ChangeTableShape,
			Severity: severity,
			Detail: model.ChangeDetail{
				Old:        oldShape.String(),
				New:        newShape.String(),
				TableIndex: i,
				Dimension:  dimension,
			},
		})
	}
}

// comparePDFLinks emits one aggregated entry for removed URLs and one for
// added URLs. Both snapshots store their URL sets sorted, so the entry
// URL lists are stable across runs.
func (d *Detector) comparePDFLinks(report *model.ChangeReport, current, baseline *model.LayoutSnapshot) {
	currentSet := make(map[string]struct{}, len(current.PDFLinkURLs))
	for _, u := range current.PDFLinkURLs {
		currentSet[u] = struct{}{}
	}
	baselineSet := make(map[string]struct{}, len(baseline.PDFLinkURLs))
	for _, u := range baseline.PDFLinkURLs {
		baselineSet[u] = struct{}{}
	}

	var removed []string
	for _, u := range baseline.PDFLinkURLs {
		if _, ok := currentSet[u]; !ok {
			removed = append(removed, u)
		}
	}
	var added []string
	for _, u := range current.PDFLinkURLs {
		if _, ok := baselineSet[u]; !ok {
			added = append(added, u)
		}
	}

	if len(removed) > 0 {
		report.Changes = append(report.Changes, model.ChangeEntry{
			Kind:     model.ChangePDFRemoved,
			Severity: d.policy.PDFRemoved,
			Detail: model.ChangeDetail{
				Old:        strconv.Itoa(baseline.PDFLinkCount),
				New:        strconv.Itoa(current.PDFLinkCount),
				TableIndex: -1,
				URLs:       removed,
			},
		})
	}
	if len(added) > 0 {
		report.Changes = append(report.Changes, model.ChangeEntry{
			Kind:     model.ChangePDFAdded,
			Severity: d.policy.PDFAdded,
			Detail: model.ChangeDetail{
				Old:        strconv.Itoa(baseline.PDFLinkCount),
				New:        strconv.Itoa(current.PDFLinkCount),
				TableIndex: -1,
				URLs:       added,
			},
		})
	}
}

// compareContentHash emits a LOW-by-default entry only when the hash moved
// and no structural difference was detected by the earlier rules: textual
// drift without structural impact, e.g. updated figures in prose.
func (d *Detector) compareContentHash(report *model.ChangeReport, current, baseline *model.LayoutSnapshot) {
	if current.ContentHash == baseline.ContentHash || len(report.Changes) > 0 {
		return
	}
	report.Changes = append(report.Changes, model.ChangeEntry{
		Kind:     model.ChangeContentHash,
		Severity: d.policy.ContentHash,
		Detail: model.ChangeDetail{
			Old:        baseline.ContentHash,
			New:        current.ContentHash,
			TableIndex: -1,
		},
	})
}

// deriveVerdict classifies the run: UNCHANGED when nothing changed,
// CHANGED_MAJOR when any entry is HIGH, CHANGED_MINOR otherwise.
func deriveVerdict(changes []model.ChangeEntry) model.Verdict {
	if len(changes) == 0 {
		return model.VerdictUnchanged
	}
	for _, c := range changes {
		if c.Severity == model.SeverityHigh {
			return model.VerdictChangedMajor
		}
	}
	return model.VerdictChangedMinor
}
