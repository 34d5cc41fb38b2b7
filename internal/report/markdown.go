package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/georisk/georisk/internal/model"
)

// MarkdownWriter outputs drift reports in Markdown format, suitable for
// documentation, issue trackers, and change review.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the drift report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ChangeReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeChanges(md, report)
	w.writeAlert(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with the verdict summary.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ChangeReport) {
	md.H1("Layout Drift Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + report.SourceID + "`"},
			{"Verdict", string(report.Verdict)},
			{"High severity", strconv.Itoa(report.CountBySeverity(model.SeverityHigh))},
			{"Medium severity", strconv.Itoa(report.CountBySeverity(model.SeverityMedium))},
			{"Low severity", strconv.Itoa(report.CountBySeverity(model.SeverityLow))},
		},
	})
	md.PlainText("")
}

// writeChanges writes the per-change table. Skipped when nothing changed.
func (w *MarkdownWriter) writeChanges(md *markdown.Markdown, report *model.ChangeReport) {
	if len(report.Changes) == 0 {
		return
	}

	md.H2("Detected Changes")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Changes))
	for _, change := range report.Changes {
		rows = append(rows, []string{
			string(change.Kind),
			change.Severity.String(),
			tableLocation(change.Detail),
			change.Detail.Old,
			change.Detail.New,
			strings.Join(change.Detail.URLs, "<br>"),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Change", "Severity", "Location", "Old", "New", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")
}

// tableLocation renders the affected table position, if any.
func tableLocation(detail model.ChangeDetail) string {
	if detail.TableIndex < 0 {
		return "-"
	}
	loc := "table " + strconv.Itoa(detail.TableIndex)
	if detail.Dimension != "" {
		loc += " (" + string(detail.Dimension) + ")"
	}
	return loc
}

// writeAlert writes a GitHub-flavored alert matching the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ChangeReport) {
	switch report.Verdict {
	case model.VerdictChangedMajor:
		md.Cautionf(
			"Layout changed significantly: %d high-severity change(s). Review the source page and update the extraction logic before trusting new data.",
			report.CountBySeverity(model.SeverityHigh),
		)
	case model.VerdictChangedMinor:
		md.Importantf(
			"Layout drifted: %d change(s) detected, none blocking. Extracted data remains usable.",
			len(report.Changes),
		)
	case model.VerdictNoBaseline:
		md.Note("No previous snapshot existed. This run established the baseline.")
	default:
		md.Tip("Layout unchanged since the previous run.")
	}
	md.PlainText("")
}
