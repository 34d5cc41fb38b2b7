package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/georisk/georisk/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-change detail lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-change details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the drift report as plain text.
func (w *SimpleWriter) Write(report *model.ChangeReport) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Source:  %s\n", report.SourceID)
	fmt.Fprintf(&b, "Verdict: %s\n", report.Verdict)

	if len(report.Changes) > 0 {
		fmt.Fprintf(&b, "Changes: %d (high: %d, medium: %d, low: %d)\n",
			len(report.Changes),
			report.CountBySeverity(model.SeverityHigh),
			report.CountBySeverity(model.SeverityMedium),
			report.CountBySeverity(model.SeverityLow),
		)
	}

	if w.verbose {
		for _, change := range report.Changes {
			fmt.Fprintf(&b, "  [%s] %s", change.Severity.String(), change.Kind)
			if change.Detail.TableIndex >= 0 {
				fmt.Fprintf(&b, " table=%d", change.Detail.TableIndex)
			}
			if change.Detail.Dimension != "" {
				fmt.Fprintf(&b, " dimension=%s", change.Detail.Dimension)
			}
			if change.Detail.Old != "" || change.Detail.New != "" {
				fmt.Fprintf(&b, " %s -> %s", change.Detail.Old, change.Detail.New)
			}
			b.WriteString("\n")
			for _, url := range change.Detail.URLs {
				fmt.Fprintf(&b, "      %s\n", url)
			}
		}
	}

	return w.output.Write([]byte(b.String()))
}
