package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/georisk/georisk/internal/extract"
	"github.com/georisk/georisk/internal/geo"
	"github.com/georisk/georisk/internal/layout"
	"github.com/georisk/georisk/internal/model"
	"github.com/georisk/georisk/internal/scrape"
	"github.com/georisk/georisk/internal/store"
)

// FetchStep retrieves the source page.
type FetchStep struct {
	fetcher *scrape.Fetcher
}

// NewFetchStep creates a fetch step using fetcher.
func NewFetchStep(fetcher *scrape.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches run.URL into run.HTML.
func (s *FetchStep) Do(ctx context.Context, run *Run) error {
	body, err := s.fetcher.Fetch(ctx, run.URL)
	if err != nil {
		return err
	}
	run.HTML = body
	return nil
}

// StructureStep extracts the structural facts from the fetched page.
type StructureStep struct{}

// NewStructureStep creates a structure extraction step.
func NewStructureStep() *StructureStep {
	return &StructureStep{}
}

// Name returns the step name.
func (s *StructureStep) Name() string {
	return "structure"
}

// Do parses run.HTML into run.Structure.
func (s *StructureStep) Do(_ context.Context, run *Run) error {
	if run.HTML == nil {
		return fmt.Errorf("no page fetched for %s", run.Source)
	}
	extractor, err := extract.NewExtractor(run.URL)
	if err != nil {
		return err
	}
	structure, err := extractor.Extract(bytes.NewReader(run.HTML))
	if err != nil {
		return fmt.Errorf("extract structure of %s: %w", run.Source, err)
	}
	run.Structure = structure
	return nil
}

// SnapshotStep takes a layout snapshot from the extracted structure.
type SnapshotStep struct {
	snapshotter *layout.Snapshotter
}

// NewSnapshotStep creates a snapshot step using snapshotter.
func NewSnapshotStep(snapshotter *layout.Snapshotter) *SnapshotStep {
	return &SnapshotStep{snapshotter: snapshotter}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return "snapshot"
}

// Do builds run.Snapshot from run.Structure.
func (s *SnapshotStep) Do(_ context.Context, run *Run) error {
	if run.Structure == nil {
		return fmt.Errorf("no structure extracted for %s", run.Source)
	}
	// A page may have no extractable text; that is still present content,
	// distinct from a missing page.
	content := []byte(run.Structure.Text)
	if content == nil {
		content = []byte{}
	}
	snapshot, err := s.snapshotter.Snapshot(run.Source, run.Structure.Tables, run.Structure.PDFLinks, content)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", run.Source, err)
	}
	run.Snapshot = snapshot
	return nil
}

// HistoryAppender records snapshots with their detection verdicts.
// Implemented by store.DB.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, snapshot *model.LayoutSnapshot, verdict model.Verdict) error
}

// DriftStep compares the new snapshot against the stored baseline and
// enforces the drift gate.
//
// The baseline is replaced after every detection run, whatever the
// verdict: detection always reports drift relative to the previous run,
// not to the first run ever seen. Forcing a run bypasses the gate on
// using the data, never the baseline update.
type DriftStep struct {
	store    store.Store
	detector *layout.Detector
	history  HistoryAppender
	force    bool
	logger   *slog.Logger
}

// DriftOption configures a DriftStep.
type DriftOption func(*DriftStep)

// WithForce bypasses the gate on blocking verdicts.
func WithForce(force bool) DriftOption {
	return func(s *DriftStep) {
		s.force = force
	}
}

// WithHistory records every snapshot and verdict in an append-only history.
func WithHistory(history HistoryAppender) DriftOption {
	return func(s *DriftStep) {
		s.history = history
	}
}

// WithDriftLogger sets a custom logger for the drift step.
func WithDriftLogger(logger *slog.Logger) DriftOption {
	return func(s *DriftStep) {
		s.logger = logger
	}
}

// NewDriftStep creates a drift detection step.
func NewDriftStep(st store.Store, detector *layout.Detector, opts ...DriftOption) *DriftStep {
	s := &DriftStep{
		store:    st,
		detector: detector,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DriftStep) Name() string {
	return "drift"
}

// Do loads the baseline, compares, saves the new baseline, and gates.
func (s *DriftStep) Do(ctx context.Context, run *Run) error {
	if run.Snapshot == nil {
		return fmt.Errorf("no snapshot taken for %s", run.Source)
	}

	baseline, err := s.store.Load(ctx, run.Source)
	if err != nil {
		return fmt.Errorf("load baseline for %s: %w", run.Source, err)
	}
	run.Baseline = baseline
	run.Report = s.detector.Compare(run.Snapshot, baseline)

	if err := s.store.Save(ctx, run.Snapshot); err != nil {
		return fmt.Errorf("save baseline for %s: %w", run.Source, err)
	}
	if s.history != nil {
		if err := s.history.AppendHistory(ctx, run.Snapshot, run.Report.Verdict); err != nil {
			return fmt.Errorf("record history for %s: %w", run.Source, err)
		}
	}

	for _, change := range run.Report.Changes {
		s.logger.Warn("layout change detected",
			"source", run.Source,
			"kind", change.Kind,
			"severity", change.Severity.String(),
		)
	}

	if run.Report.Blocking() {
		if s.force {
			s.logger.Warn("layout change gate bypassed",
				"source", run.Source,
				"verdict", run.Report.Verdict,
			)
			return nil
		}
		return fmt.Errorf("%s: %d high-severity changes: %w",
			run.Source, run.Report.CountBySeverity(model.SeverityHigh), ErrLayoutChanged)
	}
	return nil
}

// CountyScraper produces a county dataset. Implemented by
// scrape.HIFCAScraper and scrape.HIDTAScraper.
type CountyScraper interface {
	Scrape(ctx context.Context) ([]model.County, error)
}

// ScrapeStep extracts the county dataset from the source.
type ScrapeStep struct {
	scraper CountyScraper
}

// NewScrapeStep creates a scrape step using scraper.
func NewScrapeStep(scraper CountyScraper) *ScrapeStep {
	return &ScrapeStep{scraper: scraper}
}

// Name returns the step name.
func (s *ScrapeStep) Name() string {
	return "scrape"
}

// Do fills run.Counties.
func (s *ScrapeStep) Do(ctx context.Context, run *Run) error {
	counties, err := s.scraper.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", run.Source, err)
	}
	run.Counties = counties
	return nil
}

// ValidateStep checks the extracted dataset before it is published.
type ValidateStep struct {
	minCounties int
}

// NewValidateStep creates a validation step requiring at least minCounties
// rows.
func NewValidateStep(minCounties int) *ValidateStep {
	return &ValidateStep{minCounties: minCounties}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do validates run.Counties.
func (s *ValidateStep) Do(_ context.Context, run *Run) error {
	if err := geo.ValidateCounties(run.Counties, s.minCounties); err != nil {
		return fmt.Errorf("validate %s: %w", run.Source, err)
	}
	return nil
}
