package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/georisk/georisk/internal/census"
	"github.com/georisk/georisk/internal/config"
	"github.com/georisk/georisk/internal/geo"
	"github.com/georisk/georisk/internal/layout"
	"github.com/georisk/georisk/internal/log"
	"github.com/georisk/georisk/internal/model"
	"github.com/georisk/georisk/internal/pipeline"
	"github.com/georisk/georisk/internal/report"
	"github.com/georisk/georisk/internal/scrape"
	"github.com/georisk/georisk/internal/store"
)

// Source ids as they appear in config files, snapshot storage, and output.
const (
	sourceHIFCA = "hifca"
	sourceHIDTA = "hidta"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "extract [hifca|hidta|both]",
		ValidArgs: []string{sourceHIFCA, sourceHIDTA, "both"},
		Short:     "Extract HIFCA and HIDTA designations into a merged dataset",
		Long: `Extract fetches the HIFCA and HIDTA county designations, checks each
source page's layout against its stored baseline, and writes a merged
county-level CSV dataset.

A blocking layout change (e.g. a table gained a column) aborts the run
so misparsed data never reaches the output. The stored baseline is
updated either way, so an intentional redesign only blocks once.

Examples:
  # Extract to stdout
  georisk extract

  # Write the dataset to a file
  georisk extract -o counties.csv

  # Proceed despite a blocking layout change
  georisk extract --force

  # Emit drift reports as JSON instead of the plain summary
  georisk extract --json

  # Use a custom configuration file
  georisk extract -c myconfig.yaml

  # Extract a single source
  georisk extract hidta

Configuration file (.georisk) example:
  sources:
    hifca:
      minCounties: 30
      severity:
        PDF_LINKS_REMOVED: HIGH`,
		Args: cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: runExtractCmd,
	}

	// Extraction behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("batch", "b", config.DefaultConcurrency,
		"Number of sources processed concurrently")

	// Layout drift flags
	cmd.Flags().BoolP("force", "f", false,
		"Use extracted data even when a blocking layout change is detected")
	cmd.Flags().Bool("skip-layout-check", false,
		"Skip layout snapshotting and drift detection entirely")
	cmd.Flags().Bool("no-validate", false,
		"Skip dataset validation (minimum row counts, FIPS checks)")
	cmd.Flags().Int("min-counties", 0,
		"Minimum accepted dataset size per source (overrides config file)")
	cmd.Flags().String("cache-dir", "",
		"Directory for layout snapshot baselines (default: XDG cache directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .georisk in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the dataset CSV to the specified file (default: stdout)")
	cmd.Flags().BoolP("json", "j", false,
		"Output drift reports as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output drift reports as Markdown (mutually exclusive with --json)")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 && args[0] != "both" {
		cfg.Targets = []string{args[0]}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runExtract(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.Force, err = cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}

	cfg.SkipLayoutCheck, err = cmd.Flags().GetBool("skip-layout-check")
	if err != nil {
		return nil, err
	}

	cfg.NoValidate, err = cmd.Flags().GetBool("no-validate")
	if err != nil {
		return nil, err
	}

	cfg.MinCounties, err = cmd.Flags().GetInt("min-counties")
	if err != nil {
		return nil, err
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadSourceConfigs(cfg); err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	// Snapshot history always goes to the XDG data directory.
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// loadSourceConfigs loads per-source settings from the config file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file silently yields an empty config.
func loadSourceConfigs(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		loaded, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SourceConfigs = loaded
		return nil
	}
	if explicit {
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}
	cfg.SourceConfigs = &config.File{Sources: make(map[string]config.SourceConfig)}
	return nil
}

// runExtract executes the extraction.
func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	specs := sourceSpecs(cfg)

	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		ids = append(ids, spec.ID)
	}
	logger.Info("starting extraction",
		"sources", ids,
		"force", cfg.Force,
		"skipLayoutCheck", cfg.SkipLayoutCheck,
	)

	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	bp := pipeline.NewBatchProcessor(
		func(spec pipeline.SourceSpec) *pipeline.Pipeline {
			return createPipelineForSource(spec, cfg, deps, logger)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	runs, err := bp.ProcessBatch(ctx, specs)
	if err != nil {
		return err
	}

	// Emit drift reports before deciding whether the data is usable, so
	// a blocked run still explains what changed.
	for _, run := range runs {
		if run.Report == nil {
			continue
		}
		if err := outputDriftReport(cfg, run.Report); err != nil {
			logger.Error("drift report failed", "source", run.Source, "error", err)
		}
	}

	counties, err := collectCounties(runs)
	if err != nil {
		return err
	}

	merged := geo.Merge(counties[sourceHIFCA], counties[sourceHIDTA])
	if err := writeDataset(cfg, merged); err != nil {
		return err
	}

	logger.Info("extraction complete",
		"counties", len(merged),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	return nil
}

// dependencies bundles the long-lived components shared across sources.
type dependencies struct {
	fetcher     *scrape.Fetcher
	snapshotter *layout.Snapshotter
	baselines   *store.FileStore
	history     *store.DB
	resolver    *census.Client
}

func (d *dependencies) close() {
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			slog.Warn("failed to close history database", "error", err)
		}
	}
}

// buildDependencies constructs the shared components from the config.
func buildDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	deps := &dependencies{
		fetcher: scrape.NewFetcher(
			scrape.WithFetchClient(httpClient),
			scrape.WithFetchUserAgent(cfg.UserAgent),
			scrape.WithMaxBodySize(cfg.MaxBodySize),
		),
		snapshotter: layout.NewSnapshotter(),
		resolver: census.NewClient(
			census.WithHTTPClient(httpClient),
			census.WithUserAgent(cfg.UserAgent),
		),
	}

	if !cfg.SkipLayoutCheck {
		baselines, err := store.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open baseline store: %w", err)
		}
		deps.baselines = baselines

		history, err := store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		deps.history = history
		logger.Info("snapshot storage opened", "cacheDir", cfg.CacheDir, "dbDir", cfg.DBDir)
	}

	return deps, nil
}

// sourceSpecs returns the sources to extract. URL overrides from the
// config file apply; sources without a scrapeable page have no URL.
func sourceSpecs(cfg *config.Config) []pipeline.SourceSpec {
	hifcaURL := scrape.HIFCASourceURL
	if sc := cfg.SourceConfigs.GetSourceConfig(sourceHIFCA); sc.URL != "" {
		hifcaURL = sc.URL
	}

	all := []pipeline.SourceSpec{
		{ID: sourceHIFCA, URL: hifcaURL},
		{ID: sourceHIDTA}, // designations are published as a fixed list, no page to snapshot
	}
	if len(cfg.Targets) == 0 {
		return all
	}

	var specs []pipeline.SourceSpec
	for _, spec := range all {
		if slices.Contains(cfg.Targets, spec.ID) {
			specs = append(specs, spec)
		}
	}
	return specs
}

// createPipelineForSource builds the step sequence for one source.
// Sources with a page URL get the layout validation steps first; all
// sources end with scraping and dataset validation.
func createPipelineForSource(spec pipeline.SourceSpec, cfg *config.Config, deps *dependencies, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))

	sc := cfg.SourceConfigs.GetSourceConfig(spec.ID)

	if spec.URL != "" && !cfg.SkipLayoutCheck {
		detectorOpts := []layout.DetectorOption{}
		if policy, err := sc.SeverityPolicy(); err != nil {
			logger.Warn("ignoring invalid severity overrides", "source", spec.ID, "error", err)
		} else {
			detectorOpts = append(detectorOpts, layout.WithSeverityPolicy(policy))
		}

		p.AddSteps(
			pipeline.NewFetchStep(deps.fetcher),
			pipeline.NewStructureStep(),
			pipeline.NewSnapshotStep(deps.snapshotter),
			pipeline.NewDriftStep(deps.baselines, layout.NewDetector(detectorOpts...),
				pipeline.WithForce(cfg.Force),
				pipeline.WithHistory(deps.history),
				pipeline.WithDriftLogger(logger),
			),
		)
	}

	p.AddStep(pipeline.NewScrapeStep(scraperFor(spec.ID, deps.resolver)))

	if !cfg.NoValidate {
		minCounties := config.DefaultMinCounties
		if sc.MinCounties > 0 {
			minCounties = sc.MinCounties
		}
		if cfg.MinCounties > 0 {
			minCounties = cfg.MinCounties
		}
		p.AddStep(pipeline.NewValidateStep(minCounties))
	}
	return p
}

// scraperFor returns the designation scraper for a source id.
func scraperFor(sourceID string, resolver scrape.CountyResolver) pipeline.CountyScraper {
	switch sourceID {
	case sourceHIDTA:
		return scrape.NewHIDTAScraper(resolver)
	default:
		return scrape.NewHIFCAScraper(resolver)
	}
}

// collectCounties gathers each run's dataset, failing when any source
// could not produce usable data.
func collectCounties(runs []*pipeline.Run) (map[string][]model.County, error) {
	counties := make(map[string][]model.County, len(runs))

	for _, run := range runs {
		if run.Err != nil {
			if errors.Is(run.Err, pipeline.ErrLayoutChanged) {
				return nil, fmt.Errorf("source %s: %w (re-run with --force to use the data anyway)",
					run.Source, run.Err)
			}
			return nil, fmt.Errorf("source %s: %w", run.Source, run.Err)
		}
		counties[run.Source] = run.Counties
	}
	return counties, nil
}

// outputDriftReport writes one source's drift report in the requested format.
// Reports go to stderr so they never mix with a dataset written to stdout.
func outputDriftReport(cfg *config.Config, changeReport *model.ChangeReport) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(os.Stderr, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(os.Stderr)
	default:
		w = report.NewSimpleWriter(os.Stderr, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(changeReport)
	return err
}

// writeDataset writes the merged county dataset as CSV.
func writeDataset(cfg *config.Config, counties []model.County) error {
	output := os.Stdout
	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // Dataset is public data
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	return report.WriteCounties(output, counties)
}
