package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/georisk/georisk/internal/config"
	"github.com/georisk/georisk/internal/layout"
	"github.com/georisk/georisk/internal/log"
	"github.com/georisk/georisk/internal/model"
	"github.com/georisk/georisk/internal/pipeline"
	"github.com/georisk/georisk/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "check [source...]",
		ValidArgs: []string{sourceHIFCA, sourceHIDTA},
		Short:     "Check source page layouts against stored baselines",
		Long: `Check fetches each scrapeable source page, snapshots its layout, and
compares it against the stored baseline without extracting any data.

The exit code is non-zero when a blocking layout change is detected,
which makes check suitable for scheduled monitoring:

  georisk check || notify-team "HIFCA page layout changed"

The stored baseline is updated on every check, so a reported change is
always relative to the previous run.

Examples:
  # Check all sources, human-readable output
  georisk check

  # Machine-readable output for monitoring pipelines
  georisk check --json

  # Check one source and write the report to a file
  georisk check hifca -o drift.md --markdown`,
		Args: cobra.OnlyValidArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().String("cache-dir", "",
		"Directory for layout snapshot baselines (default: XDG cache directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .georisk in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output drift reports as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output drift reports as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write drift reports to the specified file (default: stdout)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := loadSourceConfigs(cfg); err != nil {
		return err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	cfg.DBDir = config.XDGDataDir()
	cfg.Targets = args

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	outputFile, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // Reports hold no secrets
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return runCheck(context.Background(), cfg, logger, out)
}

// runCheck snapshots and compares every scrapeable source page.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	var checkErr error
	for _, spec := range sourceSpecs(cfg) {
		if spec.URL == "" {
			continue
		}

		sc := cfg.SourceConfigs.GetSourceConfig(spec.ID)
		detectorOpts := []layout.DetectorOption{}
		if policy, err := sc.SeverityPolicy(); err != nil {
			logger.Warn("ignoring invalid severity overrides", "source", spec.ID, "error", err)
		} else {
			detectorOpts = append(detectorOpts, layout.WithSeverityPolicy(policy))
		}

		run := pipeline.NewRun(spec.ID, spec.URL)
		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddSteps(
			pipeline.NewFetchStep(deps.fetcher),
			pipeline.NewStructureStep(),
			pipeline.NewSnapshotStep(deps.snapshotter),
			pipeline.NewDriftStep(deps.baselines, layout.NewDetector(detectorOpts...),
				pipeline.WithHistory(deps.history),
				pipeline.WithDriftLogger(logger),
			),
		)

		err := p.Execute(ctx, run)
		if run.Report != nil {
			if werr := writeCheckReport(cfg, out, run.Report); werr != nil {
				logger.Error("drift report failed", "source", spec.ID, "error", werr)
			}
		}
		if err != nil {
			if !errors.Is(err, pipeline.ErrLayoutChanged) {
				return fmt.Errorf("check %s: %w", spec.ID, err)
			}
			checkErr = err
		}
	}
	return checkErr
}

// writeCheckReport writes one drift report in the requested format.
func writeCheckReport(cfg *config.Config, out io.Writer, changeReport *model.ChangeReport) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}
	_, err := w.Write(changeReport)
	return err
}
