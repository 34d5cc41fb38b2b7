package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/georisk/georisk/internal/census"
	"github.com/georisk/georisk/internal/config"
	"github.com/georisk/georisk/internal/pipeline"
	"github.com/georisk/georisk/internal/scrape"
)

// discardTestLogger returns a logger that drops all records.
func discardTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewExtractCmd tests the extract command creation.
func TestNewExtractCmd(t *testing.T) {
	t.Parallel()

	cmd := NewExtractCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "extract [hifca|hidta|both]" {
			t.Errorf("unexpected use string: %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"timeout", "batch", "force", "skip-layout-check", "no-validate",
			"min-counties", "cache-dir", "config", "output", "json", "markdown",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestBuildConfig tests translating flags into a Config.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := buildConfig(NewExtractCmd())
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("Timeout = %v, want default", cfg.Timeout)
		}
		if cfg.Concurrency != config.DefaultConcurrency {
			t.Errorf("Concurrency = %d, want default", cfg.Concurrency)
		}
		if cfg.Force || cfg.SkipLayoutCheck {
			t.Error("gate flags should default to false")
		}
		if cfg.SourceConfigs == nil {
			t.Error("SourceConfigs should be initialized even without a config file")
		}
		if cfg.DBDir == "" {
			t.Error("DBDir should default to the XDG data directory")
		}
	})

	t.Run("flag overrides", func(t *testing.T) {
		t.Parallel()

		cmd := NewExtractCmd()
		for flag, value := range map[string]string{
			"timeout":   "5s",
			"batch":     "2",
			"force":     "true",
			"cache-dir": "/tmp/georisk-cache",
			"output":    "out.csv",
		} {
			if err := cmd.Flags().Set(flag, value); err != nil {
				t.Fatal(err)
			}
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
		}
		if !cfg.Force {
			t.Error("Force should be set")
		}
		if cfg.CacheDir != "/tmp/georisk-cache" {
			t.Errorf("CacheDir = %q", cfg.CacheDir)
		}
		if cfg.OutputFile != "out.csv" {
			t.Errorf("OutputFile = %q", cfg.OutputFile)
		}
	})

	t.Run("explicit missing config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewExtractCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for explicitly specified missing config file")
		}
	})
}

// TestSourceSpecs tests the source list and URL overrides.
func TestSourceSpecs(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{}}

		specs := sourceSpecs(cfg)
		if len(specs) != 2 {
			t.Fatalf("len(specs) = %d, want 2", len(specs))
		}
		if specs[0].ID != sourceHIFCA || specs[0].URL != scrape.HIFCASourceURL {
			t.Errorf("hifca spec = %+v", specs[0])
		}
		if specs[1].ID != sourceHIDTA || specs[1].URL != "" {
			t.Errorf("hidta spec = %+v", specs[1])
		}
	})

	t.Run("url override from config", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{
			sourceHIFCA: {URL: "https://mirror.example.gov/hifca"},
		}}

		specs := sourceSpecs(cfg)
		if specs[0].URL != "https://mirror.example.gov/hifca" {
			t.Errorf("hifca URL = %q, want override", specs[0].URL)
		}
	})

	t.Run("target selection", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{}}
		cfg.Targets = []string{sourceHIDTA}

		specs := sourceSpecs(cfg)
		if len(specs) != 1 || specs[0].ID != sourceHIDTA {
			t.Errorf("specs = %+v, want only hidta", specs)
		}
	})
}

// TestCreatePipelineForSource tests the step layout per source.
func TestCreatePipelineForSource(t *testing.T) {
	t.Parallel()

	newDeps := func(t *testing.T) (*config.Config, *dependencies) {
		t.Helper()
		cfg := config.NewConfig()
		cfg.CacheDir = t.TempDir()
		cfg.DBDir = t.TempDir()
		cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{}}

		deps, err := buildDependencies(cfg, discardTestLogger())
		if err != nil {
			t.Fatalf("buildDependencies() error = %v", err)
		}
		t.Cleanup(deps.close)
		return cfg, deps
	}

	t.Run("page-backed source gets layout steps", func(t *testing.T) {
		t.Parallel()

		cfg, deps := newDeps(t)
		p := createPipelineForSource(pipeline.SourceSpec{ID: sourceHIFCA, URL: scrape.HIFCASourceURL}, cfg, deps, discardTestLogger())

		want := []string{"fetch", "structure", "snapshot", "drift", "scrape", "validate"}
		got := p.StepNames()
		if len(got) != len(want) {
			t.Fatalf("StepNames() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("step[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("pageless source gets scrape steps only", func(t *testing.T) {
		t.Parallel()

		cfg, deps := newDeps(t)
		p := createPipelineForSource(pipeline.SourceSpec{ID: sourceHIDTA}, cfg, deps, discardTestLogger())

		want := []string{"scrape", "validate"}
		got := p.StepNames()
		if len(got) != len(want) {
			t.Fatalf("StepNames() = %v, want %v", got, want)
		}
	})

	t.Run("skip-layout-check drops layout steps", func(t *testing.T) {
		t.Parallel()

		cfg, deps := newDeps(t)
		cfg.SkipLayoutCheck = true
		p := createPipelineForSource(pipeline.SourceSpec{ID: sourceHIFCA, URL: scrape.HIFCASourceURL}, cfg, deps, discardTestLogger())

		if p.StepCount() != 2 {
			t.Errorf("StepCount() = %d, want 2", p.StepCount())
		}
	})

	t.Run("no-validate drops the validate step", func(t *testing.T) {
		t.Parallel()

		cfg, deps := newDeps(t)
		cfg.NoValidate = true
		p := createPipelineForSource(pipeline.SourceSpec{ID: sourceHIDTA}, cfg, deps, discardTestLogger())

		want := []string{"scrape"}
		got := p.StepNames()
		if len(got) != 1 || got[0] != want[0] {
			t.Errorf("StepNames() = %v, want %v", got, want)
		}
	})
}

// TestScraperFor tests scraper selection by source id.
func TestScraperFor(t *testing.T) {
	t.Parallel()

	resolver := census.NewClient()

	if _, ok := scraperFor(sourceHIFCA, resolver).(*scrape.HIFCAScraper); !ok {
		t.Error("hifca should get the HIFCA scraper")
	}
	if _, ok := scraperFor(sourceHIDTA, resolver).(*scrape.HIDTAScraper); !ok {
		t.Error("hidta should get the HIDTA scraper")
	}
}
