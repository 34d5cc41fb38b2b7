package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georisk/georisk/internal/config"
	"github.com/georisk/georisk/internal/pipeline"
)

// TestNewCheckCmd tests the check command creation.
func TestNewCheckCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCheckCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "check [source...]" {
			t.Errorf("unexpected use string: %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"timeout", "cache-dir", "config", "json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestRunCheck drives the full check flow against a local page.
func TestRunCheck(t *testing.T) {
	t.Parallel()

	const stablePage = `<html><body>
<table><tr><th>County</th><th>Tier</th></tr><tr><td>Pima</td><td>Full</td></tr></table>
<a href="/docs/designations.pdf">Designations</a>
</body></html>`

	const widenedPage = `<html><body>
<table><tr><th>County</th><th>Tier</th><th>Status</th></tr><tr><td>Pima</td><td>Full</td><td>Active</td></tr></table>
<a href="/docs/designations.pdf">Designations</a>
</body></html>`

	page := stablePage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.CacheDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{
		sourceHIFCA: {URL: server.URL},
	}}

	logger := discardTestLogger()

	var first bytes.Buffer
	if err := runCheck(t.Context(), cfg, logger, &first); err != nil {
		t.Fatalf("first check error = %v", err)
	}
	if !strings.Contains(first.String(), "NO_BASELINE") {
		t.Errorf("first check output = %q, want NO_BASELINE", first.String())
	}

	var second bytes.Buffer
	if err := runCheck(t.Context(), cfg, logger, &second); err != nil {
		t.Fatalf("second check error = %v", err)
	}
	if !strings.Contains(second.String(), "UNCHANGED") {
		t.Errorf("second check output = %q, want UNCHANGED", second.String())
	}

	// A new column is a blocking structural change.
	page = widenedPage
	var third bytes.Buffer
	err := runCheck(t.Context(), cfg, logger, &third)
	if !errors.Is(err, pipeline.ErrLayoutChanged) {
		t.Fatalf("third check error = %v, want ErrLayoutChanged", err)
	}
	if !strings.Contains(third.String(), "CHANGED_MAJOR") {
		t.Errorf("third check output = %q, want CHANGED_MAJOR", third.String())
	}

	// The baseline was replaced, so the same page is now clean.
	var fourth bytes.Buffer
	if err := runCheck(t.Context(), cfg, logger, &fourth); err != nil {
		t.Fatalf("fourth check error = %v", err)
	}
	if !strings.Contains(fourth.String(), "UNCHANGED") {
		t.Errorf("fourth check output = %q, want UNCHANGED", fourth.String())
	}
}

// TestRunCheckJSONOutput tests the machine-readable report format.
func TestRunCheckJSONOutput(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table><tr><td>x</td></tr></table></body></html>`))
	}))
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.CacheDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.JSONReport = true
	cfg.SourceConfigs = &config.File{Sources: map[string]config.SourceConfig{
		sourceHIFCA: {URL: server.URL},
	}}

	var out bytes.Buffer
	if err := runCheck(t.Context(), cfg, discardTestLogger(), &out); err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out.String(), `"verdict"`) {
		t.Errorf("JSON output = %q, want a verdict field", out.String())
	}
}
