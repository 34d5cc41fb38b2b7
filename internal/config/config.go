package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "georisk"

	// DefaultTimeout is the connection timeout for each HTTP request.
	// Government sites can be slow; 30 seconds covers the usual worst
	// case without hanging a batch run indefinitely.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with source page requests. Some government
	// sites reject requests with no or unusual agents, so a browser-like
	// value is used.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for the source pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the number of sources extracted in parallel.
	// The source set is small, so a low limit keeps request bursts polite.
	DefaultConcurrency = 4

	// DefaultMinCounties is the minimum dataset size accepted from a
	// source when its config does not override it. A dramatically smaller
	// extraction almost always means the page layout broke.
	DefaultMinCounties = 10
)

// Config holds all configuration options for georisk.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Timeout is the connection timeout for each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Concurrency is the number of sources processed in parallel.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Force bypasses the layout drift gate: extracted data is used even
	// when a blocking layout change was detected. The baseline is
	// updated either way.
	Force bool

	// SkipLayoutCheck disables layout validation entirely. Snapshots are
	// neither taken nor compared.
	SkipLayoutCheck bool

	// NoValidate disables dataset validation (minimum row counts, FIPS
	// checks) on the extracted counties.
	NoValidate bool

	// MinCounties overrides the minimum dataset size for every source.
	// Zero means per-source config or the default applies.
	MinCounties int

	// Targets selects which sources to process. Empty means all.
	Targets []string

	// CacheDir is the directory for layout snapshot storage.
	// Defaults to the XDG cache directory.
	CacheDir string

	// DBDir is the directory for the snapshot history database.
	// When empty, no history is recorded.
	DBDir string

	// OutputFile is where the merged dataset CSV is written.
	// When empty, output goes to stdout.
	OutputFile string

	// JSONReport enables JSON drift report output instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown drift report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .georisk in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// SourceConfigs holds per-source settings loaded from the config file.
	SourceConfigs *File
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Concurrency: DefaultConcurrency,
		CacheDir:    XDGCacheDir(),
	}
}

// XDGDataDir returns the XDG data directory for georisk.
// On Linux: ~/.local/share/georisk
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for georisk.
// On Linux: ~/.config/georisk
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for georisk.
// On Linux: ~/.cache/georisk
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any extraction begins.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Force && c.SkipLayoutCheck {
		return ErrConflictingLayoutFlags
	}
	return nil
}
