package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/georisk/georisk/internal/layout"
	"github.com/georisk/georisk/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".georisk"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads source configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers handle
// that based on whether the path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sources == nil {
		cf.Sources = make(map[string]SourceConfig)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .georisk in the current directory
// 3. Look for .georisk in the user's home directory
//
// Returns the path to the configuration file if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}
	return ""
}

// SeverityPolicy converts a source's severity overrides into a detection
// policy. Unknown change kinds and unparseable severities are rejected so
// a typo in the config file fails loudly instead of silently keeping the
// default.
func (sc SourceConfig) SeverityPolicy() (layout.SeverityPolicy, error) {
	policy := layout.DefaultSeverityPolicy()

	for kind, value := range sc.Severity {
		sev, err := model.ParseSeverity(value)
		if err != nil {
			return policy, fmt.Errorf("severity for %s: %w", kind, err)
		}
		switch model.ChangeKind(kind) {
		case model.ChangeTableCount:
			policy.TableCount = sev
		case model.ChangeTableShape:
			// A single override applies to both dimensions; per-dimension
			// tuning has not been needed.
			policy.TableRows = sev
			policy.TableColumns = sev
		case model.ChangePDFAdded:
			policy.PDFAdded = sev
		case model.ChangePDFRemoved:
			policy.PDFRemoved = sev
		case model.ChangeContentHash:
			policy.ContentHash = sev
		default:
			return policy, fmt.Errorf("unknown change kind %q in severity override", kind)
		}
	}
	return policy, nil
}
