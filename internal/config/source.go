package config

// SourceConfig holds per-source settings from the configuration file.
type SourceConfig struct {
	// URL overrides the source page location. Useful when an agency
	// moves a page before a release catches up.
	URL string `yaml:"url,omitempty"`

	// MinCounties overrides the minimum dataset size accepted from this
	// source. If zero, the global default is used.
	MinCounties int `yaml:"minCounties,omitempty"`

	// Severity overrides the severity assigned to change kinds for this
	// source, keyed by change kind (e.g. "PDF_LINKS_REMOVED": "HIGH").
	// Kinds not listed keep their default severity.
	Severity map[string]string `yaml:"severity,omitempty"`
}

// File represents the structure of the .georisk configuration file.
type File struct {
	// Sources maps source ids ("hifca", "hidta") to their settings.
	Sources map[string]SourceConfig `yaml:"sources,omitempty"`

	// Defaults contains settings applied to all sources unless
	// overridden per source.
	Defaults SourceConfig `yaml:"defaults,omitempty"`
}

// GetSourceConfig returns the configuration for one source, merging the
// source-specific settings over the defaults.
func (cf *File) GetSourceConfig(sourceID string) SourceConfig {
	result := cf.Defaults

	if sc, ok := cf.Sources[sourceID]; ok {
		if sc.URL != "" {
			result.URL = sc.URL
		}
		if sc.MinCounties != 0 {
			result.MinCounties = sc.MinCounties
		}
		if len(sc.Severity) > 0 {
			// Copy before merging so the shared defaults map stays intact.
			merged := make(map[string]string, len(result.Severity)+len(sc.Severity))
			for k, v := range result.Severity {
				merged[k] = v
			}
			for k, v := range sc.Severity {
				merged[k] = v
			}
			result.Severity = merged
		}
	}
	return result
}
