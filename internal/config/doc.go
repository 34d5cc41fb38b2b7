// Package config holds the runtime configuration: defaults, validation,
// XDG directory resolution, and the optional .georisk YAML file with
// per-source settings.
package config
