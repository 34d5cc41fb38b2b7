// Package model defines the core data structures used throughout georisk.
//
// This package contains the following main types:
//   - LayoutSnapshot: Structural fingerprint of a fetched source page
//   - ChangeReport: Result of comparing a snapshot against its baseline
//   - Severity: Three-level ranking of how likely a change breaks extraction
//   - County: One designated county row in the extracted dataset
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (layout, store, pipeline, report) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// baseline storage.
package model
