// Package layout implements structural fingerprinting and drift detection
// for scraped source pages.
//
// The Snapshotter converts raw structural facts about a fetched document
// (table shapes, PDF links, extractable content) into a canonical
// model.LayoutSnapshot. The Detector compares a fresh snapshot against a
// previously stored baseline and classifies every delta into a
// model.ChangeReport with a pass/warn/fail verdict.
//
// Both components are pure and deterministic: no I/O, no shared state, the
// same inputs always produce the same outputs. Persistence of baselines is
// the store package's concern; escalating a CHANGED_MAJOR verdict into a
// hard failure is the caller's.
package layout
