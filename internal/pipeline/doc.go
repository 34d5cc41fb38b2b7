// Package pipeline orchestrates one source extraction as a sequence of
// steps: fetch the page, extract its structure, snapshot the layout,
// detect drift against the stored baseline, then parse and validate the
// county data.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running extractions
//
// The pipeline supports both individual runs and batch processing with
// concurrency control using errgroup.
package pipeline
