package layout

import "errors"

// ErrInvalidInput is returned by the Snapshotter when the structural input
// is malformed: empty source id, negative table dimensions, or absent
// content. It is not retryable; the upstream extraction step must be fixed.
//
// Design decision: We use one sentinel wrapped with the offending detail
// (fmt.Errorf with %w) rather than one sentinel per field. Callers only
// ever branch on "the input was bad", while the wrapped message carries
// the specifics for logs.
var ErrInvalidInput = errors.New("invalid structural input")
