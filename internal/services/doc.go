// Package services defines shared utilities consumed by the merge pipeline
// and the HTTP boundary.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, pipeline stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses and response labels.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
