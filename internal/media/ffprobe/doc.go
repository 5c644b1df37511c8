// Package ffprobe provides a typed wrapper around ffprobe container
// inspection.
//
// Splice only records container-level metadata for merged artifacts, so
// Inspect requests the format section alone. A failed probe is reported to
// the caller but never fails the merge that produced the artifact.
package ffprobe
