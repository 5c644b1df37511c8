// Package history persists merge job outcomes in SQLite.
//
// The journal is observational: one row per concluded job recording counts,
// sizes, timing, and the failure message when the job did not succeed. It
// never stores artifacts and is never consulted to replay or re-serve a
// merge. The daemon API and the jobs CLI read it for operator visibility.
package history
