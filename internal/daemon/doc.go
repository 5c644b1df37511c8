// Package daemon runs the splice service process: it enforces
// single-instance execution with a lock file, wires the merge pipeline to
// the HTTP API server, reclaims orphaned job workspaces on a sweep cadence,
// and reports runtime status.
package daemon
