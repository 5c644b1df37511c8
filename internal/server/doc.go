// Package server exposes the splice HTTP API: the multipart merge ingress,
// the job history and status endpoints, and the root health greeting.
//
// Success on the merge endpoint is a binary download; every failure is the
// JSON shape {error, details}. The server never owns pipeline semantics, it
// only translates between HTTP and the merge orchestrator.
package server
