// Package preflight verifies that splice's runtime prerequisites hold:
// external binaries resolve and the working directories are accessible.
// The daemon runs these checks at startup; `splice status` renders them.
package preflight
