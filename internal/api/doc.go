// Package api defines the JSON payloads served by the splice daemon and a
// small HTTP client the CLI uses to talk to it.
//
// The types here are the transport contract: the server encodes them, the
// CLI and any external consumer decode them. Keep field names stable.
package api
