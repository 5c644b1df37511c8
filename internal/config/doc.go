// Package config loads, normalizes, and validates Splice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SPLICE_CONFIG environment
// override for the file location. The Config type centralizes every knob the
// daemon and CLI need: the merge workspace, upload limits, ffmpeg binaries
// and timeout, sweep cadence, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
