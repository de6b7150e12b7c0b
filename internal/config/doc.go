// Package config loads, normalizes, and validates streampanel configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Server credentials are deliberately not
// part of the file: every invocation receives its target server as a JSON
// argument, so the file only carries ambient knobs such as timeout budgets,
// log format, the audit log location, and the plex.tv endpoint override used
// by tests.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
