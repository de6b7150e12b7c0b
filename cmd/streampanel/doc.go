// Package main hosts the streampanel CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into access
// reconciliations against remote Plex servers: sharing and revoking library
// sections, verifying accounts, and reporting merged access and activity
// state. It centralizes configuration resolution, structured logging setup,
// and per-server locking so subcommands stay declarative.
//
// Every command emits exactly one JSON document on stdout; diagnostics go to
// stderr so automated callers can parse results without scraping log lines.
package main
