// Package services defines shared utilities consumed by the access
// operations and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp operation names and correlation identifiers
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent outcome classifications (not-found vs timeout vs
//     transport).
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the tool.
package services
