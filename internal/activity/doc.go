// Package activity reports per-user watch recency for a server, pairing the
// share directory with each account's most recent history entry.
package activity
