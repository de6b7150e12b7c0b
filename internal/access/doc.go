// Package access implements per-user library access administration: it
// merges the two partially-authoritative share surfaces into one view,
// resolves operator-supplied identifiers to canonical accounts, plans the
// mutation needed to reach a desired library set, and executes it with the
// retry and reclassification policy the upstream API requires.
//
// Reads and the subsequent write are not transactional; the upstream
// platform offers no compare-and-swap, so a concurrent change between read
// and write resolves last-writer-wins.
package access
