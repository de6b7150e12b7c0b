// Package auditlog keeps a local SQLite record of every mutation outcome, so
// operators can answer "what did this tool change" after the fact. The remote
// platform stays the system of record for access state itself.
package auditlog
