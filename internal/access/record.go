package access

import (
	"strings"

	"golang.org/x/text/cases"
)

// AccessRecord is the unified view of one user's relationship to one server,
// produced by merging share records and home users. Email is the natural key
// across both sources.
type AccessRecord struct {
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	AccountID       int64    `json:"account_id"`
	LibraryIDs      []string `json:"library_ids"`
	IsPendingInvite bool     `json:"is_pending_invite"`
	IsActiveFriend  bool     `json:"is_active_friend"`
	IsHomeUser      bool     `json:"is_home_user"`
}

// HasAccess reports whether the record carries any library entitlement on
// this server.
func (r AccessRecord) HasAccess() bool { return len(r.LibraryIDs) > 0 }

// DesiredState is the caller-supplied target for one reconciliation. An
// empty library set means "revoke all access".
type DesiredState struct {
	UserIdentifier string
	LibraryIDs     []string
}

// SectionDetail names one granted library in a mutation outcome.
type SectionDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MutationOutcome is the only artifact an operation returns to the caller.
// It is a closed three-way result: hard success, success with warnings, or
// failure; no operation ever raises an unhandled fault.
type MutationOutcome struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	Server          string          `json:"server"`
	LibrariesShared int             `json:"libraries_shared"`
	LibraryDetails  []SectionDetail `json:"library_details,omitempty"`
	InviteSent      bool            `json:"invite_sent,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// fold normalizes an identifier for caseless comparison and map keying.
func fold(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}
