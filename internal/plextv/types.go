package plextv

import (
	"strconv"
	"time"
)

// ServerConfig identifies exactly one remote server instance. It arrives as a
// JSON argument on every invocation and is immutable for its duration.
type ServerConfig struct {
	Name        string `json:"name"`
	ServerID    string `json:"server_id"`
	URL         string `json:"url"`
	AccessToken string `json:"token"`
}

// LibrarySection is one entry of a server's current catalog.
type LibrarySection struct {
	ID    string `json:"id"`
	Title string `json:"name"`
}

// SharedServer is the raw share record tying one account to one server,
// including which sections are flagged shared.
type SharedServer struct {
	ID         string          `xml:"id,attr"`
	UserID     int64           `xml:"userID,attr"`
	Username   string          `xml:"username,attr"`
	Email      string          `xml:"email,attr"`
	AcceptedAt string          `xml:"acceptedAt,attr"`
	InvitedAt  string          `xml:"invitedAt,attr"`
	Sections   []SharedSection `xml:"Section"`
}

// Accepted reports whether the target account accepted the share.
func (s SharedServer) Accepted() bool { return s.AcceptedAt != "" }

// Pending reports whether the share is a sent-but-unaccepted invite.
func (s SharedServer) Pending() bool { return s.AcceptedAt == "" && s.InvitedAt != "" }

// SharedSectionIDs returns the catalog keys of sections flagged shared.
// Entries present but not flagged are visible for browsing only and carry no
// entitlement.
func (s SharedServer) SharedSectionIDs() []string {
	ids := make([]string, 0, len(s.Sections))
	for _, section := range s.Sections {
		if !section.IsShared() {
			continue
		}
		if id := section.SectionID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// SharedSection is one library entry inside a share record.
type SharedSection struct {
	ID     string `xml:"id,attr"`
	Key    string `xml:"key,attr"`
	Title  string `xml:"title,attr"`
	Shared string `xml:"shared,attr"`
}

// SectionID returns the stable catalog key. The id attribute is the share
// record's own row identifier and only used when the key is absent.
func (s SharedSection) SectionID() string {
	if s.Key != "" {
		return s.Key
	}
	return s.ID
}

// IsShared reports whether the section is actually entitled, not merely
// visible.
func (s SharedSection) IsShared() bool { return s.Shared == "1" }

// HomeUser is an account in the server owner's administrative household.
type HomeUser struct {
	ID         int64  `xml:"id,attr"`
	Title      string `xml:"title,attr"`
	Username   string `xml:"username,attr"`
	Email      string `xml:"email,attr"`
	Admin      string `xml:"admin,attr"`
	Restricted string `xml:"restricted,attr"`
}

// IsAdmin reports whether this is the household owner account.
func (u HomeUser) IsAdmin() bool { return u.Admin == "1" }

// IsRestricted reports whether the account is a managed/restricted profile.
func (u HomeUser) IsRestricted() bool { return u.Restricted == "1" }

// DisplayName returns the best human-readable name the record carries.
func (u HomeUser) DisplayName() string {
	if u.Title != "" {
		return u.Title
	}
	return u.Username
}

// Friend is one entry of the active-account directory.
type Friend struct {
	ID       int64  `xml:"id,attr"`
	Username string `xml:"username,attr"`
	Email    string `xml:"email,attr"`
	Title    string `xml:"title,attr"`
}

// PendingInvite is a share invitation that has been sent but not accepted.
type PendingInvite struct {
	ID       string `xml:"id,attr"`
	Email    string `xml:"email,attr"`
	Username string `xml:"username,attr"`
}

type historyEntry struct {
	ViewedAt string `xml:"viewedAt,attr"`
}

func (e historyEntry) viewedAtTime() (time.Time, bool) {
	epoch, err := strconv.ParseInt(e.ViewedAt, 10, 64)
	if err != nil || epoch <= 0 {
		return time.Time{}, false
	}
	return time.Unix(epoch, 0).UTC(), true
}
