package main

import (
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"streampanel/internal/access"
	"streampanel/internal/auditlog"
)

const emptyContainer = `<?xml version="1.0"?><MediaContainer></MediaContainer>`

func TestShareLibrariesInvitesNewUser(t *testing.T) {
	var invitePayload string

	mux := http.NewServeMux()
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, `<?xml version="1.0"?><MediaContainer>
            <Directory key="1" title="Movies"/>
            <Directory key="2" title="TV Shows"/>
        </MediaContainer>`)
	})
	mux.HandleFunc("/api/servers/srv-1/shared_servers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, emptyContainer)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			invitePayload = string(body)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})
	mux.HandleFunc("/api/invites/requested", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})

	upstream := newUpstream(t, mux)
	configPath := writeTestConfig(t, upstream.URL)

	out, err := runCLI(t, configPath, "share-libraries", "new@example.com", serverJSON(upstream.URL), `["1","2"]`)
	if err != nil {
		t.Fatalf("share-libraries failed: %v", err)
	}

	var outcome access.MutationOutcome
	decodeInto(t, out, &outcome)
	if !outcome.Success || !outcome.InviteSent {
		t.Fatalf("expected successful invite, got %+v", outcome)
	}
	if outcome.LibrariesShared != 2 {
		t.Fatalf("expected 2 shared libraries, got %d", outcome.LibrariesShared)
	}
	if !strings.Contains(invitePayload, `"invited_email":"new@example.com"`) {
		t.Fatalf("unexpected invite payload: %s", invitePayload)
	}
}

func TestShareLibrariesRecordsAuditEntry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, `<?xml version="1.0"?><MediaContainer><Directory key="1" title="Movies"/></MediaContainer>`)
	})
	mux.HandleFunc("/api/servers/srv-1/shared_servers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, emptyContainer)
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})
	mux.HandleFunc("/api/invites/requested", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})

	upstream := newUpstream(t, mux)
	configPath := writeTestConfig(t, upstream.URL)

	if _, err := runCLI(t, configPath, "share-libraries", "new@example.com", serverJSON(upstream.URL), `["1"]`); err != nil {
		t.Fatalf("share-libraries failed: %v", err)
	}

	out, err := runCLI(t, configPath, "audit", "list", "--json")
	if err != nil {
		t.Fatalf("audit list failed: %v", err)
	}

	var listing struct {
		Entries []auditlog.Entry `json:"entries"`
	}
	decodeInto(t, out, &listing)
	if len(listing.Entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(listing.Entries))
	}
	entry := listing.Entries[0]
	if entry.Operation != "share_libraries" || entry.User != "new@example.com" || !entry.Success {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestRemoveUserDropsFriend(t *testing.T) {
	removed := false

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, `<?xml version="1.0"?><MediaContainer>
            <User id="42" username="bob" email="bob@example.com" title="Bob"/>
        </MediaContainer>`)
	})
	mux.HandleFunc("/api/v2/friends/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		removed = true
		w.WriteHeader(http.StatusOK)
	})

	upstream := newUpstream(t, mux)
	configPath := writeTestConfig(t, upstream.URL)

	out, err := runCLI(t, configPath, "remove-user", "bob@example.com", serverJSON(upstream.URL))
	if err != nil {
		t.Fatalf("remove-user failed: %v", err)
	}

	var outcome access.MutationOutcome
	decodeInto(t, out, &outcome)
	if !outcome.Success || !removed {
		t.Fatalf("expected successful removal, got %+v (removed=%v)", outcome, removed)
	}
}

func TestCheckUserUnknownUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})
	mux.HandleFunc("/api/invites/requested", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, emptyContainer)
	})

	upstream := newUpstream(t, mux)
	configPath := writeTestConfig(t, upstream.URL)

	out, err := runCLI(t, configPath, "check-user", "ghost@example.com", serverJSON(upstream.URL))
	if err != nil {
		t.Fatalf("check-user failed: %v", err)
	}

	var result access.CheckResult
	decodeInto(t, out, &result)
	if !result.Success || result.UserInfo == nil || result.UserInfo.Exists {
		t.Fatalf("expected successful negative answer, got %s", out)
	}
}

func TestShareLibrariesRejectsMalformedServerJSON(t *testing.T) {
	configPath := writeTestConfig(t, "http://127.0.0.1:0")

	_, err := runCLI(t, configPath, "share-libraries", "bob@example.com", "{not json", `["1"]`)
	if err == nil {
		t.Fatal("expected malformed server JSON to fail")
	}
}

func TestParseLibraryIDsAcceptsStringsAndNumbers(t *testing.T) {
	ids, err := parseLibraryIDs(`["1", 2, "  3  "]`)
	if err != nil {
		t.Fatalf("parseLibraryIDs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "1" || ids[1] != "2" || ids[2] != "3" {
		t.Fatalf("unexpected IDs: %v", ids)
	}

	if _, err := parseLibraryIDs(`[true]`); err == nil {
		t.Fatal("expected boolean element to fail")
	}
}

func TestTruncateMessageCutsOnRuneBoundaries(t *testing.T) {
	short := truncateMessage("all good", 60)
	if short != "all good" {
		t.Fatalf("short message must pass through: %q", short)
	}

	long := strings.Repeat("ü", 40)
	got := truncateMessage(long, 20)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a multi-byte sequence: %q", got)
	}
	if got != strings.Repeat("ü", 17)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	dir := t.TempDir()
	target := dir + "/config.toml"

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if !strings.Contains(string(data), "[plextv]") {
		t.Fatalf("unexpected sample content: %s", data)
	}
}
