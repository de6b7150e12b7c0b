package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`[paths]
audit_dir = %q
lock_dir = %q

[plextv]
base_url = %q

[logging]
format = "json"
level = "error"

[audit]
enabled = true
`, filepath.Join(dir, "audit"), filepath.Join(dir, "locks"), baseURL)

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

// newUpstream stands in for both plex.tv and the media server itself; the
// test config points the control API at it and the server JSON points the
// server URL at it too.
func newUpstream(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func serverJSON(url string) string {
	return fmt.Sprintf(`{"name":"alpha","server_id":"srv-1","url":%q,"token":"tok"}`, url)
}

func decodeInto(t *testing.T, raw string, target any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		t.Fatalf("decode CLI output %q: %v", raw, err)
	}
}
