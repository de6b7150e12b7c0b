package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"streampanel/internal/plextv"
)

// parseServerConfig decodes the JSON server argument. Server credentials
// arrive per invocation and are never read from the config file.
func parseServerConfig(arg string) (plextv.ServerConfig, error) {
	var server plextv.ServerConfig
	if err := json.Unmarshal([]byte(arg), &server); err != nil {
		return plextv.ServerConfig{}, fmt.Errorf("parse server config: %w", err)
	}
	if strings.TrimSpace(server.Name) == "" {
		return plextv.ServerConfig{}, fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(server.ServerID) == "" {
		return plextv.ServerConfig{}, fmt.Errorf("server config missing server_id")
	}
	if strings.TrimSpace(server.AccessToken) == "" {
		return plextv.ServerConfig{}, fmt.Errorf("server config missing token")
	}
	return server, nil
}

// parseLibraryIDs decodes the JSON library-ID array. Callers send both string
// and numeric IDs; both normalize to the string catalog keys.
func parseLibraryIDs(arg string) ([]string, error) {
	decoder := json.NewDecoder(strings.NewReader(arg))
	decoder.UseNumber()

	var raw []any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse library IDs: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for _, value := range raw {
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				ids = append(ids, trimmed)
			}
		case json.Number:
			ids = append(ids, v.String())
		default:
			return nil, fmt.Errorf("parse library IDs: unsupported element %v", value)
		}
	}
	return ids, nil
}
