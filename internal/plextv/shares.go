package plextv

import (
	"context"
	"fmt"
	"net/http"
)

type sharedServerContainer struct {
	SharedServers []SharedServer `xml:"SharedServer"`
}

// SharedServers lists every share record for the server, accepted and
// pending alike.
func (c *Client) SharedServers(ctx context.Context, server ServerConfig) ([]SharedServer, error) {
	var container sharedServerContainer
	url := c.plexTVPath("api", "servers", server.ServerID, "shared_servers")
	if err := c.doXML(ctx, "shared servers", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}
	return container.SharedServers, nil
}

// The per-user endpoint wraps the record in a MediaContainer like the list
// endpoint does; some responses carry Section entries directly under the
// container instead.
type sharedServerUserContainer struct {
	Records  []SharedServer  `xml:"SharedServer"`
	Sections []SharedSection `xml:"Section"`
}

// SharedServerForUser fetches the share record tying one account to this
// server. A not-found response surfaces as a services.ErrNotFound-classified
// error. A successful response without section entries is a valid empty
// share, not an error.
func (c *Client) SharedServerForUser(ctx context.Context, server ServerConfig, accountID int64) (*SharedServer, error) {
	var container sharedServerUserContainer
	url := c.plexTVPath("api", "servers", server.ServerID, "shared_servers", fmt.Sprintf("%d", accountID))
	if err := c.doXML(ctx, "shared server for user", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}
	if len(container.Records) > 0 {
		return &container.Records[0], nil
	}
	return &SharedServer{Sections: container.Sections}, nil
}

type sharedServerPayload struct {
	ServerID     string           `json:"server_id,omitempty"`
	SharedServer sharedServerBody `json:"shared_server"`
}

type sharedServerBody struct {
	LibrarySectionIDs []string `json:"library_section_ids"`
	InvitedEmail      string   `json:"invited_email,omitempty"`
	InvitedID         int64    `json:"invited_id,omitempty"`
}

// InviteFriend sends a share invitation granting the given sections to an
// account identified by email.
func (c *Client) InviteFriend(ctx context.Context, server ServerConfig, email string, sectionIDs []string) error {
	payload := sharedServerPayload{
		ServerID: server.ServerID,
		SharedServer: sharedServerBody{
			LibrarySectionIDs: normalizeSectionIDs(sectionIDs),
			InvitedEmail:      email,
		},
	}
	url := c.plexTVPath("api", "servers", server.ServerID, "shared_servers")
	return c.doJSON(ctx, "invite friend", http.MethodPost, url, server.AccessToken, payload)
}

// UpdateSharedSections replaces the full section set shared with an existing
// account. An empty set removes all library access.
func (c *Client) UpdateSharedSections(ctx context.Context, server ServerConfig, accountID int64, sectionIDs []string) error {
	payload := sharedServerPayload{
		SharedServer: sharedServerBody{
			LibrarySectionIDs: normalizeSectionIDs(sectionIDs),
			InvitedID:         accountID,
		},
	}
	url := c.plexTVPath("api", "servers", server.ServerID, "shared_servers", fmt.Sprintf("%d", accountID))
	return c.doJSON(ctx, "update shared sections", http.MethodPut, url, server.AccessToken, payload)
}

// DeleteSharedServer removes one share record by its opaque record ID.
func (c *Client) DeleteSharedServer(ctx context.Context, server ServerConfig, shareID string) error {
	url := c.plexTVPath("api", "servers", server.ServerID, "shared_servers", shareID)
	return c.doJSON(ctx, "delete shared server", http.MethodDelete, url, server.AccessToken, nil)
}

func normalizeSectionIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
