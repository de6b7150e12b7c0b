package plextv

import (
	"context"
	"fmt"
	"net/http"
)

type homeUserContainer struct {
	Users []HomeUser `xml:"User"`
}

// HomeUsers lists the accounts in the token owner's household.
func (c *Client) HomeUsers(ctx context.Context, server ServerConfig) ([]HomeUser, error) {
	var container homeUserContainer
	url := c.plexTVPath("api", "home", "users")
	if err := c.doXML(ctx, "home users", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}
	return container.Users, nil
}

type friendContainer struct {
	Users []Friend `xml:"User"`
}

// Friends lists the active-account directory of the token owner.
func (c *Client) Friends(ctx context.Context, server ServerConfig) ([]Friend, error) {
	var container friendContainer
	url := c.plexTVPath("api", "users")
	if err := c.doXML(ctx, "friends", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}
	return container.Users, nil
}

type inviteContainer struct {
	Invites []PendingInvite `xml:"Invite"`
}

// PendingInvites lists share invitations that have been sent but not yet
// accepted.
func (c *Client) PendingInvites(ctx context.Context, server ServerConfig) ([]PendingInvite, error) {
	var container inviteContainer
	url := c.plexTVPath("api", "invites", "requested")
	if err := c.doXML(ctx, "pending invites", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}
	return container.Invites, nil
}

// RemoveFriend drops the friendship, revoking every share tied to it.
func (c *Client) RemoveFriend(ctx context.Context, server ServerConfig, accountID int64) error {
	url := c.plexTVPath("api", "v2", "friends", fmt.Sprintf("%d", accountID))
	return c.doJSON(ctx, "remove friend", http.MethodDelete, url, server.AccessToken, nil)
}

// CancelInvite withdraws a sent invitation.
func (c *Client) CancelInvite(ctx context.Context, server ServerConfig, inviteID string) error {
	url := c.plexTVPath("api", "invites", "requested", inviteID)
	return c.doJSON(ctx, "cancel invite", http.MethodDelete, url, server.AccessToken, nil)
}
