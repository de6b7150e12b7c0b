package plextv

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

type historyContainer struct {
	Videos []historyEntry `xml:"Video"`
	Tracks []historyEntry `xml:"Track"`
}

// LastWatched returns the most recent watch timestamp for the given account
// on this server, or ok=false when the account has no history. The call goes
// to the server's own address.
func (c *Client) LastWatched(ctx context.Context, server ServerConfig, accountID int64) (time.Time, bool, error) {
	query := url.Values{}
	query.Set("accountID", fmt.Sprintf("%d", accountID))
	query.Set("sort", "viewedAt:desc")
	query.Set("X-Plex-Container-Size", "1")

	var container historyContainer
	target := serverURL(server, "/status/sessions/history/all") + "?" + query.Encode()
	if err := c.doXML(ctx, "watch history", "GET", target, server.AccessToken, &container); err != nil {
		return time.Time{}, false, err
	}

	entries := append(container.Videos, container.Tracks...)
	var latest time.Time
	found := false
	for _, entry := range entries {
		if viewed, ok := entry.viewedAtTime(); ok && viewed.After(latest) {
			latest = viewed
			found = true
		}
	}
	return latest, found, nil
}
