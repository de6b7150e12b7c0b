package plextv

import "context"

type catalogContainer struct {
	Directories []struct {
		Key   string `xml:"key,attr"`
		Title string `xml:"title,attr"`
	} `xml:"Directory"`
}

// Catalog enumerates the library sections the server currently exposes. The
// call goes to the server's own address, not plex.tv.
func (c *Client) Catalog(ctx context.Context, server ServerConfig) ([]LibrarySection, error) {
	var container catalogContainer
	url := serverURL(server, "/library/sections")
	if err := c.doXML(ctx, "catalog", "GET", url, server.AccessToken, &container); err != nil {
		return nil, err
	}

	sections := make([]LibrarySection, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" {
			continue
		}
		sections = append(sections, LibrarySection{ID: dir.Key, Title: dir.Title})
	}
	return sections, nil
}
