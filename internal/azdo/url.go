package azdo

import (
	"net/url"
	"strings"
)

// collectionURL returns the base URL with the collection segment appended
// when one is configured. On-prem servers live at {base}/{collection};
// users may also bake the collection into the base URL and leave it unset.
// A nested collection such as tfs/DefaultCollection keeps its slashes.
func (c *Client) collectionURL() string {
	base := strings.TrimRight(c.conn.BaseURL, "/")
	if col := strings.Trim(c.conn.Collection, "/"); col != "" {
		return base + "/" + escapePath(col)
	}
	return base
}

// escapePath escapes each slash-separated part on its own.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, url.PathEscape(part))
		}
	}
	return strings.Join(out, "/")
}

// apiURL composes base + collection? + project? + resource path.
func (c *Client) apiURL(resourcePath, project string) string {
	base := c.collectionURL()
	if p := strings.Trim(project, "/"); p != "" {
		base += "/" + url.PathEscape(p)
	}
	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	return base + resourcePath
}

// seg escapes a single path segment such as a repository or wiki name.
func seg(s string) string {
	return url.PathEscape(s)
}
