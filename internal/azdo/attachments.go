package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// relAttachedFile marks a work item relation that points at an attachment.
const relAttachedFile = "AttachedFile"

// Attachment is a file attached to a work item.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ExtractAttachments lists the attachments referenced by a work item
// document's relations. The document must have been read with relations
// expanded.
func ExtractAttachments(doc Document) []Attachment {
	out := []Attachment{}
	for _, rel := range listOf(doc, "relations") {
		if stringField(rel, "rel") != relAttachedFile {
			continue
		}
		u := stringField(rel, "url")
		if u == "" {
			continue
		}
		out = append(out, Attachment{
			Name: stringField(rel, "attributes", "name"),
			URL:  u,
		})
	}
	return out
}

// DownloadAttachment fetches the raw bytes at an attachment URL. Only URLs
// on the configured server are accepted, since the request carries the
// connection's credentials.
func (c *Client) DownloadAttachment(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing attachment url: %w", err)
	}
	base, err := url.Parse(c.conn.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if !strings.EqualFold(target.Host, base.Host) {
		return nil, fmt.Errorf("attachment url host %q does not match %q", target.Host, base.Host)
	}
	return c.getRaw(ctx, rawURL, nil)
}
