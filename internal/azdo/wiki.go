package azdo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// wikiAPIVersion is the preview version wiki endpoints accept on the widest
// range of server releases.
const wikiAPIVersion = "7.1-preview.1"

func wikiParams() url.Values {
	params := url.Values{}
	params.Set(apiVersionParam, wikiAPIVersion)
	return params
}

func (c *Client) wikiPagesURL(project, wiki string) string {
	return c.apiURL("/_apis/wiki/wikis/"+seg(wiki)+"/pages", project)
}

// ListWikis lists wikis of a project, or of the whole collection when no
// project is given or defaulted.
func (c *Client) ListWikis(ctx context.Context, project string) ([]Document, error) {
	if project == "" {
		project = c.conn.DefaultProject
	}
	return c.values(ctx, c.apiURL("/_apis/wiki/wikis", project), wikiParams())
}

// WikiPageQuery selects pages for ListWikiPages.
type WikiPageQuery struct {
	Project string
	Wiki    string
	// Path scopes the listing; empty means the wiki root.
	Path string
	// RecursionLevel is none|oneLevel|full; empty leaves the server default.
	RecursionLevel string
	IncludeContent bool
}

// ListWikiPages returns the raw page tree response.
func (c *Client) ListWikiPages(ctx context.Context, q WikiPageQuery) (Document, error) {
	proj, err := c.resolveProject(q.Project)
	if err != nil {
		return nil, err
	}
	params := wikiParams()
	if q.Path != "" {
		params.Set("path", q.Path)
	}
	if q.RecursionLevel != "" {
		params.Set("recursionLevel", q.RecursionLevel)
	}
	if q.IncludeContent {
		params.Set("includeContent", "true")
	}
	return c.getJSON(ctx, c.wikiPagesURL(proj, q.Wiki), params)
}

// GetWikiPage reads one page by path.
func (c *Client) GetWikiPage(ctx context.Context, project, wiki, path string, includeContent bool) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	params := wikiParams()
	params.Set("path", path)
	if includeContent {
		params.Set("includeContent", "true")
	}
	return c.getJSON(ctx, c.wikiPagesURL(proj, wiki), params)
}

// WikiPageWrite is the content of a page write.
type WikiPageWrite struct {
	Project string
	Wiki    string
	Path    string
	Content string
	Comment string
}

func (w WikiPageWrite) body() map[string]any {
	body := map[string]any{"content": w.Content}
	if w.Comment != "" {
		body["comment"] = w.Comment
	}
	return body
}

// UpsertWikiPage creates the page or replaces its content unconditionally.
func (c *Client) UpsertWikiPage(ctx context.Context, w WikiPageWrite) (Document, error) {
	proj, err := c.resolveProject(w.Project)
	if err != nil {
		return nil, err
	}
	params := wikiParams()
	params.Set("path", w.Path)
	return c.putJSON(ctx, c.wikiPagesURL(proj, w.Wiki), params, w.body(), nil)
}

// UpdateWikiPage replaces the content of an existing page under optimistic
// concurrency. When version is empty the current token is read first, from
// the ETag header, then the body's eTag, then its version field. The PUT
// carries the token as If-Match, so an edit made since the read is rejected
// by the backend. It never falls back to an unconditional write.
func (c *Client) UpdateWikiPage(ctx context.Context, w WikiPageWrite, version string) (Document, error) {
	proj, err := c.resolveProject(w.Project)
	if err != nil {
		return nil, err
	}

	if version == "" {
		version, err = c.wikiPageVersion(ctx, proj, w.Wiki, w.Path)
		if err != nil {
			return nil, err
		}
	}

	params := wikiParams()
	params.Set("path", w.Path)
	header := http.Header{}
	header.Set("If-Match", version)
	return c.putJSON(ctx, c.wikiPagesURL(proj, w.Wiki), params, w.body(), header)
}

func (c *Client) wikiPageVersion(ctx context.Context, project, wiki, path string) (string, error) {
	params := wikiParams()
	params.Set("path", path)
	resp, err := c.do(ctx, request{method: http.MethodGet, url: c.wikiPagesURL(project, wiki), params: params})
	if err != nil {
		return "", err
	}

	if tag := strings.TrimSpace(resp.header.Get("ETag")); tag != "" {
		return tag, nil
	}
	page, err := decodeDocument(resp.body)
	if err != nil {
		return "", &ConcurrencyResolutionError{Wiki: wiki, Path: path}
	}
	if tag := stringField(page, "eTag"); tag != "" {
		return tag, nil
	}
	if v, ok := page["version"]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s, nil
		}
	}
	return "", &ConcurrencyResolutionError{Wiki: wiki, Path: path}
}

// DeleteWikiPage removes a page. comment, if set, is recorded on the commit.
func (c *Client) DeleteWikiPage(ctx context.Context, project, wiki, path, comment string) (Document, error) {
	proj, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	params := wikiParams()
	params.Set("path", path)
	if comment != "" {
		params.Set("comment", comment)
	}
	return c.deleteJSON(ctx, c.wikiPagesURL(proj, wiki), params)
}
