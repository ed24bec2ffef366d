package azdo

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/azdo-mcp/internal/config"
)

func TestUpdateWikiPage_ReadsETagThenConditionalPut(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r recordedRequest) {
		if r.Method == http.MethodGet {
			w.Header().Set("ETag", `"etag-1"`)
			writeJSON(w, http.StatusOK, map[string]any{"path": "/Home", "eTag": "body-tag"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"path": "/Home"})
	})
	c := newTestClient(t, fb)

	_, err := c.UpdateWikiPage(context.Background(), WikiPageWrite{
		Wiki: "Proj.wiki", Path: "/Home", Content: "# Hi", Comment: "edit",
	}, "")
	require.NoError(t, err)

	reqs := fb.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, `"etag-1"`, reqs[1].Header.Get("If-Match"))
	assert.Equal(t, "/Home", reqs[1].Query.Get("path"))
	assert.Equal(t, "7.1-preview.1", reqs[1].Query.Get("api-version"))
	assert.Equal(t, "/DefaultCollection/Proj/_apis/wiki/wikis/Proj.wiki/pages", reqs[1].Path)

	var body map[string]any
	reqs[1].jsonBody(t, &body)
	assert.Equal(t, map[string]any{"content": "# Hi", "comment": "edit"}, body)
}

func TestUpdateWikiPage_FallsBackToBodyTokens(t *testing.T) {
	tests := []struct {
		name string
		page map[string]any
		want string
	}{
		{"body eTag", map[string]any{"eTag": "W/abc"}, "W/abc"},
		{"numeric version", map[string]any{"version": 7}, "7"},
		{"eTag preferred over version", map[string]any{"eTag": "e", "version": "v"}, "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, func(w http.ResponseWriter, r recordedRequest) {
				if r.Method == http.MethodGet {
					writeJSON(w, http.StatusOK, tt.page)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{})
			})
			c := newTestClient(t, fb)

			_, err := c.UpdateWikiPage(context.Background(), WikiPageWrite{Wiki: "w", Path: "/p", Content: "x"}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, fb.last(t).Header.Get("If-Match"))
		})
	}
}

func TestUpdateWikiPage_ExplicitVersionSkipsRead(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{}))
	c := newTestClient(t, fb)

	_, err := c.UpdateWikiPage(context.Background(), WikiPageWrite{Wiki: "w", Path: "/p", Content: "x"}, "v9")
	require.NoError(t, err)

	reqs := fb.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "v9", reqs[0].Header.Get("If-Match"))
}

func TestUpdateWikiPage_NoTokenNoPut(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"path": "/p", "content": "old"}))
	c := newTestClient(t, fb)

	_, err := c.UpdateWikiPage(context.Background(), WikiPageWrite{Wiki: "w", Path: "/p", Content: "x"}, "")
	var concErr *ConcurrencyResolutionError
	require.ErrorAs(t, err, &concErr)
	assert.Equal(t, "/p", concErr.Path)
	assert.Equal(t, "w", concErr.Wiki)

	reqs := fb.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
}

func TestUpdateWikiPage_ReadFailureNoPut(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, _ recordedRequest) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "page not found"})
	})
	c := newTestClient(t, fb)

	_, err := c.UpdateWikiPage(context.Background(), WikiPageWrite{Wiki: "w", Path: "/missing", Content: "x"}, "")
	var reqErr *BackendRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Len(t, fb.all(), 1)
}

func TestUpsertWikiPage_Unconditional(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{}))
	c := newTestClient(t, fb)

	_, err := c.UpsertWikiPage(context.Background(), WikiPageWrite{Wiki: "w", Path: "/New", Content: "x"})
	require.NoError(t, err)

	req := fb.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Empty(t, req.Header.Get("If-Match"))
	var body map[string]any
	req.jsonBody(t, &body)
	assert.Equal(t, map[string]any{"content": "x"}, body)
}

func TestListWikiPages_Params(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"path": "/"}))
	c := newTestClient(t, fb)

	_, err := c.ListWikiPages(context.Background(), WikiPageQuery{
		Wiki: "w", Path: "/Docs", RecursionLevel: "full", IncludeContent: true,
	})
	require.NoError(t, err)

	q := fb.last(t).Query
	assert.Equal(t, "/Docs", q.Get("path"))
	assert.Equal(t, "full", q.Get("recursionLevel"))
	assert.Equal(t, "true", q.Get("includeContent"))
}

func TestDeleteWikiPage_Comment(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, _ recordedRequest) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, fb)

	doc, err := c.DeleteWikiPage(context.Background(), "", "w", "/Old", "cleanup")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doc["status"])

	req := fb.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "cleanup", req.Query.Get("comment"))
}

func TestListWikis_CollectionLevel(t *testing.T) {
	fb := newFakeBackend(t, okJSON(map[string]any{"value": []any{}}))
	c := newTestClient(t, fb, func(conn *config.Connection) { conn.DefaultProject = "" })

	_, err := c.ListWikis(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/DefaultCollection/_apis/wiki/wikis", fb.last(t).Path)
}
