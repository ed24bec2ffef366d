package azdo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/azdo-mcp/internal/config"
)

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// jsonBody decodes the recorded body into v.
func (r recordedRequest) jsonBody(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), "body: %s", r.Body)
}

// fakeBackend is an httptest server that records every request and
// delegates the response to a handler.
type fakeBackend struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeBackend(t *testing.T, handler func(w http.ResponseWriter, r recordedRequest)) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		}
		fb.mu.Lock()
		fb.requests = append(fb.requests, rec)
		fb.mu.Unlock()
		handler(w, rec)
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) all() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

func (fb *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := fb.all()
	require.NotEmpty(t, reqs, "no request reached the backend")
	return reqs[len(reqs)-1]
}

// testConnection is a token connection with a collection and defaults.
func testConnection(baseURL string) config.Connection {
	return config.Connection{
		BaseURL:           baseURL,
		Collection:        "DefaultCollection",
		DefaultProject:    "Proj",
		DefaultRepository: "repo",
		APIVersion:        "7.0",
		Auth:              config.AuthToken,
		Credentials:       config.Credentials{Token: "secret"},
		VerifyTLS:         true,
		Timeout:           5 * time.Second,
	}
}

func newTestClient(t *testing.T, fb *fakeBackend, mutate ...func(*config.Connection)) *Client {
	t.Helper()
	conn := testConnection(fb.srv.URL)
	for _, m := range mutate {
		m(&conn)
	}
	c, err := NewClient(conn)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// okJSON answers every request with the same document.
func okJSON(v any) func(http.ResponseWriter, recordedRequest) {
	return func(w http.ResponseWriter, _ recordedRequest) {
		writeJSON(w, http.StatusOK, v)
	}
}
