// Package azdo is a client for the Azure DevOps Server / Services REST API.
//
// A Client is built from one config.Connection and holds no entity state:
// every operation is a fresh request/response round trip. Domain operations
// (work items, pull requests, wikis, test plans, attachments) compose URLs
// with apiURL and go through a single dispatcher, so authentication, the
// api-version parameter and error normalization are applied uniformly.
package azdo

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/HendryAvila/azdo-mcp/internal/config"
)

const (
	apiVersionParam = "api-version"

	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"
)

// Client talks to one Azure DevOps deployment.
type Client struct {
	conn       config.Connection
	auth       AuthStrategy
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

type clientOptions struct {
	transport      http.RoundTripper
	userAgent      string
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

// Option customises client construction.
type Option func(*clientOptions)

// WithTransport replaces the base round tripper. Auth and tracing are
// still layered on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(agent string) Option {
	return func(o *clientOptions) {
		if agent != "" {
			o.userAgent = agent
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracerProvider sets the provider that records one client span per
// request. Without it the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *clientOptions) { o.tracerProvider = tp }
}

// NewClient validates conn and builds a client with the auth strategy it
// selects.
func NewClient(conn config.Connection, opts ...Option) (*Client, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	o := clientOptions{
		userAgent: "azdo-mcp/dev",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	auth, err := newAuthStrategy(conn)
	if err != nil {
		return nil, err
	}

	base := o.transport
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if !conn.VerifyTLS {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via AZDO_VERIFY_SSL=false
		}
		base = t
	}

	var otelOpts []otelhttp.Option
	if o.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(o.tracerProvider))
	}

	timeout := conn.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	return &Client{
		conn: conn,
		auth: auth,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(auth.Transport(base), otelOpts...),
		},
		userAgent: o.userAgent,
		logger:    o.logger,
	}, nil
}

// Connection returns the connection the client was built from.
func (c *Client) Connection() config.Connection {
	return c.conn
}

// --- Scoping ---

// Scope names the project and repository an operation targets. Empty
// fields fall back to the connection defaults.
type Scope struct {
	Project    string
	Repository string
}

// resolveProject returns the explicit project or the configured default.
func (c *Client) resolveProject(project string) (string, error) {
	if project != "" {
		return project, nil
	}
	if c.conn.DefaultProject != "" {
		return c.conn.DefaultProject, nil
	}
	return "", &ScopingError{Missing: "project"}
}

// resolveRepo resolves both project and repository before any I/O.
func (c *Client) resolveRepo(s Scope) (project, repo string, err error) {
	project, err = c.resolveProject(s.Project)
	if err != nil {
		return "", "", err
	}
	repo = s.Repository
	if repo == "" {
		repo = c.conn.DefaultRepository
	}
	if repo == "" {
		return "", "", &ScopingError{Missing: "repository"}
	}
	return project, repo, nil
}

// --- Dispatcher ---

type request struct {
	method      string
	url         string
	params      url.Values
	body        any
	contentType string
	accept      string
	header      http.Header
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends one request. The api-version parameter is always present: the
// caller's value wins, otherwise the connection default is used. Any non-2xx
// status becomes a *BackendRequestError.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return nil, fmt.Errorf("parsing url %s: %w", r.url, err)
	}
	q := u.Query()
	for k, vs := range r.params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if q.Get(apiVersionParam) == "" {
		q.Set(apiVersionParam, c.conn.APIVersion)
	}
	u.RawQuery = q.Encode()
	target := u.String()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	accept := r.accept
	if accept == "" {
		accept = contentTypeJSON
	}
	req.Header.Set("Accept", accept)
	if r.body != nil {
		contentType := r.contentType
		if contentType == "" {
			contentType = contentTypeJSON
		}
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, vs := range r.header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	c.auth.Authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("azdo request",
		"method", r.method,
		"url", target,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendRequestError{
			Method:     r.method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// decodeDocument parses a JSON body. Top-level arrays are wrapped as
// {"value": [...], "count": n} so list endpoints look alike.
func decodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return Document{"value": v, "count": len(v)}, nil
	default:
		return Document{"value": v}, nil
	}
}

// decodeInto parses a JSON body into a typed value.
func decodeInto(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *Client) sendJSON(ctx context.Context, r request) (Document, error) {
	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(resp.body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s %s response: %w", r.method, r.url, err)
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, u string, params url.Values) (Document, error) {
	return c.sendJSON(ctx, request{method: http.MethodGet, url: u, params: params})
}

func (c *Client) postJSON(ctx context.Context, u string, params url.Values, body any) (Document, error) {
	return c.sendJSON(ctx, request{method: http.MethodPost, url: u, params: params, body: body})
}

func (c *Client) patchJSON(ctx context.Context, u string, body any, contentType string) (Document, error) {
	return c.sendJSON(ctx, request{method: http.MethodPatch, url: u, body: body, contentType: contentType})
}

func (c *Client) putJSON(ctx context.Context, u string, params url.Values, body any, header http.Header) (Document, error) {
	return c.sendJSON(ctx, request{method: http.MethodPut, url: u, params: params, body: body, header: header})
}

// deleteJSON tolerates empty or non-JSON bodies, which many delete
// endpoints return, by reporting only the status code.
func (c *Client) deleteJSON(ctx context.Context, u string, params url.Values) (Document, error) {
	resp, err := c.do(ctx, request{method: http.MethodDelete, url: u, params: params})
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(resp.body)
	if err != nil {
		return Document{"status": resp.status}, nil
	}
	return doc, nil
}

// getRaw performs a binary GET and returns the body bytes unchanged.
func (c *Client) getRaw(ctx context.Context, u string, params url.Values) ([]byte, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, url: u, params: params, accept: "application/octet-stream"})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// values lists the "value" array of a GET response.
func (c *Client) values(ctx context.Context, u string, params url.Values) ([]Document, error) {
	doc, err := c.getJSON(ctx, u, params)
	if err != nil {
		return nil, err
	}
	return listOf(doc, "value"), nil
}
