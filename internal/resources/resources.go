// Package resources implements MCP resource handlers for the Azure DevOps
// connection.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (azdo://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/azdo-mcp/internal/config"
)

// ConnectionURI addresses the effective connection settings.
const ConnectionURI = "azdo://connection"

// ConnectionLoader returns the connection currently in effect.
type ConnectionLoader func() (config.Connection, error)

// Handler manages azdo resource endpoints.
type Handler struct {
	load ConnectionLoader
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(load ConnectionLoader) *Handler {
	return &Handler{load: load}
}

// ConnectionResource returns the MCP resource definition for the connection.
func (h *Handler) ConnectionResource() mcp.Resource {
	return mcp.NewResource(
		ConnectionURI,
		"Azure DevOps Connection",
		mcp.WithResourceDescription("Effective server, collection, defaults and auth type. Secrets are masked."),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleConnection returns the redacted connection as JSON. A configuration
// problem is reported as the resource text rather than a protocol error, so
// the host can show it to the user.
func (h *Handler) HandleConnection(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	conn, err := h.load()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(conn.Redacted(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling connection: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
